package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "gateway-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthenticatorEnforcesScopes(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "basalt-ops"}, nil)
	handler := auth.Middleware("faucet")(okHandler())
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"scope": "faucet", "iss": "basalt-ops", "exp": exp}), http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"scope": "faucet", "iss": "elsewhere", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"scope": "faucet", "iss": "basalt-ops", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"missing scope", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"scope": "read", "iss": "basalt-ops", "exp": exp}), http.StatusForbidden},
		{"ok", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"scope": "read faucet", "iss": "basalt-ops", "exp": exp}), http.StatusOK},
		{"ok list", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"scope": []string{"faucet"}, "iss": "basalt-ops", "exp": exp}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/faucet", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != tc.want {
				t.Fatalf("got %d, want %d", res.Code, tc.want)
			}
		})
	}
}

func TestAuthenticatorDisabledPassesThrough(t *testing.T) {
	handler := NewAuthenticator(AuthConfig{}, nil).Middleware("faucet")(okHandler())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/faucet", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("got %d", res.Code)
	}
}
