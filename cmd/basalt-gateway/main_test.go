package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"basalt/core"
	"basalt/gateway/config"
	"basalt/storage"
)

func TestBuildHandlerServesQueries(t *testing.T) {
	rt, err := core.NewRuntime(storage.NewMemDB(), core.Config{})
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Observability.Metrics = false

	handler := buildHandler(cfg, "local", rt, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/issuance/config", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code, "metrics route is only mounted when enabled")
}

func TestFaucetNotMountedInProduction(t *testing.T) {
	rt, err := core.NewRuntime(storage.NewMemDB(), core.Config{})
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Observability.Metrics = false
	cfg.EnableFaucet = true
	cfg.Auth.Enabled = true
	cfg.Auth.HMACSecret = "faucet-secret"

	body := `{"mint":"","to":"","amount":1}`
	rec := httptest.NewRecorder()
	buildHandler(cfg, "local", rt, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/faucet", strings.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, env := range []string{"production", " Production "} {
		rec = httptest.NewRecorder()
		buildHandler(cfg, env, rt, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/faucet", strings.NewReader(body)))
		require.Equal(t, http.StatusNotFound, rec.Code, "faucet must not be mounted in %q", env)
	}
	require.False(t, faucetAllowed("production"))
	require.True(t, faucetAllowed("dev"))
}

func TestIsLoopbackAddress(t *testing.T) {
	require.True(t, isLoopbackAddress("127.0.0.1:8080"))
	require.True(t, isLoopbackAddress("localhost:8080"))
	require.True(t, isLoopbackAddress("[::1]:8080"))
	require.False(t, isLoopbackAddress(":8080"))
	require.False(t, isLoopbackAddress("10.0.0.5:8080"))
}

func TestResolvePathAndHeaders(t *testing.T) {
	require.Equal(t, filepath.Join("/etc/basalt", "config.toml"), resolvePath("/etc/basalt", "config.toml"))
	require.Equal(t, "/abs/config.toml", resolvePath("/etc/basalt", "/abs/config.toml"))
	require.Empty(t, resolvePath("/etc/basalt", " "))

	merged := mergeHeaders(map[string]string{"x-tenant": "config"}, "x-tenant=env,auth=token")
	require.Equal(t, map[string]string{"x-tenant": "config", "auth": "token"}, merged)
}

func TestBuildTLSConfigWithoutFiles(t *testing.T) {
	tlsCfg, err := buildTLSConfig(t.TempDir(), config.SecurityConfig{})
	require.NoError(t, err)
	require.Nil(t, tlsCfg)

	_, err = buildTLSConfig(t.TempDir(), config.SecurityConfig{TLSCertFile: "missing.pem", TLSKeyFile: "missing.key"})
	require.Error(t, err)
}
