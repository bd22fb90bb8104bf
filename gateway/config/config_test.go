package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsRequireTLSDecision(t *testing.T) {
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "allowInsecure") {
		t.Fatalf("expected plaintext defaults to be rejected, got %v", err)
	}
}

func TestLoadParsesGatewayConfig(t *testing.T) {
	path := writeConfig(t, `
listen: 127.0.0.1:9090
readTimeout: 5s
node: /etc/basalt/config.toml
enableFaucet: true
rateLimits:
  - id: instructions
    requestsPerMinute: 120
    burst: 10
  - id: queries
    ratePerSecond: 50
auth:
  enabled: true
  hmacSecret: secret
  issuer: basalt
security:
  allowInsecure: true
observability:
  tracing: true
  otlpEndpoint: collector:4318
  otlpHeaders:
    x-tenant: basalt
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddress != "127.0.0.1:9090" || cfg.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected listener settings: %+v", cfg)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("expected write timeout default to survive, got %s", cfg.WriteTimeout)
	}
	if cfg.Node != "/etc/basalt/config.toml" || !cfg.EnableFaucet {
		t.Fatalf("unexpected node settings: %+v", cfg)
	}
	if got := cfg.RateLimits[0].PerSecond(); got != 2 {
		t.Fatalf("expected 120/min to resolve to 2/s, got %v", got)
	}
	if got := cfg.RateLimits[1].PerSecond(); got != 50 {
		t.Fatalf("expected 50/s, got %v", got)
	}
	if cfg.Auth.ScopeClaim != "scope" || cfg.Auth.ClockSkew != 2*time.Minute {
		t.Fatalf("expected auth defaults, got %+v", cfg.Auth)
	}
	if cfg.Observability.OTLPHeaders["x-tenant"] != "basalt" || cfg.Observability.ServiceName != "basalt-gateway" {
		t.Fatalf("unexpected observability settings: %+v", cfg.Observability)
	}
	if cfg.TLSEnabled() {
		t.Fatalf("tls should be disabled")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown field":      "allowInsecure: true\n",
		"auth without key":   "security:\n  allowInsecure: true\nauth:\n  enabled: true\n",
		"half tls":           "security:\n  tlsCertFile: /tmp/cert.pem\n",
		"empty limit id":     "security:\n  allowInsecure: true\nrateLimits:\n  - ratePerSecond: 1\n",
		"zero rate":          "security:\n  allowInsecure: true\nrateLimits:\n  - id: queries\n",
		"duplicate limit":    "security:\n  allowInsecure: true\nrateLimits:\n  - id: q\n    ratePerSecond: 1\n  - id: q\n    ratePerSecond: 2\n",
		"tracing no backend": "security:\n  allowInsecure: true\nobservability:\n  tracing: true\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestFaucetRequiresAuth(t *testing.T) {
	path := writeConfig(t, "security:\n  allowInsecure: true\nenableFaucet: true\n")
	if _, err := Load(path); !errors.Is(err, ErrFaucetWithoutAuth) {
		t.Fatalf("expected faucet without auth to fail, got %v", err)
	}
}

func TestTLSConfigEnablesHTTPS(t *testing.T) {
	path := writeConfig(t, "security:\n  tlsCertFile: /etc/gateway/cert.pem\n  tlsKeyFile: /etc/gateway/key.pem\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.TLSEnabled() {
		t.Fatalf("expected tls to be enabled")
	}
}
