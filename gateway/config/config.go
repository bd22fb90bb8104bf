package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RateLimitConfig struct {
	ID                string  `yaml:"id"`
	RequestsPerMinute float64 `yaml:"requestsPerMinute"`
	RatePerSecond     float64 `yaml:"ratePerSecond"`
	Burst             int     `yaml:"burst"`
}

// PerSecond resolves the refill rate, preferring the per-second form.
func (r RateLimitConfig) PerSecond() float64 {
	if r.RatePerSecond > 0 {
		return r.RatePerSecond
	}
	return r.RequestsPerMinute / 60
}

type ObservabilityConfig struct {
	ServiceName   string            `yaml:"serviceName"`
	Metrics       bool              `yaml:"metrics"`
	Tracing       bool              `yaml:"tracing"`
	LogRequests   bool              `yaml:"logRequests"`
	MetricsPrefix string            `yaml:"metricsPrefix"`
	OTLPEndpoint  string            `yaml:"otlpEndpoint"`
	OTLPInsecure  bool              `yaml:"otlpInsecure"`
	OTLPHeaders   map[string]string `yaml:"otlpHeaders"`
}

type AuthConfig struct {
	Enabled    bool          `yaml:"enabled"`
	HMACSecret string        `yaml:"hmacSecret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	ScopeClaim string        `yaml:"scopeClaim"`
	ClockSkew  time.Duration `yaml:"clockSkew"`
}

type SecurityConfig struct {
	AllowInsecure bool   `yaml:"allowInsecure"`
	TLSCertFile   string `yaml:"tlsCertFile"`
	TLSKeyFile    string `yaml:"tlsKeyFile"`
}

// Config is the gateway's YAML configuration. Node points at the basalt TOML
// file that describes storage, engine parameters and pauses.
type Config struct {
	ListenAddress string              `yaml:"listen"`
	ReadTimeout   time.Duration       `yaml:"readTimeout"`
	WriteTimeout  time.Duration       `yaml:"writeTimeout"`
	IdleTimeout   time.Duration       `yaml:"idleTimeout"`
	Node          string              `yaml:"node"`
	EnableFaucet  bool                `yaml:"enableFaucet"`
	RateLimits    []RateLimitConfig   `yaml:"rateLimits"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
	Security      SecurityConfig      `yaml:"security"`
}

var ErrFaucetWithoutAuth = errors.New("enableFaucet requires auth.enabled with an hmacSecret")

func Default() Config {
	return Config{
		ListenAddress: ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		Node:          "./config.toml",
		Observability: ObservabilityConfig{
			ServiceName:   "basalt-gateway",
			Metrics:       true,
			LogRequests:   true,
			MetricsPrefix: "gateway",
		},
		Auth: AuthConfig{
			ScopeClaim: "scope",
			ClockSkew:  2 * time.Minute,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if cfg.Auth.ClockSkew <= 0 {
		cfg.Auth.ClockSkew = 2 * time.Minute
	}
	if cfg.Auth.ScopeClaim == "" {
		cfg.Auth.ScopeClaim = "scope"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return fmt.Errorf("listen address must be set")
	}
	if strings.TrimSpace(cfg.Node) == "" {
		return fmt.Errorf("node config path must be set")
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth.hmacSecret is required when auth is enabled")
	}
	if cfg.EnableFaucet && !cfg.Auth.Enabled {
		return ErrFaucetWithoutAuth
	}
	seen := make(map[string]struct{}, len(cfg.RateLimits))
	for i, limit := range cfg.RateLimits {
		id := strings.TrimSpace(limit.ID)
		if id == "" {
			return fmt.Errorf("rateLimits[%d].id cannot be empty", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("rateLimits[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
		if limit.PerSecond() <= 0 {
			return fmt.Errorf("rateLimits[%d]: rate must be positive", i)
		}
		if limit.Burst < 0 {
			return fmt.Errorf("rateLimits[%d]: burst cannot be negative", i)
		}
	}
	cert, key := strings.TrimSpace(cfg.Security.TLSCertFile), strings.TrimSpace(cfg.Security.TLSKeyFile)
	if (cert == "") != (key == "") {
		return fmt.Errorf("security.tlsCertFile and security.tlsKeyFile must be set together")
	}
	if cert == "" && !cfg.Security.AllowInsecure {
		return fmt.Errorf("TLS is not configured; set security.allowInsecure for plaintext listeners")
	}
	if cfg.Observability.Tracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlpEndpoint is required when tracing is enabled")
	}
	return nil
}

// TLSEnabled reports whether the listener should serve HTTPS.
func (cfg Config) TLSEnabled() bool {
	return strings.TrimSpace(cfg.Security.TLSCertFile) != ""
}
