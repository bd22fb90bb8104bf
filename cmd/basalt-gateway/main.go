package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	nodeconfig "basalt/config"
	"basalt/core"
	"basalt/gateway/config"
	"basalt/gateway/middleware"
	"basalt/gateway/routes"
	"basalt/observability"
	"basalt/observability/logging"
	telemetry "basalt/observability/otel"
	"basalt/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./gateway.yaml", "path to gateway configuration")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "basalt-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load gateway config: %w", err)
	}
	configDir := filepath.Dir(cfgPath)

	node, err := nodeconfig.Load(resolvePath(configDir, cfg.Node))
	if err != nil {
		return fmt.Errorf("load node config: %w", err)
	}
	logger := logging.Setup("gateway", node.Environment, node.LoggingOptions())

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: cfg.Observability.ServiceName,
		Environment: node.Environment,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.OTLPInsecure,
		Headers:     mergeHeaders(cfg.Observability.OTLPHeaders, os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Traces:      cfg.Observability.Tracing,
		Metrics:     cfg.Observability.Tracing,
	})
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	rt, closeStore, err := openRuntime(node, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.EnableFaucet && !faucetAllowed(node.Environment) {
		logger.Warn("faucet disabled in production", slog.String("environment", node.Environment))
	}
	handler := buildHandler(cfg, node.Environment, rt, logger)
	tlsConfig, err := buildTLSConfig(configDir, cfg.Security)
	if err != nil {
		return fmt.Errorf("configure TLS: %w", err)
	}
	if tlsConfig == nil && !strings.EqualFold(node.Environment, "dev") && !isLoopbackAddress(cfg.ListenAddress) {
		return errors.New("plaintext gateway mode is restricted to loopback listeners or the dev environment")
	}

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		TLSConfig:    tlsConfig,
	}
	return serve(server, logger)
}

func openRuntime(node *nodeconfig.Config, logger *slog.Logger) (*core.Runtime, func(), error) {
	params, err := node.CDP.Params()
	if err != nil {
		return nil, nil, err
	}
	if warning := node.CDP.MintPolicyWarning(); warning != "" {
		logger.Warn(warning, slog.String("environment", node.Environment))
	}
	paymentMint, err := node.Issuance.PaymentMintAddress()
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(node.Backend, node.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	rt, err := core.NewRuntime(db, core.Config{
		CDPParams:   params,
		Pauses:      node.Global.Pauses.PauseView(),
		PaymentMint: paymentMint,
		Logger:      logger,
		Emitter:     observability.Events(),
		Metrics:     observability.Instructions(),
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return rt, func() { db.Close() }, nil
}

func buildHandler(cfg config.Config, environment string, rt routes.Runtime, logger *slog.Logger) http.Handler {
	var obs *middleware.Observability
	if cfg.Observability.Metrics {
		obs = middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName:   cfg.Observability.ServiceName,
			MetricsPrefix: cfg.Observability.MetricsPrefix,
			LogRequests:   cfg.Observability.LogRequests,
		}, logger, prometheus.DefaultGatherer)
	}

	limits := make(map[string]middleware.RateLimit, len(cfg.RateLimits))
	for _, entry := range cfg.RateLimits {
		limits[entry.ID] = middleware.RateLimit{RatePerSecond: entry.PerSecond(), Burst: entry.Burst}
	}
	if len(limits) == 0 {
		limits[routes.RateLimitInstructions] = middleware.RateLimit{RatePerSecond: 5, Burst: 20}
		limits[routes.RateLimitQueries] = middleware.RateLimit{RatePerSecond: 20, Burst: 100}
	}

	router := routes.New(routes.Config{
		Runtime: rt,
		Logger:  logger,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ScopeClaim: cfg.Auth.ScopeClaim,
			ClockSkew:  cfg.Auth.ClockSkew,
		}, logger),
		RateLimiter:   middleware.NewRateLimiter(limits, logger),
		Observability: obs,
		EnableFaucet:  cfg.EnableFaucet && faucetAllowed(environment),
	})
	if cfg.Observability.Tracing {
		return otelhttp.NewHandler(router, cfg.Observability.ServiceName)
	}
	return router
}

// faucetAllowed matches the CLI: the faucet never runs in production.
func faucetAllowed(environment string) bool {
	return !strings.EqualFold(strings.TrimSpace(environment), "production")
}

func serve(server *http.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() {
		scheme := "http"
		if server.TLSConfig != nil {
			scheme = "https"
			listener = tls.NewListener(listener, server.TLSConfig)
		}
		logger.Info("gateway listening", slog.String("address", scheme+"://"+listener.Addr().String()))
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildTLSConfig(baseDir string, sec config.SecurityConfig) (*tls.Config, error) {
	certPath := resolvePath(baseDir, sec.TLSCertFile)
	keyPath := resolvePath(baseDir, sec.TLSKeyFile)
	if certPath == "" && keyPath == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

func mergeHeaders(configured map[string]string, envRaw string) map[string]string {
	merged := telemetry.ParseHeaders(envRaw)
	for k, v := range configured {
		merged[k] = v
	}
	return merged
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || baseDir == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(baseDir, trimmed)
}

func isLoopbackAddress(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
