package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"basalt/core"
	"basalt/core/types"
	"basalt/crypto"
	"basalt/gateway/middleware"
	"basalt/native/cdp"
	"basalt/native/issuance"
)

// Runtime is the slice of core.Runtime the gateway serves.
type Runtime interface {
	Execute(ins *types.Instruction) (*core.Receipt, error)
	Faucet(mint, to crypto.Address, amount uint64) error
	Protocol() (*cdp.ProtocolConfig, error)
	VaultHealth(owner crypto.Address) (*core.VaultView, error)
	IssuanceConfig() (*issuance.MintingConfig, error)
	Minter(user crypto.Address) (*issuance.MinterRecord, error)
	Metadata(mint crypto.Address) (*issuance.TokenMetadata, error)
	Balance(mint, owner crypto.Address) (uint64, error)
	Nonce(addr crypto.Address) (uint64, error)
}

// Rate limit keys understood by New.
const (
	RateLimitInstructions = "instructions"
	RateLimitQueries      = "queries"
)

type Config struct {
	Runtime       Runtime
	Logger        *slog.Logger
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	// EnableFaucet mounts POST /v1/faucet behind the "faucet" scope.
	EnableFaucet bool
}

func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{rt: cfg.Runtime, logger: logger}
	limit := func(key string) func(http.Handler) http.Handler {
		if cfg.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return cfg.RateLimiter.Middleware(key)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Observability != nil {
		r.Handle("/metrics", cfg.Observability.MetricsHandler())
	}

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.Observability != nil {
			v1.Use(cfg.Observability.Middleware)
		}
		v1.With(limit(RateLimitInstructions)).Post("/instructions", h.submitInstruction)

		v1.Group(func(q chi.Router) {
			q.Use(limit(RateLimitQueries))
			q.Get("/cdp/protocol", h.getProtocol)
			q.Get("/cdp/vaults/{owner}", h.getVault)
			q.Get("/issuance/config", h.getIssuanceConfig)
			q.Get("/issuance/minters/{user}", h.getMinter)
			q.Get("/issuance/metadata/{mint}", h.getMetadata)
			q.Get("/accounts/{address}/nonce", h.getNonce)
			q.Get("/balances/{mint}/{owner}", h.getBalance)
		})

		if cfg.EnableFaucet {
			v1.Group(func(f chi.Router) {
				if cfg.Authenticator != nil {
					f.Use(cfg.Authenticator.Middleware("faucet"))
				}
				f.Post("/faucet", h.faucet)
			})
		}
	})
	return r
}
