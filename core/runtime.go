package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"basalt/core/events"
	"basalt/core/state"
	"basalt/core/types"
	"basalt/crypto"
	"basalt/native/cdp"
	nativecommon "basalt/native/common"
	"basalt/native/issuance"
	"basalt/observability"
	"basalt/observability/logging"
	"basalt/storage"
)

var (
	ErrUnknownProgram = errors.New("runtime: unknown program")
	ErrUnknownOp      = errors.New("runtime: unknown operation")
	ErrNonceMismatch  = errors.New("runtime: nonce mismatch")
	ErrInvalidArgs    = errors.New("runtime: invalid instruction arguments")
)

// Program identities. Every derived address is rooted in one of these.
var (
	CDPProgram      = crypto.ProgramID(types.ProgramCDP)
	IssuanceProgram = crypto.ProgramID(types.ProgramIssuance)
	// FaucetAuthority is the mint authority of tokens created by Faucet.
	FaucetAuthority = crypto.ProgramID("faucet")
)

// Config wires the runtime's collaborators. Zero values select defaults.
type Config struct {
	CDPParams   cdp.Params
	Pauses      nativecommon.PauseView
	PaymentMint crypto.Address
	Clock       func() int64
	Logger      *slog.Logger
	// Emitter receives committed events after each successful instruction.
	Emitter events.Emitter
	Metrics *observability.InstructionMetrics
}

// Receipt describes a committed instruction.
type Receipt struct {
	ID      string         `json:"id"`
	Program string         `json:"program"`
	Op      string         `json:"op"`
	Signer  string         `json:"signer"`
	Nonce   uint64         `json:"nonce"`
	Result  interface{}    `json:"result,omitempty"`
	Events  []*types.Event `json:"events"`
}

// Runtime executes signed instructions against the native programs. Each
// instruction runs inside its own state journal: it either commits every
// record and token movement it made, or none of them.
type Runtime struct {
	mu  sync.Mutex
	db  storage.Database
	cfg Config
}

func NewRuntime(db storage.Database, cfg Config) (*Runtime, error) {
	if db == nil {
		return nil, errors.New("runtime: database required")
	}
	if cfg.CDPParams == (cdp.Params{}) {
		cfg.CDPParams = cdp.DefaultParams()
	}
	if err := cfg.CDPParams.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = func() int64 { return time.Now().Unix() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = events.NoopEmitter{}
	}
	return &Runtime{db: db, cfg: cfg}, nil
}

// Execute verifies the instruction signature, checks the signer's nonce and
// runs the operation. Failed instructions leave no trace in state.
func (r *Runtime) Execute(ins *types.Instruction) (*Receipt, error) {
	if ins == nil {
		return nil, ErrInvalidArgs
	}
	start := time.Now()
	signer, err := ins.Signer()
	if err != nil {
		r.finish(ins, crypto.Signer{}, err, start)
		return nil, fmt.Errorf("runtime: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	manager := state.NewManager(r.db)
	buffer := &events.Buffer{}
	result, err := r.apply(manager, buffer, signer, ins)
	if err == nil {
		err = manager.Commit()
	}
	if err != nil {
		manager.Discard()
		buffer.Reset()
		r.finish(ins, signer, err, start)
		return nil, fmt.Errorf("%s.%s: %w", ins.Program, ins.Op, err)
	}

	receipt := &Receipt{
		ID:      uuid.NewString(),
		Program: ins.Program,
		Op:      ins.Op,
		Signer:  signer.String(),
		Nonce:   ins.Nonce,
		Result:  result,
		Events:  buffer.Flush(r.cfg.Emitter),
	}
	r.finish(ins, signer, nil, start, slog.String("receipt", receipt.ID))
	return receipt, nil
}

func (r *Runtime) finish(ins *types.Instruction, signer crypto.Signer, err error, start time.Time, extra ...any) {
	category := ""
	if err != nil {
		category = nativecommon.CategoryOf(err).String()
	}
	program, op := types.Labels(ins.Program, ins.Op)
	r.cfg.Metrics.Observe(program, op, category, time.Since(start))

	args := []any{
		logging.MaskField("program", program),
		logging.MaskField("op", op),
		logging.MaskField("signer", signer.String()),
		slog.Uint64("nonce", ins.Nonce),
	}
	args = append(args, extra...)
	if err != nil {
		args = append(args, slog.String("category", category), slog.Any("error", err))
		r.cfg.Logger.Warn("instruction rejected", args...)
		return
	}
	r.cfg.Logger.Info("instruction executed", args...)
}

func (r *Runtime) cdpEngine(m *state.Manager, emitter events.Emitter) *cdp.Engine {
	engine := cdp.NewEngine(CDPProgram, r.cfg.CDPParams)
	engine.SetState(m)
	engine.SetLedger(m)
	engine.SetEmitter(emitter)
	engine.SetClock(r.cfg.Clock)
	engine.SetPauses(r.cfg.Pauses)
	return engine
}

func (r *Runtime) issuanceEngine(m *state.Manager, emitter events.Emitter) *issuance.Engine {
	engine := issuance.NewEngine(IssuanceProgram)
	engine.SetState(m)
	engine.SetLedger(m)
	engine.SetEmitter(emitter)
	engine.SetClock(r.cfg.Clock)
	engine.SetPauses(r.cfg.Pauses)
	engine.SetPaymentMint(r.cfg.PaymentMint)
	return engine
}

// Faucet credits amount of mint to the recipient, registering the mint under
// FaucetAuthority on first use. It exists for development networks and tests.
func (r *Runtime) Faucet(mint, to crypto.Address, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	manager := state.NewManager(r.db)
	if err := manager.InitMint(mint, FaucetAuthority); err != nil {
		return err
	}
	if err := manager.MintTo(mint, to, amount, FaucetAuthority); err != nil {
		return err
	}
	return manager.Commit()
}

// read runs fn against a throwaway journal; nothing it writes is committed.
func (r *Runtime) read(fn func(m *state.Manager) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	manager := state.NewManager(r.db)
	defer manager.Discard()
	return fn(manager)
}

func (r *Runtime) Protocol() (*cdp.ProtocolConfig, error) {
	var out *cdp.ProtocolConfig
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = r.cdpEngine(m, nil).Protocol()
		return err
	})
	return out, err
}

func (r *Runtime) Vault(owner crypto.Address) (*cdp.UserVault, error) {
	var out *cdp.UserVault
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = r.cdpEngine(m, nil).Vault(owner)
		return err
	})
	return out, err
}

// VaultView is a vault together with its derived health figures.
type VaultView struct {
	Vault          *cdp.UserVault `json:"vault"`
	Ratio          string         `json:"ratio"`
	MaxMintable    uint64         `json:"maxMintable"`
	Liquidatable   bool           `json:"liquidatable"`
	PendingAccrual uint64         `json:"pendingAccrual"`
}

func (r *Runtime) VaultHealth(owner crypto.Address) (*VaultView, error) {
	var out *VaultView
	err := r.read(func(m *state.Manager) error {
		engine := r.cdpEngine(m, nil)
		cfg, err := engine.Protocol()
		if err != nil {
			return err
		}
		vault, err := engine.Vault(owner)
		if err != nil {
			return err
		}
		mintable, err := engine.MaxMintable(owner, 0)
		if err != nil {
			return err
		}
		liquidatable, err := engine.IsLiquidatable(owner)
		if err != nil {
			return err
		}
		_, pending, err := cdp.AccrueVault(*vault, cfg.InterestRate, r.cfg.Clock())
		if err != nil {
			return err
		}
		out = &VaultView{
			Vault:          vault,
			Ratio:          formatRatio(vault.Ratio()),
			MaxMintable:    mintable,
			Liquidatable:   liquidatable,
			PendingAccrual: pending,
		}
		return nil
	})
	return out, err
}

func (r *Runtime) IssuanceConfig() (*issuance.MintingConfig, error) {
	var out *issuance.MintingConfig
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = r.issuanceEngine(m, nil).Config()
		return err
	})
	return out, err
}

func (r *Runtime) Minter(user crypto.Address) (*issuance.MinterRecord, error) {
	var out *issuance.MinterRecord
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = r.issuanceEngine(m, nil).Minter(user)
		return err
	})
	return out, err
}

func (r *Runtime) Metadata(mint crypto.Address) (*issuance.TokenMetadata, error) {
	var out *issuance.TokenMetadata
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = r.issuanceEngine(m, nil).Metadata(mint)
		return err
	})
	return out, err
}

func (r *Runtime) Balance(mint, owner crypto.Address) (uint64, error) {
	var out uint64
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = m.BalanceOf(mint, owner)
		return err
	})
	return out, err
}

// Nonce returns the nonce the next instruction from addr must carry.
func (r *Runtime) Nonce(addr crypto.Address) (uint64, error) {
	var out uint64
	err := r.read(func(m *state.Manager) error {
		var err error
		out, err = m.Nonce(addr)
		return err
	})
	return out, err
}
