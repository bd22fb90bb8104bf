package cdp

import (
	"errors"
	"time"

	"basalt/core/events"
	"basalt/crypto"
	nativecommon "basalt/native/common"
)

const moduleName = "cdp"

// Address derivation seeds.
var (
	seedProtocol = []byte("protocol_config")
	seedCustody  = []byte("collateral_vault")
	seedVault    = []byte("vault")
)

type engineState interface {
	GetProtocol(addr crypto.Address) (*ProtocolConfig, bool, error)
	PutProtocol(cfg *ProtocolConfig) error
	GetVault(addr crypto.Address) (*UserVault, bool, error)
	PutVault(vault *UserVault) error
	VaultCount(owner crypto.Address) (uint64, error)
	SetVaultCount(owner crypto.Address, count uint64) error
}

// TokenLedger moves fungible token balances. Every call names the authority
// that approves it; the ledger rejects calls whose authority does not own the
// source balance or the mint.
type TokenLedger interface {
	BalanceOf(mint, owner crypto.Address) (uint64, error)
	InitMint(mint, authority crypto.Address) error
	Transfer(mint, from, to crypto.Address, amount uint64, authority crypto.Address) error
	MintTo(mint, to crypto.Address, amount uint64, authority crypto.Address) error
	Burn(mint, from crypto.Address, amount uint64, authority crypto.Address) error
}

// Engine runs the vault state transitions for one deployed CDP program.
type Engine struct {
	state   engineState
	ledger  TokenLedger
	program crypto.Address
	params  Params
	pauses  nativecommon.PauseView
	emitter events.Emitter
	clock   func() int64
}

// NewEngine constructs an engine for the program identity with the supplied
// policy parameters.
func NewEngine(program crypto.Address, params Params) *Engine {
	return &Engine{
		program: program,
		params:  params,
		emitter: events.NoopEmitter{},
		clock:   func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetLedger(ledger TokenLedger) {
	if e == nil {
		return
	}
	e.ledger = ledger
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetClock overrides the unix-seconds time source.
func (e *Engine) SetClock(clock func() int64) {
	if e == nil || clock == nil {
		return
	}
	e.clock = clock
}

func (e *Engine) Params() Params {
	if e == nil {
		return Params{}
	}
	return e.params
}

func (e *Engine) Program() crypto.Address {
	if e == nil {
		return crypto.Address{}
	}
	return e.program
}

// ProtocolAddress derives the protocol config address and its bump.
func (e *Engine) ProtocolAddress() (crypto.Address, uint8, error) {
	return crypto.DeriveProgramAddress(e.program, seedProtocol)
}

// VaultAddress derives the vault address for owner within protocol.
func (e *Engine) VaultAddress(owner, protocol crypto.Address) (crypto.Address, uint8, error) {
	return crypto.DeriveProgramAddress(e.program, seedVault, owner.Bytes(), protocol.Bytes())
}

// CustodyAddress derives the account holding deposited collateral.
func (e *Engine) CustodyAddress(protocol crypto.Address) (crypto.Address, error) {
	addr, _, err := crypto.DeriveProgramAddress(e.program, seedCustody, protocol.Bytes())
	return addr, err
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

// InitializeProtocol creates the protocol config and registers the protocol
// as the debt token's mint authority.
func (e *Engine) InitializeProtocol(owner crypto.Signer, collateralMint, debtMint crypto.Address, collateralRatio, interestRate, liquidationThreshold uint64) (*ProtocolConfig, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !owner.Valid() {
		return nil, ErrUnauthorized
	}
	if collateralMint.Equal(debtMint) {
		return nil, ErrInvalidMintConfiguration
	}
	if collateralRatio == 0 || liquidationThreshold == 0 || liquidationThreshold >= collateralRatio {
		return nil, ErrInvalidParameters
	}
	addr, bump, err := e.ProtocolAddress()
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.GetProtocol(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrProtocolAlreadyInitialized
	}
	custody, err := e.CustodyAddress(addr)
	if err != nil {
		return nil, err
	}
	cfg := &ProtocolConfig{
		Address:              addr,
		Owner:                owner.Address(),
		CollateralMint:       collateralMint,
		DebtMint:             debtMint,
		Custody:              custody,
		CollateralRatio:      collateralRatio,
		InterestRate:         interestRate,
		LiquidationThreshold: liquidationThreshold,
		LastInterestUpdate:   e.clock(),
		Bump:                 bump,
	}
	if err := e.state.PutProtocol(cfg); err != nil {
		return nil, err
	}
	if err := e.ledger.InitMint(debtMint, addr); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ProtocolInitialized{
		Protocol:             addr,
		Owner:                cfg.Owner,
		CollateralMint:       collateralMint,
		DebtMint:             debtMint,
		CollateralRatio:      collateralRatio,
		LiquidationThreshold: liquidationThreshold,
		InterestRate:         interestRate,
	})
	return cfg.Clone(), nil
}

// AccrueInterest applies pending interest to owner's vault. Any caller may
// trigger accrual; a second call at the same clock value is a no-op.
func (e *Engine) AccrueInterest(owner crypto.Address) (*UserVault, uint64, error) {
	if err := e.ready(); err != nil {
		return nil, 0, err
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return nil, 0, err
	}
	vault, err := e.loadVault(owner, cfg)
	if err != nil {
		return nil, 0, err
	}
	updated, interest, err := e.accrue(cfg, vault)
	if err != nil {
		return nil, 0, err
	}
	return updated.Clone(), interest, nil
}

// Mint deposits collateral from owner into custody and mints amount of debt
// tokens to owner. The vault is created on first use.
func (e *Engine) Mint(owner crypto.Signer, deposit, amount uint64) (*UserVault, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !owner.Valid() {
		return nil, ErrUnauthorized
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return nil, err
	}
	if amount < e.params.MinAmount {
		return nil, ErrBelowMinimum
	}

	ownerAddr := owner.Address()
	vaultAddr, bump, err := e.VaultAddress(ownerAddr, cfg.Address)
	if err != nil {
		return nil, err
	}
	vault, found, err := e.state.GetVault(vaultAddr)
	if err != nil {
		return nil, err
	}
	opened := !found
	var count uint64
	if opened {
		count, err = e.state.VaultCount(ownerAddr)
		if err != nil {
			return nil, err
		}
		if count >= e.params.MaxVaultsPerUser {
			return nil, ErrMaxVaultsExceeded
		}
		vault = &UserVault{
			Address:            vaultAddr,
			Owner:              ownerAddr,
			Protocol:           cfg.Address,
			LastInterestUpdate: e.clock(),
			Bump:               bump,
		}
	} else if e.params.AccrueOnMutation {
		if vault, _, err = e.accrue(cfg, vault); err != nil {
			return nil, err
		}
	}

	available, err := e.ledger.BalanceOf(cfg.CollateralMint, ownerAddr)
	if err != nil {
		return nil, err
	}
	next, err := PlanMint(*cfg, *vault, e.params, available, deposit, amount)
	if err != nil {
		return nil, err
	}

	if err := e.state.PutVault(&next); err != nil {
		return nil, err
	}
	if opened {
		if err := e.state.SetVaultCount(ownerAddr, count+1); err != nil {
			return nil, err
		}
	}
	if deposit > 0 {
		if err := e.ledger.Transfer(cfg.CollateralMint, ownerAddr, cfg.Custody, deposit, ownerAddr); err != nil {
			return nil, err
		}
	}
	if err := e.ledger.MintTo(cfg.DebtMint, ownerAddr, amount, cfg.Address); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VaultMinted{
		Vault:      next.Address,
		Owner:      ownerAddr,
		Deposit:    deposit,
		Minted:     amount,
		Collateral: next.CollateralAmount,
		Debt:       next.DebtAmount,
		Opened:     opened,
	})
	return next.Clone(), nil
}

// Redeem burns amount of the owner's debt tokens and releases collateral
// 1:1 from custody.
func (e *Engine) Redeem(owner crypto.Signer, amount uint64) (*UserVault, uint64, error) {
	if err := e.ready(); err != nil {
		return nil, 0, err
	}
	if !owner.Valid() {
		return nil, 0, ErrUnauthorized
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return nil, 0, err
	}
	ownerAddr := owner.Address()
	vault, err := e.loadVault(ownerAddr, cfg)
	if err != nil {
		return nil, 0, err
	}
	if e.params.AccrueOnMutation {
		if vault, _, err = e.accrue(cfg, vault); err != nil {
			return nil, 0, err
		}
	}
	available, err := e.ledger.BalanceOf(cfg.DebtMint, ownerAddr)
	if err != nil {
		return nil, 0, err
	}
	next, released, err := PlanRedeem(*vault, e.params, available, amount)
	if err != nil {
		return nil, 0, err
	}

	if err := e.state.PutVault(&next); err != nil {
		return nil, 0, err
	}
	if err := e.ledger.Burn(cfg.DebtMint, ownerAddr, amount, ownerAddr); err != nil {
		return nil, 0, err
	}
	if released > 0 {
		if err := e.ledger.Transfer(cfg.CollateralMint, cfg.Custody, ownerAddr, released, cfg.Custody); err != nil {
			return nil, 0, err
		}
	}
	e.emitter.Emit(events.VaultRedeemed{
		Vault:      next.Address,
		Owner:      ownerAddr,
		Repaid:     amount,
		Released:   released,
		Collateral: next.CollateralAmount,
		Debt:       next.DebtAmount,
	})
	return next.Clone(), released, nil
}

// Liquidate repays amount of an undercollateralized vault's debt with the
// liquidator's tokens and transfers the seized collateral, including the
// bonus, to the liquidator.
func (e *Engine) Liquidate(liquidator crypto.Signer, owner crypto.Address, amount uint64) (*UserVault, uint64, error) {
	if err := e.ready(); err != nil {
		return nil, 0, err
	}
	if !liquidator.Valid() {
		return nil, 0, ErrUnauthorized
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return nil, 0, err
	}
	vault, err := e.loadVault(owner, cfg)
	if err != nil {
		return nil, 0, err
	}
	if e.params.AccrueOnMutation {
		if vault, _, err = e.accrue(cfg, vault); err != nil {
			return nil, 0, err
		}
	}
	liquidatorAddr := liquidator.Address()
	available, err := e.ledger.BalanceOf(cfg.DebtMint, liquidatorAddr)
	if err != nil {
		return nil, 0, err
	}
	next, seized, err := PlanLiquidation(*cfg, *vault, e.params, liquidatorAddr, available, amount)
	if err != nil {
		return nil, 0, err
	}

	if err := e.state.PutVault(&next); err != nil {
		return nil, 0, err
	}
	if seized > 0 {
		if err := e.ledger.Transfer(cfg.CollateralMint, cfg.Custody, liquidatorAddr, seized, cfg.Custody); err != nil {
			return nil, 0, err
		}
	}
	if err := e.ledger.Burn(cfg.DebtMint, liquidatorAddr, amount, liquidatorAddr); err != nil {
		return nil, 0, err
	}
	e.emitter.Emit(events.VaultLiquidated{
		Vault:      next.Address,
		Owner:      next.Owner,
		Liquidator: liquidatorAddr,
		Repaid:     amount,
		Seized:     seized,
		Collateral: next.CollateralAmount,
		Debt:       next.DebtAmount,
	})
	return next.Clone(), seized, nil
}

// Protocol returns the stored protocol config.
func (e *Engine) Protocol() (*ProtocolConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Vault returns owner's vault as stored, without pending interest.
func (e *Engine) Vault(owner crypto.Address) (*UserVault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return nil, err
	}
	vault, err := e.loadVault(owner, cfg)
	if err != nil {
		return nil, err
	}
	return vault.Clone(), nil
}

// CollateralRatio reports the stored vault's scaled collateralization.
func (e *Engine) CollateralRatio(owner crypto.Address) (uint64, error) {
	vault, err := e.Vault(owner)
	if err != nil {
		return 0, err
	}
	return vault.Ratio(), nil
}

// MaxMintable reports how much more debt owner could mint after depositing
// extraDeposit. Owners without a vault are evaluated against an empty one.
func (e *Engine) MaxMintable(owner crypto.Address, extraDeposit uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	cfg, err := e.loadProtocol()
	if err != nil {
		return 0, err
	}
	vault, err := e.loadVault(owner, cfg)
	if errors.Is(err, ErrVaultNotFound) {
		vault, err = &UserVault{}, nil
	}
	if err != nil {
		return 0, err
	}
	total := vault.CollateralAmount + extraDeposit
	if total < vault.CollateralAmount {
		return 0, ErrArithmeticOverflow
	}
	limit := MaxMintable(e.params.MintPolicy, total, cfg.CollateralRatio)
	if limit <= vault.DebtAmount {
		return 0, nil
	}
	return limit - vault.DebtAmount, nil
}

// IsLiquidatable reports whether owner's stored vault holds collateral and sits below the
// liquidation threshold.
func (e *Engine) IsLiquidatable(owner crypto.Address) (bool, error) {
	cfg, err := e.Protocol()
	if err != nil {
		return false, err
	}
	vault, err := e.Vault(owner)
	if err != nil {
		return false, err
	}
	return vault.DebtAmount > 0 && vault.CollateralAmount > 0 && vault.Ratio() < cfg.LiquidationThreshold, nil
}

func (e *Engine) loadProtocol() (*ProtocolConfig, error) {
	addr, _, err := e.ProtocolAddress()
	if err != nil {
		return nil, err
	}
	cfg, ok, err := e.state.GetProtocol(addr)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, ErrProtocolNotInitialized
	}
	return cfg, nil
}

func (e *Engine) loadVault(owner crypto.Address, cfg *ProtocolConfig) (*UserVault, error) {
	addr, _, err := e.VaultAddress(owner, cfg.Address)
	if err != nil {
		return nil, err
	}
	vault, ok, err := e.state.GetVault(addr)
	if err != nil {
		return nil, err
	}
	if !ok || vault == nil {
		return nil, ErrVaultNotFound
	}
	return vault, nil
}

// accrue applies and persists pending interest, emitting an event when the
// vault's timestamp moves.
func (e *Engine) accrue(cfg *ProtocolConfig, vault *UserVault) (*UserVault, uint64, error) {
	now := e.clock()
	next, interest, err := AccrueVault(*vault, cfg.InterestRate, now)
	if err != nil {
		return nil, 0, err
	}
	if next.LastInterestUpdate == vault.LastInterestUpdate {
		return vault, 0, nil
	}
	if err := e.state.PutVault(&next); err != nil {
		return nil, 0, err
	}
	e.emitter.Emit(events.InterestAccrued{
		Vault:     next.Address,
		Owner:     next.Owner,
		Interest:  interest,
		Debt:      next.DebtAmount,
		Timestamp: now,
	})
	return &next, interest, nil
}
