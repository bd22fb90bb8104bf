package issuance

import (
	"time"

	"basalt/core/events"
	"basalt/crypto"
	nativecommon "basalt/native/common"
	"basalt/native/fixedpoint"
)

const moduleName = "issuance"

var (
	seedConfig   = []byte("minting_config")
	seedMinter   = []byte("minter")
	seedMetadata = []byte("metadata")
)

type engineState interface {
	GetMintingConfig(addr crypto.Address) (*MintingConfig, bool, error)
	PutMintingConfig(cfg *MintingConfig) error
	GetMinterRecord(addr crypto.Address) (*MinterRecord, bool, error)
	PutMinterRecord(record *MinterRecord) error
	GetTokenMetadata(addr crypto.Address) (*TokenMetadata, bool, error)
	PutTokenMetadata(meta *TokenMetadata) error
}

// TokenLedger is the subset of the host token program used for issuance.
type TokenLedger interface {
	BalanceOf(mint, owner crypto.Address) (uint64, error)
	InitMint(mint, authority crypto.Address) error
	MintTo(mint, to crypto.Address, amount uint64, authority crypto.Address) error
}

// Engine enforces supply and price rules for a single issued token.
type Engine struct {
	state       engineState
	ledger      TokenLedger
	program     crypto.Address
	paymentMint crypto.Address
	pauses      nativecommon.PauseView
	emitter     events.Emitter
	clock       func() int64
}

func NewEngine(program crypto.Address) *Engine {
	return &Engine{
		program:     program,
		paymentMint: NativeMint,
		emitter:     events.NoopEmitter{},
		clock:       func() int64 { return time.Now().Unix() },
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

func (e *Engine) SetClock(clock func() int64) {
	if e == nil || clock == nil {
		return
	}
	e.clock = clock
}

// SetPaymentMint selects the token that mint prices are denominated in.
func (e *Engine) SetPaymentMint(mint crypto.Address) {
	if e == nil || len(mint.Bytes()) == 0 {
		return
	}
	e.paymentMint = mint
}

func (e *Engine) PaymentMint() crypto.Address {
	if e == nil {
		return crypto.Address{}
	}
	return e.paymentMint
}

func (e *Engine) ConfigAddress() (crypto.Address, uint8, error) {
	return crypto.DeriveProgramAddress(e.program, seedConfig)
}

func (e *Engine) MinterAddress(user crypto.Address) (crypto.Address, uint8, error) {
	return crypto.DeriveProgramAddress(e.program, seedMinter, user.Bytes())
}

func (e *Engine) MetadataAddress(mint crypto.Address) (crypto.Address, uint8, error) {
	return crypto.DeriveProgramAddress(e.program, seedMetadata, mint.Bytes())
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

// InitializeConfig creates the minting config with minting enabled and
// registers the config as the token's mint authority.
func (e *Engine) InitializeConfig(admin crypto.Signer, tokenMint crypto.Address, maxSupply, mintPrice uint64) (*MintingConfig, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !admin.Valid() {
		return nil, ErrUnauthorized
	}
	addr, bump, err := e.ConfigAddress()
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.GetMintingConfig(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrConfigAlreadyInitialized
	}
	cfg := &MintingConfig{
		Address:   addr,
		Admin:     admin.Address(),
		TokenMint: tokenMint,
		MaxSupply: maxSupply,
		MintPrice: mintPrice,
		IsActive:  true,
		Bump:      bump,
	}
	if err := e.state.PutMintingConfig(cfg); err != nil {
		return nil, err
	}
	if err := e.ledger.InitMint(tokenMint, addr); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.IssuanceInitialized{
		Config:    addr,
		Admin:     cfg.Admin,
		TokenMint: tokenMint,
		MaxSupply: maxSupply,
		MintPrice: mintPrice,
	})
	return cfg.Clone(), nil
}

// MintTokens mints amount of the issued token to user after checking that
// minting is active, the supply cap holds and payer can cover the price.
// The price is checked against payer's balance but not collected.
func (e *Engine) MintTokens(user, payer crypto.Signer, amount uint64) (*MintingConfig, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !user.Valid() || !payer.Valid() {
		return nil, ErrUnauthorized
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, ErrMintingNotActive
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	total, err := fixedpoint.CheckedAdd(cfg.TotalMinted, amount)
	if err != nil || total > cfg.MaxSupply {
		return nil, ErrExceedsMaxSupply
	}
	cost, err := fixedpoint.CheckedMul(amount, cfg.MintPrice)
	if err != nil {
		return nil, ErrArithmeticOverflow
	}
	balance, err := e.ledger.BalanceOf(e.paymentMint, payer.Address())
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, ErrInsufficientFunds
	}

	userAddr := user.Address()
	if err := e.ledger.MintTo(cfg.TokenMint, userAddr, amount, cfg.Address); err != nil {
		return nil, err
	}
	cfg.TotalMinted = total
	if err := e.state.PutMintingConfig(cfg); err != nil {
		return nil, err
	}
	now := e.clock()
	if err := e.recordMinter(userAddr, amount, now); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TokensMinted{
		User:        userAddr,
		Amount:      amount,
		Cost:        cost,
		TotalMinted: total,
		Timestamp:   now,
	})
	return cfg.Clone(), nil
}

// UpdateConfig applies the fields present in patch. Only the stored admin
// may update the config.
func (e *Engine) UpdateConfig(admin crypto.Signer, patch ConfigPatch) (*MintingConfig, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if !admin.Valid() || !admin.Address().Equal(cfg.Admin) {
		return nil, ErrUnauthorized
	}
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	if patch.MaxSupply != nil {
		if *patch.MaxSupply < cfg.TotalMinted {
			return nil, ErrMaxSupplyBelowTotal
		}
		cfg.MaxSupply = *patch.MaxSupply
	}
	if patch.MintPrice != nil {
		cfg.MintPrice = *patch.MintPrice
	}
	if patch.IsActive != nil {
		cfg.IsActive = *patch.IsActive
	}
	if err := e.state.PutMintingConfig(cfg); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.IssuanceConfigUpdated{
		Admin:     cfg.Admin,
		MaxSupply: patch.MaxSupply,
		MintPrice: patch.MintPrice,
		IsActive:  patch.IsActive,
	})
	return cfg.Clone(), nil
}

// SetMetadata records name, symbol and URI for mint. Metadata cannot be
// changed once written.
func (e *Engine) SetMetadata(admin crypto.Signer, mint crypto.Address, name, symbol, uri string) (*TokenMetadata, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if !admin.Valid() || !admin.Address().Equal(cfg.Admin) {
		return nil, ErrUnauthorized
	}
	switch {
	case len(name) > MaxNameLength:
		return nil, ErrNameTooLong
	case len(symbol) > MaxSymbolLength:
		return nil, ErrSymbolTooLong
	case len(uri) > MaxURILength:
		return nil, ErrURITooLong
	}
	addr, bump, err := e.MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.GetTokenMetadata(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrMetadataExists
	}
	meta := &TokenMetadata{Address: addr, Mint: mint, Name: name, Symbol: symbol, URI: uri, Bump: bump}
	if err := e.state.PutTokenMetadata(meta); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.MetadataSet{Metadata: addr, Mint: mint, Name: name, Symbol: symbol, URI: uri})
	return meta.Clone(), nil
}

func (e *Engine) Config() (*MintingConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadConfig()
}

func (e *Engine) Minter(user crypto.Address) (*MinterRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	addr, _, err := e.MinterAddress(user)
	if err != nil {
		return nil, err
	}
	record, ok, err := e.state.GetMinterRecord(addr)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrMinterNotFound
	}
	return record, nil
}

func (e *Engine) Metadata(mint crypto.Address) (*TokenMetadata, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	addr, _, err := e.MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	meta, ok, err := e.state.GetTokenMetadata(addr)
	if err != nil {
		return nil, err
	}
	if !ok || meta == nil {
		return nil, ErrMetadataNotFound
	}
	return meta, nil
}

func (e *Engine) loadConfig() (*MintingConfig, error) {
	addr, _, err := e.ConfigAddress()
	if err != nil {
		return nil, err
	}
	cfg, ok, err := e.state.GetMintingConfig(addr)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, ErrConfigNotInitialized
	}
	return cfg, nil
}

func (e *Engine) recordMinter(user crypto.Address, amount uint64, now int64) error {
	addr, bump, err := e.MinterAddress(user)
	if err != nil {
		return err
	}
	record, ok, err := e.state.GetMinterRecord(addr)
	if err != nil {
		return err
	}
	if !ok || record == nil {
		record = &MinterRecord{Address: addr, User: user, Bump: bump}
	}
	record.TokensMinted = fixedpoint.SaturatingAdd(record.TokensMinted, amount)
	record.LastMintTimestamp = now
	return e.state.PutMinterRecord(record)
}
