package cdp

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"basalt/core/events"
	"basalt/crypto"
)

type mockEngineState struct {
	protocols map[string]*ProtocolConfig
	vaults    map[string]*UserVault
	counts    map[string]uint64
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		protocols: make(map[string]*ProtocolConfig),
		vaults:    make(map[string]*UserVault),
		counts:    make(map[string]uint64),
	}
}

func (m *mockEngineState) key(addr crypto.Address) string { return string(addr.Bytes()) }

func (m *mockEngineState) GetProtocol(addr crypto.Address) (*ProtocolConfig, bool, error) {
	cfg, ok := m.protocols[m.key(addr)]
	return cfg.Clone(), ok, nil
}

func (m *mockEngineState) PutProtocol(cfg *ProtocolConfig) error {
	m.protocols[m.key(cfg.Address)] = cfg.Clone()
	return nil
}

func (m *mockEngineState) GetVault(addr crypto.Address) (*UserVault, bool, error) {
	vault, ok := m.vaults[m.key(addr)]
	return vault.Clone(), ok, nil
}

func (m *mockEngineState) PutVault(vault *UserVault) error {
	m.vaults[m.key(vault.Address)] = vault.Clone()
	return nil
}

func (m *mockEngineState) VaultCount(owner crypto.Address) (uint64, error) {
	return m.counts[m.key(owner)], nil
}

func (m *mockEngineState) SetVaultCount(owner crypto.Address, count uint64) error {
	m.counts[m.key(owner)] = count
	return nil
}

var errMockAuthority = errors.New("mock ledger: bad authority")

type mockLedger struct {
	balances    map[string]uint64
	authorities map[string]crypto.Address
	ops         []string
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[string]uint64), authorities: make(map[string]crypto.Address)}
}

func (l *mockLedger) key(mint, owner crypto.Address) string {
	return string(mint.Bytes()) + "|" + string(owner.Bytes())
}

func (l *mockLedger) credit(mint, owner crypto.Address, amount uint64) {
	l.balances[l.key(mint, owner)] += amount
}

func (l *mockLedger) balance(mint, owner crypto.Address) uint64 {
	return l.balances[l.key(mint, owner)]
}

func (l *mockLedger) BalanceOf(mint, owner crypto.Address) (uint64, error) {
	return l.balance(mint, owner), nil
}

func (l *mockLedger) InitMint(mint, authority crypto.Address) error {
	if existing, ok := l.authorities[string(mint.Bytes())]; ok && !existing.Equal(authority) {
		return errMockAuthority
	}
	l.authorities[string(mint.Bytes())] = authority
	return nil
}

func (l *mockLedger) Transfer(mint, from, to crypto.Address, amount uint64, authority crypto.Address) error {
	if !authority.Equal(from) {
		return errMockAuthority
	}
	if l.balance(mint, from) < amount {
		return fmt.Errorf("mock ledger: insufficient balance")
	}
	l.balances[l.key(mint, from)] -= amount
	l.balances[l.key(mint, to)] += amount
	l.ops = append(l.ops, fmt.Sprintf("transfer:%d", amount))
	return nil
}

func (l *mockLedger) MintTo(mint, to crypto.Address, amount uint64, authority crypto.Address) error {
	if registered, ok := l.authorities[string(mint.Bytes())]; !ok || !registered.Equal(authority) {
		return errMockAuthority
	}
	l.balances[l.key(mint, to)] += amount
	l.ops = append(l.ops, fmt.Sprintf("mint:%d", amount))
	return nil
}

func (l *mockLedger) Burn(mint, from crypto.Address, amount uint64, authority crypto.Address) error {
	if !authority.Equal(from) {
		return errMockAuthority
	}
	if l.balance(mint, from) < amount {
		return fmt.Errorf("mock ledger: insufficient balance")
	}
	l.balances[l.key(mint, from)] -= amount
	l.ops = append(l.ops, fmt.Sprintf("burn:%d", amount))
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func makeAddress(prefix crypto.AddressPrefix, b byte) crypto.Address {
	return crypto.MustNewAddress(prefix, bytes.Repeat([]byte{b}, crypto.AddressLength))
}

func makeSigner(t *testing.T) crypto.Signer {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := crypto.SignerFromKey(key)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

type testHarness struct {
	engine     *Engine
	state      *mockEngineState
	ledger     *mockLedger
	emitter    *captureEmitter
	now        int64
	owner      crypto.Signer
	collateral crypto.Address
	debt       crypto.Address
}

func newHarness(t *testing.T, params Params) *testHarness {
	t.Helper()
	h := &testHarness{
		state:      newMockEngineState(),
		ledger:     newMockLedger(),
		emitter:    &captureEmitter{},
		now:        1_700_000_000,
		owner:      makeSigner(t),
		collateral: makeAddress(crypto.MintPrefix, 0xC0),
		debt:       makeAddress(crypto.MintPrefix, 0xD0),
	}
	h.engine = NewEngine(crypto.ProgramID("cdp-test"), params)
	h.engine.SetState(h.state)
	h.engine.SetLedger(h.ledger)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetClock(func() int64 { return h.now })
	if _, err := h.engine.InitializeProtocol(h.owner, h.collateral, h.debt, DefaultCollateralRatio, DefaultInterestRate, DefaultLiquidationThreshold); err != nil {
		t.Fatalf("initialize protocol: %v", err)
	}
	h.emitter.events = nil
	return h
}
