package state

import (
	"basalt/crypto"
	nativecommon "basalt/native/common"
	"basalt/native/fixedpoint"
)

var (
	ErrUnknownMint           = nativecommon.NewError(nativecommon.CategoryState, "ledger: mint not registered")
	ErrMintAuthorityMismatch = nativecommon.NewError(nativecommon.CategoryState, "ledger: mint already registered to another authority")
	ErrUnauthorizedAuthority = nativecommon.NewError(nativecommon.CategoryAuthorization, "ledger: authority may not move these tokens")
	ErrInsufficientBalance   = nativecommon.NewError(nativecommon.CategoryPrecondition, "ledger: insufficient balance")
	ErrBalanceOverflow       = nativecommon.NewError(nativecommon.CategoryArithmetic, "ledger: balance overflow")
)

// MintInfo describes a registered token mint.
type MintInfo struct {
	Authority crypto.Address
	Supply    uint64
}

type storedMint struct {
	Authority string
	Supply    uint64
}

func (m *Manager) Mint(mint crypto.Address) (*MintInfo, bool, error) {
	var stored storedMint
	ok, err := m.getRLP(hashKey(mintPrefix, mint.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	authority, err := decodeAddress(stored.Authority)
	if err != nil {
		return nil, false, err
	}
	return &MintInfo{Authority: authority, Supply: stored.Supply}, true, nil
}

func (m *Manager) putMint(mint crypto.Address, info *MintInfo) error {
	return m.putRLP(hashKey(mintPrefix, mint.Bytes()), storedMint{
		Authority: encodeAddress(info.Authority),
		Supply:    info.Supply,
	})
}

// InitMint registers mint under authority. Re-registering with the same
// authority is a no-op.
func (m *Manager) InitMint(mint, authority crypto.Address) error {
	info, ok, err := m.Mint(mint)
	if err != nil {
		return err
	}
	if ok {
		if info.Authority.Equal(authority) {
			return nil
		}
		return ErrMintAuthorityMismatch
	}
	return m.putMint(mint, &MintInfo{Authority: authority})
}

func (m *Manager) BalanceOf(mint, owner crypto.Address) (uint64, error) {
	var balance uint64
	if _, err := m.getRLP(hashKey(balancePrefix, mint.Bytes(), owner.Bytes()), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (m *Manager) setBalance(mint, owner crypto.Address, amount uint64) error {
	key := hashKey(balancePrefix, mint.Bytes(), owner.Bytes())
	if amount == 0 {
		m.remove(key)
		return nil
	}
	return m.putRLP(key, amount)
}

// Transfer moves amount from one holder to another. Only the source holder
// may authorise a transfer.
func (m *Manager) Transfer(mint, from, to crypto.Address, amount uint64, authority crypto.Address) error {
	if !authority.Equal(from) {
		return ErrUnauthorizedAuthority
	}
	if _, ok, err := m.Mint(mint); err != nil {
		return err
	} else if !ok {
		return ErrUnknownMint
	}
	if amount == 0 || from.Equal(to) {
		return nil
	}
	fromBalance, err := m.BalanceOf(mint, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientBalance
	}
	toBalance, err := m.BalanceOf(mint, to)
	if err != nil {
		return err
	}
	credited, err := fixedpoint.CheckedAdd(toBalance, amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	if err := m.setBalance(mint, from, fromBalance-amount); err != nil {
		return err
	}
	return m.setBalance(mint, to, credited)
}

// MintTo creates amount new tokens for to. Only the mint authority may mint.
func (m *Manager) MintTo(mint, to crypto.Address, amount uint64, authority crypto.Address) error {
	info, ok, err := m.Mint(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownMint
	}
	if !info.Authority.Equal(authority) {
		return ErrUnauthorizedAuthority
	}
	supply, err := fixedpoint.CheckedAdd(info.Supply, amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	balance, err := m.BalanceOf(mint, to)
	if err != nil {
		return err
	}
	credited, err := fixedpoint.CheckedAdd(balance, amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	info.Supply = supply
	if err := m.putMint(mint, info); err != nil {
		return err
	}
	return m.setBalance(mint, to, credited)
}

// Burn destroys amount of from's tokens. The holder or the mint authority
// may burn.
func (m *Manager) Burn(mint, from crypto.Address, amount uint64, authority crypto.Address) error {
	info, ok, err := m.Mint(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownMint
	}
	if !authority.Equal(from) && !authority.Equal(info.Authority) {
		return ErrUnauthorizedAuthority
	}
	balance, err := m.BalanceOf(mint, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientBalance
	}
	info.Supply = fixedpoint.SaturatingSub(info.Supply, amount)
	if err := m.putMint(mint, info); err != nil {
		return err
	}
	return m.setBalance(mint, from, balance-amount)
}
