package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"basalt/crypto"
	"basalt/native/cdp"
	"basalt/native/issuance"
	"basalt/storage"
)

func addr(prefix crypto.AddressPrefix, b byte) crypto.Address {
	return crypto.MustNewAddress(prefix, bytes.Repeat([]byte{b}, crypto.AddressLength))
}

func TestJournalCommitAndDiscard(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	who := addr(crypto.AccountPrefix, 1)

	require.NoError(t, m.SetNonce(who, 42))
	got, err := m.Nonce(who)
	require.NoError(t, err)
	require.EqualValues(t, 42, got)
	require.Empty(t, db.Keys(), "writes must stay in the journal until commit")

	m.Discard()
	got, err = m.Nonce(who)
	require.NoError(t, err)
	require.Zero(t, got)

	require.NoError(t, m.SetNonce(who, 7))
	require.NoError(t, m.Commit())
	require.Len(t, db.Keys(), 1)
	require.Zero(t, m.Pending())

	got, err = NewManager(db).Nonce(who)
	require.NoError(t, err)
	require.EqualValues(t, 7, got)
}

func TestZeroBalanceDeletesKey(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	mint := addr(crypto.MintPrefix, 1)
	authority := addr(crypto.ProgramPrefix, 2)
	holder := addr(crypto.AccountPrefix, 3)

	require.NoError(t, m.InitMint(mint, authority))
	require.NoError(t, m.MintTo(mint, holder, 5, authority))
	require.NoError(t, m.Commit())
	withBalance := len(db.Keys())

	fresh := NewManager(db)
	require.NoError(t, fresh.Burn(mint, holder, 5, holder))
	bal, err := fresh.BalanceOf(mint, holder)
	require.NoError(t, err)
	require.Zero(t, bal)
	require.NoError(t, fresh.Commit())
	require.Len(t, db.Keys(), withBalance-1, "emptied balances are removed")
}

func TestProtocolAndVaultRecords(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	cfg := &cdp.ProtocolConfig{
		Address:              addr(crypto.ProgramPrefix, 1),
		Owner:                addr(crypto.AccountPrefix, 2),
		CollateralMint:       addr(crypto.MintPrefix, 3),
		DebtMint:             addr(crypto.MintPrefix, 4),
		Custody:              addr(crypto.ProgramPrefix, 5),
		CollateralRatio:      cdp.DefaultCollateralRatio,
		InterestRate:         cdp.DefaultInterestRate,
		LiquidationThreshold: cdp.DefaultLiquidationThreshold,
		LastInterestUpdate:   -5,
		Bump:                 254,
	}
	require.NoError(t, m.PutProtocol(cfg))
	require.NoError(t, m.Commit())

	loaded, ok, err := NewManager(db).GetProtocol(cfg.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cfg.Owner.String(), loaded.Owner.String())
	require.Equal(t, crypto.MintPrefix, loaded.DebtMint.Prefix())
	require.Equal(t, cfg.CollateralRatio, loaded.CollateralRatio)
	require.EqualValues(t, -5, loaded.LastInterestUpdate)
	require.EqualValues(t, 254, loaded.Bump)

	vault := &cdp.UserVault{
		Address:            addr(crypto.ProgramPrefix, 6),
		Owner:              cfg.Owner,
		Protocol:           cfg.Address,
		CollateralAmount:   150,
		DebtAmount:         225,
		LastInterestUpdate: 1_700_000_000,
		Bump:               253,
	}
	require.NoError(t, m.PutVault(vault))
	got, ok, err := m.GetVault(vault.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 150, got.CollateralAmount)
	require.EqualValues(t, 225, got.DebtAmount)
	require.True(t, got.Protocol.Equal(cfg.Address))

	_, ok, err = m.GetVault(addr(crypto.ProgramPrefix, 99))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.SetVaultCount(cfg.Owner, 3))
	count, err := m.VaultCount(cfg.Owner)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}

func TestIssuanceRecords(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	cfg := &issuance.MintingConfig{
		Address:     addr(crypto.ProgramPrefix, 1),
		Admin:       addr(crypto.AccountPrefix, 2),
		TokenMint:   addr(crypto.MintPrefix, 3),
		MaxSupply:   1_000,
		MintPrice:   2,
		TotalMinted: 990,
		IsActive:    true,
	}
	require.NoError(t, m.PutMintingConfig(cfg))
	loaded, ok, err := m.GetMintingConfig(cfg.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 990, loaded.TotalMinted)
	require.True(t, loaded.IsActive)

	record := &issuance.MinterRecord{Address: addr(crypto.ProgramPrefix, 4), User: cfg.Admin, TokensMinted: 10, LastMintTimestamp: 99}
	require.NoError(t, m.PutMinterRecord(record))
	gotRecord, ok, err := m.GetMinterRecord(record.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 99, gotRecord.LastMintTimestamp)

	meta := &issuance.TokenMetadata{Address: addr(crypto.ProgramPrefix, 5), Mint: cfg.TokenMint, Name: "Basalt", Symbol: "BSL", URI: "ipfs://bsl"}
	require.NoError(t, m.PutTokenMetadata(meta))
	gotMeta, ok, err := m.GetTokenMetadata(meta.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ipfs://bsl", gotMeta.URI)
}

func TestLedgerAuthority(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	mint := addr(crypto.MintPrefix, 1)
	authority := addr(crypto.ProgramPrefix, 2)
	alice := addr(crypto.AccountPrefix, 3)
	bob := addr(crypto.AccountPrefix, 4)

	require.ErrorIs(t, m.MintTo(mint, alice, 10, authority), ErrUnknownMint)
	require.NoError(t, m.InitMint(mint, authority))
	require.NoError(t, m.InitMint(mint, authority))
	require.ErrorIs(t, m.InitMint(mint, alice), ErrMintAuthorityMismatch)

	require.ErrorIs(t, m.MintTo(mint, alice, 10, alice), ErrUnauthorizedAuthority)
	require.NoError(t, m.MintTo(mint, alice, 100, authority))

	require.ErrorIs(t, m.Transfer(mint, alice, bob, 10, bob), ErrUnauthorizedAuthority)
	require.ErrorIs(t, m.Transfer(mint, alice, bob, 101, alice), ErrInsufficientBalance)
	require.NoError(t, m.Transfer(mint, alice, bob, 40, alice))

	require.ErrorIs(t, m.Burn(mint, bob, 5, alice), ErrUnauthorizedAuthority)
	require.NoError(t, m.Burn(mint, bob, 5, bob))
	require.NoError(t, m.Burn(mint, bob, 5, authority))
	require.ErrorIs(t, m.Burn(mint, bob, 31, bob), ErrInsufficientBalance)

	aliceBal, err := m.BalanceOf(mint, alice)
	require.NoError(t, err)
	bobBal, err := m.BalanceOf(mint, bob)
	require.NoError(t, err)
	require.EqualValues(t, 60, aliceBal)
	require.EqualValues(t, 30, bobBal)

	info, ok, err := m.Mint(mint)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 90, info.Supply)
}

func TestNonces(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	who := addr(crypto.AccountPrefix, 9)
	nonce, err := m.Nonce(who)
	require.NoError(t, err)
	require.Zero(t, nonce)
	require.NoError(t, m.SetNonce(who, 4))
	nonce, err = m.Nonce(who)
	require.NoError(t, err)
	require.EqualValues(t, 4, nonce)
}

func TestEnginesRunOverManager(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	owner, err := crypto.SignerFromKey(key)
	require.NoError(t, err)

	collateral := addr(crypto.MintPrefix, 0xC0)
	debt := addr(crypto.MintPrefix, 0xD0)
	faucet := addr(crypto.ProgramPrefix, 0xFA)
	require.NoError(t, m.InitMint(collateral, faucet))
	require.NoError(t, m.MintTo(collateral, owner.Address(), 150, faucet))

	engine := cdp.NewEngine(crypto.ProgramID("cdp"), cdp.DefaultParams())
	engine.SetState(m)
	engine.SetLedger(m)
	_, err = engine.InitializeProtocol(owner, collateral, debt, cdp.DefaultCollateralRatio, cdp.DefaultInterestRate, cdp.DefaultLiquidationThreshold)
	require.NoError(t, err)
	vault, err := engine.Mint(owner, 150, 225)
	require.NoError(t, err)
	require.EqualValues(t, 225, vault.DebtAmount)
	require.NoError(t, m.Commit())

	reloaded := NewManager(db)
	debtBal, err := reloaded.BalanceOf(debt, owner.Address())
	require.NoError(t, err)
	require.EqualValues(t, 225, debtBal)

	issuer := issuance.NewEngine(crypto.ProgramID("issuance"))
	issuer.SetState(reloaded)
	issuer.SetLedger(reloaded)
	token := addr(crypto.MintPrefix, 0xEE)
	_, err = issuer.InitializeConfig(owner, token, 1_000, 0)
	require.NoError(t, err)
	_, err = issuer.MintTokens(owner, owner, 10)
	require.NoError(t, err)
	tokenBal, err := reloaded.BalanceOf(token, owner.Address())
	require.NoError(t, err)
	require.EqualValues(t, 10, tokenBal)
}
