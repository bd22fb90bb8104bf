package state

import (
	"basalt/crypto"
	"basalt/native/issuance"
)

type storedMintingConfig struct {
	Address     string
	Admin       string
	TokenMint   string
	MaxSupply   uint64
	MintPrice   uint64
	TotalMinted uint64
	IsActive    bool
	Bump        uint8
}

type storedMinter struct {
	Address           string
	User              string
	TokensMinted      uint64
	LastMintTimestamp uint64
	Bump              uint8
}

type storedMetadata struct {
	Address string
	Mint    string
	Name    string
	Symbol  string
	URI     string
	Bump    uint8
}

func (m *Manager) GetMintingConfig(addr crypto.Address) (*issuance.MintingConfig, bool, error) {
	var stored storedMintingConfig
	ok, err := m.getRLP(hashKey(mintingConfigPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	cfg := &issuance.MintingConfig{
		MaxSupply:   stored.MaxSupply,
		MintPrice:   stored.MintPrice,
		TotalMinted: stored.TotalMinted,
		IsActive:    stored.IsActive,
		Bump:        stored.Bump,
	}
	if err := decodeAddresses(
		[]*crypto.Address{&cfg.Address, &cfg.Admin, &cfg.TokenMint},
		stored.Address, stored.Admin, stored.TokenMint,
	); err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func (m *Manager) PutMintingConfig(cfg *issuance.MintingConfig) error {
	return m.putRLP(hashKey(mintingConfigPrefix, cfg.Address.Bytes()), storedMintingConfig{
		Address:     encodeAddress(cfg.Address),
		Admin:       encodeAddress(cfg.Admin),
		TokenMint:   encodeAddress(cfg.TokenMint),
		MaxSupply:   cfg.MaxSupply,
		MintPrice:   cfg.MintPrice,
		TotalMinted: cfg.TotalMinted,
		IsActive:    cfg.IsActive,
		Bump:        cfg.Bump,
	})
}

func (m *Manager) GetMinterRecord(addr crypto.Address) (*issuance.MinterRecord, bool, error) {
	var stored storedMinter
	ok, err := m.getRLP(hashKey(minterPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record := &issuance.MinterRecord{
		TokensMinted:      stored.TokensMinted,
		LastMintTimestamp: decodeTime(stored.LastMintTimestamp),
		Bump:              stored.Bump,
	}
	if err := decodeAddresses([]*crypto.Address{&record.Address, &record.User}, stored.Address, stored.User); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (m *Manager) PutMinterRecord(record *issuance.MinterRecord) error {
	return m.putRLP(hashKey(minterPrefix, record.Address.Bytes()), storedMinter{
		Address:           encodeAddress(record.Address),
		User:              encodeAddress(record.User),
		TokensMinted:      record.TokensMinted,
		LastMintTimestamp: encodeTime(record.LastMintTimestamp),
		Bump:              record.Bump,
	})
}

func (m *Manager) GetTokenMetadata(addr crypto.Address) (*issuance.TokenMetadata, bool, error) {
	var stored storedMetadata
	ok, err := m.getRLP(hashKey(metadataPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	meta := &issuance.TokenMetadata{Name: stored.Name, Symbol: stored.Symbol, URI: stored.URI, Bump: stored.Bump}
	if err := decodeAddresses([]*crypto.Address{&meta.Address, &meta.Mint}, stored.Address, stored.Mint); err != nil {
		return nil, false, err
	}
	return meta, true, nil
}

func (m *Manager) PutTokenMetadata(meta *issuance.TokenMetadata) error {
	return m.putRLP(hashKey(metadataPrefix, meta.Address.Bytes()), storedMetadata{
		Address: encodeAddress(meta.Address),
		Mint:    encodeAddress(meta.Mint),
		Name:    meta.Name,
		Symbol:  meta.Symbol,
		URI:     meta.URI,
		Bump:    meta.Bump,
	})
}
