package state

import (
	"basalt/crypto"
	"basalt/native/cdp"
)

type storedProtocol struct {
	Address              string
	Owner                string
	CollateralMint       string
	DebtMint             string
	Custody              string
	CollateralRatio      uint64
	InterestRate         uint64
	LiquidationThreshold uint64
	LastInterestUpdate   uint64
	Bump                 uint8
}

type storedVault struct {
	Address            string
	Owner              string
	Protocol           string
	CollateralAmount   uint64
	DebtAmount         uint64
	LastInterestUpdate uint64
	Bump               uint8
}

func (m *Manager) GetProtocol(addr crypto.Address) (*cdp.ProtocolConfig, bool, error) {
	var stored storedProtocol
	ok, err := m.getRLP(hashKey(protocolPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	cfg := &cdp.ProtocolConfig{
		CollateralRatio:      stored.CollateralRatio,
		InterestRate:         stored.InterestRate,
		LiquidationThreshold: stored.LiquidationThreshold,
		LastInterestUpdate:   decodeTime(stored.LastInterestUpdate),
		Bump:                 stored.Bump,
	}
	if err := decodeAddresses(
		[]*crypto.Address{&cfg.Address, &cfg.Owner, &cfg.CollateralMint, &cfg.DebtMint, &cfg.Custody},
		stored.Address, stored.Owner, stored.CollateralMint, stored.DebtMint, stored.Custody,
	); err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func (m *Manager) PutProtocol(cfg *cdp.ProtocolConfig) error {
	return m.putRLP(hashKey(protocolPrefix, cfg.Address.Bytes()), storedProtocol{
		Address:              encodeAddress(cfg.Address),
		Owner:                encodeAddress(cfg.Owner),
		CollateralMint:       encodeAddress(cfg.CollateralMint),
		DebtMint:             encodeAddress(cfg.DebtMint),
		Custody:              encodeAddress(cfg.Custody),
		CollateralRatio:      cfg.CollateralRatio,
		InterestRate:         cfg.InterestRate,
		LiquidationThreshold: cfg.LiquidationThreshold,
		LastInterestUpdate:   encodeTime(cfg.LastInterestUpdate),
		Bump:                 cfg.Bump,
	})
}

func (m *Manager) GetVault(addr crypto.Address) (*cdp.UserVault, bool, error) {
	var stored storedVault
	ok, err := m.getRLP(hashKey(vaultPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	vault := &cdp.UserVault{
		CollateralAmount:   stored.CollateralAmount,
		DebtAmount:         stored.DebtAmount,
		LastInterestUpdate: decodeTime(stored.LastInterestUpdate),
		Bump:               stored.Bump,
	}
	if err := decodeAddresses(
		[]*crypto.Address{&vault.Address, &vault.Owner, &vault.Protocol},
		stored.Address, stored.Owner, stored.Protocol,
	); err != nil {
		return nil, false, err
	}
	return vault, true, nil
}

func (m *Manager) PutVault(vault *cdp.UserVault) error {
	return m.putRLP(hashKey(vaultPrefix, vault.Address.Bytes()), storedVault{
		Address:            encodeAddress(vault.Address),
		Owner:              encodeAddress(vault.Owner),
		Protocol:           encodeAddress(vault.Protocol),
		CollateralAmount:   vault.CollateralAmount,
		DebtAmount:         vault.DebtAmount,
		LastInterestUpdate: encodeTime(vault.LastInterestUpdate),
		Bump:               vault.Bump,
	})
}

func (m *Manager) VaultCount(owner crypto.Address) (uint64, error) {
	var count uint64
	if _, err := m.getRLP(hashKey(vaultCountPrefix, owner.Bytes()), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (m *Manager) SetVaultCount(owner crypto.Address, count uint64) error {
	return m.putRLP(hashKey(vaultCountPrefix, owner.Bytes()), count)
}
