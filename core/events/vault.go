package events

import (
	"strconv"

	"basalt/core/types"
	"basalt/crypto"
)

const (
	TypeProtocolInitialized = "cdp.protocol_initialized"
	TypeVaultMinted         = "cdp.vault_minted"
	TypeVaultRedeemed       = "cdp.vault_redeemed"
	TypeVaultLiquidated     = "cdp.vault_liquidated"
	TypeInterestAccrued     = "cdp.interest_accrued"
)

type ProtocolInitialized struct {
	Protocol             crypto.Address
	Owner                crypto.Address
	CollateralMint       crypto.Address
	DebtMint             crypto.Address
	CollateralRatio      uint64
	LiquidationThreshold uint64
	InterestRate         uint64
}

func (ProtocolInitialized) EventType() string { return TypeProtocolInitialized }

func (e ProtocolInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeProtocolInitialized,
		Attributes: map[string]string{
			"protocol":             e.Protocol.String(),
			"owner":                e.Owner.String(),
			"collateralMint":       e.CollateralMint.String(),
			"debtMint":             e.DebtMint.String(),
			"collateralRatio":      formatUint(e.CollateralRatio),
			"liquidationThreshold": formatUint(e.LiquidationThreshold),
			"interestRate":         formatUint(e.InterestRate),
		},
	}
}

// VaultMinted is emitted after collateral is deposited and debt tokens minted.
type VaultMinted struct {
	Vault      crypto.Address
	Owner      crypto.Address
	Deposit    uint64
	Minted     uint64
	Collateral uint64
	Debt       uint64
	Opened     bool
}

func (VaultMinted) EventType() string { return TypeVaultMinted }

func (e VaultMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultMinted,
		Attributes: map[string]string{
			"vault":      e.Vault.String(),
			"owner":      e.Owner.String(),
			"deposit":    formatUint(e.Deposit),
			"minted":     formatUint(e.Minted),
			"collateral": formatUint(e.Collateral),
			"debt":       formatUint(e.Debt),
			"opened":     strconv.FormatBool(e.Opened),
		},
	}
}

type VaultRedeemed struct {
	Vault      crypto.Address
	Owner      crypto.Address
	Repaid     uint64
	Released   uint64
	Collateral uint64
	Debt       uint64
}

func (VaultRedeemed) EventType() string { return TypeVaultRedeemed }

func (e VaultRedeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultRedeemed,
		Attributes: map[string]string{
			"vault":      e.Vault.String(),
			"owner":      e.Owner.String(),
			"repaid":     formatUint(e.Repaid),
			"released":   formatUint(e.Released),
			"collateral": formatUint(e.Collateral),
			"debt":       formatUint(e.Debt),
		},
	}
}

type VaultLiquidated struct {
	Vault      crypto.Address
	Owner      crypto.Address
	Liquidator crypto.Address
	Repaid     uint64
	Seized     uint64
	Collateral uint64
	Debt       uint64
}

func (VaultLiquidated) EventType() string { return TypeVaultLiquidated }

func (e VaultLiquidated) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultLiquidated,
		Attributes: map[string]string{
			"vault":      e.Vault.String(),
			"owner":      e.Owner.String(),
			"liquidator": e.Liquidator.String(),
			"repaid":     formatUint(e.Repaid),
			"seized":     formatUint(e.Seized),
			"collateral": formatUint(e.Collateral),
			"debt":       formatUint(e.Debt),
		},
	}
}

type InterestAccrued struct {
	Vault     crypto.Address
	Owner     crypto.Address
	Interest  uint64
	Debt      uint64
	Timestamp int64
}

func (InterestAccrued) EventType() string { return TypeInterestAccrued }

func (e InterestAccrued) Event() *types.Event {
	return &types.Event{
		Type: TypeInterestAccrued,
		Attributes: map[string]string{
			"vault":     e.Vault.String(),
			"owner":     e.Owner.String(),
			"interest":  formatUint(e.Interest),
			"debt":      formatUint(e.Debt),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
