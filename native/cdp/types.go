package cdp

import (
	"fmt"
	"strings"

	"basalt/crypto"
	"basalt/native/fixedpoint"
)

// Protocol defaults, all scaled by fixedpoint.Scale.
const (
	DefaultCollateralRatio      uint64 = 1_500_000_000_000_000_000 // 1.5x
	DefaultLiquidationThreshold uint64 = 1_200_000_000_000_000_000 // 1.2x
	DefaultInterestRate         uint64 = 50_000_000_000_000_000    // 5% APR

	DefaultMinAmount           uint64 = 1
	DefaultMaxVaultsPerUser    uint64 = 10
	DefaultLiquidationBonusBps uint64 = 1_000
)

const basisPoints uint64 = 10_000

// ProtocolConfig holds the parameters shared by every vault of one protocol.
type ProtocolConfig struct {
	Address              crypto.Address `json:"address"`
	Owner                crypto.Address `json:"owner"`
	CollateralMint       crypto.Address `json:"collateralMint"`
	DebtMint             crypto.Address `json:"debtMint"`
	Custody              crypto.Address `json:"custody"`
	CollateralRatio      uint64         `json:"collateralRatio"`
	InterestRate         uint64         `json:"interestRate"`
	LiquidationThreshold uint64         `json:"liquidationThreshold"`
	// LastInterestUpdate is protocol bookkeeping; accrual is tracked per vault.
	LastInterestUpdate int64 `json:"lastInterestUpdate"`
	Bump               uint8 `json:"bump"`
}

// Clone returns a copy safe to mutate.
func (p *ProtocolConfig) Clone() *ProtocolConfig {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// UserVault is one owner's collateral and debt position within a protocol.
type UserVault struct {
	Address            crypto.Address `json:"address"`
	Owner              crypto.Address `json:"owner"`
	Protocol           crypto.Address `json:"protocol"`
	CollateralAmount   uint64         `json:"collateralAmount"`
	DebtAmount         uint64         `json:"debtAmount"`
	LastInterestUpdate int64          `json:"lastInterestUpdate"`
	Bump               uint8          `json:"bump"`
}

func (v *UserVault) Clone() *UserVault {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

// Ratio returns the vault's collateralization, or fixedpoint.MaxRatio when the
// vault carries no debt.
func (v *UserVault) Ratio() uint64 {
	if v == nil {
		return fixedpoint.MaxRatio
	}
	return fixedpoint.Ratio(v.CollateralAmount, v.DebtAmount)
}

// MintPolicy selects how the mint limit is derived from collateral.
type MintPolicy uint8

const (
	// MintPolicyRatioMultiplier allows collateral * ratio / Scale of debt. A
	// vault minted at that limit is immediately liquidatable.
	MintPolicyRatioMultiplier MintPolicy = iota
	// MintPolicyCollateralized allows collateral * Scale / ratio of debt, which
	// keeps every freshly minted vault at or above the collateral ratio.
	MintPolicyCollateralized
)

func (p MintPolicy) String() string {
	switch p {
	case MintPolicyRatioMultiplier:
		return "multiplier"
	case MintPolicyCollateralized:
		return "collateralized"
	default:
		return fmt.Sprintf("MintPolicy(%d)", uint8(p))
	}
}

// ParseMintPolicy accepts the names produced by String. Empty selects the default.
func ParseMintPolicy(name string) (MintPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "multiplier":
		return MintPolicyRatioMultiplier, nil
	case "collateralized":
		return MintPolicyCollateralized, nil
	default:
		return 0, fmt.Errorf("cdp: unknown mint policy %q", name)
	}
}

// Params are engine-wide policy knobs that are not stored per protocol.
type Params struct {
	MinAmount           uint64
	MaxVaultsPerUser    uint64
	LiquidationBonusBps uint64
	MintPolicy          MintPolicy
	// AccrueOnMutation applies pending interest before mint, redeem and
	// liquidate instead of relying on an explicit accrue call.
	AccrueOnMutation bool
}

func DefaultParams() Params {
	return Params{
		MinAmount:           DefaultMinAmount,
		MaxVaultsPerUser:    DefaultMaxVaultsPerUser,
		LiquidationBonusBps: DefaultLiquidationBonusBps,
		MintPolicy:          MintPolicyRatioMultiplier,
	}
}

func (p Params) Validate() error {
	if p.MinAmount == 0 {
		return fmt.Errorf("cdp: min amount must be positive")
	}
	if p.MaxVaultsPerUser == 0 {
		return fmt.Errorf("cdp: max vaults per user must be positive")
	}
	if p.LiquidationBonusBps > basisPoints {
		return fmt.Errorf("cdp: liquidation bonus %d bps exceeds 100%%", p.LiquidationBonusBps)
	}
	if p.MintPolicy > MintPolicyCollateralized {
		return fmt.Errorf("cdp: invalid mint policy %s", p.MintPolicy)
	}
	return nil
}
