package config

import (
	"fmt"
	"strings"

	"basalt/crypto"
	"basalt/native/cdp"
	nativecommon "basalt/native/common"
	"basalt/native/fixedpoint"
	"basalt/native/issuance"
)

// ProtocolDefaults are the scaled protocol parameters parsed from CDP.
type ProtocolDefaults struct {
	CollateralRatio      uint64
	LiquidationThreshold uint64
	InterestRate         uint64
}

func (c *CDP) applyDefaults() {
	if strings.TrimSpace(c.CollateralRatio) == "" {
		c.CollateralRatio = fixedpoint.FormatDecimal(cdp.DefaultCollateralRatio)
	}
	if strings.TrimSpace(c.LiquidationThreshold) == "" {
		c.LiquidationThreshold = fixedpoint.FormatDecimal(cdp.DefaultLiquidationThreshold)
	}
	if strings.TrimSpace(c.InterestRate) == "" {
		c.InterestRate = fixedpoint.FormatDecimal(cdp.DefaultInterestRate)
	}
	if c.MinAmount == 0 {
		c.MinAmount = cdp.DefaultMinAmount
	}
	if c.MaxVaultsPerUser == 0 {
		c.MaxVaultsPerUser = cdp.DefaultMaxVaultsPerUser
	}
	if c.LiquidationBonusBps == 0 {
		c.LiquidationBonusBps = cdp.DefaultLiquidationBonusBps
	}
	if strings.TrimSpace(c.MintPolicy) == "" {
		c.MintPolicy = cdp.MintPolicyRatioMultiplier.String()
	}
}

// Params converts the engine policy section into runtime values.
func (c CDP) Params() (cdp.Params, error) {
	policy, err := cdp.ParseMintPolicy(c.MintPolicy)
	if err != nil {
		return cdp.Params{}, fmt.Errorf("invalid cdp.MintPolicy: %w", err)
	}
	params := cdp.Params{
		MinAmount:           c.MinAmount,
		MaxVaultsPerUser:    c.MaxVaultsPerUser,
		LiquidationBonusBps: c.LiquidationBonusBps,
		MintPolicy:          policy,
		AccrueOnMutation:    c.AccrueOnMutation,
	}
	if err := params.Validate(); err != nil {
		return cdp.Params{}, err
	}
	return params, nil
}

// MintPolicyWarning is non-empty when the configured mint policy lets a vault
// mint to a ratio below the liquidation threshold.
func (c CDP) MintPolicyWarning() string {
	policy, err := cdp.ParseMintPolicy(c.MintPolicy)
	if err != nil || policy != cdp.MintPolicyRatioMultiplier {
		return ""
	}
	return "cdp.MintPolicy \"multiplier\" lets a vault minted at its limit be liquidated immediately; set \"collateralized\" to keep new vaults above the collateral ratio"
}

// ProtocolDefaults parses the decimal protocol parameters.
func (c CDP) ProtocolDefaults() (ProtocolDefaults, error) {
	var out ProtocolDefaults
	var err error
	if out.CollateralRatio, err = fixedpoint.FromDecimal(c.CollateralRatio); err != nil {
		return out, fmt.Errorf("invalid cdp.CollateralRatio: %w", err)
	}
	if out.LiquidationThreshold, err = fixedpoint.FromDecimal(c.LiquidationThreshold); err != nil {
		return out, fmt.Errorf("invalid cdp.LiquidationThreshold: %w", err)
	}
	if out.InterestRate, err = fixedpoint.FromDecimal(c.InterestRate); err != nil {
		return out, fmt.Errorf("invalid cdp.InterestRate: %w", err)
	}
	return out, nil
}

// PaymentMintAddress resolves the configured payment mint.
func (i Issuance) PaymentMintAddress() (crypto.Address, error) {
	if strings.TrimSpace(i.PaymentMint) == "" {
		return issuance.NativeMint, nil
	}
	addr, err := crypto.DecodeAddress(i.PaymentMint)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid issuance.PaymentMint: %w", err)
	}
	if addr.Prefix() != crypto.MintPrefix {
		return crypto.Address{}, fmt.Errorf("invalid issuance.PaymentMint: expected %s prefix, got %s", crypto.MintPrefix, addr.Prefix())
	}
	return addr, nil
}

// PauseView exposes the pause switches under the module names the engines
// guard on.
func (p Pauses) PauseView() nativecommon.StaticPauses {
	return nativecommon.StaticPauses{
		"cdp":      p.CDP,
		"issuance": p.Issuance,
	}
}
