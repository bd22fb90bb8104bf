package cdp

import (
	"basalt/crypto"
	"basalt/native/fixedpoint"
)

// The functions in this file are pure transitions over vault records. They
// take snapshots by value and return the updated record without touching
// state.

// AccrueVault applies simple interest from the vault's last update to now.
// A clock at or before the last update leaves the vault untouched.
func AccrueVault(vault UserVault, rate uint64, now int64) (UserVault, uint64, error) {
	if now <= vault.LastInterestUpdate {
		return vault, 0, nil
	}
	elapsed := uint64(now - vault.LastInterestUpdate)
	interest, err := fixedpoint.Interest(vault.DebtAmount, rate, elapsed)
	if err != nil {
		return vault, 0, ErrInterestCalculationFailed
	}
	vault.DebtAmount = fixedpoint.SaturatingAdd(vault.DebtAmount, interest)
	vault.LastInterestUpdate = now
	return vault, interest, nil
}

// MaxMintable returns the total debt that collateral can back under policy.
func MaxMintable(policy MintPolicy, collateral, collateralRatio uint64) uint64 {
	switch policy {
	case MintPolicyCollateralized:
		if collateralRatio == 0 {
			return 0
		}
		return fixedpoint.MulDivSaturating(collateral, fixedpoint.Scale, collateralRatio)
	default:
		return fixedpoint.MulDivSaturating(collateral, collateralRatio, fixedpoint.Scale)
	}
}

// PlanMint deposits collateral and adds amount of debt. available is the
// owner's collateral token balance.
func PlanMint(cfg ProtocolConfig, vault UserVault, params Params, available, deposit, amount uint64) (UserVault, error) {
	if amount < params.MinAmount {
		return vault, ErrBelowMinimum
	}
	if available < deposit {
		return vault, ErrInsufficientCollateral
	}
	total, err := fixedpoint.CheckedAdd(vault.CollateralAmount, deposit)
	if err != nil {
		return vault, ErrArithmeticOverflow
	}
	if total == 0 {
		return vault, ErrInsufficientCollateral
	}
	limit := MaxMintable(params.MintPolicy, total, cfg.CollateralRatio)
	if amount > fixedpoint.SaturatingSub(limit, vault.DebtAmount) {
		return vault, ErrExceedsMintLimit
	}
	debt, err := fixedpoint.CheckedAdd(vault.DebtAmount, amount)
	if err != nil {
		return vault, ErrArithmeticOverflow
	}
	vault.CollateralAmount = total
	vault.DebtAmount = debt
	return vault, nil
}

// PlanRedeem repays amount of debt and releases the same amount of
// collateral, capped at what the vault holds. Debt and collateral trade 1:1.
func PlanRedeem(vault UserVault, params Params, available, amount uint64) (UserVault, uint64, error) {
	if vault.DebtAmount == 0 {
		return vault, 0, ErrNoDebtToRedeem
	}
	if amount < params.MinAmount {
		return vault, 0, ErrBelowMinimum
	}
	if amount > vault.DebtAmount {
		return vault, 0, ErrExceedsDebt
	}
	if available < amount {
		return vault, 0, ErrInsufficientFunds
	}
	released := amount
	if released > vault.CollateralAmount {
		released = vault.CollateralAmount
	}
	vault.DebtAmount = fixedpoint.SaturatingSub(vault.DebtAmount, amount)
	vault.CollateralAmount = fixedpoint.SaturatingSub(vault.CollateralAmount, released)
	return vault, released, nil
}

// SeizeAmount prices a liquidation: amount plus the bonus, capped at the
// collateral held.
func SeizeAmount(amount, bonusBps, collateral uint64) uint64 {
	seized := fixedpoint.MulDivSaturating(amount, basisPoints+bonusBps, basisPoints)
	if seized > collateral {
		return collateral
	}
	return seized
}

// PlanLiquidation repays amount of the vault's debt on behalf of liquidator
// and seizes collateral at a bonus. available is the liquidator's debt token
// balance.
func PlanLiquidation(cfg ProtocolConfig, vault UserVault, params Params, liquidator crypto.Address, available, amount uint64) (UserVault, uint64, error) {
	if vault.DebtAmount == 0 {
		return vault, 0, ErrNoDebtToRedeem
	}
	if liquidator.Equal(vault.Owner) {
		return vault, 0, ErrCannotLiquidateOwnVault
	}
	if amount == 0 || amount > vault.DebtAmount {
		return vault, 0, ErrExceedsDebt
	}
	if vault.CollateralAmount == 0 {
		return vault, 0, ErrNoCollateralToLiquidate
	}
	if vault.Ratio() >= cfg.LiquidationThreshold {
		return vault, 0, ErrNotUndercollateralized
	}
	if available < amount {
		return vault, 0, ErrInsufficientFunds
	}
	seized := SeizeAmount(amount, params.LiquidationBonusBps, vault.CollateralAmount)
	vault.DebtAmount = fixedpoint.SaturatingSub(vault.DebtAmount, amount)
	vault.CollateralAmount = fixedpoint.SaturatingSub(vault.CollateralAmount, seized)
	return vault, seized, nil
}
