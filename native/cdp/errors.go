package cdp

import (
	nativecommon "basalt/native/common"
)

var (
	errNilState  = nativecommon.NewError(nativecommon.CategoryState, "cdp engine: state not configured")
	errNilLedger = nativecommon.NewError(nativecommon.CategoryState, "cdp engine: token ledger not configured")
)

var (
	ErrInvalidMintConfiguration = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: collateral and debt mints must differ")
	ErrInvalidParameters        = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: liquidation threshold must be positive and below the collateral ratio")
	ErrBelowMinimum             = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: amount below protocol minimum")
	ErrInsufficientCollateral   = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: insufficient collateral")
	ErrExceedsMintLimit         = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: amount exceeds mint limit")
	ErrExceedsDebt              = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: amount exceeds outstanding debt")
	ErrNoDebtToRedeem           = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: vault has no debt")
	ErrMaxVaultsExceeded        = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: maximum vaults per user exceeded")
	ErrInsufficientFunds        = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: insufficient debt token balance")
	ErrNotUndercollateralized   = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: vault is not undercollateralized")
	ErrNoCollateralToLiquidate  = nativecommon.NewError(nativecommon.CategoryPrecondition, "cdp: vault has no collateral to liquidate")

	ErrUnauthorized            = nativecommon.NewError(nativecommon.CategoryAuthorization, "cdp: unauthorized")
	ErrCannotLiquidateOwnVault = nativecommon.NewError(nativecommon.CategoryAuthorization, "cdp: cannot liquidate own vault")

	ErrInterestCalculationFailed = nativecommon.NewError(nativecommon.CategoryArithmetic, "cdp: interest calculation failed")
	ErrArithmeticOverflow        = nativecommon.NewError(nativecommon.CategoryArithmetic, "cdp: arithmetic overflow")

	ErrProtocolNotInitialized     = nativecommon.NewError(nativecommon.CategoryState, "cdp: protocol not initialized")
	ErrProtocolAlreadyInitialized = nativecommon.NewError(nativecommon.CategoryState, "cdp: protocol already initialized")
	ErrVaultNotFound              = nativecommon.NewError(nativecommon.CategoryState, "cdp: vault not found")
)
