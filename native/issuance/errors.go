package issuance

import nativecommon "basalt/native/common"

var (
	errNilState  = nativecommon.NewError(nativecommon.CategoryState, "issuance engine: state not configured")
	errNilLedger = nativecommon.NewError(nativecommon.CategoryState, "issuance engine: token ledger not configured")
)

var (
	ErrMintingNotActive    = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: minting not active")
	ErrExceedsMaxSupply    = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: mint exceeds max supply")
	ErrInsufficientFunds   = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: insufficient funds")
	ErrInvalidAmount       = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: amount must be positive")
	ErrMaxSupplyBelowTotal = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: max supply below total minted")
	ErrEmptyPatch          = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: update sets no fields")
	ErrNameTooLong         = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: name too long")
	ErrSymbolTooLong       = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: symbol too long")
	ErrURITooLong          = nativecommon.NewError(nativecommon.CategoryPrecondition, "issuance: uri too long")

	ErrUnauthorized = nativecommon.NewError(nativecommon.CategoryAuthorization, "issuance: unauthorized")

	ErrArithmeticOverflow = nativecommon.NewError(nativecommon.CategoryArithmetic, "issuance: arithmetic overflow")

	ErrConfigNotInitialized     = nativecommon.NewError(nativecommon.CategoryState, "issuance: config not initialized")
	ErrConfigAlreadyInitialized = nativecommon.NewError(nativecommon.CategoryState, "issuance: config already initialized")
	ErrMetadataExists           = nativecommon.NewError(nativecommon.CategoryState, "issuance: metadata already set")
	ErrMinterNotFound           = nativecommon.NewError(nativecommon.CategoryState, "issuance: minter record not found")
	ErrMetadataNotFound         = nativecommon.NewError(nativecommon.CategoryState, "issuance: metadata not found")
)
