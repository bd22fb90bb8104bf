package types

// Operation names per program.
const (
	OpInitProtocol   = "init_protocol"
	OpMint           = "mint"
	OpRedeem         = "redeem"
	OpLiquidate      = "liquidate"
	OpAccrue         = "accrue"
	OpInitIssuance   = "init_issuance"
	OpMintTokens     = "mint_tokens"
	OpUpdateIssuance = "update_issuance"
	OpSetMetadata    = "set_metadata"
)

// Addresses travel as raw 20-byte slices. Scaled quantities are uint64.

type InitProtocolArgs struct {
	CollateralMint       []byte
	DebtMint             []byte
	CollateralRatio      uint64
	InterestRate         uint64
	LiquidationThreshold uint64
}

type MintArgs struct {
	Deposit uint64
	Amount  uint64
}

type RedeemArgs struct {
	Amount uint64
}

type LiquidateArgs struct {
	Owner  []byte
	Amount uint64
}

// AccrueArgs names the vault owner; an empty owner targets the signer.
type AccrueArgs struct {
	Owner []byte
}

type InitIssuanceArgs struct {
	TokenMint []byte
	MaxSupply uint64
	MintPrice uint64
}

// MintTokensArgs mints to the signer, who also funds the purchase.
type MintTokensArgs struct {
	Amount uint64
}

// UpdateIssuanceArgs is a sparse patch. Set* flags select the fields to write.
type UpdateIssuanceArgs struct {
	SetMaxSupply bool
	MaxSupply    uint64
	SetMintPrice bool
	MintPrice    uint64
	SetIsActive  bool
	IsActive     bool
}

type SetMetadataArgs struct {
	Mint   []byte
	Name   string
	Symbol string
	URI    string
}

// UnknownLabel replaces program and operation names the runtime does not route.
const UnknownLabel = "unknown"

var programOps = map[string]map[string]struct{}{
	ProgramCDP: {
		OpInitProtocol: {},
		OpMint:         {},
		OpRedeem:       {},
		OpLiquidate:    {},
		OpAccrue:       {},
	},
	ProgramIssuance: {
		OpInitIssuance:   {},
		OpMintTokens:     {},
		OpUpdateIssuance: {},
		OpSetMetadata:    {},
	},
}

// Labels returns the program and operation names with anything outside the
// routed set replaced by UnknownLabel. An op is only kept when its program is.
func Labels(program, op string) (string, string) {
	ops, ok := programOps[program]
	if !ok {
		return UnknownLabel, UnknownLabel
	}
	if _, ok := ops[op]; !ok {
		return program, UnknownLabel
	}
	return program, op
}
