package config

// CDP holds the engine policy and the defaults offered when a protocol is
// initialised from the CLI. Ratios and rates are decimal strings.
type CDP struct {
	CollateralRatio      string `toml:"CollateralRatio"`
	LiquidationThreshold string `toml:"LiquidationThreshold"`
	InterestRate         string `toml:"InterestRate"`
	MinAmount            uint64 `toml:"MinAmount"`
	MaxVaultsPerUser     uint64 `toml:"MaxVaultsPerUser"`
	LiquidationBonusBps  uint64 `toml:"LiquidationBonusBps"`
	// MintPolicy is "multiplier" (default) or "collateralized". Under
	// "multiplier" a vault minted at its limit sits below the liquidation
	// threshold and can be liquidated by anyone in the next instruction.
	// Production deployments should use "collateralized".
	MintPolicy       string `toml:"MintPolicy"`
	AccrueOnMutation bool   `toml:"AccrueOnMutation"`
}

type Issuance struct {
	// PaymentMint is the bech32 mint that mint prices are checked against.
	// Empty selects the native mint.
	PaymentMint string `toml:"PaymentMint"`
	MaxSupply   uint64 `toml:"MaxSupply"`
	MintPrice   uint64 `toml:"MintPrice"`
}

type Pauses struct {
	CDP      bool `toml:"CDP"`
	Issuance bool `toml:"Issuance"`
}

// Global bundles the runtime switches enforced across every program.
type Global struct {
	Pauses Pauses `toml:"pauses"`
}
