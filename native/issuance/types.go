package issuance

import "basalt/crypto"

// Metadata field limits in bytes.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// NativeMint denominates mint prices unless the engine is configured with a
// different payment mint.
var NativeMint = crypto.ProgramID("native").WithPrefix(crypto.MintPrefix)

// MintingConfig controls supply and price for one issued token.
type MintingConfig struct {
	Address     crypto.Address `json:"address"`
	Admin       crypto.Address `json:"admin"`
	TokenMint   crypto.Address `json:"tokenMint"`
	MaxSupply   uint64         `json:"maxSupply"`
	MintPrice   uint64         `json:"mintPrice"`
	TotalMinted uint64         `json:"totalMinted"`
	IsActive    bool           `json:"isActive"`
	Bump        uint8          `json:"bump"`
}

func (c *MintingConfig) Clone() *MintingConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Remaining returns the supply still available under the cap.
func (c *MintingConfig) Remaining() uint64 {
	if c == nil || c.TotalMinted >= c.MaxSupply {
		return 0
	}
	return c.MaxSupply - c.TotalMinted
}

// MinterRecord tracks the cumulative mints of one user.
type MinterRecord struct {
	Address           crypto.Address `json:"address"`
	User              crypto.Address `json:"user"`
	TokensMinted      uint64         `json:"tokensMinted"`
	LastMintTimestamp int64          `json:"lastMintTimestamp"`
	Bump              uint8          `json:"bump"`
}

func (r *MinterRecord) Clone() *MinterRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// TokenMetadata is written once per mint.
type TokenMetadata struct {
	Address crypto.Address `json:"address"`
	Mint    crypto.Address `json:"mint"`
	Name    string         `json:"name"`
	Symbol  string         `json:"symbol"`
	URI     string         `json:"uri"`
	Bump    uint8          `json:"bump"`
}

func (m *TokenMetadata) Clone() *TokenMetadata {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// ConfigPatch is a sparse update: nil fields are left untouched.
type ConfigPatch struct {
	MaxSupply *uint64
	MintPrice *uint64
	IsActive  *bool
}

func (p ConfigPatch) Empty() bool {
	return p.MaxSupply == nil && p.MintPrice == nil && p.IsActive == nil
}
