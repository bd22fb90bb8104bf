package events

import (
	"strconv"
	"strings"

	"basalt/core/types"
	"basalt/crypto"
)

const (
	TypeIssuanceInitialized   = "issuance.initialized"
	TypeTokensMinted          = "issuance.tokens_minted"
	TypeIssuanceConfigUpdated = "issuance.config_updated"
	TypeMetadataSet           = "issuance.metadata_set"
)

type IssuanceInitialized struct {
	Config    crypto.Address
	Admin     crypto.Address
	TokenMint crypto.Address
	MaxSupply uint64
	MintPrice uint64
}

func (IssuanceInitialized) EventType() string { return TypeIssuanceInitialized }

func (e IssuanceInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeIssuanceInitialized,
		Attributes: map[string]string{
			"config":    e.Config.String(),
			"admin":     e.Admin.String(),
			"tokenMint": e.TokenMint.String(),
			"maxSupply": formatUint(e.MaxSupply),
			"mintPrice": formatUint(e.MintPrice),
		},
	}
}

type TokensMinted struct {
	User        crypto.Address
	Amount      uint64
	Cost        uint64
	TotalMinted uint64
	Timestamp   int64
}

func (TokensMinted) EventType() string { return TypeTokensMinted }

func (e TokensMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokensMinted,
		Attributes: map[string]string{
			"user":        e.User.String(),
			"amount":      formatUint(e.Amount),
			"cost":        formatUint(e.Cost),
			"totalMinted": formatUint(e.TotalMinted),
			"timestamp":   strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// IssuanceConfigUpdated lists only the fields a patch touched.
type IssuanceConfigUpdated struct {
	Admin     crypto.Address
	MaxSupply *uint64
	MintPrice *uint64
	IsActive  *bool
}

func (IssuanceConfigUpdated) EventType() string { return TypeIssuanceConfigUpdated }

func (e IssuanceConfigUpdated) Event() *types.Event {
	attrs := map[string]string{"admin": e.Admin.String()}
	fields := make([]string, 0, 3)
	if e.MaxSupply != nil {
		attrs["maxSupply"] = formatUint(*e.MaxSupply)
		fields = append(fields, "maxSupply")
	}
	if e.MintPrice != nil {
		attrs["mintPrice"] = formatUint(*e.MintPrice)
		fields = append(fields, "mintPrice")
	}
	if e.IsActive != nil {
		attrs["isActive"] = strconv.FormatBool(*e.IsActive)
		fields = append(fields, "isActive")
	}
	attrs["fields"] = strings.Join(fields, ",")
	return &types.Event{Type: TypeIssuanceConfigUpdated, Attributes: attrs}
}

type MetadataSet struct {
	Metadata crypto.Address
	Mint     crypto.Address
	Name     string
	Symbol   string
	URI      string
}

func (MetadataSet) EventType() string { return TypeMetadataSet }

func (e MetadataSet) Event() *types.Event {
	return &types.Event{
		Type: TypeMetadataSet,
		Attributes: map[string]string{
			"metadata": e.Metadata.String(),
			"mint":     e.Mint.String(),
			"name":     e.Name,
			"symbol":   e.Symbol,
			"uri":      e.URI,
		},
	}
}
