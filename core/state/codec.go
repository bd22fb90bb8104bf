package state

import (
	"fmt"

	"basalt/crypto"
)

// Addresses are stored in their bech32 form so the prefix survives a round
// trip. The zero address is stored as an empty string.
func encodeAddress(addr crypto.Address) string {
	if len(addr.Bytes()) == 0 {
		return ""
	}
	return addr.String()
}

func decodeAddress(s string) (crypto.Address, error) {
	if s == "" {
		return crypto.Address{}, nil
	}
	addr, err := crypto.DecodeAddress(s)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("state: stored address %q: %w", s, err)
	}
	return addr, nil
}

func decodeAddresses(out []*crypto.Address, in ...string) error {
	for i, s := range in {
		addr, err := decodeAddress(s)
		if err != nil {
			return err
		}
		*out[i] = addr
	}
	return nil
}

// Timestamps are unix seconds; RLP has no signed integers so they are stored
// as their two's complement bit pattern.
func encodeTime(ts int64) uint64 { return uint64(ts) }

func decodeTime(v uint64) int64 { return int64(v) }
