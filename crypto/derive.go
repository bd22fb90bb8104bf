package crypto

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
)

// programAddressMarker domain-separates derived addresses from key hashes.
var programAddressMarker = []byte("ProgramDerivedAddress")

var ErrNoViableBump = errors.New("crypto: no viable bump seed")

// CreateProgramAddress hashes the seeds, the bump and the program identity into
// a program-owned address. It reports false when the digest is not a viable
// derivation for that bump.
func CreateProgramAddress(program Address, bump uint8, seeds ...[]byte) (Address, bool) {
	parts := make([][]byte, 0, len(seeds)+3)
	parts = append(parts, seeds...)
	parts = append(parts, []byte{bump}, program.Bytes(), programAddressMarker)
	digest := crypto.Keccak256(parts...)
	// Digests with the high bit set are not viable.
	if digest[0]&0x80 != 0 {
		return Address{}, false
	}
	return MustNewAddress(ProgramPrefix, digest[len(digest)-AddressLength:]), true
}

// DeriveProgramAddress searches bumps from 255 downwards and returns the first
// viable address together with its canonical bump.
func DeriveProgramAddress(program Address, seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		if addr, ok := CreateProgramAddress(program, uint8(bump), seeds...); ok {
			return addr, uint8(bump), nil
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// ProgramID derives the stable identity of a named program.
func ProgramID(name string) Address {
	digest := crypto.Keccak256([]byte("program:"), []byte(name))
	return MustNewAddress(ProgramPrefix, digest[len(digest)-AddressLength:])
}
