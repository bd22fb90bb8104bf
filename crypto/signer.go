package crypto

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	ErrNilKey           = errors.New("crypto: nil private key")
)

// Signer is a verified caller identity. Values are only produced by signature
// recovery or by holding the private key, so native engines can trust the
// address without re-checking any signature. The zero value authorises nothing.
type Signer struct {
	addr     Address
	verified bool
}

// Address returns the verified account address.
func (s Signer) Address() Address {
	return s.addr
}

// Valid reports whether the signer was produced by a verification path.
func (s Signer) Valid() bool {
	return s.verified && len(s.addr.Bytes()) == AddressLength
}

func (s Signer) String() string {
	return s.addr.String()
}

// SignerFromKey returns the capability for the holder of key.
func SignerFromKey(key *PrivateKey) (Signer, error) {
	if key == nil || key.PrivateKey == nil {
		return Signer{}, ErrNilKey
	}
	return Signer{addr: key.PubKey().Address(), verified: true}, nil
}

// Sign produces a 65-byte recoverable secp256k1 signature over a 32-byte digest.
func Sign(digest []byte, key *PrivateKey) ([]byte, error) {
	if key == nil || key.PrivateKey == nil {
		return nil, ErrNilKey
	}
	return crypto.Sign(digest, key.PrivateKey)
}

// RecoverSigner recovers the account that produced sig over digest and returns
// it as a verified Signer.
func RecoverSigner(digest, sig []byte) (Signer, error) {
	if len(digest) != 32 {
		return Signer{}, fmt.Errorf("%w: digest must be 32 bytes", ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return Signer{}, fmt.Errorf("%w: signature must be %d bytes", ErrInvalidSignature, crypto.SignatureLength)
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return Signer{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !crypto.VerifySignature(crypto.CompressPubkey(pub), digest, sig[:64]) {
		return Signer{}, ErrInvalidSignature
	}
	return Signer{addr: MustNewAddress(AccountPrefix, crypto.PubkeyToAddress(*pub).Bytes()), verified: true}, nil
}
