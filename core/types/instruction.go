package types

import (
	"errors"
	"math/big"

	"basalt/crypto"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Program names routed by the runtime.
const (
	ProgramCDP      = "cdp"
	ProgramIssuance = "issuance"
)

var ErrUnsigned = errors.New("types: instruction is not signed")

// Instruction is a signed request to run one operation of a native program.
// Args carries the RLP encoding of the operation's argument struct.
type Instruction struct {
	Program string `json:"program"`
	Op      string `json:"op"`
	Args    []byte `json:"args"`
	Nonce   uint64 `json:"nonce"`

	R *big.Int `json:"r,omitempty"`
	S *big.Int `json:"s,omitempty"`
	V *big.Int `json:"v,omitempty"`

	signer *crypto.Signer
}

// Hash returns the Keccak256 digest of the unsigned instruction fields.
func (ins *Instruction) Hash() ([]byte, error) {
	payload := struct {
		Program string
		Op      string
		Args    []byte
		Nonce   uint64
	}{ins.Program, ins.Op, ins.Args, ins.Nonce}
	b, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, err
	}
	return ethcrypto.Keccak256(b), nil
}

// Sign attaches a recoverable signature made with key.
func (ins *Instruction) Sign(key *crypto.PrivateKey) error {
	hash, err := ins.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return err
	}
	ins.R = new(big.Int).SetBytes(sig[:32])
	ins.S = new(big.Int).SetBytes(sig[32:64])
	ins.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	ins.signer = nil
	return nil
}

// Signer recovers the account that signed the instruction. The result is
// cached after the first successful recovery.
func (ins *Instruction) Signer() (crypto.Signer, error) {
	if ins.signer != nil {
		return *ins.signer, nil
	}
	if ins.R == nil || ins.S == nil || ins.V == nil {
		return crypto.Signer{}, ErrUnsigned
	}
	hash, err := ins.Hash()
	if err != nil {
		return crypto.Signer{}, err
	}
	rBytes, sBytes := ins.R.Bytes(), ins.S.Bytes()
	if len(rBytes) > 32 || len(sBytes) > 32 || ins.V.Uint64() < 27 {
		return crypto.Signer{}, crypto.ErrInvalidSignature
	}
	sig := make([]byte, 65)
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = byte(ins.V.Uint64() - 27)
	signer, err := crypto.RecoverSigner(hash, sig)
	if err != nil {
		return crypto.Signer{}, err
	}
	ins.signer = &signer
	return signer, nil
}

// EncodeArgs RLP-encodes an argument struct into the Args field.
func (ins *Instruction) EncodeArgs(args interface{}) error {
	b, err := rlp.EncodeToBytes(args)
	if err != nil {
		return err
	}
	ins.Args = b
	ins.signer = nil
	return nil
}

// DecodeArgs decodes the Args field into out.
func (ins *Instruction) DecodeArgs(out interface{}) error {
	return rlp.DecodeBytes(ins.Args, out)
}
