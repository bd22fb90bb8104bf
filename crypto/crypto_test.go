package crypto

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, AddressLength)
	addr := MustNewAddress(AccountPrefix, raw)
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) || decoded.Prefix() != AccountPrefix {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
	if _, err := NewAddress(AccountPrefix, raw[:5]); err == nil {
		t.Fatalf("expected short address to be rejected")
	}
	if !(Address{}).IsZero() {
		t.Fatalf("zero value should be zero")
	}
}

func TestDeriveProgramAddressIsDeterministic(t *testing.T) {
	program := ProgramID("cdp")
	owner := bytes.Repeat([]byte{0x01}, AddressLength)

	first, bump, err := DeriveProgramAddress(program, []byte("vault"), owner)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, bump2, err := DeriveProgramAddress(program, []byte("vault"), owner)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !first.Equal(second) || bump != bump2 {
		t.Fatalf("derivation not deterministic")
	}
	recreated, ok := CreateProgramAddress(program, bump, []byte("vault"), owner)
	if !ok || !recreated.Equal(first) {
		t.Fatalf("canonical bump does not recreate the address")
	}
	for b := 255; b > int(bump); b-- {
		if _, ok := CreateProgramAddress(program, uint8(b), []byte("vault"), owner); ok {
			t.Fatalf("bump %d is viable but above canonical %d", b, bump)
		}
	}

	other, _, err := DeriveProgramAddress(ProgramID("issuance"), []byte("vault"), owner)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if other.Equal(first) {
		t.Fatalf("different programs must derive different addresses")
	}
}

func TestRecoverSigner(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	digest := ethcrypto.Keccak256([]byte("instruction"))
	sig, err := Sign(digest, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !signer.Valid() || !signer.Address().Equal(key.PubKey().Address()) {
		t.Fatalf("recovered %s, want %s", signer, key.PubKey().Address())
	}

	tampered := ethcrypto.Keccak256([]byte("other"))
	recovered, err := RecoverSigner(tampered, sig)
	if err == nil && recovered.Address().Equal(signer.Address()) {
		t.Fatalf("signature must not verify for a different digest")
	}
	if _, err := RecoverSigner(digest, sig[:10]); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
	if (Signer{}).Valid() {
		t.Fatalf("zero signer must not be valid")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "operator.keystore")
	if err := SaveToKeystore(path, key, "secret"); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Setenv("BASALT_TEST_PASS", "secret")
	loaded, signer, err := LoadSigner(path, "BASALT_TEST_PASS")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), key.Bytes()) {
		t.Fatalf("loaded key mismatch")
	}
	if !signer.Address().Equal(key.PubKey().Address()) {
		t.Fatalf("signer mismatch")
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected wrong passphrase to fail")
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	addr := MustNewAddress(MintPrefix, bytes.Repeat([]byte{0x07}, AddressLength))
	text, err := addr.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Address
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(addr) || decoded.Prefix() != MintPrefix {
		t.Fatalf("text round trip mismatch: %s", decoded)
	}
}
