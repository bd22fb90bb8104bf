package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"basalt/crypto"
	"basalt/native/cdp"
	"basalt/native/issuance"
)

const testKeystorePassphrase = "test-passphrase"

var testPaymentMint = crypto.MustNewAddress(crypto.MintPrefix, bytes.Repeat([]byte{0x42}, crypto.AddressLength)).String()

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `DataDir = "/var/lib/basalt"
Backend = "bolt"
Environment = "staging"
OperatorKeystorePath = "keys/operator.keystore"
LogLevel = "debug"
LogFile = "/var/log/basalt.log"
LogMaxSizeMB = 64
LogMaxBackups = 3

[cdp]
CollateralRatio = "2"
LiquidationThreshold = "1.25"
InterestRate = "0.1"
MinAmount = 10
MaxVaultsPerUser = 3
LiquidationBonusBps = 500
MintPolicy = "collateralized"
AccrueOnMutation = true

[issuance]
PaymentMint = "`+testPaymentMint+`"
MaxSupply = 1000000
MintPrice = 25

[global.pauses]
Issuance = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "bolt" || cfg.Environment != "staging" || cfg.LogMaxSizeMB != 64 {
		t.Fatalf("unexpected top-level values: %+v", cfg)
	}
	if want := filepath.Join(filepath.Dir(path), "keys", "operator.keystore"); cfg.OperatorKeystorePath != want {
		t.Fatalf("keystore path not resolved relative to config: %s", cfg.OperatorKeystorePath)
	}

	params, err := cfg.CDP.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.MinAmount != 10 || params.MaxVaultsPerUser != 3 || params.LiquidationBonusBps != 500 {
		t.Fatalf("unexpected params: %+v", params)
	}
	if params.MintPolicy != cdp.MintPolicyCollateralized || !params.AccrueOnMutation {
		t.Fatalf("unexpected policy: %+v", params)
	}

	defaults, err := cfg.CDP.ProtocolDefaults()
	if err != nil {
		t.Fatalf("protocol defaults: %v", err)
	}
	if defaults.CollateralRatio != 2_000_000_000_000_000_000 {
		t.Fatalf("collateral ratio: %d", defaults.CollateralRatio)
	}
	if defaults.LiquidationThreshold != 1_250_000_000_000_000_000 {
		t.Fatalf("liquidation threshold: %d", defaults.LiquidationThreshold)
	}
	if defaults.InterestRate != 100_000_000_000_000_000 {
		t.Fatalf("interest rate: %d", defaults.InterestRate)
	}

	mint, err := cfg.Issuance.PaymentMintAddress()
	if err != nil {
		t.Fatalf("payment mint: %v", err)
	}
	if mint.String() != testPaymentMint {
		t.Fatalf("payment mint: %s", mint)
	}
	pauses := cfg.Global.Pauses.PauseView()
	if !pauses.IsPaused("issuance") || pauses.IsPaused("cdp") {
		t.Fatalf("unexpected pauses: %v", pauses)
	}

	opts := cfg.LoggingOptions()
	if opts.Level != "debug" || opts.File != "/var/log/basalt.log" || opts.MaxBackups != 3 {
		t.Fatalf("unexpected logging options: %+v", opts)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `DataDir = "./data"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "leveldb" || cfg.LogLevel != "info" || cfg.Environment != "local" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	params, err := cfg.CDP.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params != cdp.DefaultParams() {
		t.Fatalf("expected default params, got %+v", params)
	}
	defaults, err := cfg.CDP.ProtocolDefaults()
	if err != nil {
		t.Fatalf("protocol defaults: %v", err)
	}
	if defaults.CollateralRatio != cdp.DefaultCollateralRatio ||
		defaults.LiquidationThreshold != cdp.DefaultLiquidationThreshold ||
		defaults.InterestRate != cdp.DefaultInterestRate {
		t.Fatalf("unexpected protocol defaults: %+v", defaults)
	}
	mint, err := cfg.Issuance.PaymentMintAddress()
	if err != nil {
		t.Fatalf("payment mint: %v", err)
	}
	if !mint.Equal(issuance.NativeMint) {
		t.Fatalf("expected native payment mint, got %s", mint)
	}
}

func TestMintPolicyWarning(t *testing.T) {
	for _, policy := range []string{"", "multiplier", "Multiplier"} {
		if warning := (CDP{MintPolicy: policy}).MintPolicyWarning(); !strings.Contains(warning, "collateralized") {
			t.Fatalf("policy %q: expected a warning pointing at collateralized, got %q", policy, warning)
		}
	}
	if warning := (CDP{MintPolicy: "collateralized"}).MintPolicyWarning(); warning != "" {
		t.Fatalf("collateralized policy should not warn: %q", warning)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "Mystery = 1\n",
		"backend":          "Backend = \"sqlite\"\n",
		"log level":        "LogLevel = \"loud\"\n",
		"threshold":        "[cdp]\nCollateralRatio = \"1.2\"\nLiquidationThreshold = \"1.5\"\n",
		"decimal":          "[cdp]\nInterestRate = \"five\"\n",
		"policy":           "[cdp]\nMintPolicy = \"generous\"\n",
		"bonus":            "[cdp]\nLiquidationBonusBps = 20000\n",
		"payment prefix":   "[issuance]\nPaymentMint = \"" + crypto.MustNewAddress(crypto.AccountPrefix, bytes.Repeat([]byte{1}, crypto.AddressLength)).String() + "\"\n",
		"payment encoding": "[issuance]\nPaymentMint = \"not-bech32\"\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, contents)); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestLoadWithoutPassphraseFailsToCreateDefault(t *testing.T) {
	t.Setenv(OperatorPassphraseEnv, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), OperatorPassphraseEnv) {
		t.Fatalf("expected passphrase error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("config must not be written without a keystore")
	}
}

func TestLoadCreatesKeystoreWithPassphrase(t *testing.T) {
	t.Setenv(OperatorPassphraseEnv, testKeystorePassphrase)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OperatorKeystorePath != filepath.Join(dir, "operator.keystore") {
		t.Fatalf("unexpected keystore path %s", cfg.OperatorKeystorePath)
	}
	if _, _, err := crypto.LoadSigner(cfg.OperatorKeystorePath, OperatorPassphraseEnv); err != nil {
		t.Fatalf("load operator signer: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.OperatorKeystorePath != cfg.OperatorKeystorePath || reloaded.CDP != cfg.CDP {
		t.Fatalf("persisted config differs: %+v vs %+v", reloaded, cfg)
	}
}
