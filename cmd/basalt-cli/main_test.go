package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliHarness struct {
	t   *testing.T
	dir string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	dir := t.TempDir()
	cfg := "DataDir = \"" + filepath.ToSlash(filepath.Join(dir, "data")) + "\"\n" +
		"Backend = \"bolt\"\n" +
		"LogFile = \"" + filepath.ToSlash(filepath.Join(dir, "basalt.log")) + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(defaultPassEnv, "cli-test-passphrase")
	original := configPath
	t.Cleanup(func() { configPath = original })
	return &cliHarness{t: t, dir: dir}
}

func (h *cliHarness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", filepath.Join(h.dir, "config.toml")}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (h *cliHarness) mustRun(args ...string) map[string]interface{} {
	h.t.Helper()
	code, stdout, stderr := h.run(args...)
	if code != 0 {
		h.t.Fatalf("%v exited %d: %s", args, code, stderr)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		h.t.Fatalf("decode %v output %q: %v", args, stdout, err)
	}
	return out
}

func (h *cliHarness) keygen(name string) (string, string) {
	h.t.Helper()
	path := filepath.Join(h.dir, name+".keystore")
	out := h.mustRun("keygen", "--out", path)
	return path, out["address"].(string)
}

func TestCDPLifecycleThroughCLI(t *testing.T) {
	h := newCLIHarness(t)
	adminKey, _ := h.keygen("admin")
	userKey, userAddr := h.keygen("user")

	h.mustRun("faucet", "--mint", "gold", "--to", userAddr, "--amount", "500")
	h.mustRun("init-protocol", "--key", adminKey, "--collateral-mint", "gold", "--debt-mint", "usd")

	receipt := h.mustRun("mint", "--key", userKey, "--deposit", "150", "--amount", "225")
	if receipt["op"] != "mint" || receipt["signer"] != userAddr {
		t.Fatalf("unexpected receipt: %v", receipt)
	}
	eventsOut, _ := receipt["events"].([]interface{})
	if len(eventsOut) != 1 {
		t.Fatalf("expected one event, got %v", receipt["events"])
	}

	code, _, stderr := h.run("mint", "--key", userKey, "--amount", "1")
	if code == 0 || !strings.Contains(stderr, "exceeds mint limit") {
		t.Fatalf("expected mint limit rejection, got %d %q", code, stderr)
	}

	balance := h.mustRun("balance", "--mint", "usd", "--owner", userAddr)
	if balance["balance"].(float64) != 225 {
		t.Fatalf("unexpected debt balance: %v", balance)
	}
	vault := h.mustRun("vault", "--owner", userAddr)
	if vault["liquidatable"] != true {
		t.Fatalf("expected a vault minted at the multiplier limit to be liquidatable: %v", vault)
	}

	nonce := h.mustRun("nonce", "--address", userAddr)
	if nonce["nonce"].(float64) != 1 {
		t.Fatalf("rejected mint must not consume a nonce: %v", nonce)
	}
}

func TestIssuanceThroughCLI(t *testing.T) {
	h := newCLIHarness(t)
	adminKey, _ := h.keygen("admin")
	userKey, userAddr := h.keygen("user")

	h.mustRun("init-issuance", "--key", adminKey, "--token-mint", "bsl", "--max-supply", "100", "--price", "2")
	h.mustRun("faucet", "--mint", "native", "--to", userAddr, "--amount", "10")
	cfg := h.mustRun("mint-tokens", "--key", userKey, "--amount", "5")
	result := cfg["result"].(map[string]interface{})
	if result["totalMinted"].(float64) != 5 {
		t.Fatalf("unexpected result: %v", result)
	}

	h.mustRun("update-issuance", "--key", adminKey, "--active=false")
	issuance := h.mustRun("issuance")
	if issuance["isActive"] != false || issuance["maxSupply"].(float64) != 100 {
		t.Fatalf("sparse update changed unrelated fields: %v", issuance)
	}

	h.mustRun("set-metadata", "--key", adminKey, "--mint", "bsl", "--name", "Basalt", "--symbol", "BSL", "--uri", "ipfs://bsl")
	meta := h.mustRun("metadata", "--mint", "bsl")
	if meta["symbol"] != "BSL" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newCLIHarness(t)
	code, _, stderr := h.run("teleport")
	if code == 0 || !strings.Contains(stderr, "Unknown command") {
		t.Fatalf("expected unknown command error, got %d %q", code, stderr)
	}
}
