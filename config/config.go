package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"basalt/crypto"

	"github.com/BurntSushi/toml"
)

// OperatorPassphraseEnv names the variable holding the operator keystore
// passphrase. A default config is only generated when it is set.
const OperatorPassphraseEnv = "BASALT_OPERATOR_PASSPHRASE"

type Config struct {
	DataDir              string `toml:"DataDir"`
	Backend              string `toml:"Backend"`
	Environment          string `toml:"Environment"`
	OperatorKeystorePath string `toml:"OperatorKeystorePath"`
	LogLevel             string `toml:"LogLevel"`
	LogFile              string `toml:"LogFile"`
	LogMaxSizeMB         int    `toml:"LogMaxSizeMB"`
	LogMaxBackups        int    `toml:"LogMaxBackups"`

	CDP      CDP      `toml:"cdp"`
	Issuance Issuance `toml:"issuance"`
	Global   Global   `toml:"global"`
}

// Load loads the configuration from the given path, creating a default file
// and operator keystore when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(cfg)
	if cfg.OperatorKeystorePath != "" && !filepath.IsAbs(cfg.OperatorKeystorePath) {
		cfg.OperatorKeystorePath = filepath.Join(filepath.Dir(path), cfg.OperatorKeystorePath)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./basalt-data"
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = "leveldb"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	cfg.CDP.applyDefaults()
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	passphrase := os.Getenv(OperatorPassphraseEnv)
	if passphrase == "" {
		return nil, errors.New("config: " + OperatorPassphraseEnv + " must be set to create the operator keystore")
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, passphrase); err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.OperatorKeystorePath = keystorePath
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
