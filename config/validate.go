package config

import (
	"fmt"
	"strings"

	"basalt/observability/logging"
	"basalt/storage"
)

func ValidateConfig(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case storage.BackendLevelDB, storage.BackendBolt, storage.BackendMemory:
	default:
		return fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if cfg.LogMaxSizeMB < 0 || cfg.LogMaxBackups < 0 {
		return fmt.Errorf("logging: rotation limits must not be negative")
	}
	if _, err := cfg.CDP.Params(); err != nil {
		return err
	}
	defaults, err := cfg.CDP.ProtocolDefaults()
	if err != nil {
		return err
	}
	if defaults.CollateralRatio == 0 || defaults.LiquidationThreshold == 0 || defaults.LiquidationThreshold >= defaults.CollateralRatio {
		return fmt.Errorf("cdp: liquidation threshold must be positive and below the collateral ratio")
	}
	if _, err := cfg.Issuance.PaymentMintAddress(); err != nil {
		return err
	}
	return nil
}

// LoggingOptions maps the logging keys onto the logger's options.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	}
}
