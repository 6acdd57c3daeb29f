// Package config provides configuration management for the skew tracker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/bob7452/Icarus/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Symbols   []string        `mapstructure:"symbols"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Freshness FreshnessConfig `mapstructure:"freshness"`
	Skew      SkewConfig      `mapstructure:"skew"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PricingConfig holds valuation inputs shared by every contract.
type PricingConfig struct {
	RiskFreeRate  float64 `mapstructure:"risk_free_rate"`
	DividendYield float64 `mapstructure:"dividend_yield"`
}

// FreshnessConfig holds the retry policy for the freshness gate.
type FreshnessConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// DeltaBand is an inclusive-by-convention delta window with the target delta
// the nearest-neighbor selection aims for.
type DeltaBand struct {
	Min    float64 `mapstructure:"min"`
	Max    float64 `mapstructure:"max"`
	Target float64 `mapstructure:"target"`
}

// Contains reports whether delta lies inside the band.
func (b DeltaBand) Contains(delta float64) bool {
	return delta >= b.Min && delta <= b.Max
}

// SkewConfig holds the skew extraction parameters.
type SkewConfig struct {
	PriceRangePct float64   `mapstructure:"price_range_pct"`
	MaxDTE        int       `mapstructure:"max_dte"`
	ATMPut        DeltaBand `mapstructure:"atm_put"`
	ATMCall       DeltaBand `mapstructure:"atm_call"`
	Put10Delta    DeltaBand `mapstructure:"put_10delta"`
	Put25Delta    DeltaBand `mapstructure:"put_25delta"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/icarus"
	}
	return filepath.Join(home, ".config", "icarus")
}

// Default returns the built-in configuration, matching the documented design
// values: 12 retries at 300s, ±30% strike window, 180-day dte cutoff, and the
// standard delta bands for the four skew anchors.
func Default() *Config {
	return &Config{
		Symbols: []string{"SPY", "^VIX"},
		Pricing: PricingConfig{
			RiskFreeRate:  0.04,
			DividendYield: 0.0,
		},
		Freshness: FreshnessConfig{
			RetryInterval: 300 * time.Second,
			MaxAttempts:   12,
		},
		Skew: SkewConfig{
			PriceRangePct: 0.30,
			MaxDTE:        180,
			ATMPut:        DeltaBand{Min: -0.65, Max: -0.35, Target: -0.50},
			ATMCall:       DeltaBand{Min: 0.35, Max: 0.65, Target: 0.50},
			Put10Delta:    DeltaBand{Min: -0.20, Max: -0.05, Target: -0.10},
			Put25Delta:    DeltaBand{Min: -0.30, Max: -0.20, Target: -0.25},
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(DefaultConfigDir(), "option_data.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// First run: write a commented template so the defaults are visible.
		if err := writeTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("symbols", cfg.Symbols)
	v.SetDefault("pricing.risk_free_rate", cfg.Pricing.RiskFreeRate)
	v.SetDefault("pricing.dividend_yield", cfg.Pricing.DividendYield)
	v.SetDefault("freshness.retry_interval", cfg.Freshness.RetryInterval)
	v.SetDefault("freshness.max_attempts", cfg.Freshness.MaxAttempts)
	v.SetDefault("skew.price_range_pct", cfg.Skew.PriceRangePct)
	v.SetDefault("skew.max_dte", cfg.Skew.MaxDTE)
	v.SetDefault("storage.db_path", cfg.Storage.DBPath)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ICARUS_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("ICARUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "symbols must not be empty")
	}
	if c.Pricing.DividendYield < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "dividend_yield must be non-negative")
	}
	if c.Freshness.MaxAttempts < 1 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max_attempts must be at least 1")
	}
	if c.Freshness.RetryInterval <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "retry_interval must be positive")
	}
	if c.Skew.PriceRangePct <= 0 || c.Skew.PriceRangePct >= 1 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "price_range_pct must be in (0, 1)")
	}
	if c.Skew.MaxDTE <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max_dte must be positive")
	}
	if c.Storage.DBPath == "" {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "db_path must not be empty")
	}
	for name, band := range map[string]DeltaBand{
		"atm_put":     c.Skew.ATMPut,
		"atm_call":    c.Skew.ATMCall,
		"put_10delta": c.Skew.Put10Delta,
		"put_25delta": c.Skew.Put25Delta,
	} {
		if band.Min >= band.Max {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "delta band %s: min must be below max", name)
		}
		if !band.Contains(band.Target) {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "delta band %s: target outside band", name)
		}
	}
	return nil
}
