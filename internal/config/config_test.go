package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/bob7452/Icarus/internal/errors"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Freshness.MaxAttempts != 12 {
		t.Errorf("max attempts = %d, want 12", cfg.Freshness.MaxAttempts)
	}
	if cfg.Freshness.RetryInterval != 300*time.Second {
		t.Errorf("retry interval = %v, want 300s", cfg.Freshness.RetryInterval)
	}
	if cfg.Skew.PriceRangePct != 0.30 {
		t.Errorf("price range = %v, want 0.30", cfg.Skew.PriceRangePct)
	}
	if cfg.Skew.MaxDTE != 180 {
		t.Errorf("max dte = %d, want 180", cfg.Skew.MaxDTE)
	}
	if cfg.Pricing.RiskFreeRate != 0.04 {
		t.Errorf("risk-free rate = %v, want 0.04", cfg.Pricing.RiskFreeRate)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDeltaBandContains(t *testing.T) {
	band := DeltaBand{Min: -0.20, Max: -0.05, Target: -0.10}

	tests := []struct {
		delta float64
		want  bool
	}{
		{-0.10, true},
		{-0.20, true},
		{-0.05, true},
		{-0.21, false},
		{-0.04, false},
		{0.10, false},
	}
	for _, tt := range tests {
		if got := band.Contains(tt.delta); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"negative dividend yield", func(c *Config) { c.Pricing.DividendYield = -0.01 }},
		{"zero attempts", func(c *Config) { c.Freshness.MaxAttempts = 0 }},
		{"price range too large", func(c *Config) { c.Skew.PriceRangePct = 1.5 }},
		{"zero dte", func(c *Config) { c.Skew.MaxDTE = 0 }},
		{"target outside band", func(c *Config) { c.Skew.ATMPut.Target = -0.90 }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted invalid config")
			}
			if !apperrors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("Validate() error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestLoadWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Freshness.MaxAttempts != 12 {
		t.Errorf("first-run config not defaults: %d attempts", cfg.Freshness.MaxAttempts)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template config not written: %v", err)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
symbols = ["QQQ"]

[freshness]
retry_interval = "60s"
max_attempts = 4

[skew]
price_range_pct = 0.25
max_dte = 90
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Symbols) != 1 || cfg.Symbols[0] != "QQQ" {
		t.Errorf("symbols = %v, want [QQQ]", cfg.Symbols)
	}
	if cfg.Freshness.MaxAttempts != 4 {
		t.Errorf("max attempts = %d, want 4", cfg.Freshness.MaxAttempts)
	}
	if cfg.Freshness.RetryInterval != 60*time.Second {
		t.Errorf("retry interval = %v, want 60s", cfg.Freshness.RetryInterval)
	}
	if cfg.Skew.MaxDTE != 90 {
		t.Errorf("max dte = %d, want 90", cfg.Skew.MaxDTE)
	}
	// Unset sections keep their defaults.
	if cfg.Pricing.RiskFreeRate != 0.04 {
		t.Errorf("risk-free rate = %v, want default 0.04", cfg.Pricing.RiskFreeRate)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ICARUS_DB_PATH", "/tmp/icarus-test.db")
	t.Setenv("ICARUS_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.DBPath != "/tmp/icarus-test.db" {
		t.Errorf("db path = %s, want env override", cfg.Storage.DBPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Logging.Level)
	}
}
