package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# Icarus Option Skew Tracker Configuration

# Underlyings to snapshot each session
symbols = ["SPY", "^VIX"]

[pricing]
# Continuously-compounded risk-free rate used for every contract
risk_free_rate = 0.04
# Constant dividend yield (0 disables the dividend adjustment)
dividend_yield = 0.0

[freshness]
# Wait between freshness retries when the provider still serves stale data
retry_interval = "300s"
# Give up and fail the session after this many attempts
max_attempts = 12

[skew]
# Strikes outside spot * (1 +/- price_range_pct) are ignored
price_range_pct = 0.30
# Contracts further out than this many days are ignored
max_dte = 180

[storage]
# SQLite database path (empty uses ~/.config/icarus/option_data.db)
# db_path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
`

// writeTemplateConfig writes a commented config.toml so a first run leaves
// the defaults on disk for the user to edit.
func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
