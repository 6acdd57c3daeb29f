// Package cli provides the command-line interface for the skew tracker.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bob7452/Icarus/internal/config"
	"github.com/bob7452/Icarus/internal/logging"
	"github.com/bob7452/Icarus/internal/provider"
	"github.com/bob7452/Icarus/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.SnapshotStore
	Fetcher provider.ChainFetcher
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Fetcher: provider.NewYahooFetcher(logger),
	}

	snapshotStore, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, snapshot commands unavailable")
	} else {
		app.Store = snapshotStore
		logger.Debug().Str("db", cfg.Storage.DBPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "icarus",
		Short: "Icarus - option skew snapshot and tracking CLI",
		Long: `Icarus snapshots an options market, solves each contract's implied
volatility, and tracks how the per-expiration volatility skew changes from one
trading session to the next.

Use 'icarus help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/icarus)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addSnapshotCommands(rootCmd, app)
	addSkewCommands(rootCmd, app)
	addReportCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Icarus v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Symbols")
	for _, s := range cfg.Symbols {
		output.Printf("  %s\n", s)
	}
	output.Println()

	output.Bold("Pricing")
	output.Printf("  Risk-free rate:  %.4f\n", cfg.Pricing.RiskFreeRate)
	output.Printf("  Dividend yield:  %.4f\n", cfg.Pricing.DividendYield)
	output.Println()

	output.Bold("Freshness Gate")
	output.Printf("  Retry interval:  %s\n", cfg.Freshness.RetryInterval)
	output.Printf("  Max attempts:    %d\n", cfg.Freshness.MaxAttempts)
	output.Println()

	output.Bold("Skew Extraction")
	output.Printf("  Price range:     ±%.0f%%\n", cfg.Skew.PriceRangePct*100)
	output.Printf("  Max DTE:         %d\n", cfg.Skew.MaxDTE)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:        %s\n", cfg.Storage.DBPath)

	return nil
}
