package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bob7452/Icarus/internal/report"
)

// addReportCommands adds the CSV reporting command.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newReportCmd(app))
}

func newReportCmd(app *App) *cobra.Command {
	var symbol string
	var outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the nearest-monthly skew history as CSV",
		Long: `Project the stored skew history onto each session's target monthly
expiration (the third Friday) and export it as CSV. Metric values at or above
the trailing 95th percentile are tagged in the alert columns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("snapshot store unavailable")
			}

			reporter := report.NewReporter(app.Store, app.Logger)
			rows, err := reporter.Build(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				output.Warning("No reportable skew history for %s", symbol)
				return nil
			}

			if outPath == "" {
				return reporter.WriteCSV(cmd.OutOrStdout(), rows)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer f.Close()

			if err := reporter.WriteCSV(f, rows); err != nil {
				return err
			}
			output.Success("Wrote %d rows to %s", len(rows), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "SPY", "underlying symbol")
	cmd.Flags().StringVar(&outPath, "out", "", "output CSV path (default: stdout)")
	return cmd
}
