package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/skew"
)

// addSkewCommands adds the skew extraction and diff commands.
func addSkewCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSkewCmd(app))
	rootCmd.AddCommand(newDiffCmd(app))
}

func newSkewCmd(app *App) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "skew",
		Short: "Extract per-expiration skew from the latest committed snapshot",
		Long: `Select representative contracts (at-the-money put/call, 10-delta put,
25-delta put) per expiration from the most recent committed snapshot, compute
the three skew metrics, and store one skew row per expiration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("snapshot store unavailable")
			}

			extractor := skew.NewExtractor(app.Store, app.Config, app.Logger)
			points, err := extractor.ExtractLatest(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(points)
			}

			table := NewTable(output, "EXPIRATION", "PUT 10Δ SKEW", "PUT 25Δ SKEW", "CALL/PUT SKEW")
			for _, p := range points {
				table.AddRow(
					p.Expiration.Format("2006-01-02"),
					FormatMetric(p.Put10DeltaSkew),
					FormatMetric(p.Put25DeltaSkew),
					FormatMetric(p.CallPutSkew),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "SPY", "underlying symbol")
	return cmd
}

func newDiffCmd(app *App) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the skew change between the two most recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("snapshot store unavailable")
			}

			differ := skew.NewDiffer(app.Store)
			diffs, err := differ.Diff(cmd.Context(), symbol)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrInsufficientHistory) {
					output.Warning("Need at least two skew sessions for %s", symbol)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(diffs)
			}

			if len(diffs) == 0 {
				output.Println("No shared expirations between the two sessions.")
				return nil
			}

			output.Bold("Skew change for %s as of %s", symbol, diffs[0].Date.Format("2006-01-02"))
			table := NewTable(output, "EXPIRATION", "Δ PUT 10Δ", "Δ PUT 25Δ", "Δ CALL/PUT")
			for _, d := range diffs {
				table.AddRow(
					d.Expiration.Format("2006-01-02"),
					FormatMetric(d.Put10DeltaSkew),
					FormatMetric(d.Put25DeltaSkew),
					FormatMetric(d.CallPutSkew),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "SPY", "underlying symbol")
	return cmd
}
