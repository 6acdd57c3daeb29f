package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/pipeline"
	"github.com/bob7452/Icarus/pkg/utils"
)

// addSnapshotCommands adds the snapshot pipeline commands.
func addSnapshotCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSnapshotCmd(app))
}

func newSnapshotCmd(app *App) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch, value, and commit an option chain snapshot",
		Long: `Fetch the option chains for the configured symbols, solve implied
volatility and Greeks per contract, and commit the snapshot once the freshness
gate confirms the provider has advanced to a new session. Retries while the
provider still serves the previous session's open interest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("snapshot store unavailable")
			}

			session, err := resolveSession(dateFlag)
			if err != nil {
				return err
			}

			producer := pipeline.NewProducer(app.Fetcher, app.Config, app.Logger)
			gate := pipeline.NewGate(app.Store, app.Logger)
			runner := pipeline.NewRunner(producer, gate, app.Config, app.Logger)

			if err := runner.Run(cmd.Context(), session); err != nil {
				switch {
				case apperrors.Is(err, apperrors.ErrStaleData):
					output.Warning("Provider data did not advance; session %s not committed",
						session.Format("2006-01-02"))
				case apperrors.Is(err, apperrors.ErrNoSessionData):
					output.Warning("No session data for %s", session.Format("2006-01-02"))
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{
					"session": session.Format("2006-01-02"),
					"status":  "committed",
				})
			}
			output.Success("Snapshot committed for session %s", session.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "session date YYYY-MM-DD (default: previous session close)")
	return cmd
}

// resolveSession maps the --date flag to a session-close timestamp. Without a
// flag the previous completed session is used, so an evening run picks up the
// day that just closed.
func resolveSession(dateFlag string) (time.Time, error) {
	if dateFlag == "" {
		return utils.PreviousSessionClose(time.Now()), nil
	}
	d, err := time.ParseInLocation("2006-01-02", dateFlag, utils.EasternLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", dateFlag, err)
	}
	return utils.SessionClose(d), nil
}
