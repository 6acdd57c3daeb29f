package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/bob7452/Icarus/internal/config"
	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/logging"
	"github.com/bob7452/Icarus/internal/models"
)

// SleepFunc blocks for d or until ctx is cancelled. Injectable so the retry
// loop can be tested without real waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Runner drives the fetch-check-commit cycle: build a candidate snapshot,
// run it through the freshness gate, and retry on NOT_READY until the
// provider's data advances or the attempt budget is spent.
type Runner struct {
	producer *Producer
	gate     *Gate
	cfg      *config.Config
	logger   zerolog.Logger
	sleep    SleepFunc
}

// NewRunner wires the producer and gate into a retrying pipeline.
func NewRunner(producer *Producer, gate *Gate, cfg *config.Config, logger zerolog.Logger) *Runner {
	return &Runner{
		producer: producer,
		gate:     gate,
		cfg:      cfg,
		logger:   logger,
		sleep:    defaultSleep,
	}
}

// Run executes the snapshot pipeline for the given session. Each attempt
// refetches the full candidate, so late-arriving provider updates are picked
// up. Exhausting the budget returns ErrStaleData; provider and store errors
// abort immediately.
func (r *Runner) Run(ctx context.Context, session time.Time) error {
	maxAttempts := r.cfg.Freshness.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate, err := r.producer.BuildCandidate(ctx, session)
		if err != nil {
			return err
		}

		result, err := r.gate.CheckAndCommit(ctx, candidate)
		if err != nil {
			return err
		}
		logging.LogGateDecision(r.logger, session, result.Committed(), attempt)

		if result.Committed() {
			logging.LogCommit(r.logger, session, symbolsOf(candidate), len(candidate))
			return nil
		}

		if attempt < maxAttempts {
			if err := r.sleep(ctx, r.cfg.Freshness.RetryInterval); err != nil {
				return err
			}
		}
	}

	return apperrors.Wrapf(apperrors.ErrStaleData,
		"open interest unchanged after %d attempts", maxAttempts)
}

func symbolsOf(rows []models.ContractSnapshot) []string {
	seen := make(map[string]struct{})
	var symbols []string
	for i := range rows {
		if _, ok := seen[rows[i].Symbol]; ok {
			continue
		}
		seen[rows[i].Symbol] = struct{}{}
		symbols = append(symbols, rows[i].Symbol)
	}
	sort.Strings(symbols)
	return symbols
}
