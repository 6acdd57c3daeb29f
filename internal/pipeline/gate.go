package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/internal/store"
)

// GateState is a state of the freshness gate's state machine.
type GateState string

const (
	StateFetched   GateState = "FETCHED"
	StateChecking  GateState = "CHECKING"
	StateCommitted GateState = "COMMITTED"
	StateNotReady  GateState = "NOT_READY"
)

// GateResult is the typed outcome of one gate evaluation. StaleSymbols lists
// the symbols whose open interest had not advanced when State is NOT_READY.
type GateResult struct {
	State        GateState
	StaleSymbols []string
}

// Committed reports whether the candidate was committed.
func (r GateResult) Committed() bool { return r.State == StateCommitted }

// Gate decides whether a candidate snapshot reflects a genuinely new trading
// session before it is committed. Providers may serve the previous session's
// open interest until their nightly batch completes; committing such data
// would corrupt the diff history.
type Gate struct {
	store  store.SnapshotStore
	logger zerolog.Logger
}

// NewGate creates a freshness gate over the snapshot store.
func NewGate(st store.SnapshotStore, logger zerolog.Logger) *Gate {
	return &Gate{store: st, logger: logger}
}

// CheckAndCommit evaluates the candidate against the last committed snapshot
// and, when every symbol is fresh, appends all rows atomically. A single
// stale symbol blocks the whole commit so that cross-symbol sessions stay
// aligned. NOT_READY has no persistent side effect.
func (g *Gate) CheckAndCommit(ctx context.Context, candidate []models.ContractSnapshot) (GateResult, error) {
	if len(candidate) == 0 {
		return GateResult{State: StateNotReady}, fmt.Errorf("empty candidate snapshot")
	}

	session := candidate[0].Date
	bySymbol := make(map[string][]models.ContractSnapshot)
	for i := range candidate {
		c := &candidate[i]
		if !c.Date.Equal(session) {
			return GateResult{State: StateNotReady},
				fmt.Errorf("candidate spans sessions %s and %s", session, c.Date)
		}
		bySymbol[c.Symbol] = append(bySymbol[c.Symbol], *c)
	}

	var stale []string
	for symbol, rows := range bySymbol {
		fresh, err := g.symbolFresh(ctx, symbol, session, rows)
		if err != nil {
			return GateResult{State: StateNotReady}, err
		}
		if !fresh {
			stale = append(stale, symbol)
		}
	}

	if len(stale) > 0 {
		sort.Strings(stale)
		g.logger.Info().
			Strs("stale_symbols", stale).
			Str("session", session.Format("2006-01-02")).
			Msg("Candidate not ready")
		return GateResult{State: StateNotReady, StaleSymbols: stale}, nil
	}

	if err := g.store.AppendSnapshots(ctx, candidate); err != nil {
		return GateResult{State: StateNotReady}, apperrors.Wrap(err, "committing candidate snapshot")
	}

	return GateResult{State: StateCommitted}, nil
}

// symbolFresh joins the candidate rows against the previous committed
// snapshot on (strike, option_type, expiration). A contract absent from the
// previous session, or any open-interest change, proves the provider has
// advanced. An identical chain means its nightly batch has not run yet.
func (g *Gate) symbolFresh(ctx context.Context, symbol string, session time.Time, rows []models.ContractSnapshot) (bool, error) {
	prevDate, ok, err := g.store.LatestCommittedDateBefore(ctx, symbol, session)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil // first run
	}

	prevRows, err := g.store.RowsForDate(ctx, []string{symbol}, prevDate)
	if err != nil {
		return false, err
	}

	prevOI := make(map[models.ContractKey]int64, len(prevRows))
	for i := range prevRows {
		prevOI[prevRows[i].Key()] = prevRows[i].OpenInterest
	}

	for i := range rows {
		oi, exists := prevOI[rows[i].Key()]
		if !exists {
			return true, nil // chain structurally changed
		}
		if oi != rows[i].OpenInterest {
			return true, nil
		}
	}

	return false, nil
}
