package skew

import (
	"context"
	"sort"
	"time"

	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/internal/store"
)

// Differ computes the session-over-session change of skew metrics.
type Differ struct {
	store store.SnapshotStore
}

// NewDiffer creates a differ over the snapshot store.
func NewDiffer(st store.SnapshotStore) *Differ {
	return &Differ{store: st}
}

// Diff loads the two most recent distinct skew dates for symbol and returns
// the metric-wise change per expiration. Returns ErrInsufficientHistory when
// fewer than two skew dates exist.
func (d *Differ) Diff(ctx context.Context, symbol string) ([]models.SkewDiff, error) {
	newest, prev, err := d.store.LatestTwoSkewDates(ctx, symbol)
	if err != nil {
		return nil, err
	}

	newer, err := d.store.SkewRowsForDate(ctx, symbol, newest)
	if err != nil {
		return nil, err
	}
	older, err := d.store.SkewRowsForDate(ctx, symbol, prev)
	if err != nil {
		return nil, err
	}

	return DiffPoints(newer, older), nil
}

// DiffPoints inner-joins two sessions' skew rows on expiration and subtracts
// metric-wise. Expirations listed on only one side are dropped. The diff's
// date is the newer session's.
func DiffPoints(newer, older []models.SkewPoint) []models.SkewDiff {
	prevByExp := make(map[time.Time]models.SkewPoint, len(older))
	for _, p := range older {
		prevByExp[p.Expiration] = p
	}

	var diffs []models.SkewDiff
	for _, p := range newer {
		q, ok := prevByExp[p.Expiration]
		if !ok {
			continue
		}
		diffs = append(diffs, models.SkewDiff{
			Symbol:         p.Symbol,
			Date:           p.SnapshotDate,
			Expiration:     p.Expiration,
			Put10DeltaSkew: metricDelta(p.Put10DeltaSkew, q.Put10DeltaSkew),
			Put25DeltaSkew: metricDelta(p.Put25DeltaSkew, q.Put25DeltaSkew),
			CallPutSkew:    metricDelta(p.CallPutSkew, q.CallPutSkew),
		})
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Expiration.Before(diffs[j].Expiration) })
	return diffs
}

// metricDelta returns new − old, or nil when either side is absent.
func metricDelta(newVal, oldVal *float64) *float64 {
	if newVal == nil || oldVal == nil {
		return nil
	}
	return models.Float64Ptr(*newVal - *oldVal)
}
