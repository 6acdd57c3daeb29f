// Package report projects the skew history onto the nearest monthly
// expiration and exports it as CSV with percentile alert tags.
package report

import (
	"context"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"

	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/internal/store"
)

// alertTag marks a metric at or above its trailing 95th percentile.
const alertTag = "Panic Alert"

// Row is one reported session, projected onto its target monthly expiration.
type Row struct {
	SnapshotDate     string   `csv:"snapshot_date"`
	Expiration       string   `csv:"expiration"`
	TargetExpiration string   `csv:"target_expiration"`
	Put10DeltaSkew   *float64 `csv:"put_10delta_skew"`
	Put25DeltaSkew   *float64 `csv:"put_25delta_skew"`
	CallPutSkew      *float64 `csv:"call_put_skew"`
	Put10DeltaAlert  string   `csv:"put_10delta_q95_alert"`
	Put25DeltaAlert  string   `csv:"put_25delta_q95_alert"`
	CallPutAlert     string   `csv:"call_put_q95_alert"`
}

// Reporter builds the nearest-monthly skew report from stored skew rows.
type Reporter struct {
	store  store.SnapshotStore
	logger zerolog.Logger
}

// NewReporter creates a reporter over the snapshot store.
func NewReporter(st store.SnapshotStore, logger zerolog.Logger) *Reporter {
	return &Reporter{store: st, logger: logger}
}

// ThirdFriday returns the third Friday of the given month.
func ThirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// TargetExpiration resolves the monthly expiration a session reports against:
// the third Friday of the session's month, rolled to the next month once that
// Friday is no longer in the future.
func TargetExpiration(session time.Time) time.Time {
	target := ThirdFriday(session.Year(), session.Month())
	if !target.After(dateOnly(session)) {
		next := session.AddDate(0, 1, 0)
		target = ThirdFriday(next.Year(), next.Month())
	}
	return target
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Build assembles the report: one row per stored skew session, keeping the
// expiration that matches the session's target monthly expiration. Sessions
// whose chain had no row for the target expiration are skipped.
func (r *Reporter) Build(ctx context.Context, symbol string) ([]Row, error) {
	points, err := r.store.AllSkewRows(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var selected []models.SkewPoint
	for _, p := range points {
		target := TargetExpiration(p.SnapshotDate)
		if dateOnly(p.Expiration).Equal(target) {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		r.logger.Warn().Str("symbol", symbol).Msg("No skew rows match a monthly target expiration")
		return nil, nil
	}

	q95Put10 := percentile95(collect(selected, func(p models.SkewPoint) *float64 { return p.Put10DeltaSkew }))
	q95Put25 := percentile95(collect(selected, func(p models.SkewPoint) *float64 { return p.Put25DeltaSkew }))
	q95CallPut := percentile95(collect(selected, func(p models.SkewPoint) *float64 { return p.CallPutSkew }))

	rows := make([]Row, 0, len(selected))
	for _, p := range selected {
		rows = append(rows, Row{
			SnapshotDate:     p.SnapshotDate.Format("2006-01-02"),
			Expiration:       p.Expiration.Format("2006-01-02"),
			TargetExpiration: TargetExpiration(p.SnapshotDate).Format("2006-01-02"),
			Put10DeltaSkew:   p.Put10DeltaSkew,
			Put25DeltaSkew:   p.Put25DeltaSkew,
			CallPutSkew:      p.CallPutSkew,
			Put10DeltaAlert:  alert(p.Put10DeltaSkew, q95Put10),
			Put25DeltaAlert:  alert(p.Put25DeltaSkew, q95Put25),
			CallPutAlert:     alert(p.CallPutSkew, q95CallPut),
		})
	}
	return rows, nil
}

// WriteCSV writes report rows in stable column order.
func (r *Reporter) WriteCSV(w io.Writer, rows []Row) error {
	return gocsv.Marshal(rows, w)
}

func collect(points []models.SkewPoint, get func(models.SkewPoint) *float64) []float64 {
	var vals []float64
	for _, p := range points {
		if v := get(p); v != nil {
			vals = append(vals, *v)
		}
	}
	return vals
}

// percentile95 returns the trailing 95th percentile of the series, or nil
// when the series is empty.
func percentile95(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	q, err := stats.Percentile(stats.Float64Data(vals), 95)
	if err != nil {
		return nil
	}
	return &q
}

func alert(val, q95 *float64) string {
	if val == nil || q95 == nil {
		return ""
	}
	if *val > *q95 {
		return alertTag
	}
	return ""
}
