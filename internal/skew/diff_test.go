package skew

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/internal/store"
)

func newDiffStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func skewPoint(date, exp time.Time, put10, put25, callPut *float64) models.SkewPoint {
	return models.SkewPoint{
		Symbol:         "SPY",
		SnapshotDate:   date,
		Expiration:     exp,
		Put10DeltaSkew: put10,
		Put25DeltaSkew: put25,
		CallPutSkew:    callPut,
	}
}

func TestDiffPointsInnerJoin(t *testing.T) {
	expA := time.Date(2026, time.April, 17, 0, 0, 0, 0, time.UTC)
	expB := time.Date(2026, time.May, 15, 0, 0, 0, 0, time.UTC)
	expC := time.Date(2026, time.June, 19, 0, 0, 0, 0, time.UTC)
	day1 := time.Date(2026, time.March, 2, 16, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.March, 3, 16, 0, 0, 0, time.UTC)

	older := []models.SkewPoint{
		skewPoint(day1, expA, models.Float64Ptr(0.05), nil, models.Float64Ptr(-0.01)),
		skewPoint(day1, expB, models.Float64Ptr(0.04), nil, nil),
	}
	newer := []models.SkewPoint{
		skewPoint(day2, expA, models.Float64Ptr(0.08), models.Float64Ptr(0.03), nil),
		skewPoint(day2, expC, models.Float64Ptr(0.06), nil, nil),
	}

	diffs := DiffPoints(newer, older)
	if len(diffs) != 1 {
		t.Fatalf("got %d diffs, want 1 (only the shared expiration)", len(diffs))
	}

	d := diffs[0]
	if !d.Expiration.Equal(expA) {
		t.Errorf("expiration = %v, want %v", d.Expiration, expA)
	}
	if !d.Date.Equal(day2) {
		t.Errorf("date = %v, want the newer session %v", d.Date, day2)
	}
	if d.Put10DeltaSkew == nil || math.Abs(*d.Put10DeltaSkew-0.03) > 1e-9 {
		t.Errorf("put_10delta diff = %v, want 0.03", d.Put10DeltaSkew)
	}
	// put25 absent on day1, call_put absent on day2: both diffs absent.
	if d.Put25DeltaSkew != nil {
		t.Errorf("put_25delta diff = %v, want absent", *d.Put25DeltaSkew)
	}
	if d.CallPutSkew != nil {
		t.Errorf("call_put diff = %v, want absent", *d.CallPutSkew)
	}
}

func TestDiffPointsNoSharedExpirations(t *testing.T) {
	day1 := time.Date(2026, time.March, 2, 16, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.March, 3, 16, 0, 0, 0, time.UTC)
	expA := time.Date(2026, time.April, 17, 0, 0, 0, 0, time.UTC)
	expB := time.Date(2026, time.May, 15, 0, 0, 0, 0, time.UTC)

	diffs := DiffPoints(
		[]models.SkewPoint{skewPoint(day2, expB, models.Float64Ptr(0.05), nil, nil)},
		[]models.SkewPoint{skewPoint(day1, expA, models.Float64Ptr(0.04), nil, nil)},
	)
	if len(diffs) != 0 {
		t.Errorf("got %d diffs for disjoint expirations, want 0", len(diffs))
	}
}

func TestDifferAgainstStore(t *testing.T) {
	st := newDiffStore(t)
	differ := NewDiffer(st)
	ctx := context.Background()

	_, err := differ.Diff(ctx, "SPY")
	if !apperrors.Is(err, apperrors.ErrInsufficientHistory) {
		t.Fatalf("empty store: error = %v, want ErrInsufficientHistory", err)
	}

	day1 := time.Date(2026, time.March, 2, 16, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.March, 3, 16, 0, 0, 0, time.UTC)
	expA := time.Date(2026, time.April, 17, 0, 0, 0, 0, time.UTC)

	if err := st.AppendSkewPoints(ctx, []models.SkewPoint{
		skewPoint(day1, expA, models.Float64Ptr(0.05), models.Float64Ptr(0.02), models.Float64Ptr(-0.01)),
	}); err != nil {
		t.Fatalf("AppendSkewPoints() error = %v", err)
	}

	_, err = differ.Diff(ctx, "SPY")
	if !apperrors.Is(err, apperrors.ErrInsufficientHistory) {
		t.Fatalf("one session: error = %v, want ErrInsufficientHistory", err)
	}

	if err := st.AppendSkewPoints(ctx, []models.SkewPoint{
		skewPoint(day2, expA, models.Float64Ptr(0.09), models.Float64Ptr(0.04), models.Float64Ptr(0.01)),
	}); err != nil {
		t.Fatalf("AppendSkewPoints() error = %v", err)
	}

	diffs, err := differ.Diff(ctx, "SPY")
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("got %d diffs, want 1", len(diffs))
	}
	d := diffs[0]
	if d.Put10DeltaSkew == nil || math.Abs(*d.Put10DeltaSkew-0.04) > 1e-9 {
		t.Errorf("put_10delta diff = %v, want 0.04", d.Put10DeltaSkew)
	}
	if d.Put25DeltaSkew == nil || math.Abs(*d.Put25DeltaSkew-0.02) > 1e-9 {
		t.Errorf("put_25delta diff = %v, want 0.02", d.Put25DeltaSkew)
	}
	if d.CallPutSkew == nil || math.Abs(*d.CallPutSkew-0.02) > 1e-9 {
		t.Errorf("call_put diff = %v, want 0.02", d.CallPutSkew)
	}
}
