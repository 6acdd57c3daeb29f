package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bob7452/Icarus/internal/models"
)

// Feature: icarus, Property 1: Snapshot round-trip consistency
//
// Property: For any valid contract snapshot batch, appending it and reading
// the session back produces equivalent rows, including absent IV/Greeks.
func TestProperty_SnapshotRoundTripConsistency(t *testing.T) {
	dbPath := "test_snapshot_property.db"
	defer os.Remove(dbPath)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("append then read produces equivalent rows", prop.ForAll(
		func(count int, baseStrike, iv float64, oi, volume int64, solved bool) bool {
			ctx := context.Background()
			// Unique symbol per run so batches never collide.
			symbol := fmt.Sprintf("SYM_%d", time.Now().UnixNano()%1000000)
			date := time.Date(2026, time.March, 2, 16, 0, 0, 0, time.UTC)
			expiration := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

			contracts := make([]models.ContractSnapshot, 0, count)
			for i := 0; i < count; i++ {
				c := models.ContractSnapshot{
					Symbol:       symbol,
					Date:         date,
					Expiration:   expiration,
					DTE:          30,
					Strike:       baseStrike + float64(i)*5,
					OptionType:   models.Put,
					OpenInterest: oi,
					Volume:       volume,
					LastPrice:    1.25,

					UnderlyingPrice: baseStrike,
				}
				if solved {
					c.IV = models.Float64Ptr(iv)
					c.Delta = models.Float64Ptr(-0.25)
				}
				contracts = append(contracts, c)
			}

			if err := store.AppendSnapshots(ctx, contracts); err != nil {
				t.Logf("append failed: %v", err)
				return false
			}

			retrieved, err := store.RowsForDate(ctx, []string{symbol}, date)
			if err != nil {
				t.Logf("read failed: %v", err)
				return false
			}
			if len(retrieved) != len(contracts) {
				t.Logf("count mismatch: wrote %d, read %d", len(contracts), len(retrieved))
				return false
			}

			for i, orig := range contracts {
				got := retrieved[i]
				if got.Symbol != orig.Symbol ||
					!got.Date.Equal(orig.Date.UTC()) ||
					!got.Expiration.Equal(orig.Expiration) ||
					math.Abs(got.Strike-orig.Strike) > 1e-9 ||
					got.OptionType != orig.OptionType ||
					got.OpenInterest != orig.OpenInterest ||
					got.Volume != orig.Volume ||
					math.Abs(got.UnderlyingPrice-orig.UnderlyingPrice) > 1e-9 {
					t.Logf("row mismatch at %d: wrote %+v, read %+v", i, orig, got)
					return false
				}
				if (got.IV == nil) != (orig.IV == nil) {
					t.Logf("iv nilness mismatch at %d", i)
					return false
				}
				if got.IV != nil && math.Abs(*got.IV-*orig.IV) > 1e-9 {
					t.Logf("iv mismatch at %d: %v vs %v", i, *got.IV, *orig.IV)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 15),
		gen.Float64Range(50, 900),
		gen.Float64Range(0.05, 2.0),
		gen.Int64Range(0, 1000000),
		gen.Int64Range(0, 500000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
