// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/bob7452/Icarus/internal/models"
)

// SnapshotStore defines the persistence contract for contract snapshots and
// derived skew rows. Appends for one session are atomic: a reader never
// observes a partially written session as the latest committed snapshot.
type SnapshotStore interface {
	// Contract snapshots
	AppendSnapshots(ctx context.Context, contracts []models.ContractSnapshot) error
	LatestCommittedDate(ctx context.Context, symbol string) (time.Time, bool, error)
	LatestCommittedDateBefore(ctx context.Context, symbol string, cutoff time.Time) (time.Time, bool, error)
	RowsForDate(ctx context.Context, symbols []string, date time.Time) ([]models.ContractSnapshot, error)
	Query(ctx context.Context, filter SnapshotFilter) ([]models.ContractSnapshot, error)

	// Skew rows
	AppendSkewPoints(ctx context.Context, points []models.SkewPoint) error
	LatestTwoSkewDates(ctx context.Context, symbol string) (time.Time, time.Time, error)
	SkewRowsForDate(ctx context.Context, symbol string, date time.Time) ([]models.SkewPoint, error)
	AllSkewRows(ctx context.Context, symbol string) ([]models.SkewPoint, error)

	// Lifecycle
	Close() error
}

// SnapshotFilter represents filters for querying contract snapshots.
// Zero-valued fields are ignored.
type SnapshotFilter struct {
	Symbol     string
	Date       time.Time
	Expiration time.Time
	OptionType models.OptionType
	MaxDTE     int
	RequireIV  bool // only rows where the solver produced a volatility
	Limit      int
}
