// Package models provides domain models for the option skew tracker.
package models

import (
	"fmt"
	"math"
	"time"
)

// OptionType represents the side of an option contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Valid reports whether the option type is one of the known values.
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// Greeks holds the risk sensitivities computed at a solved volatility.
// Vega is per 1% vol move, Theta per calendar day, Rho per 1% rate move.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// ContractSnapshot is one valued option contract observed at one session.
// Rows are immutable once committed; a new session creates new rows.
// (Symbol, Date, Expiration, Strike, OptionType) is the unique key.
type ContractSnapshot struct {
	Symbol     string
	Date       time.Time // session-close timestamp
	Expiration time.Time
	DTE        int // derived, rounded to nearest day
	Strike     float64
	OptionType OptionType

	// IV and the Greeks are nil when the solver found no volatility for the
	// observed price. Such rows persist but are skipped downstream.
	IV    *float64
	Delta *float64
	Gamma *float64
	Theta *float64
	Vega  *float64
	Rho   *float64

	OpenInterest int64
	Volume       int64
	LastPrice    float64

	// UnderlyingPrice is the session's spot, persisted with the row so skew
	// extraction filters against the same reference the contract was valued
	// with, however late it runs.
	UnderlyingPrice float64
}

// ContractKey identifies a contract within one symbol's chain, independent of
// the session date. The freshness gate joins candidate and previous snapshots
// on this key.
type ContractKey struct {
	Strike     float64
	OptionType OptionType
	Expiration string // YYYY-MM-DD
}

// Key returns the chain-level join key for the contract.
func (c *ContractSnapshot) Key() ContractKey {
	return ContractKey{
		Strike:     c.Strike,
		OptionType: c.OptionType,
		Expiration: c.Expiration.Format("2006-01-02"),
	}
}

// Validate checks the field-level invariants of a snapshot row.
func (c *ContractSnapshot) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("contract snapshot: symbol is empty")
	}
	if c.Date.IsZero() {
		return fmt.Errorf("contract snapshot %s: date is zero", c.Symbol)
	}
	if c.Expiration.IsZero() {
		return fmt.Errorf("contract snapshot %s: expiration is zero", c.Symbol)
	}
	if !c.OptionType.Valid() {
		return fmt.Errorf("contract snapshot %s: invalid option type %q", c.Symbol, c.OptionType)
	}
	if c.Strike <= 0 || math.IsNaN(c.Strike) {
		return fmt.Errorf("contract snapshot %s: invalid strike %v", c.Symbol, c.Strike)
	}
	if c.IV != nil && (*c.IV <= 0 || math.IsNaN(*c.IV) || math.IsInf(*c.IV, 0)) {
		return fmt.Errorf("contract snapshot %s: invalid iv %v", c.Symbol, *c.IV)
	}
	if c.OpenInterest < 0 {
		return fmt.Errorf("contract snapshot %s: negative open interest %d", c.Symbol, c.OpenInterest)
	}
	if c.Volume < 0 {
		return fmt.Errorf("contract snapshot %s: negative volume %d", c.Symbol, c.Volume)
	}
	if c.LastPrice <= 0 {
		return fmt.Errorf("contract snapshot %s: invalid last price %v", c.Symbol, c.LastPrice)
	}
	if c.UnderlyingPrice < 0 || math.IsNaN(c.UnderlyingPrice) {
		return fmt.Errorf("contract snapshot %s: invalid underlying price %v", c.Symbol, c.UnderlyingPrice)
	}
	return nil
}

// SkewPoint is the per-expiration skew summary derived from one committed
// snapshot. Metrics are nil when the corresponding anchor contract was not
// found, never zero.
type SkewPoint struct {
	Symbol         string
	SnapshotDate   time.Time
	Expiration     time.Time
	Put10DeltaSkew *float64
	Put25DeltaSkew *float64
	CallPutSkew    *float64
}

// SkewDiff is the session-over-session change of one expiration's skew
// metrics. Computed on demand, never persisted. Date is the newer of the two
// sessions; a metric is nil when either side was absent.
type SkewDiff struct {
	Symbol         string
	Date           time.Time
	Expiration     time.Time
	Put10DeltaSkew *float64
	Put25DeltaSkew *float64
	CallPutSkew    *float64
}

// Float64Ptr returns a pointer to v. Convenience for optional metric fields.
func Float64Ptr(v float64) *float64 { return &v }
