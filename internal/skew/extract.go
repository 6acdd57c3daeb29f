// Package skew derives per-expiration volatility skew summaries from
// committed snapshots and tracks their change across sessions.
package skew

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/bob7452/Icarus/internal/config"
	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/internal/store"
)

// Extractor selects representative contracts per expiration and reduces them
// to three skew metrics.
type Extractor struct {
	store  store.SnapshotStore
	cfg    *config.Config
	logger zerolog.Logger
}

// NewExtractor creates a skew extractor over the snapshot store.
func NewExtractor(st store.SnapshotStore, cfg *config.Config, logger zerolog.Logger) *Extractor {
	return &Extractor{store: st, cfg: cfg, logger: logger}
}

// ExtractLatest pulls the most recent committed snapshot for symbol, computes
// one SkewPoint per expiration, and appends them to the store. The strike
// window and tiebreaks use the spot persisted with the snapshot, not a fresh
// quote, so a delayed run sees the session as it was.
func (e *Extractor) ExtractLatest(ctx context.Context, symbol string) ([]models.SkewPoint, error) {
	date, ok, err := e.store.LatestCommittedDate(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInsufficientHistory, "no committed snapshot for %s", symbol)
	}

	rows, err := e.store.Query(ctx, store.SnapshotFilter{
		Symbol:    symbol,
		Date:      date,
		MaxDTE:    e.cfg.Skew.MaxDTE,
		RequireIV: true,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		e.logger.Warn().Str("symbol", symbol).Time("date", date).Msg("No solvable rows in latest snapshot")
		return nil, nil
	}

	points := e.Extract(symbol, date, rows[0].UnderlyingPrice, rows)
	if len(points) == 0 {
		e.logger.Warn().Str("symbol", symbol).Time("date", date).Msg("No skew points extracted")
		return nil, nil
	}

	if err := e.store.AppendSkewPoints(ctx, points); err != nil {
		return nil, err
	}
	return points, nil
}

// Extract computes skew points from one session's valued rows. Rows without
// solved IV or delta are ignored. Pure function, exported for testing.
func (e *Extractor) Extract(symbol string, date time.Time, spot float64, rows []models.ContractSnapshot) []models.SkewPoint {
	inRange := rows[:0:0]
	for _, r := range rows {
		if r.IV == nil || r.Delta == nil {
			continue
		}
		if r.DTE > e.cfg.Skew.MaxDTE {
			continue
		}
		if spot > 0 {
			lo := spot * (1 - e.cfg.Skew.PriceRangePct)
			hi := spot * (1 + e.cfg.Skew.PriceRangePct)
			if r.Strike < lo || r.Strike > hi {
				continue
			}
		}
		inRange = append(inRange, r)
	}

	byExpiration := make(map[time.Time][]models.ContractSnapshot)
	for _, r := range inRange {
		byExpiration[r.Expiration] = append(byExpiration[r.Expiration], r)
	}

	expirations := make([]time.Time, 0, len(byExpiration))
	for exp := range byExpiration {
		expirations = append(expirations, exp)
	}
	sort.Slice(expirations, func(i, j int) bool { return expirations[i].Before(expirations[j]) })

	points := make([]models.SkewPoint, 0, len(expirations))
	for _, exp := range expirations {
		chain := byExpiration[exp]

		atmPut := selectAnchor(chain, models.Put, e.cfg.Skew.ATMPut, spot)
		atmCall := selectAnchor(chain, models.Call, e.cfg.Skew.ATMCall, spot)
		put10 := selectAnchor(chain, models.Put, e.cfg.Skew.Put10Delta, spot)
		put25 := selectAnchor(chain, models.Put, e.cfg.Skew.Put25Delta, spot)

		points = append(points, models.SkewPoint{
			Symbol:         symbol,
			SnapshotDate:   date,
			Expiration:     exp,
			Put10DeltaSkew: ivSpread(put10, atmPut),
			Put25DeltaSkew: ivSpread(put25, atmPut),
			CallPutSkew:    ivSpread(atmCall, atmPut),
		})
	}
	return points
}

// selectAnchor picks the contract whose delta is nearest the band's target,
// breaking ties by strike distance to spot. Returns nil when no contract of
// the right type falls inside the band.
func selectAnchor(chain []models.ContractSnapshot, side models.OptionType, band config.DeltaBand, spot float64) *models.ContractSnapshot {
	var best *models.ContractSnapshot
	var bestDelta, bestStrike float64
	for i := range chain {
		c := &chain[i]
		if c.OptionType != side || c.Delta == nil || c.IV == nil {
			continue
		}
		if !band.Contains(*c.Delta) {
			continue
		}
		dDelta := math.Abs(*c.Delta - band.Target)
		dStrike := math.Abs(c.Strike - spot)
		if best == nil || dDelta < bestDelta || (dDelta == bestDelta && dStrike < bestStrike) {
			best = c
			bestDelta = dDelta
			bestStrike = dStrike
		}
	}
	return best
}

// ivSpread returns iv(a) − iv(b), or nil when either anchor is missing.
func ivSpread(a, b *models.ContractSnapshot) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return models.Float64Ptr(*a.IV - *b.IV)
}
