// Package pipeline assembles candidate snapshots and gates their commit on
// provider freshness.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bob7452/Icarus/internal/config"
	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/logging"
	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/internal/pricing"
	"github.com/bob7452/Icarus/internal/provider"
	"github.com/bob7452/Icarus/pkg/utils"
)

// Producer pulls raw option chains for a session and values every contract
// into a candidate snapshot.
type Producer struct {
	fetcher provider.ChainFetcher
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewProducer creates a Producer over the given chain fetcher.
func NewProducer(fetcher provider.ChainFetcher, cfg *config.Config, logger zerolog.Logger) *Producer {
	return &Producer{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// BuildCandidate fetches and values the chains of every configured symbol
// for one session. A failed expiration is logged and skipped; the session
// fails only when every expiration of every symbol failed, or when the
// provider has not traded the requested session at all (ErrNoSessionData).
func (p *Producer) BuildCandidate(ctx context.Context, session time.Time) ([]models.ContractSnapshot, error) {
	var candidate []models.ContractSnapshot
	totalExpirations := 0
	failedExpirations := 0

	for _, symbol := range p.cfg.Symbols {
		logger := logging.WithSymbol(p.logger, symbol)

		overview, err := p.fetcher.FetchOverview(ctx, symbol)
		if err != nil {
			return nil, apperrors.Wrapf(err, "fetching chain overview for %s", symbol)
		}
		if !utils.SameSession(overview.LastTradeDay, session) {
			logger.Info().
				Str("provider_session", overview.LastTradeDay.Format("2006-01-02")).
				Str("requested_session", session.Format("2006-01-02")).
				Msg("Provider has not traded the requested session")
			return nil, apperrors.ErrNoSessionData
		}

		for _, expiration := range overview.Expirations {
			tte := utils.YearsToExpiry(session, expiration)
			if tte <= 0 {
				continue // already expired at the session close
			}
			totalExpirations++

			chain, err := p.fetcher.FetchExpiration(ctx, symbol, expiration)
			if err != nil {
				failedExpirations++
				logging.LogFetchSkip(logger, symbol, expiration, err)
				continue
			}

			candidate = append(candidate, p.valueChain(symbol, session, overview.SpotPrice, tte, models.Call, expiration, chain.Calls)...)
			candidate = append(candidate, p.valueChain(symbol, session, overview.SpotPrice, tte, models.Put, expiration, chain.Puts)...)
		}
	}

	if totalExpirations == 0 {
		return nil, apperrors.ErrNoSessionData
	}
	if failedExpirations == totalExpirations {
		return nil, fmt.Errorf("all %d expirations failed to fetch", totalExpirations)
	}

	return candidate, nil
}

// valueChain turns the raw quotes of one expiration side into snapshot rows.
// Contracts the solver cannot invert keep nil IV and Greeks; they still
// carry open interest for the freshness comparison.
func (p *Producer) valueChain(symbol string, session time.Time, spot, tte float64,
	optionType models.OptionType, expiration time.Time, quotes []models.ChainQuote) []models.ContractSnapshot {

	rows := make([]models.ContractSnapshot, 0, len(quotes))
	for _, q := range quotes {
		if q.Strike <= 0 || q.LastPrice <= 0 {
			continue // unpriced or malformed provider row
		}

		row := models.ContractSnapshot{
			Symbol:       symbol,
			Date:         session,
			Expiration:   expiration,
			DTE:          utils.DaysToExpiry(session, expiration),
			Strike:       q.Strike,
			OptionType:   optionType,
			OpenInterest: q.OpenInterest,
			Volume:       q.Volume,
			LastPrice:    q.LastPrice,

			UnderlyingPrice: spot,
		}

		iv, greeks, err := pricing.Value(pricing.OptionInput{
			Type:          optionType,
			Spot:          spot,
			Strike:        q.Strike,
			TimeToExpiry:  tte,
			RiskFreeRate:  p.cfg.Pricing.RiskFreeRate,
			DividendYield: p.cfg.Pricing.DividendYield,
			MarketPrice:   q.LastPrice,
		})
		if err == nil {
			row.IV = models.Float64Ptr(iv)
			row.Delta = models.Float64Ptr(greeks.Delta)
			row.Gamma = models.Float64Ptr(greeks.Gamma)
			row.Theta = models.Float64Ptr(greeks.Theta)
			row.Vega = models.Float64Ptr(greeks.Vega)
			row.Rho = models.Float64Ptr(greeks.Rho)
		} else if !apperrors.Is(err, apperrors.ErrNoSolution) {
			p.logger.Warn().Err(err).
				Str("symbol", symbol).
				Float64("strike", q.Strike).
				Msg("Valuation failed")
			continue
		}

		rows = append(rows, row)
	}

	return rows
}
