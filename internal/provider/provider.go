// Package provider defines the market-data collaborator that serves raw
// option chains, and its HTTP implementation.
package provider

import (
	"context"
	"time"

	"github.com/bob7452/Icarus/internal/models"
)

// ChainOverview is the top-level view of one underlying's listed options.
type ChainOverview struct {
	Symbol       string
	SpotPrice    float64
	LastTradeDay time.Time
	Expirations  []time.Time
}

// ChainFetcher serves option-chain data for one underlying. A failure from
// FetchExpiration is recoverable: the producer logs it and skips that
// expiration without aborting the rest of the candidate.
type ChainFetcher interface {
	// FetchOverview returns the listed expirations, the session's reference
	// spot price, and the provider's view of the last trade day.
	FetchOverview(ctx context.Context, symbol string) (*ChainOverview, error)

	// FetchExpiration returns the call and put rows for one expiration.
	FetchExpiration(ctx context.Context, symbol string, expiration time.Time) (*models.ExpirationChain, error)
}
