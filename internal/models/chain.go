package models

import "time"

// ChainQuote is one raw call or put row as served by the market-data
// provider, before valuation.
type ChainQuote struct {
	Strike       float64
	OpenInterest int64
	Volume       int64
	LastPrice    float64
}

// ExpirationChain holds the call and put rows for one expiration date.
type ExpirationChain struct {
	Expiration time.Time
	Calls      []ChainQuote
	Puts       []ChainQuote
}
