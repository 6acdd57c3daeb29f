package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/models"
	"github.com/bob7452/Icarus/pkg/utils"
)

const defaultBaseURL = "https://query2.finance.yahoo.com"

// YahooFetcher implements ChainFetcher against the Yahoo Finance options
// endpoint.
type YahooFetcher struct {
	baseURL string
	client  *http.Client
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

// NewYahooFetcher creates a Yahoo-backed chain fetcher.
func NewYahooFetcher(logger zerolog.Logger) *YahooFetcher {
	return &YahooFetcher{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		retry:   utils.DefaultRetryConfig(),
		logger:  logger,
	}
}

// NewYahooFetcherWithBaseURL creates a fetcher against a custom endpoint.
// Used by tests with an httptest server.
func NewYahooFetcherWithBaseURL(baseURL string, logger zerolog.Logger) *YahooFetcher {
	f := NewYahooFetcher(logger)
	f.baseURL = baseURL
	return f
}

type yahooContract struct {
	Strike       float64 `json:"strike"`
	LastPrice    float64 `json:"lastPrice"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"openInterest"`
}

type yahooChainResult struct {
	UnderlyingSymbol string  `json:"underlyingSymbol"`
	ExpirationDates  []int64 `json:"expirationDates"`
	Quote            struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"quote"`
	Options []struct {
		ExpirationDate int64           `json:"expirationDate"`
		Calls          []yahooContract `json:"calls"`
		Puts           []yahooContract `json:"puts"`
	} `json:"options"`
}

type yahooChainResponse struct {
	OptionChain struct {
		Result []yahooChainResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

func (f *YahooFetcher) fetch(ctx context.Context, symbol string, expiration *time.Time) (*yahooChainResult, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/options/%s", f.baseURL, url.PathEscape(symbol))
	if expiration != nil {
		endpoint += fmt.Sprintf("?date=%d", expiration.Unix())
	}

	result, err := utils.RetryWithResult(ctx, f.retry, func() (*yahooChainResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "icarus/1.0")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
		}

		var payload yahooChainResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding chain response: %w", err)
		}
		if payload.OptionChain.Error != nil {
			return nil, fmt.Errorf("provider error %s: %s",
				payload.OptionChain.Error.Code, payload.OptionChain.Error.Description)
		}
		if len(payload.OptionChain.Result) == 0 {
			return nil, apperrors.ErrNoSessionData
		}
		return &payload.OptionChain.Result[0], nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchOverview returns the listed expirations and session reference data.
func (f *YahooFetcher) FetchOverview(ctx context.Context, symbol string) (*ChainOverview, error) {
	result, err := f.fetch(ctx, symbol, nil)
	if err != nil {
		return nil, err
	}
	if result.Quote.RegularMarketPrice <= 0 {
		return nil, apperrors.ErrNoSessionData
	}

	expirations := make([]time.Time, 0, len(result.ExpirationDates))
	for _, epoch := range result.ExpirationDates {
		expirations = append(expirations, time.Unix(epoch, 0).UTC())
	}

	return &ChainOverview{
		Symbol:       symbol,
		SpotPrice:    result.Quote.RegularMarketPrice,
		LastTradeDay: time.Unix(result.Quote.RegularMarketTime, 0),
		Expirations:  expirations,
	}, nil
}

// FetchExpiration returns the call and put rows for one expiration date.
func (f *YahooFetcher) FetchExpiration(ctx context.Context, symbol string, expiration time.Time) (*models.ExpirationChain, error) {
	result, err := f.fetch(ctx, symbol, &expiration)
	if err != nil {
		return nil, apperrors.NewFetchError(symbol, expiration, err)
	}
	if len(result.Options) == 0 {
		return nil, apperrors.NewFetchError(symbol, expiration, fmt.Errorf("no chain data returned"))
	}

	chain := &models.ExpirationChain{Expiration: expiration}
	for _, c := range result.Options[0].Calls {
		chain.Calls = append(chain.Calls, models.ChainQuote{
			Strike:       c.Strike,
			OpenInterest: c.OpenInterest,
			Volume:       c.Volume,
			LastPrice:    c.LastPrice,
		})
	}
	for _, p := range result.Options[0].Puts {
		chain.Puts = append(chain.Puts, models.ChainQuote{
			Strike:       p.Strike,
			OpenInterest: p.OpenInterest,
			Volume:       p.Volume,
			LastPrice:    p.LastPrice,
		})
	}

	return chain, nil
}
