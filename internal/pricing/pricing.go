// Package pricing implements Black-Scholes valuation: European option
// pricing with a continuous dividend yield, an implied-volatility solver,
// and the standard Greeks. Pure functions, no I/O.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/models"
)

// Volatility bracket for the implied-volatility solver. The lower bound is
// strictly positive so a near-zero market price can never "solve" at σ=0.
const (
	SigmaMin = 1e-6
	SigmaMax = 5.0
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// OptionInput holds the valuation inputs for one contract.
type OptionInput struct {
	Type          models.OptionType
	Spot          float64 // S > 0
	Strike        float64 // K > 0
	TimeToExpiry  float64 // T in years
	RiskFreeRate  float64 // continuously compounded
	DividendYield float64 // q >= 0
	MarketPrice   float64 // observed price, > 0
}

func d1d2(opt OptionInput, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(opt.TimeToExpiry)
	d1 := (math.Log(opt.Spot/opt.Strike) + (opt.RiskFreeRate-opt.DividendYield+0.5*sigma*sigma)*opt.TimeToExpiry) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// Price returns the Black-Scholes price of the option at volatility sigma.
//
//	call = S e^{-qT} Φ(d1) − K e^{-rT} Φ(d2)
//	put  = K e^{-rT} Φ(−d2) − S e^{-qT} Φ(−d1)
func Price(opt OptionInput, sigma float64) float64 {
	d1, d2 := d1d2(opt, sigma)
	discS := opt.Spot * math.Exp(-opt.DividendYield*opt.TimeToExpiry)
	discK := opt.Strike * math.Exp(-opt.RiskFreeRate*opt.TimeToExpiry)

	if opt.Type == models.Call {
		return discS*stdNormal.CDF(d1) - discK*stdNormal.CDF(d2)
	}
	return discK*stdNormal.CDF(-d2) - discS*stdNormal.CDF(-d1)
}

// ImpliedVolatility inverts the observed market price to a volatility in
// (SigmaMin, SigmaMax] using Brent's method. It returns ErrNoSolution when
// the price admits no root in the bracket: below intrinsic value, above the
// no-arbitrage bound, or T <= 0. Callers treat that as "skip this contract".
func ImpliedVolatility(opt OptionInput) (float64, error) {
	if opt.TimeToExpiry <= 0 || opt.Spot <= 0 || opt.Strike <= 0 || opt.MarketPrice <= 0 {
		return 0, apperrors.ErrNoSolution
	}
	if !opt.Type.Valid() {
		return 0, apperrors.NewValidationError("option_type", string(opt.Type), "must be call or put")
	}

	objective := func(sigma float64) float64 {
		return Price(opt, sigma) - opt.MarketPrice
	}
	return brent(objective, SigmaMin, SigmaMax)
}

// ComputeGreeks evaluates the closed-form Greeks at the solved volatility.
// Vega is per 1% vol move, Theta per calendar day, Rho per 1% rate move.
func ComputeGreeks(opt OptionInput, sigma float64) models.Greeks {
	d1, d2 := d1d2(opt, sigma)
	sqrtT := math.Sqrt(opt.TimeToExpiry)
	expQT := math.Exp(-opt.DividendYield * opt.TimeToExpiry)
	expRT := math.Exp(-opt.RiskFreeRate * opt.TimeToExpiry)
	pdfD1 := stdNormal.Prob(d1)

	var delta, theta, rho float64
	if opt.Type == models.Call {
		delta = expQT * stdNormal.CDF(d1)
		theta = (-opt.Spot*pdfD1*sigma*expQT/(2*sqrtT) -
			opt.RiskFreeRate*opt.Strike*expRT*stdNormal.CDF(d2) +
			opt.DividendYield*opt.Spot*expQT*stdNormal.CDF(d1)) / 365
		rho = opt.Strike * opt.TimeToExpiry * expRT * stdNormal.CDF(d2) / 100
	} else {
		delta = -expQT * stdNormal.CDF(-d1)
		theta = (-opt.Spot*pdfD1*sigma*expQT/(2*sqrtT) +
			opt.RiskFreeRate*opt.Strike*expRT*stdNormal.CDF(-d2) -
			opt.DividendYield*opt.Spot*expQT*stdNormal.CDF(-d1)) / 365
		rho = -opt.Strike * opt.TimeToExpiry * expRT * stdNormal.CDF(-d2) / 100
	}

	return models.Greeks{
		Delta: delta,
		Gamma: expQT * pdfD1 / (opt.Spot * sigma * sqrtT),
		Theta: theta,
		Vega:  opt.Spot * expQT * pdfD1 * sqrtT / 100,
		Rho:   rho,
	}
}

// Value solves implied volatility and computes the Greeks in one call.
func Value(opt OptionInput) (float64, models.Greeks, error) {
	iv, err := ImpliedVolatility(opt)
	if err != nil {
		return 0, models.Greeks{}, err
	}
	return iv, ComputeGreeks(opt, iv), nil
}
