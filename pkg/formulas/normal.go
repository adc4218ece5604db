package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalPDF is the density of N(mu, sigma²) at x. sigma must be positive.
func NormalPDF(x, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.Prob(x)
}

// NormalCDF is the cumulative distribution of N(mu, sigma²) at x.
func NormalCDF(x, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.CDF(x)
}

// BlackScholesCallDelta estimates the delta of a European call.
//
// Args:
//   - spot: current underlying price
//   - strike: option strike
//   - years: time to expiry in years
//   - rate: annual risk-free rate (decimal)
//   - sigma: annualized volatility (decimal)
//
// Returns false when the inputs leave delta undefined (non-positive price,
// strike, horizon or volatility).
func BlackScholesCallDelta(spot, strike, years, rate, sigma float64) (float64, bool) {
	if spot <= 0 || strike <= 0 || years <= 0 || sigma <= 0 {
		return 0, false
	}

	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*years) / (sigma * math.Sqrt(years))
	return NormalCDF(d1, 0, 1), true
}
