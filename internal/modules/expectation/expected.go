// Package expectation folds the return model over the price distribution to
// get a probability-weighted AARR for one contract.
package expectation

import (
	"fmt"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/modules/probability"
	"github.com/aristath/callwriter/internal/modules/returns"
	"github.com/aristath/callwriter/pkg/formulas"
)

// Result is an expected AARR and how it was obtained.
type Result struct {
	ExpectedAARR float64 `json:"expected_aarr"`
	// Degraded is set when no distribution could be used and the value is
	// the called-away scenario instead.
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
	// GridPoints is the number of price levels averaged over (0 when the
	// deterministic scenario was used).
	GridPoints int `json:"grid_points"`
}

// ExpectedReturn returns the mass-weighted average AARR of one contract over
// a price grid spanning 0.5× to 2× the current price. gridPoints follows
// probability.ClampGridPoints.
//
// Without a positive volatility, or when the contract expires today, the
// price at expiry is taken as known and the result equals the single
// scenario of returns.ComputeReturn.
func ExpectedReturn(contract domain.Contract, market domain.MarketContext, gridPoints int) (Result, error) {
	if err := market.Validate(); err != nil {
		return Result{}, err
	}

	if !market.HasVolatility() {
		reason := "volatility is zero; price at expiry is certain"
		if market.Volatility == nil {
			reason = "volatility unknown"
		}
		return deterministic(contract, market, market.Volatility == nil, reason)
	}
	if contract.DaysToExpiration == 0 {
		return deterministic(contract, market, false, "contract expires today; price at expiry is the current price")
	}

	grid := probability.Grid(market.CurrentPrice, gridPoints)
	dist, err := probability.PriceDistribution(market.CurrentPrice, grid, contract.DaysToExpiration, market.Volatility)
	if err != nil {
		return Result{}, fmt.Errorf("price distribution: %w", err)
	}
	if !dist.HasMass() {
		return deterministic(contract, market, true, domain.ErrNoProbabilityMass.Error())
	}

	prices := dist.Prices()
	aarrs := make([]float64, len(prices))
	for i, final := range prices {
		out, err := returns.ComputeReturn(domain.SharesPerContract, market.CurrentPrice, contract.Strike,
			contract.Premium, contract.DaysToExpiration, &final, nil)
		if err != nil {
			return Result{}, fmt.Errorf("return at %.4f: %w", final, err)
		}
		aarrs[i] = out.AnnualizedReturnPct
	}

	expected, ok := formulas.WeightedMean(aarrs, dist.Masses())
	if !ok {
		return deterministic(contract, market, true, domain.ErrNoProbabilityMass.Error())
	}

	return Result{ExpectedAARR: expected, GridPoints: len(prices)}, nil
}

func deterministic(contract domain.Contract, market domain.MarketContext, degraded bool, reason string) (Result, error) {
	out, err := returns.ComputeReturn(domain.SharesPerContract, market.CurrentPrice, contract.Strike,
		contract.Premium, contract.DaysToExpiration, nil, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ExpectedAARR: out.AnnualizedReturnPct,
		Degraded:     degraded,
		Reason:       reason,
	}, nil
}
