// Package formulas holds the numeric helpers shared by the pricing, probability
// and market-data code. Everything here is pure and allocation-light.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is used to annualize daily volatility.
const TradingDaysPerYear = 252

// WeightedMean calculates the weighted mean of data. Returns false when the
// weights sum to zero (nothing to average over).
func WeightedMean(data, weights []float64) (float64, bool) {
	if len(data) == 0 || len(data) != len(weights) {
		return 0, false
	}
	if floats.Sum(weights) <= 0 {
		return 0, false
	}
	return stat.Mean(data, weights), true
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// LogReturns converts prices to log returns ln(P[i+1]/P[i]).
// Pairs containing a non-positive price are skipped.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// using the sample standard deviation.
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// RollingVolatility returns the annualized volatility of the most recent
// `window` daily log returns of closes. The rolling standard deviation comes
// from go-talib so it matches the indicator the charts use.
//
// Returns nil if there is not enough history for one full window.
func RollingVolatility(closes []float64, window int) *float64 {
	if window < 2 {
		return nil
	}

	logReturns := LogReturns(closes)
	if len(logReturns) < window {
		return nil
	}

	rolling := talib.StdDev(logReturns, window, 1.0)
	if len(rolling) == 0 {
		return nil
	}

	last := rolling[len(rolling)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) || last < 0 {
		return nil
	}

	vol := last * math.Sqrt(TradingDaysPerYear)
	return &vol
}

// SampleVolatility is RollingVolatility's last window computed with the
// sample (n-1) standard deviation instead of go-talib's population one. For
// the same closes the two differ by a factor of sqrt(window/(window-1)).
//
// Returns nil if there is not enough history for one full window.
func SampleVolatility(closes []float64, window int) *float64 {
	if window < 2 {
		return nil
	}

	logReturns := LogReturns(closes)
	if len(logReturns) < window {
		return nil
	}

	vol := AnnualizedVolatility(logReturns[len(logReturns)-window:])
	return &vol
}

// Linspace returns n evenly spaced points over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
