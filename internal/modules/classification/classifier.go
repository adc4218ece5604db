// Package classification labels contracts by moneyness regime.
package classification

import "github.com/aristath/callwriter/internal/domain"

// Thresholds are strike/market-price ratios that separate the regimes.
//
//	ratio <  DeepITMBelow                 -> deep ITM
//	DeepITMBelow <= ratio < ATMFrom       -> ITM
//	ATMFrom <= ratio <= ATMTo             -> ATM
//	ATMTo < ratio <= OTMTo                -> OTM
//	ratio > OTMTo                         -> deep OTM
type Thresholds struct {
	DeepITMBelow float64
	ATMFrom      float64
	ATMTo        float64
	OTMTo        float64
}

// DefaultThresholds returns the published regime boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DeepITMBelow: 0.95,
		ATMFrom:      1.0,
		ATMTo:        1.05,
		OTMTo:        1.15,
	}
}

// Classify labels a strike using the default thresholds.
func Classify(strike, marketPrice float64) domain.Regime {
	return DefaultThresholds().Classify(strike, marketPrice)
}

// Classify labels a strike relative to marketPrice. marketPrice must be
// positive; callers validate the market context first.
//
// The ratio is compared rather than threshold×price: a correctly rounded
// 115/100 equals the literal 1.15, while 1.15*100 lands just below 115.
func (t Thresholds) Classify(strike, marketPrice float64) domain.Regime {
	ratio := strike / marketPrice

	switch {
	case ratio < t.DeepITMBelow:
		return domain.RegimeDeepITM
	case ratio < t.ATMFrom:
		return domain.RegimeITM
	case ratio <= t.ATMTo:
		return domain.RegimeATM
	case ratio <= t.OTMTo:
		return domain.RegimeOTM
	default:
		return domain.RegimeDeepOTM
	}
}
