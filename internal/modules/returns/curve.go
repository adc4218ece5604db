package returns

import (
	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/pkg/formulas"
)

// Payoff curve sampling range relative to the current price.
const (
	CurveLowerMultiple = 0.5
	CurveUpperMultiple = 3.0
	CurvePoints        = 300
)

// CurvePoint compares both strategies at one final price.
type CurvePoint struct {
	FinalPrice  float64 `json:"final_price"`
	CoveredAARR float64 `json:"covered_aarr"`
	HoldAARR    float64 `json:"hold_aarr"`
}

// CurveSummary holds the key levels read off a payoff curve.
type CurveSummary struct {
	// BreakevenPrice is the first sampled price with a non-negative
	// covered-call AARR.
	BreakevenPrice float64 `json:"breakeven_price"`
	BreakevenPct   float64 `json:"breakeven_pct"`
	// CrossoverPrice is the first sampled price at or above the current
	// price where holding does at least as well as the covered call.
	// Falls back to the strike when holding never catches up.
	CrossoverPrice   float64 `json:"crossover_price"`
	HoldingDominates bool    `json:"holding_dominates"`
	MaxCoveredAARR   float64 `json:"max_covered_aarr"`
	PremiumCushion   float64 `json:"premium_cushion"`
	CushionPct       float64 `json:"cushion_pct"`
	StaticBreakeven  float64 `json:"static_breakeven"` // current price less premium
	PctOTM           float64 `json:"pct_otm"`
}

// Curve is the AARR-versus-final-price comparison for one contract.
type Curve struct {
	Points  []CurvePoint `json:"points"`
	Summary CurveSummary `json:"summary"`
}

// PayoffCurve samples both strategies between 0.5× and 3× the current price.
func PayoffCurve(currentPrice float64, contract domain.Contract) (Curve, error) {
	prices := formulas.Linspace(currentPrice*CurveLowerMultiple, currentPrice*CurveUpperMultiple, CurvePoints)

	curve := Curve{Points: make([]CurvePoint, 0, len(prices))}
	for _, final := range prices {
		covered, err := ComputeReturn(domain.SharesPerContract, currentPrice, contract.Strike, contract.Premium,
			contract.DaysToExpiration, &final, nil)
		if err != nil {
			return Curve{}, err
		}
		hold, err := ComputeHoldReturn(domain.SharesPerContract, currentPrice, final, contract.DaysToExpiration)
		if err != nil {
			return Curve{}, err
		}
		curve.Points = append(curve.Points, CurvePoint{
			FinalPrice:  final,
			CoveredAARR: covered.AnnualizedReturnPct,
			HoldAARR:    hold.AnnualizedReturnPct,
		})
	}

	curve.Summary = summarize(currentPrice, contract, curve.Points)
	return curve, nil
}

func summarize(currentPrice float64, contract domain.Contract, points []CurvePoint) CurveSummary {
	s := CurveSummary{
		PremiumCushion:  contract.Premium,
		CushionPct:      contract.Premium / currentPrice * 100,
		StaticBreakeven: currentPrice - contract.Premium,
		PctOTM:          (contract.Strike - currentPrice) / currentPrice * 100,
		CrossoverPrice:  contract.Strike,
	}
	if len(points) == 0 {
		return s
	}

	s.BreakevenPrice = points[0].FinalPrice
	s.MaxCoveredAARR = points[0].CoveredAARR

	foundBreakeven, foundCrossover := false, false
	for _, p := range points {
		if p.CoveredAARR > s.MaxCoveredAARR {
			s.MaxCoveredAARR = p.CoveredAARR
		}
		if !foundBreakeven && p.CoveredAARR >= 0 {
			s.BreakevenPrice = p.FinalPrice
			foundBreakeven = true
		}
		if !foundCrossover && p.FinalPrice >= currentPrice && p.CoveredAARR <= p.HoldAARR {
			s.CrossoverPrice = p.FinalPrice
			foundCrossover = true
		}
	}

	s.BreakevenPct = (s.BreakevenPrice - currentPrice) / currentPrice * 100
	s.HoldingDominates = s.CrossoverPrice <= currentPrice
	return s
}
