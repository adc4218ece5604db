// Package safety scores how forgiving a covered call is, first as a raw
// regime-specific heuristic and then as a 0-10 rank within one batch.
package safety

import (
	"fmt"
	"math"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/modules/classification"
	"github.com/aristath/callwriter/internal/modules/probability"
)

// Config holds the tuned constants of the raw score.
type Config struct {
	Thresholds classification.Thresholds

	DeepITMScale float64 // applied to yield minus locked-in loss
	ITMScale     float64
	ATMScale     float64 // applied to yield boosted by mass near the strike
	ATMBase      float64

	NearBand   float64 // half-width of the "near strike" region, fraction of strike
	GridPoints int
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Thresholds:   classification.DefaultThresholds(),
		DeepITMScale: 0.5,
		ITMScale:     0.8,
		ATMScale:     1.2,
		ATMBase:      0.5,
		NearBand:     0.05,
		GridPoints:   probability.DefaultGridPoints,
	}
}

// Raw is an unnormalized safety score. Values from different regimes are
// only comparable after batch normalization.
type Raw struct {
	Value    float64       `json:"raw"`
	Regime   domain.Regime `json:"regime"`
	Degraded bool          `json:"degraded"` // volatility unknown, distance heuristic used
}

// Scorer computes raw safety scores.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer using cfg.
func NewScorer(cfg Config) *Scorer {
	if cfg.GridPoints <= 0 {
		cfg.GridPoints = probability.DefaultGridPoints
	}
	return &Scorer{cfg: cfg}
}

// RawSafety scores contract against market with the default constants.
func RawSafety(contract domain.Contract, market domain.MarketContext) (Raw, error) {
	return NewScorer(DefaultConfig()).Score(contract, market)
}

// Score returns the raw safety score of one contract.
//
// With a known volatility the regime decides the formula:
//
//	deep ITM  DeepITMScale × (yield − locked loss) × P(≥ strike)
//	ITM       ITMScale × (yield − locked loss) × P(≥ strike)
//	ATM       ATMScale × yield × (ATMBase + P(near strike))
//	OTM       P(≥ strike) × called-away return + P(< strike) × yield
//	deep OTM  yield × P(≥ strike)
//
// Without it every regime uses yield / (1 + |strike − price| / price).
// The result is never negative.
func (s *Scorer) Score(contract domain.Contract, market domain.MarketContext) (Raw, error) {
	if err := market.Validate(); err != nil {
		return Raw{}, err
	}
	if contract.Strike <= 0 {
		return Raw{}, fmt.Errorf("strike %.4f must be positive: %w", contract.Strike, domain.ErrDomain)
	}

	price := market.CurrentPrice
	regime := s.cfg.Thresholds.Classify(contract.Strike, price)
	yield := contract.Premium / price * 100

	if !market.HasVolatility() {
		distance := math.Abs(contract.Strike-price) / price
		return Raw{Value: clamp(yield / (1 + distance)), Regime: regime, Degraded: true}, nil
	}

	grid := probability.Grid(price, s.cfg.GridPoints)
	dist, err := probability.PriceDistribution(price, grid, contract.DaysToExpiration, market.Volatility)
	if err != nil {
		return Raw{}, fmt.Errorf("price distribution: %w", err)
	}

	above := dist.MassAbove(contract.Strike)
	below := dist.MassBelow(contract.Strike)
	lockedLoss := (price - contract.Strike) / price * 100

	var value float64
	switch regime {
	case domain.RegimeDeepITM:
		value = s.cfg.DeepITMScale * (yield - lockedLoss) * above
	case domain.RegimeITM:
		value = s.cfg.ITMScale * (yield - lockedLoss) * above
	case domain.RegimeATM:
		value = s.cfg.ATMScale * yield * (s.cfg.ATMBase + dist.MassNear(contract.Strike, s.cfg.NearBand))
	case domain.RegimeOTM:
		calledAway := (contract.Strike - price + contract.Premium) / price * 100
		value = above*calledAway + below*yield
	default:
		value = yield * above
	}

	return Raw{Value: clamp(value), Regime: regime}, nil
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
