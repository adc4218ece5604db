package analysis

import (
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/marketdata"
)

// Evaluation is one contract augmented with everything the core computes
// for it. Safety scores are relative to the Report it belongs to.
type Evaluation struct {
	Contract     domain.Contract `json:"contract"`
	Regime       domain.Regime   `json:"classification"`
	PremiumYield float64         `json:"premium_yield"` // premium / price, percent
	PointAARR    float64         `json:"point_aarr"`    // called-away scenario
	// ExpectedAARR is set only when a distribution could be weighted over.
	ExpectedAARR *float64 `json:"expected_aarr,omitempty"`
	SafetyRaw    float64  `json:"safety_score_raw"`
	SafetyScore  float64  `json:"safety_score_normalized"`
	Delta        *float64 `json:"delta,omitempty"`
	Degraded     bool     `json:"degraded"`
	Warnings     []string `json:"warnings,omitempty"`
}

// RankAARR is the AARR filters and sorting use: expected when known,
// otherwise the called-away figure.
func (e Evaluation) RankAARR() float64 {
	if e.ExpectedAARR != nil {
		return *e.ExpectedAARR
	}
	return e.PointAARR
}

// Failure records a contract whose evaluation failed. Other contracts of the
// batch are unaffected.
type Failure struct {
	Symbol     string    `json:"symbol,omitempty"`
	Strike     float64   `json:"strike"`
	Expiration time.Time `json:"expiration_date"`
	Error      string    `json:"error"`
}

// Report is the result of evaluating one fetched batch of contracts.
type Report struct {
	BatchID     string               `json:"batch_id"`
	Market      domain.MarketContext `json:"market"`
	GeneratedAt time.Time            `json:"generated_at"`
	Evaluations []Evaluation         `json:"evaluations"`
	Failures    []Failure            `json:"failures,omitempty"`
	// Total is the batch size before filtering.
	Total int `json:"total"`
}

// SortKey orders evaluations.
type SortKey string

const (
	SortExpectedAARR SortKey = "expected_aarr" // descending
	SortPointAARR    SortKey = "point_aarr"    // descending
	SortSafety       SortKey = "safety"        // descending
	SortStrike       SortKey = "strike"        // ascending
	SortExpiration   SortKey = "expiration"    // ascending, then strike
	SortDelta        SortKey = "delta"         // ascending, unknown last
)

// ValidSortKeys lists the accepted SortKey values.
var ValidSortKeys = []SortKey{SortExpectedAARR, SortPointAARR, SortSafety, SortStrike, SortExpiration, SortDelta}

// Query selects and orders the contracts of a report. Zero bounds are unset.
type Query struct {
	Window       marketdata.DTEWindow
	MinStrike    float64
	MaxStrike    float64
	MinPremium   float64
	MaxPremium   float64
	MinAARR      float64
	MaxAARR      float64
	Sort         SortKey
	Conservative bool
}

// ConservativeConfig bounds the conservative view: cheap-to-hold calls that
// are unlikely to be exercised soon.
type ConservativeConfig struct {
	MinPremium float64
	MaxDelta   float64
	MaxDays    int
}

// DefaultConservativeConfig returns the standard conservative bounds.
func DefaultConservativeConfig() ConservativeConfig {
	return ConservativeConfig{
		MinPremium: 0.5,
		MaxDelta:   0.25,
		MaxDays:    14,
	}
}
