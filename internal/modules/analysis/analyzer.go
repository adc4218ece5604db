// Package analysis evaluates a batch of covered-call contracts against one
// market context: classification, AARR, expected AARR, delta and safety,
// with safety normalized across the batch.
package analysis

import (
	"fmt"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/evaluation/workers"
	"github.com/aristath/callwriter/internal/modules/expectation"
	"github.com/aristath/callwriter/internal/modules/probability"
	"github.com/aristath/callwriter/internal/modules/returns"
	"github.com/aristath/callwriter/internal/modules/safety"
	"github.com/aristath/callwriter/internal/utils"
	"github.com/aristath/callwriter/pkg/formulas"
	"github.com/rs/zerolog"
)

// DefaultRiskFreeRate is the annual rate used for delta estimates.
const DefaultRiskFreeRate = 0.0379

// Config configures an Analyzer.
type Config struct {
	Workers      int
	GridPoints   int
	RiskFreeRate float64
	Safety       safety.Config
	Conservative ConservativeConfig
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      workers.DefaultWorkers,
		GridPoints:   probability.DefaultGridPoints,
		RiskFreeRate: DefaultRiskFreeRate,
		Safety:       safety.DefaultConfig(),
		Conservative: DefaultConservativeConfig(),
	}
}

// Analyzer evaluates contract batches.
type Analyzer struct {
	cfg    Config
	pool   *workers.WorkerPool
	scorer *safety.Scorer
	now    func() time.Time
	log    zerolog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(cfg Config, log zerolog.Logger) *Analyzer {
	cfg.GridPoints = probability.ClampGridPoints(cfg.GridPoints)
	cfg.Safety.GridPoints = cfg.GridPoints

	return &Analyzer{
		cfg:    cfg,
		pool:   workers.NewWorkerPool(cfg.Workers),
		scorer: safety.NewScorer(cfg.Safety),
		now:    time.Now,
		log:    log.With().Str("component", "analyzer").Logger(),
	}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Evaluate scores every contract against market. Contracts are evaluated in
// parallel and independently; one that fails is reported in Failures and
// left out of normalization. Safety scores are normalized once all raw
// scores are known.
func (a *Analyzer) Evaluate(market domain.MarketContext, contracts []domain.Contract) (Report, error) {
	if err := market.Validate(); err != nil {
		return Report{}, err
	}

	timer := utils.NewTimer("evaluate_batch", a.log)

	results := workers.Map(a.pool, contracts, func(c domain.Contract) (Evaluation, error) {
		return a.evaluateOne(c, market)
	})

	report := Report{
		Market:      market,
		GeneratedAt: a.now(),
		Evaluations: make([]Evaluation, 0, len(contracts)),
		Total:       len(contracts),
	}

	for i, res := range results {
		c := contracts[i]
		if res.Err != nil {
			a.log.Error().
				Err(res.Err).
				Str("ticker", market.Ticker).
				Float64("strike", c.Strike).
				Time("expiration", c.ExpirationDate).
				Msg("Contract evaluation failed")
			report.Failures = append(report.Failures, Failure{
				Symbol:     c.Symbol,
				Strike:     c.Strike,
				Expiration: c.ExpirationDate,
				Error:      res.Err.Error(),
			})
			continue
		}
		if res.Value.Degraded {
			a.log.Warn().
				Str("ticker", market.Ticker).
				Float64("strike", c.Strike).
				Strs("warnings", res.Value.Warnings).
				Msg("Degraded contract evaluation")
		}
		report.Evaluations = append(report.Evaluations, res.Value)
	}

	raw := make([]float64, len(report.Evaluations))
	for i, e := range report.Evaluations {
		raw[i] = e.SafetyRaw
	}
	batch := safety.NewBatch(raw)
	for i := range report.Evaluations {
		report.Evaluations[i].SafetyScore = batch.Score(report.Evaluations[i].SafetyRaw)
	}
	report.BatchID = batch.ID

	timer.StopWithContext(map[string]interface{}{
		"ticker":    market.Ticker,
		"contracts": len(contracts),
		"failures":  len(report.Failures),
		"batch_id":  batch.ID,
	})

	return report, nil
}

func (a *Analyzer) evaluateOne(c domain.Contract, market domain.MarketContext) (Evaluation, error) {
	price := market.CurrentPrice

	point, err := returns.ComputeReturn(domain.SharesPerContract, price, c.Strike, c.Premium, c.DaysToExpiration, nil, nil)
	if err != nil {
		return Evaluation{}, fmt.Errorf("point return: %w", err)
	}

	expected, err := expectation.ExpectedReturn(c, market, a.cfg.GridPoints)
	if err != nil {
		return Evaluation{}, fmt.Errorf("expected return: %w", err)
	}

	raw, err := a.scorer.Score(c, market)
	if err != nil {
		return Evaluation{}, fmt.Errorf("safety: %w", err)
	}

	e := Evaluation{
		Contract:     c,
		Regime:       raw.Regime,
		PremiumYield: c.Premium / price * 100,
		PointAARR:    point.AnnualizedReturnPct,
		SafetyRaw:    raw.Value,
		Warnings:     point.Warnings,
	}

	if expected.Degraded {
		e.Degraded = true
		e.Warnings = append(e.Warnings, "expected AARR unavailable: "+expected.Reason)
	} else {
		v := expected.ExpectedAARR
		e.ExpectedAARR = &v
	}
	if raw.Degraded {
		e.Degraded = true
		e.Warnings = append(e.Warnings, "safety uses distance heuristic: volatility unknown")
	}

	if market.HasVolatility() {
		years := float64(c.DaysToExpiration) / 365.0
		if d, ok := formulas.BlackScholesCallDelta(price, c.Strike, years, a.cfg.RiskFreeRate, *market.Volatility); ok {
			e.Delta = &d
		}
	}

	return e, nil
}
