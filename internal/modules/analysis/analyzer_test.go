package analysis

import (
	"testing"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/modules/returns"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newContract(t *testing.T, strike, premium float64, days int) domain.Contract {
	t.Helper()
	c, err := domain.NewContract(strike, premium, testNow.AddDate(0, 0, days), testNow)
	require.NoError(t, err)
	return c
}

func newTestAnalyzer() *Analyzer {
	cfg := DefaultConfig()
	cfg.Workers = 4
	a := NewAnalyzer(cfg, zerolog.Nop())
	a.now = func() time.Time { return testNow }
	return a
}

func TestEvaluate_WithVolatility(t *testing.T) {
	a := newTestAnalyzer()
	market := domain.MarketContext{Ticker: "XYZ", CurrentPrice: 100, Volatility: domain.Float64(0.3)}
	contracts := []domain.Contract{
		newContract(t, 90, 11, 27),
		newContract(t, 100, 3, 27),
		newContract(t, 105, 2, 27),
		newContract(t, 130, 0.2, 27),
	}

	report, err := a.Evaluate(market, contracts)
	require.NoError(t, err)

	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 4, report.Total)
	assert.Empty(t, report.Failures)
	assert.Equal(t, testNow, report.GeneratedAt)
	require.Len(t, report.Evaluations, 4)

	regimes := []domain.Regime{domain.RegimeDeepITM, domain.RegimeATM, domain.RegimeATM, domain.RegimeDeepOTM}
	for i, e := range report.Evaluations {
		assert.Equal(t, contracts[i], e.Contract, "order follows input")
		assert.Equal(t, regimes[i], e.Regime)
		assert.False(t, e.Degraded)
		require.NotNil(t, e.ExpectedAARR)
		require.NotNil(t, e.Delta)
		assert.GreaterOrEqual(t, e.SafetyScore, 0.0)
		assert.LessOrEqual(t, e.SafetyScore, 10.0)
	}

	point, err := returns.ComputeReturn(100, 100, 105, 2, 27, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, point.AnnualizedReturnPct, report.Evaluations[2].PointAARR)
	assert.InDelta(t, 2.0, report.Evaluations[2].PremiumYield, 1e-12)

	// Deeper in the money means a larger delta.
	assert.Greater(t, *report.Evaluations[0].Delta, *report.Evaluations[3].Delta)
}

func TestEvaluate_UnknownVolatilityIsDegraded(t *testing.T) {
	a := newTestAnalyzer()
	market := domain.MarketContext{Ticker: "XYZ", CurrentPrice: 100}

	report, err := a.Evaluate(market, []domain.Contract{
		newContract(t, 105, 2, 27),
		newContract(t, 110, 1, 27),
	})
	require.NoError(t, err)
	require.Len(t, report.Evaluations, 2)

	for _, e := range report.Evaluations {
		assert.True(t, e.Degraded)
		assert.NotEmpty(t, e.Warnings)
		assert.Nil(t, e.ExpectedAARR)
		assert.Nil(t, e.Delta)
		assert.Equal(t, e.PointAARR, e.RankAARR())
	}
	// 2/1.05 beats 1/1.10 on the distance heuristic.
	assert.Greater(t, report.Evaluations[0].SafetyScore, report.Evaluations[1].SafetyScore)
}

func TestEvaluate_IsolatesFailingContracts(t *testing.T) {
	a := newTestAnalyzer()
	market := domain.MarketContext{Ticker: "XYZ", CurrentPrice: 100, Volatility: domain.Float64(0.3)}

	broken := domain.Contract{Symbol: "BROKEN", Strike: 105, Premium: 2, DaysToExpiration: -1, ExpirationDate: testNow.AddDate(0, 0, -1)}
	report, err := a.Evaluate(market, []domain.Contract{
		newContract(t, 100, 3, 27),
		broken,
		newContract(t, 110, 1, 27),
	})
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "BROKEN", report.Failures[0].Symbol)
	assert.Contains(t, report.Failures[0].Error, "must not be negative")
	assert.Equal(t, 3, report.Total)
}

func TestEvaluate_NormalizesAcrossBatch(t *testing.T) {
	a := newTestAnalyzer()
	market := domain.MarketContext{Ticker: "XYZ", CurrentPrice: 100, Volatility: domain.Float64(0.3)}

	single, err := a.Evaluate(market, []domain.Contract{newContract(t, 110, 1.5, 30)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, single.Evaluations[0].SafetyScore)

	batch, err := a.Evaluate(market, []domain.Contract{
		newContract(t, 110, 1.5, 30),
		newContract(t, 100, 3, 30),
		newContract(t, 130, 0.2, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, single.Evaluations[0].SafetyRaw, batch.Evaluations[0].SafetyRaw)
	assert.NotEqual(t, single.BatchID, batch.BatchID)

	for i, x := range batch.Evaluations {
		for j, y := range batch.Evaluations {
			if x.SafetyRaw < y.SafetyRaw {
				assert.Less(t, x.SafetyScore, y.SafetyScore, "%d vs %d", i, j)
			}
		}
	}
}

func TestEvaluate_InvalidMarket(t *testing.T) {
	_, err := newTestAnalyzer().Evaluate(domain.MarketContext{CurrentPrice: 0}, nil)
	assert.ErrorIs(t, err, domain.ErrDomain)
}

func TestEvaluate_EmptyBatch(t *testing.T) {
	report, err := newTestAnalyzer().Evaluate(domain.MarketContext{Ticker: "XYZ", CurrentPrice: 10}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Evaluations)
	assert.Zero(t, report.Total)
}

func TestNewAnalyzer_ClampsGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridPoints = 5000
	a := NewAnalyzer(cfg, zerolog.Nop())
	assert.Equal(t, 300, a.Config().GridPoints)
	assert.Equal(t, 300, a.Config().Safety.GridPoints)
}
