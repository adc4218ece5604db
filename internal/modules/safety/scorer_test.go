package safety

import (
	"testing"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func contract(t *testing.T, strike, premium float64, days int) domain.Contract {
	t.Helper()
	c, err := domain.NewContract(strike, premium, now.AddDate(0, 0, days), now)
	require.NoError(t, err)
	return c
}

func TestScore_Regimes(t *testing.T) {
	market := domain.MarketContext{Ticker: "XYZ", CurrentPrice: 100, Volatility: domain.Float64(0.3)}

	tests := []struct {
		name    string
		strike  float64
		premium float64
		regime  domain.Regime
		approx  float64
	}{
		{"deep ITM", 80, 22, domain.RegimeDeepITM, 0.995},
		{"ITM", 97, 6, domain.RegimeITM, 1.481},
		{"ATM", 100, 3, domain.RegimeATM, 3.357},
		{"OTM", 110, 1.5, domain.RegimeOTM, 2.764},
		{"deep OTM", 130, 0.2, domain.RegimeDeepOTM, 0.0002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := RawSafety(contract(t, tt.strike, tt.premium, 30), market)
			require.NoError(t, err)
			assert.Equal(t, tt.regime, raw.Regime)
			assert.False(t, raw.Degraded)
			assert.InDelta(t, tt.approx, raw.Value, 0.01)
		})
	}
}

func TestScore_LockedLossClampsToZero(t *testing.T) {
	market := domain.MarketContext{CurrentPrice: 100, Volatility: domain.Float64(0.3)}

	raw, err := RawSafety(contract(t, 80, 5, 30), market)
	require.NoError(t, err)
	assert.Equal(t, 0.0, raw.Value)
}

func TestScore_DistanceHeuristicWithoutVolatility(t *testing.T) {
	for _, vol := range []*float64{nil, domain.Float64(0)} {
		market := domain.MarketContext{CurrentPrice: 100, Volatility: vol}

		raw, err := RawSafety(contract(t, 110, 2, 30), market)
		require.NoError(t, err)
		assert.True(t, raw.Degraded)
		assert.InDelta(t, 2/1.1, raw.Value, 1e-12)

		atm, err := RawSafety(contract(t, 100, 2, 30), market)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, atm.Value, 1e-12)
	}
}

func TestScore_InvalidMarket(t *testing.T) {
	_, err := RawSafety(contract(t, 100, 2, 30), domain.MarketContext{CurrentPrice: -1})
	assert.ErrorIs(t, err, domain.ErrDomain)
}

func TestScore_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeepITMScale = 1.0
	market := domain.MarketContext{CurrentPrice: 100, Volatility: domain.Float64(0.3)}
	c := contract(t, 80, 22, 30)

	base, err := NewScorer(DefaultConfig()).Score(c, market)
	require.NoError(t, err)
	doubled, err := NewScorer(cfg).Score(c, market)
	require.NoError(t, err)

	assert.InDelta(t, 2*base.Value, doubled.Value, 1e-9)
}
