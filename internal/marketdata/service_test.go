package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 15, 30, 0, 0, time.UTC)

type fakeProvider struct {
	price       float64
	quoteErr    error
	bars        []Bar
	historyErr  error
	expirations []time.Time
	chains      map[string][]domain.Contract
	chainCalls  []string
}

func (f *fakeProvider) Quote(_ context.Context, _ string) (float64, error) {
	return f.price, f.quoteErr
}

func (f *fakeProvider) History(_ context.Context, _ string, _, _ time.Time) ([]Bar, error) {
	return f.bars, f.historyErr
}

func (f *fakeProvider) Expirations(_ context.Context, _ string) ([]time.Time, error) {
	return f.expirations, nil
}

func (f *fakeProvider) CallChain(_ context.Context, _ string, expiration time.Time) ([]domain.Contract, error) {
	key := expiration.Format("2006-01-02")
	f.chainCalls = append(f.chainCalls, key)
	return f.chains[key], nil
}

func newTestService(p Provider, window int) *Service {
	s := NewService(p, window, zerolog.Nop())
	s.now = func() time.Time { return testNow }
	return s
}

func alternatingBars(n int) []Bar {
	bars := make([]Bar, n)
	price := 100.0
	for i := range bars {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
		bars[i] = Bar{Date: testNow.AddDate(0, 0, i-n), Close: price}
	}
	return bars
}

func TestMarketContext_WithVolatility(t *testing.T) {
	p := &fakeProvider{price: 123.45, bars: alternatingBars(40)}
	s := newTestService(p, 20)

	market, err := s.MarketContext(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", market.Ticker)
	assert.Equal(t, 123.45, market.CurrentPrice)
	require.True(t, market.HasVolatility())
	// Daily log returns alternate around ±ln(1.01).
	assert.InDelta(t, math.Log(1.01)*math.Sqrt(252), *market.Volatility, 0.01)
}

func TestMarketContext_LogsSampleVolatility(t *testing.T) {
	var buf bytes.Buffer
	s := NewService(&fakeProvider{price: 100, bars: alternatingBars(40)}, 20, zerolog.New(&buf).Level(zerolog.DebugLevel))
	s.now = func() time.Time { return testNow }

	market, err := s.MarketContext(context.Background(), "XYZ")
	require.NoError(t, err)
	require.True(t, market.HasVolatility())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Estimated historical volatility", entry["message"])
	assert.InDelta(t, *market.Volatility, entry["volatility"].(float64), 1e-12)
	assert.Greater(t, entry["sample_volatility"].(float64), *market.Volatility)
}

func TestMarketContext_HistoryFailureLeavesVolatilityUnknown(t *testing.T) {
	p := &fakeProvider{price: 50, historyErr: errors.New("timeout")}
	s := newTestService(p, 20)

	market, err := s.MarketContext(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Nil(t, market.Volatility)
}

func TestMarketContext_ShortHistory(t *testing.T) {
	p := &fakeProvider{price: 50, bars: alternatingBars(5)}
	s := newTestService(p, 20)

	market, err := s.MarketContext(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Nil(t, market.Volatility)
}

func TestMarketContext_Errors(t *testing.T) {
	s := newTestService(&fakeProvider{quoteErr: ErrUpstream}, 20)
	_, err := s.MarketContext(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrUpstream)

	s = newTestService(&fakeProvider{price: 0}, 20)
	_, err = s.MarketContext(context.Background(), "XYZ")
	assert.ErrorIs(t, err, domain.ErrDomain)
}

func TestContracts_FiltersByDTEWindow(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 10, 15+d, 0, 0, 0, 0, time.UTC)
	}
	p := &fakeProvider{
		price:       100,
		expirations: []time.Time{day(30), day(-1), day(2), day(9)},
		chains: map[string][]domain.Contract{
			day(2).Format("2006-01-02"): {
				{Symbol: "B", Strike: 110, Premium: 0.5},
				{Symbol: "A", Strike: 105, Premium: 1.2},
				{Symbol: "BAD", Strike: 0, Premium: 1},
			},
			day(9).Format("2006-01-02"): {
				{Symbol: "C", Strike: 100, Premium: 3, Bid: 2.9, Ask: 3.1},
			},
		},
	}
	s := newTestService(p, 20)

	contracts, err := s.Contracts(context.Background(), "xyz", DTEWindow{Min: 1, Max: 14})
	require.NoError(t, err)

	assert.Equal(t, []string{day(2).Format("2006-01-02"), day(9).Format("2006-01-02")}, p.chainCalls)
	require.Len(t, contracts, 3)

	assert.Equal(t, "A", contracts[0].Symbol)
	assert.Equal(t, 2, contracts[0].DaysToExpiration)
	assert.Equal(t, "B", contracts[1].Symbol)
	assert.Equal(t, "C", contracts[2].Symbol)
	assert.Equal(t, 9, contracts[2].DaysToExpiration)
	assert.Equal(t, 2.9, contracts[2].Bid)
}

// A clock that moves between reads must not split one fetch across two
// dates; every contract is dated against the same reading.
func TestContracts_SingleClockReadingPerFetch(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 10, 15+d, 0, 0, 0, 0, time.UTC)
	}
	p := &fakeProvider{
		price:       100,
		expirations: []time.Time{day(2), day(9)},
		chains: map[string][]domain.Contract{
			day(2).Format("2006-01-02"): {{Symbol: "A", Strike: 105, Premium: 1.2}},
			day(9).Format("2006-01-02"): {{Symbol: "C", Strike: 100, Premium: 3}},
		},
	}
	s := newTestService(p, 20)

	reads := 0
	s.now = func() time.Time {
		reads++
		return testNow.AddDate(0, 0, reads-1)
	}

	contracts, err := s.Contracts(context.Background(), "XYZ", DTEWindow{})
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	assert.Equal(t, 1, reads)
	assert.Equal(t, 2, contracts[0].DaysToExpiration)
	assert.Equal(t, 9, contracts[1].DaysToExpiration)
}

func TestDTEWindow(t *testing.T) {
	assert.True(t, DTEWindow{}.Contains(0))
	assert.True(t, DTEWindow{}.Contains(400))
	assert.False(t, DTEWindow{Min: 7}.Contains(6))
	assert.True(t, DTEWindow{Min: 7, Max: 7}.Contains(7))
	assert.False(t, DTEWindow{Min: 7, Max: 14}.Contains(15))
}
