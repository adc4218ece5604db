package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/pkg/formulas"
	"github.com/rs/zerolog"
)

// DefaultVolatilityWindow is the number of daily returns the historical
// volatility is estimated from.
const DefaultVolatilityWindow = 30

// DTEWindow bounds days-to-expiration, inclusive. A zero Max means no upper
// bound.
type DTEWindow struct {
	Min int
	Max int
}

// Contains reports whether days lies inside the window.
func (w DTEWindow) Contains(days int) bool {
	if days < w.Min {
		return false
	}
	return w.Max <= 0 || days <= w.Max
}

// Service builds market contexts and contract lists from a Provider.
type Service struct {
	provider Provider
	window   int
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a market-data service. volatilityWindow <= 1 selects
// DefaultVolatilityWindow.
func NewService(provider Provider, volatilityWindow int, log zerolog.Logger) *Service {
	if volatilityWindow <= 1 {
		volatilityWindow = DefaultVolatilityWindow
	}
	return &Service{
		provider: provider,
		window:   volatilityWindow,
		now:      time.Now,
		log:      log.With().Str("component", "marketdata").Logger(),
	}
}

// Now returns the snapshot time contracts are dated against.
func (s *Service) Now() time.Time {
	return s.now()
}

// MarketContext returns the current price and, when enough history is
// available, the annualized historical volatility of ticker. A history
// failure leaves Volatility nil rather than failing the call.
func (s *Service) MarketContext(ctx context.Context, ticker string) (domain.MarketContext, error) {
	ticker = NormalizeTicker(ticker)

	price, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return domain.MarketContext{}, fmt.Errorf("quote %s: %w", ticker, err)
	}

	market := domain.MarketContext{Ticker: ticker, CurrentPrice: price}
	if err := market.Validate(); err != nil {
		return domain.MarketContext{}, fmt.Errorf("quote %s: %w", ticker, err)
	}

	market.Volatility = s.volatility(ctx, ticker)
	return market, nil
}

func (s *Service) volatility(ctx context.Context, ticker string) *float64 {
	end := s.now()
	// Calendar days covering window+1 sessions with room for weekends and holidays.
	start := end.AddDate(0, 0, -(s.window*2 + 10))

	bars, err := s.provider.History(ctx, ticker, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Price history unavailable, volatility unknown")
		return nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	vol := formulas.RollingVolatility(closes, s.window)
	if vol == nil {
		s.log.Warn().
			Str("ticker", ticker).
			Int("bars", len(bars)).
			Int("window", s.window).
			Msg("Not enough history for volatility estimate")
		return nil
	}

	if sample := formulas.SampleVolatility(closes, s.window); sample != nil {
		s.log.Debug().
			Str("ticker", ticker).
			Float64("volatility", *vol).
			Float64("sample_volatility", *sample).
			Int("window", s.window).
			Msg("Estimated historical volatility")
	}
	return vol
}

// Contracts returns every call contract of ticker whose days-to-expiration
// falls inside window, dated against the service clock. Expirations are
// fetched in ascending order; strikes are ascending within an expiration.
func (s *Service) Contracts(ctx context.Context, ticker string, window DTEWindow) ([]domain.Contract, error) {
	ticker = NormalizeTicker(ticker)
	now := s.now()

	expirations, err := s.provider.Expirations(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("expirations %s: %w", ticker, err)
	}
	sort.Slice(expirations, func(i, j int) bool { return expirations[i].Before(expirations[j]) })

	var contracts []domain.Contract
	for _, exp := range expirations {
		days := domain.DaysBetween(now, exp)
		if days < 0 || !window.Contains(days) {
			continue
		}

		chain, err := s.chain(ctx, ticker, exp, now)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, chain...)
	}

	s.log.Debug().
		Str("ticker", ticker).
		Int("expirations", len(expirations)).
		Int("contracts", len(contracts)).
		Msg("Loaded option contracts")

	return contracts, nil
}

// Chain returns the valid call contracts of one expiration. Contracts with a
// non-positive strike or a negative premium are dropped.
func (s *Service) Chain(ctx context.Context, ticker string, expiration time.Time) ([]domain.Contract, error) {
	return s.chain(ctx, NormalizeTicker(ticker), expiration, s.now())
}

// chain dates every contract against now so one fetch shares a single clock
// reading.
func (s *Service) chain(ctx context.Context, ticker string, expiration, now time.Time) ([]domain.Contract, error) {
	raw, err := s.provider.CallChain(ctx, ticker, expiration)
	if err != nil {
		return nil, fmt.Errorf("chain %s %s: %w", ticker, expiration.Format("2006-01-02"), err)
	}

	out := make([]domain.Contract, 0, len(raw))
	for _, c := range raw {
		contract, err := domain.NewContract(c.Strike, c.Premium, expiration, now)
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", c.Symbol).Msg("Skipping contract")
			continue
		}
		contract.Symbol = c.Symbol
		contract.Bid = c.Bid
		contract.Ask = c.Ask
		out = append(out, contract)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })
	return out, nil
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
