package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/marketdata"
	"github.com/aristath/callwriter/internal/modules/probability"
	"github.com/aristath/callwriter/internal/modules/returns"
	"github.com/rs/zerolog"
)

// ErrContractNotFound means no listed call matches the requested strike and
// expiration.
var ErrContractNotFound = errors.New("contract not found")

// MarketData is the market-data dependency of the service.
type MarketData interface {
	MarketContext(ctx context.Context, ticker string) (domain.MarketContext, error)
	Contracts(ctx context.Context, ticker string, window marketdata.DTEWindow) ([]domain.Contract, error)
	Chain(ctx context.Context, ticker string, expiration time.Time) ([]domain.Contract, error)
	Now() time.Time
}

// Service answers contract-level questions for one ticker at a time.
type Service struct {
	market   MarketData
	analyzer *Analyzer
	log      zerolog.Logger
}

// NewService creates an analysis service.
func NewService(market MarketData, analyzer *Analyzer, log zerolog.Logger) *Service {
	return &Service{
		market:   market,
		analyzer: analyzer,
		log:      log.With().Str("service", "analysis").Logger(),
	}
}

// Analyze fetches the calls of ticker inside the query's DTE window,
// evaluates them as one batch and returns the filtered, ordered report.
// Total counts the whole batch the safety scores were normalized over.
func (s *Service) Analyze(ctx context.Context, ticker string, q Query) (Report, error) {
	market, err := s.market.MarketContext(ctx, ticker)
	if err != nil {
		return Report{}, err
	}

	contracts, err := s.market.Contracts(ctx, ticker, q.Window)
	if err != nil {
		return Report{}, err
	}

	report, err := s.analyzer.Evaluate(market, contracts)
	if err != nil {
		return Report{}, err
	}
	report.Evaluations = s.analyzer.Apply(report.Evaluations, q)

	s.log.Info().
		Str("ticker", market.Ticker).
		Str("batch_id", report.BatchID).
		Int("contracts", report.Total).
		Int("selected", len(report.Evaluations)).
		Bool("volatility_known", market.HasVolatility()).
		Msg("Analyzed option chain")

	return report, nil
}

// CurveResult is a payoff curve with the contract and market it was drawn for.
type CurveResult struct {
	Market   domain.MarketContext `json:"market"`
	Contract domain.Contract      `json:"contract"`
	Curve    returns.Curve        `json:"curve"`
}

// Curve returns the covered-call versus hold payoff curve of the call of
// ticker with the given strike and expiration.
func (s *Service) Curve(ctx context.Context, ticker string, strike float64, expiration time.Time) (CurveResult, error) {
	market, err := s.market.MarketContext(ctx, ticker)
	if err != nil {
		return CurveResult{}, err
	}

	contract, err := s.findContract(ctx, ticker, strike, expiration)
	if err != nil {
		return CurveResult{}, err
	}

	curve, err := returns.PayoffCurve(market.CurrentPrice, contract)
	if err != nil {
		return CurveResult{}, err
	}

	return CurveResult{Market: market, Contract: contract, Curve: curve}, nil
}

// DistributionResult is the price distribution at one expiration.
type DistributionResult struct {
	Market           domain.MarketContext     `json:"market"`
	Expiration       time.Time                `json:"expiration_date"`
	DaysToExpiration int                      `json:"days_to_expiration"`
	Distribution     probability.Distribution `json:"distribution"`
}

// Distribution returns the price distribution of ticker at expiration over
// the analyzer's grid.
func (s *Service) Distribution(ctx context.Context, ticker string, expiration time.Time) (DistributionResult, error) {
	market, err := s.market.MarketContext(ctx, ticker)
	if err != nil {
		return DistributionResult{}, err
	}

	days := domain.DaysBetween(s.market.Now(), expiration)
	if days < 0 {
		return DistributionResult{}, fmt.Errorf("expiration %s is in the past: %w", expiration.Format("2006-01-02"), domain.ErrDomain)
	}

	grid := probability.Grid(market.CurrentPrice, s.analyzer.Config().GridPoints)
	dist, err := probability.PriceDistribution(market.CurrentPrice, grid, days, market.Volatility)
	if err != nil {
		return DistributionResult{}, err
	}

	return DistributionResult{
		Market:           market,
		Expiration:       expiration,
		DaysToExpiration: days,
		Distribution:     dist,
	}, nil
}

func (s *Service) findContract(ctx context.Context, ticker string, strike float64, expiration time.Time) (domain.Contract, error) {
	chain, err := s.market.Chain(ctx, ticker, expiration)
	if err != nil {
		return domain.Contract{}, err
	}
	for _, c := range chain {
		if c.Strike == strike {
			return c, nil
		}
	}
	return domain.Contract{}, fmt.Errorf("%s %.2f call expiring %s: %w",
		marketdata.NormalizeTicker(ticker), strike, expiration.Format("2006-01-02"), ErrContractNotFound)
}
