// Package marketdata assembles the market context and option contracts the
// evaluation core consumes from an external market-data provider.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/callwriter/internal/domain"
)

// ErrUpstream marks failures of the external provider (network, status,
// payload). Handlers map it to 502.
var ErrUpstream = errors.New("market data provider failure")

// Bar is one daily price bar.
type Bar struct {
	Date  time.Time `json:"date" msgpack:"date"`
	Close float64   `json:"close" msgpack:"close"`
}

// Provider is the external market-data source.
type Provider interface {
	// Quote returns the last traded price of symbol.
	Quote(ctx context.Context, symbol string) (float64, error)
	// History returns daily bars between start and end, oldest first.
	History(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
	// Expirations returns the listed option expirations of symbol.
	Expirations(ctx context.Context, symbol string) ([]time.Time, error)
	// CallChain returns the call contracts of symbol expiring on expiration.
	// DaysToExpiration is left for the caller to derive.
	CallChain(ctx context.Context, symbol string, expiration time.Time) ([]domain.Contract, error)
}
