// Package domain provides the core option, market and position types shared by
// the pricing, scoring and market-data packages.
package domain

import (
	"fmt"
	"time"
)

// SharesPerContract is the number of shares one option contract covers.
const SharesPerContract = 100

// Regime labels a strike's moneyness relative to the market price.
type Regime string

const (
	RegimeDeepITM Regime = "deep_itm"
	RegimeITM     Regime = "itm"
	RegimeATM     Regime = "atm"
	RegimeOTM     Regime = "otm"
	RegimeDeepOTM Regime = "deep_otm"
)

// Contract is a call option contract as fetched from the market-data provider.
// Values are snapshotted at fetch time and never mutated afterwards.
type Contract struct {
	ExpirationDate   time.Time `json:"expiration_date"`
	Symbol           string    `json:"symbol,omitempty"` // OCC option symbol when known
	Strike           float64   `json:"strike"`
	Premium          float64   `json:"premium"`
	Bid              float64   `json:"bid,omitempty"`
	Ask              float64   `json:"ask,omitempty"`
	DaysToExpiration int       `json:"days_to_expiration"`
}

// NewContract builds a contract, deriving DaysToExpiration from the calendar
// distance between now and the expiration date.
func NewContract(strike, premium float64, expiration, now time.Time) (Contract, error) {
	if strike <= 0 {
		return Contract{}, fmt.Errorf("strike %.4f must be positive: %w", strike, ErrDomain)
	}
	if premium < 0 {
		return Contract{}, fmt.Errorf("premium %.4f must not be negative: %w", premium, ErrDomain)
	}

	days := DaysBetween(now, expiration)
	if days < 0 {
		return Contract{}, fmt.Errorf("contract expired on %s: %w", expiration.Format("2006-01-02"), ErrDomain)
	}

	return Contract{
		ExpirationDate:   expiration,
		Strike:           strike,
		Premium:          premium,
		DaysToExpiration: days,
	}, nil
}

// DaysBetween counts calendar days from `from` to `to`, ignoring time of day.
// Both instants are read in the location of `to`.
func DaysBetween(from, to time.Time) int {
	from = from.In(to.Location())
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// MarketContext is the market state a batch of contracts is evaluated against.
type MarketContext struct {
	Ticker       string   `json:"ticker"`
	CurrentPrice float64  `json:"current_price"`
	Volatility   *float64 `json:"volatility,omitempty"` // annualized; nil means unknown
}

// HasVolatility reports whether a usable (strictly positive) volatility is known.
func (m MarketContext) HasVolatility() bool {
	return m.Volatility != nil && *m.Volatility > 0
}

// Validate checks the invariants every computation relies on.
func (m MarketContext) Validate() error {
	if m.CurrentPrice <= 0 {
		return fmt.Errorf("current price %.4f must be positive: %w", m.CurrentPrice, ErrDomain)
	}
	if m.Volatility != nil && *m.Volatility < 0 {
		return fmt.Errorf("volatility %.4f must not be negative: %w", *m.Volatility, ErrDomain)
	}
	return nil
}

// Position is a covered-call stock position opened at EntryPrice.
type Position struct {
	NumShares  int     `json:"num_shares"`
	EntryPrice float64 `json:"entry_price"`
}

// NewPosition validates the share count and entry price.
func NewPosition(numShares int, entryPrice float64) (Position, error) {
	if err := ValidateShares(numShares); err != nil {
		return Position{}, err
	}
	if entryPrice <= 0 {
		return Position{}, fmt.Errorf("entry price %.4f must be positive: %w", entryPrice, ErrDomain)
	}
	return Position{NumShares: numShares, EntryPrice: entryPrice}, nil
}

// Contracts returns how many option contracts the position covers.
func (p Position) Contracts() int {
	return p.NumShares / SharesPerContract
}

// ValidateShares rejects share counts that are not a positive multiple of 100.
func ValidateShares(numShares int) error {
	if numShares <= 0 || numShares%SharesPerContract != 0 {
		return fmt.Errorf("%d shares is not a positive multiple of %d: %w", numShares, SharesPerContract, ErrInvalidPositionSize)
	}
	return nil
}

// Float64 returns a pointer to v. Handy for optional inputs.
func Float64(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
