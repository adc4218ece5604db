// Package tradier implements the market-data provider on top of the Tradier
// brokerage REST API, with a persistent cache in front of every endpoint.
package tradier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/callwriter/internal/clientdata"
	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/marketdata"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.tradier.com/v1"

const dateLayout = "2006-01-02"

// Client for the Tradier market data API
type Client struct {
	baseURL   string
	token     string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Tradier client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(baseURL, token string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "tradier").Logger(),
		cacheRepo: cacheRepo,
	}
}

var _ marketdata.Provider = (*Client)(nil)

// Quote returns the last price of symbol, falling back to the bid/ask
// midpoint when no trade is reported.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	return cached(c, clientdata.TableQuotes, symbol, clientdata.TTLQuote, func() (float64, error) {
		var resp quotesResponse
		if err := c.get(ctx, "/markets/quotes", url.Values{"symbols": {symbol}}, &resp); err != nil {
			return 0, err
		}
		for _, q := range resp.Quotes.Quote {
			if !strings.EqualFold(q.Symbol, symbol) {
				continue
			}
			if q.Last > 0 {
				return q.Last, nil
			}
			if mid := midPrice(q.Bid, q.Ask, 0); mid > 0 {
				return mid, nil
			}
		}
		return 0, fmt.Errorf("no price for %s: %w", symbol, marketdata.ErrUpstream)
	})
}

// History returns daily closes between start and end, oldest first.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Bar, error) {
	key := symbol + ":" + start.Format(dateLayout) + ":" + end.Format(dateLayout)

	return cached(c, clientdata.TableHistory, key, clientdata.TTLHistory, func() ([]marketdata.Bar, error) {
		params := url.Values{
			"symbol":   {symbol},
			"interval": {"daily"},
			"start":    {start.Format(dateLayout)},
			"end":      {end.Format(dateLayout)},
		}
		var resp historyResponse
		if err := c.get(ctx, "/markets/history", params, &resp); err != nil {
			return nil, err
		}
		if resp.History == nil {
			return []marketdata.Bar{}, nil
		}

		bars := make([]marketdata.Bar, 0, len(resp.History.Day))
		for _, d := range resp.History.Day {
			date, err := time.Parse(dateLayout, d.Date)
			if err != nil {
				return nil, fmt.Errorf("history date %q: %w", d.Date, marketdata.ErrUpstream)
			}
			bars = append(bars, marketdata.Bar{Date: date, Close: d.Close})
		}
		return bars, nil
	})
}

// Expirations returns the listed option expirations of symbol.
func (c *Client) Expirations(ctx context.Context, symbol string) ([]time.Time, error) {
	dates, err := cached(c, clientdata.TableExpirations, symbol, clientdata.TTLExpirations, func() ([]string, error) {
		var resp expirationsResponse
		if err := c.get(ctx, "/markets/options/expirations", url.Values{"symbol": {symbol}}, &resp); err != nil {
			return nil, err
		}
		if resp.Expirations == nil {
			return []string{}, nil
		}
		return resp.Expirations.Date, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("expiration date %q: %w", d, marketdata.ErrUpstream)
		}
		out = append(out, t)
	}
	return out, nil
}

// CallChain returns the calls of one expiration with premiums set to the
// bid/ask midpoint.
func (c *Client) CallChain(ctx context.Context, symbol string, expiration time.Time) ([]domain.Contract, error) {
	chain, err := cached(c, clientdata.TableChains, clientdata.ChainKey(symbol, expiration), clientdata.TTLChain, func() (cachedChain, error) {
		params := url.Values{
			"symbol":     {symbol},
			"expiration": {expiration.Format(dateLayout)},
		}
		var resp chainResponse
		if err := c.get(ctx, "/markets/options/chains", params, &resp); err != nil {
			return cachedChain{}, err
		}

		out := cachedChain{Contracts: []cachedContract{}}
		if resp.Options == nil {
			return out, nil
		}
		for _, o := range resp.Options.Option {
			if o.OptionType != "call" {
				continue
			}
			out.Contracts = append(out.Contracts, cachedContract{
				Symbol:  o.Symbol,
				Strike:  o.Strike,
				Premium: midPrice(o.Bid, o.Ask, o.Last),
				Bid:     o.Bid,
				Ask:     o.Ask,
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	contracts := make([]domain.Contract, len(chain.Contracts))
	for i, cc := range chain.Contracts {
		contracts[i] = domain.Contract{
			ExpirationDate: expiration,
			Symbol:         cc.Symbol,
			Strike:         cc.Strike,
			Premium:        cc.Premium,
			Bid:            cc.Bid,
			Ask:            cc.Ask,
		}
	}
	return contracts, nil
}

// midPrice returns the bid/ask midpoint rounded to the cent. With a one-sided
// or crossed market it falls back to last, then to whichever side is quoted.
func midPrice(bid, ask, last float64) float64 {
	if bid > 0 && ask > 0 && ask >= bid {
		mid := decimal.NewFromFloat(bid).Add(decimal.NewFromFloat(ask)).Div(decimal.NewFromInt(2)).Round(2)
		return mid.InexactFloat64()
	}
	if last > 0 {
		return last
	}
	if bid > 0 {
		return bid
	}
	if ask > 0 {
		return ask
	}
	return 0
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	c.log.Debug().Str("url", endpoint).Msg("Fetching")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %v: %w", err, marketdata.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %w", resp.StatusCode, marketdata.ErrUpstream)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %v: %w", err, marketdata.ErrUpstream)
	}
	return nil
}

// cached serves fresh cache entries, otherwise calls fetch and stores the
// result. If fetch fails, a stale entry is returned instead (stale data >
// no data).
func cached[T any](c *Client, table, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var value T

	if c.cacheRepo != nil {
		found, err := c.cacheRepo.Load(table, key, true, &value)
		if err == nil && found {
			c.log.Debug().Str("table", table).Str("key", key).Msg("Cache hit")
			return value, nil
		}
	}

	value, err := fetch()
	if err != nil {
		if c.cacheRepo != nil {
			var stale T
			if found, cacheErr := c.cacheRepo.Load(table, key, false, &stale); cacheErr == nil && found {
				c.log.Warn().
					Err(err).
					Str("table", table).
					Str("key", key).
					Msg("API failed, using stale cached data")
				return stale, nil
			}
		}
		return value, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(table, key, value, ttl); err != nil {
			c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache response")
		}
	}

	return value, nil
}
