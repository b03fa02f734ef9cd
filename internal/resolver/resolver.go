// Package resolver turns ticker/currency pairs into validated PriceRecords
// by way of the symbol registry and the consensus-gated oracle client.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"oraclefeed/internal/logging"
	"oraclefeed/internal/models"
	"oraclefeed/internal/oracle"
	"oraclefeed/internal/registry"
)

// Resolver performs price lookups. Every call re-queries the oracle; there
// is no price cache, trading efficiency for freshness.
type Resolver struct {
	registry *registry.Registry
	client   oracle.Client
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithClock overrides the timestamp source. Tests use this to pin AsOf.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a resolver over the given registry and oracle client.
func New(reg *registry.Registry, client oracle.Client, opts ...Option) *Resolver {
	r := &Resolver{
		registry: reg,
		client:   client,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry exposes the symbol table for discovery calls.
func (r *Resolver) Registry() *registry.Registry {
	return r.registry
}

// GetPrice resolves one ticker to a fresh PriceRecord. Failures are typed:
// ErrUnsupportedAsset, ErrOracleUnavailable, ErrMalformedResponse or
// ErrConsensusRejected, each wrapped with lookup context.
func (r *Resolver) GetPrice(ctx context.Context, ticker, currency string) (*models.PriceRecord, error) {
	normalized := r.registry.Normalize(ticker)
	currency = normalizeCurrency(currency)

	sourceID, err := r.registry.Resolve(normalized)
	if err != nil {
		return nil, err
	}

	start := r.now()
	resp, err := r.client.Query(ctx, oracle.Request{SourceID: sourceID, Currency: currency})
	logging.LogOracleCall(r.logger, sourceID, currency, r.now().Sub(start), err)
	if err != nil {
		return nil, fmt.Errorf("price lookup %s/%s: %w", normalized, currency, err)
	}

	// The oracle client already rejects negative prices; keep the guard so a
	// record with Valid=true can never carry one.
	if resp.Price.IsNegative() {
		return nil, fmt.Errorf("price lookup %s/%s: %w: negative price %s",
			normalized, currency, models.ErrMalformedResponse, resp.Price)
	}

	record := &models.PriceRecord{
		Ticker:    normalized,
		Currency:  currency,
		Price:     resp.Price,
		Change24h: resp.Change24h,
		MarketCap: resp.MarketCap,
		AsOf:      r.now(),
		Valid:     true,
	}
	r.logger.Debug().
		Str("ticker", normalized).
		Str("currency", currency).
		Str("price", record.Price.String()).
		Msg("Price resolved")
	return record, nil
}

// GetPrices resolves several tickers independently. One ticker's failure
// never aborts the rest; the result has exactly one entry per distinct
// normalized input ticker.
func (r *Resolver) GetPrices(ctx context.Context, tickers []string, currency string) map[string]models.PriceResult {
	results := make(map[string]models.PriceResult, len(tickers))
	for _, ticker := range tickers {
		normalized := r.registry.Normalize(ticker)
		if _, done := results[normalized]; done {
			continue
		}
		record, err := r.GetPrice(ctx, normalized, currency)
		if err != nil {
			results[normalized] = models.PriceResult{Err: err}
			continue
		}
		results[normalized] = models.PriceResult{Record: record}
	}
	return results
}

func normalizeCurrency(currency string) string {
	c := strings.ToLower(strings.TrimSpace(currency))
	if c == "" {
		c = "usd"
	}
	return c
}
