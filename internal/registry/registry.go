// Package registry maps short tickers to the identifiers the external price
// source understands. The table is built once and read-only afterwards;
// alternate tables can be injected for tests or administrative updates.
package registry

import (
	"fmt"
	"strings"

	"oraclefeed/internal/models"
)

// Entry is a single ticker -> source identifier mapping.
type Entry struct {
	Ticker   string
	SourceID string
}

// Registry is an immutable, ordered symbol table.
type Registry struct {
	ids   map[string]string
	order []string
}

// defaultEntries lists the coins supported out of the box. Order matters:
// List() reports tickers in this insertion order.
var defaultEntries = []Entry{
	{"BTC", "bitcoin"},
	{"ETH", "ethereum"},
	{"SOL", "solana"},
	{"USDT", "tether"},
	{"USDC", "usd-coin"},
	{"BNB", "binancecoin"},
	{"XRP", "ripple"},
	{"ADA", "cardano"},
	{"DOGE", "dogecoin"},
	{"MATIC", "matic-network"},
	{"DOT", "polkadot"},
	{"AVAX", "avalanche-2"},
	{"LINK", "chainlink"},
	{"UNI", "uniswap"},
	{"ATOM", "cosmos"},
}

// Default returns a registry seeded with the built-in coin table.
func Default() *Registry {
	r, _ := New(defaultEntries)
	return r
}

// New builds a registry from the given entries. Tickers are upper-cased;
// a duplicate ticker is an error so administrative tables stay unambiguous.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{
		ids:   make(map[string]string, len(entries)),
		order: make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		id := strings.TrimSpace(e.SourceID)
		if ticker == "" || id == "" {
			return nil, fmt.Errorf("registry entry %q -> %q: ticker and source id are required", e.Ticker, e.SourceID)
		}
		if _, dup := r.ids[ticker]; dup {
			return nil, fmt.Errorf("registry entry %s: duplicate ticker", ticker)
		}
		r.ids[ticker] = id
		r.order = append(r.order, ticker)
	}
	return r, nil
}

// WithEntries returns a new registry extending r with extra entries.
// Existing tickers keep their position; an extra entry for a known ticker
// overrides its source id.
func (r *Registry) WithEntries(extra []Entry) (*Registry, error) {
	merged := make([]Entry, 0, len(r.order)+len(extra))
	override := make(map[string]string, len(extra))
	appended := make([]Entry, 0, len(extra))
	for _, e := range extra {
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		if _, known := r.ids[ticker]; known {
			override[ticker] = strings.TrimSpace(e.SourceID)
		} else {
			appended = append(appended, Entry{Ticker: ticker, SourceID: e.SourceID})
		}
	}
	for _, ticker := range r.order {
		id := r.ids[ticker]
		if v, ok := override[ticker]; ok {
			id = v
		}
		merged = append(merged, Entry{Ticker: ticker, SourceID: id})
	}
	merged = append(merged, appended...)
	return New(merged)
}

// Resolve returns the source identifier for a ticker. Lookup is
// case-insensitive; unknown tickers fail with ErrUnsupportedAsset.
func (r *Registry) Resolve(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	id, ok := r.ids[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedAsset, normalized)
	}
	return id, nil
}

// Normalize returns the canonical (upper-case) form of a ticker without
// checking membership.
func (r *Registry) Normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// List returns all supported tickers in insertion order. The returned slice
// is a copy; callers may mutate it freely.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tickers.
func (r *Registry) Len() int {
	return len(r.order)
}
