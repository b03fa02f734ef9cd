// Package oracle provides the non-deterministic price lookup mechanism and
// the agreement gate that decides whether a fetched value may be trusted.
package oracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Request describes one price query for the external data source.
type Request struct {
	SourceID string // identifier the price source understands, e.g. "bitcoin"
	Currency string // quote currency, lower-case, e.g. "usd"
}

// Response carries the structured fields extracted from a single oracle
// answer. Change24h and MarketCap are optional; nil means the source did not
// report them.
type Response struct {
	Price     decimal.Decimal
	Change24h *decimal.Decimal
	MarketCap *decimal.Decimal
}

// Client answers price queries. Implementations may be individually
// non-deterministic; the production client is a Quorum over several
// independent responders, and only quorum-accepted values are returned.
type Client interface {
	Query(ctx context.Context, req Request) (*Response, error)
}
