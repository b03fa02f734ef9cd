// Package models defines the core data types shared across the oracle engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is the normalized result of a successful, consensus-accepted
// price lookup. A record is created fresh on every resolution call and is
// never cached across calls.
type PriceRecord struct {
	Ticker    string           `json:"ticker"`
	Currency  string           `json:"currency"`
	Price     decimal.Decimal  `json:"price"`
	Change24h *decimal.Decimal `json:"change_24h,omitempty"`
	MarketCap *decimal.Decimal `json:"market_cap,omitempty"`
	AsOf      time.Time        `json:"as_of"`
	Valid     bool             `json:"valid"`
}

// PriceResult is one entry of a batch lookup. Exactly one of Record and Err
// is set; a batch never aborts on a single ticker's failure.
type PriceResult struct {
	Record *PriceRecord
	Err    error
}

// Holding is a single portfolio line item. Duplicate tickers are allowed and
// stay separate line items; they share one resolved price per valuation.
type Holding struct {
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
}

// AlertDirection is the comparison direction of an alert rule.
type AlertDirection string

const (
	DirectionAbove AlertDirection = "above"
	DirectionBelow AlertDirection = "below"
)

// Valid reports whether the direction is one of the known values.
func (d AlertDirection) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// AlertStatus is the lifecycle state of an alert rule. Transitions are
// one-way: pending -> triggered.
type AlertStatus string

const (
	AlertPending   AlertStatus = "pending"
	AlertTriggered AlertStatus = "triggered"
)

// AlertRule is a persisted user condition comparing a ticker's price to a
// threshold. IDs are monotonic and assigned by the store at registration.
type AlertRule struct {
	ID          int64           `json:"id"`
	Ticker      string          `json:"ticker"`
	Threshold   decimal.Decimal `json:"threshold"`
	Direction   AlertDirection  `json:"direction"`
	Status      AlertStatus     `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	TriggeredAt *time.Time      `json:"triggered_at,omitempty"`
}

// Satisfied reports whether price meets the rule's condition. The threshold
// boundary is inclusive in both directions: price == threshold triggers.
func (r *AlertRule) Satisfied(price decimal.Decimal) bool {
	switch r.Direction {
	case DirectionAbove:
		return price.GreaterThanOrEqual(r.Threshold)
	case DirectionBelow:
		return price.LessThanOrEqual(r.Threshold)
	default:
		return false
	}
}
