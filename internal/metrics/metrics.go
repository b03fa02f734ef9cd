// Package metrics computes read-only derived figures from resolver output:
// price comparisons, portfolio valuations, threshold checks and a simple
// momentum signal. Every function is pure given its price inputs and
// propagates resolver failures unchanged.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

// PriceSource is the slice of the resolver the engine depends on.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker, currency string) (*models.PriceRecord, error)
}

// Engine computes derived metrics.
type Engine struct {
	prices PriceSource
}

// New creates a metrics engine over a price source.
func New(prices PriceSource) *Engine {
	return &Engine{prices: prices}
}

// Comparison is the result of comparing two assets' prices.
type Comparison struct {
	Symbol1  string          `json:"symbol1"`
	Symbol2  string          `json:"symbol2"`
	Currency string          `json:"currency"`
	Price1   decimal.Decimal `json:"price1"`
	Price2   decimal.Decimal `json:"price2"`
	Ratio    decimal.Decimal `json:"ratio"`
	Higher   string          `json:"higher"`
}

// ratioPrecision bounds the decimal expansion of price1/price2.
const ratioPrecision = 12

// Compare resolves both symbols and reports their ratio. A zero second price
// fails with ErrDivisionUndefined. On equal prices Higher names the first
// symbol; ties break toward the first argument.
func (e *Engine) Compare(ctx context.Context, symbol1, symbol2, currency string) (*Comparison, error) {
	rec1, err := e.prices.GetPrice(ctx, symbol1, currency)
	if err != nil {
		return nil, err
	}
	rec2, err := e.prices.GetPrice(ctx, symbol2, currency)
	if err != nil {
		return nil, err
	}

	if rec2.Price.IsZero() {
		return nil, fmt.Errorf("compare %s/%s: %w: %s price is zero",
			rec1.Ticker, rec2.Ticker, models.ErrDivisionUndefined, rec2.Ticker)
	}

	higher := rec1.Ticker
	if rec2.Price.GreaterThan(rec1.Price) {
		higher = rec2.Ticker
	}

	return &Comparison{
		Symbol1:  rec1.Ticker,
		Symbol2:  rec2.Ticker,
		Currency: rec1.Currency,
		Price1:   rec1.Price,
		Price2:   rec2.Price,
		Ratio:    rec1.Price.DivRound(rec2.Price, ratioPrecision),
		Higher:   higher,
	}, nil
}

// HoldingValue is one valued portfolio line item.
type HoldingValue struct {
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// PortfolioValuation is the result of valuing a set of holdings.
type PortfolioValuation struct {
	Currency string          `json:"currency"`
	Lines    []HoldingValue  `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

// PortfolioValue values the holdings at current prices. Each distinct ticker
// is resolved exactly once; duplicate tickers remain separate line items
// sharing that single resolved price. Any resolution failure aborts the
// valuation; a partial total is never returned.
func (e *Engine) PortfolioValue(ctx context.Context, holdings []models.Holding, currency string) (*PortfolioValuation, error) {
	resolved := make(map[string]*models.PriceRecord, len(holdings))
	valuation := &PortfolioValuation{
		Lines: make([]HoldingValue, 0, len(holdings)),
		Total: decimal.Zero,
	}

	for _, h := range holdings {
		if h.Amount.IsNegative() {
			return nil, fmt.Errorf("portfolio holding %s: negative amount %s", h.Ticker, h.Amount)
		}
		key := strings.ToUpper(strings.TrimSpace(h.Ticker))
		record, ok := resolved[key]
		if !ok {
			var err error
			record, err = e.prices.GetPrice(ctx, key, currency)
			if err != nil {
				return nil, err
			}
			resolved[key] = record
			valuation.Currency = record.Currency
		}
		value := h.Amount.Mul(record.Price)
		valuation.Lines = append(valuation.Lines, HoldingValue{
			Ticker: record.Ticker,
			Amount: h.Amount,
			Price:  record.Price,
			Value:  value,
		})
		valuation.Total = valuation.Total.Add(value)
	}
	return valuation, nil
}

// ThresholdCheck is the result of a price-vs-threshold query.
type ThresholdCheck struct {
	Ticker      string           `json:"ticker"`
	Currency    string           `json:"currency"`
	Price       decimal.Decimal  `json:"price"`
	Threshold   decimal.Decimal  `json:"threshold"`
	Satisfied   bool             `json:"satisfied"`
	Difference  decimal.Decimal  `json:"difference"`
	PercentDiff *decimal.Decimal `json:"percent_diff,omitempty"`
}

// IsAbove checks whether the current price is strictly above the threshold.
// Equality does not satisfy the query (alert rules are inclusive instead;
// see the alerts package).
func (e *Engine) IsAbove(ctx context.Context, symbol string, threshold decimal.Decimal, currency string) (*ThresholdCheck, error) {
	return e.thresholdCheck(ctx, symbol, threshold, currency, true)
}

// IsBelow checks whether the current price is strictly below the threshold.
func (e *Engine) IsBelow(ctx context.Context, symbol string, threshold decimal.Decimal, currency string) (*ThresholdCheck, error) {
	return e.thresholdCheck(ctx, symbol, threshold, currency, false)
}

func (e *Engine) thresholdCheck(ctx context.Context, symbol string, threshold decimal.Decimal, currency string, above bool) (*ThresholdCheck, error) {
	record, err := e.prices.GetPrice(ctx, symbol, currency)
	if err != nil {
		return nil, err
	}

	check := &ThresholdCheck{
		Ticker:     record.Ticker,
		Currency:   record.Currency,
		Price:      record.Price,
		Threshold:  threshold,
		Difference: record.Price.Sub(threshold),
	}
	if above {
		check.Satisfied = record.Price.GreaterThan(threshold)
	} else {
		check.Satisfied = record.Price.LessThan(threshold)
	}
	if !threshold.IsZero() {
		pct := check.Difference.DivRound(threshold, ratioPrecision).Mul(decimal.NewFromInt(100))
		check.PercentDiff = &pct
	}
	return check, nil
}

// Signal is a simple momentum buy recommendation.
type Signal struct {
	Ticker    string           `json:"ticker"`
	Currency  string           `json:"currency"`
	Price     decimal.Decimal  `json:"price"`
	Target    decimal.Decimal  `json:"target"`
	Change24h *decimal.Decimal `json:"change_24h,omitempty"`
	Buy       bool             `json:"buy"`
	Reason    string           `json:"reason"`
}

// BuySignal recommends buying when the price sits strictly below the target
// level while the 24h change is positive. Without 24h change data the signal
// is a no, never a guess.
func (e *Engine) BuySignal(ctx context.Context, symbol string, target decimal.Decimal, currency string) (*Signal, error) {
	record, err := e.prices.GetPrice(ctx, symbol, currency)
	if err != nil {
		return nil, err
	}

	sig := &Signal{
		Ticker:    record.Ticker,
		Currency:  record.Currency,
		Price:     record.Price,
		Target:    target,
		Change24h: record.Change24h,
	}
	switch {
	case record.Change24h == nil:
		sig.Reason = "no 24h change data available"
	case record.Price.GreaterThanOrEqual(target):
		sig.Reason = "price at or above target level"
	case !record.Change24h.IsPositive():
		sig.Reason = "no positive momentum"
	default:
		sig.Buy = true
		sig.Reason = "price below target with positive momentum"
	}
	return sig, nil
}
