// Package alerts manages user-registered price alert rules: lazy
// registration against the symbol registry, on-demand evaluation against
// fresh oracle prices, and the one-way pending -> triggered lifecycle.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"oraclefeed/internal/logging"
	"oraclefeed/internal/models"
	"oraclefeed/internal/registry"
	"oraclefeed/internal/store"
)

// PriceSource is the slice of the resolver the service depends on.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker, currency string) (*models.PriceRecord, error)
}

// Service wires the alert store to the registry and the price resolver.
type Service struct {
	registry *registry.Registry
	prices   PriceSource
	store    store.AlertStore
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the trigger timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates an alert service.
func New(reg *registry.Registry, prices PriceSource, alertStore store.AlertStore, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		prices:   prices,
		store:    alertStore,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a pending rule. The ticker must be registered, but its
// price is not fetched until evaluation.
func (s *Service) Register(ctx context.Context, ticker string, threshold decimal.Decimal, direction models.AlertDirection) (*models.AlertRule, error) {
	normalized := s.registry.Normalize(ticker)
	if _, err := s.registry.Resolve(normalized); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("alert direction must be %q or %q, got %q",
			models.DirectionAbove, models.DirectionBelow, direction)
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("alert threshold must be non-negative, got %s", threshold)
	}

	rule, err := s.store.Create(ctx, normalized, threshold, direction)
	if err != nil {
		return nil, fmt.Errorf("registering alert for %s: %w", normalized, err)
	}
	s.logger.Info().
		Int64("alert_id", rule.ID).
		Str("ticker", rule.Ticker).
		Str("direction", string(rule.Direction)).
		Str("threshold", rule.Threshold.String()).
		Msg("Alert registered")
	return rule, nil
}

// Unevaluable pairs a rule that could not be checked with the failure that
// prevented it. The rule stays pending.
type Unevaluable struct {
	Rule models.AlertRule `json:"rule"`
	Err  error            `json:"-"`
}

// Report is the outcome of one evaluation pass.
type Report struct {
	// Triggered lists rules that transitioned during this pass, in
	// creation order. Rules triggered in earlier passes are not repeated.
	Triggered []models.AlertRule `json:"triggered"`
	// Unevaluable lists pending rules whose price lookup failed.
	Unevaluable []Unevaluable `json:"unevaluable,omitempty"`
	// Evaluated counts the pending rules considered in this pass.
	Evaluated int `json:"evaluated"`
}

// EvaluateAll checks every pending rule against a fresh price. Each distinct
// ticker is resolved once per pass. A failed lookup leaves its rules pending
// and reports them as unevaluable rather than dropping or triggering them.
// The boundary is inclusive: price == threshold satisfies both directions.
func (s *Service) EvaluateAll(ctx context.Context, currency string) (*Report, error) {
	pending, err := s.store.List(ctx, store.FilterPending)
	if err != nil {
		return nil, fmt.Errorf("loading pending alerts: %w", err)
	}

	report := &Report{Evaluated: len(pending)}
	prices := make(map[string]*models.PriceRecord, len(pending))
	lookupErrs := make(map[string]error, len(pending))

	for _, rule := range pending {
		record, ok := prices[rule.Ticker]
		if !ok {
			if lookupErr, failed := lookupErrs[rule.Ticker]; failed {
				report.Unevaluable = append(report.Unevaluable, Unevaluable{Rule: rule, Err: lookupErr})
				continue
			}
			record, err = s.prices.GetPrice(ctx, rule.Ticker, currency)
			if err != nil {
				lookupErrs[rule.Ticker] = err
				report.Unevaluable = append(report.Unevaluable, Unevaluable{Rule: rule, Err: err})
				continue
			}
			prices[rule.Ticker] = record
		}

		if !rule.Satisfied(record.Price) {
			continue
		}

		transitioned, err := s.store.MarkTriggered(ctx, rule.ID, s.now())
		if err != nil {
			report.Unevaluable = append(report.Unevaluable, Unevaluable{Rule: rule, Err: err})
			continue
		}
		if !transitioned {
			// A concurrent evaluator got there first; it owns the report entry.
			continue
		}

		triggered, err := s.store.Get(ctx, rule.ID)
		if err != nil {
			return nil, fmt.Errorf("reloading triggered alert %d: %w", rule.ID, err)
		}
		logging.LogAlertTriggered(s.logger, triggered.ID, triggered.Ticker,
			string(triggered.Direction), triggered.Threshold.String(), record.Price.String())
		report.Triggered = append(report.Triggered, *triggered)
	}

	return report, nil
}

// List returns rules matching the filter in creation order.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]models.AlertRule, error) {
	return s.store.List(ctx, filter)
}

// Get returns one rule by id, failing with ErrInvalidRuleReference for
// unknown ids.
func (s *Service) Get(ctx context.Context, id int64) (*models.AlertRule, error) {
	return s.store.Get(ctx, id)
}
