// Package store provides persistence for alert rules.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

// Filter selects which alert rules List returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterTriggered Filter = "triggered"
)

// AlertStore persists alert rules. Implementations must assign unique
// monotonic ids and apply the pending -> triggered transition at most once
// per rule, even under concurrent evaluation.
type AlertStore interface {
	// Create persists a new rule in pending state and assigns its id.
	Create(ctx context.Context, ticker string, threshold decimal.Decimal, direction models.AlertDirection) (*models.AlertRule, error)
	// Get returns one rule by id, or ErrInvalidRuleReference.
	Get(ctx context.Context, id int64) (*models.AlertRule, error)
	// List returns rules matching the filter in creation order.
	List(ctx context.Context, filter Filter) ([]models.AlertRule, error)
	// MarkTriggered transitions a pending rule to triggered. It returns
	// false when the rule was already triggered (a safe no-op) and
	// ErrInvalidRuleReference when the id does not exist.
	MarkTriggered(ctx context.Context, id int64, at time.Time) (bool, error)
	// Close releases the underlying resources.
	Close() error
}
