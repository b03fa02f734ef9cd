package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

// MemoryStore implements AlertStore in memory. It backs tests and ephemeral
// runs where no database file is wanted; semantics match SQLiteStore.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rules  []*models.AlertRule
}

// NewMemoryStore creates an empty in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Create persists a new pending rule.
func (m *MemoryStore) Create(ctx context.Context, ticker string, threshold decimal.Decimal, direction models.AlertDirection) (*models.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule := &models.AlertRule{
		ID:        m.nextID,
		Ticker:    ticker,
		Threshold: threshold,
		Direction: direction,
		Status:    models.AlertPending,
		CreatedAt: time.Now().UTC(),
	}
	m.nextID++
	m.rules = append(m.rules, rule)

	copied := *rule
	return &copied, nil
}

// Get retrieves one rule by id.
func (m *MemoryStore) Get(ctx context.Context, id int64) (*models.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule := m.find(id)
	if rule == nil {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidRuleReference, id)
	}
	copied := *rule
	return &copied, nil
}

// List retrieves rules matching the filter in creation order.
func (m *MemoryStore) List(ctx context.Context, filter Filter) ([]models.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.AlertRule
	for _, rule := range m.rules {
		switch filter {
		case FilterPending:
			if rule.Status != models.AlertPending {
				continue
			}
		case FilterTriggered:
			if rule.Status != models.AlertTriggered {
				continue
			}
		case FilterAll, "":
			// keep all
		default:
			return nil, fmt.Errorf("unknown alert filter: %s", filter)
		}
		out = append(out, *rule)
	}
	return out, nil
}

// MarkTriggered applies the one-way pending -> triggered transition.
func (m *MemoryStore) MarkTriggered(ctx context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule := m.find(id)
	if rule == nil {
		return false, fmt.Errorf("%w: %d", models.ErrInvalidRuleReference, id)
	}
	if rule.Status == models.AlertTriggered {
		return false, nil
	}
	ts := at.UTC()
	rule.Status = models.AlertTriggered
	rule.TriggeredAt = &ts
	return true, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) find(id int64) *models.AlertRule {
	for _, rule := range m.rules {
		if rule.ID == id {
			return rule
		}
	}
	return nil
}
