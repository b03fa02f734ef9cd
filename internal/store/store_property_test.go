package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

// Feature: oraclefeed, Property 5: Status partition is exact
//
// Property: After any sequence of creates and trigger attempts, the pending
// and triggered listings partition the full listing: together they contain
// every rule exactly once, and no rule appears in both.
func TestProperty_StatusPartitionIsExact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	// Each step creates a rule; a positive trigger index fires an earlier one.
	stepGen := gen.IntRange(0, 5)

	properties.Property("pending and triggered partition all rules", prop.ForAll(
		func(steps []int) bool {
			ctx := context.Background()
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "alerts.db"))
			if err != nil {
				return false
			}
			defer s.Close()

			var ids []int64
			for _, step := range steps {
				rule, err := s.Create(ctx, "BTC", decimal.NewFromInt(int64(step)), models.DirectionAbove)
				if err != nil {
					return false
				}
				ids = append(ids, rule.ID)
				if step > 0 && step <= len(ids) {
					if _, err := s.MarkTriggered(ctx, ids[step-1], time.Now()); err != nil {
						return false
					}
				}
			}

			all, err := s.List(ctx, FilterAll)
			if err != nil {
				return false
			}
			pending, err := s.List(ctx, FilterPending)
			if err != nil {
				return false
			}
			triggered, err := s.List(ctx, FilterTriggered)
			if err != nil {
				return false
			}

			if len(pending)+len(triggered) != len(all) {
				return false
			}
			seen := make(map[int64]models.AlertStatus, len(all))
			for _, rule := range pending {
				if rule.Status != models.AlertPending {
					return false
				}
				seen[rule.ID] = rule.Status
			}
			for _, rule := range triggered {
				if rule.Status != models.AlertTriggered {
					return false
				}
				if _, dup := seen[rule.ID]; dup {
					return false
				}
				seen[rule.ID] = rule.Status
			}
			for _, rule := range all {
				if seen[rule.ID] != rule.Status {
					return false
				}
			}
			return true
		},
		gen.SliceOf(stepGen),
	))

	properties.TestingRun(t)
}

// Feature: oraclefeed, Property 6: Trigger transition is one-way and at most once
//
// Property: For any number of trigger attempts against one rule, exactly the
// first reports a transition, every later attempt is a no-op, and the
// recorded trigger time stays the first one.
func TestProperty_TriggerTransitionIsOneWay(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("exactly one attempt transitions", prop.ForAll(
		func(attempts int) bool {
			ctx := context.Background()
			s := NewMemoryStore()
			rule, err := s.Create(ctx, "BTC", decimal.NewFromInt(1), models.DirectionAbove)
			if err != nil {
				return false
			}

			first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			transitions := 0
			for i := 0; i < attempts; i++ {
				ok, err := s.MarkTriggered(ctx, rule.ID, first.Add(time.Duration(i)*time.Minute))
				if err != nil {
					return false
				}
				if ok {
					transitions++
				}
			}
			if transitions != 1 {
				return false
			}

			got, err := s.Get(ctx, rule.ID)
			if err != nil {
				return false
			}
			return got.Status == models.AlertTriggered && got.TriggeredAt.Equal(first)
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
