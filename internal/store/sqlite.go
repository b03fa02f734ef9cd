package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

// SQLiteStore implements AlertStore using SQLite. Thresholds are stored as
// decimal strings so no precision is lost in the round trip.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed alert store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the alerts table and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		threshold TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('above', 'below')),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'triggered')),
		created_at DATETIME NOT NULL,
		triggered_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_ticker ON alerts(ticker);
	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Create persists a new pending rule. AUTOINCREMENT keeps ids monotonic
// even after deletions by external tooling.
func (s *SQLiteStore) Create(ctx context.Context, ticker string, threshold decimal.Decimal, direction models.AlertDirection) (*models.AlertRule, error) {
	createdAt := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (ticker, threshold, direction, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ticker, threshold.String(), string(direction), string(models.AlertPending), createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read alert id: %w", err)
	}

	return &models.AlertRule{
		ID:        id,
		Ticker:    ticker,
		Threshold: threshold,
		Direction: direction,
		Status:    models.AlertPending,
		CreatedAt: createdAt,
	}, nil
}

// Get retrieves one rule by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*models.AlertRule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ticker, threshold, direction, status, created_at, triggered_at
		FROM alerts WHERE id = ?
	`, id)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidRuleReference, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %d: %w", id, err)
	}
	return rule, nil
}

// List retrieves rules matching the filter ordered by creation (id).
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]models.AlertRule, error) {
	query := `
		SELECT id, ticker, threshold, direction, status, created_at, triggered_at
		FROM alerts
	`
	var args []interface{}
	switch filter {
	case FilterPending:
		query += " WHERE status = ?"
		args = append(args, string(models.AlertPending))
	case FilterTriggered:
		query += " WHERE status = ?"
		args = append(args, string(models.AlertTriggered))
	case FilterAll, "":
		// no predicate
	default:
		return nil, fmt.Errorf("unknown alert filter: %s", filter)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// MarkTriggered applies the one-way pending -> triggered transition. The
// status predicate in the UPDATE makes the transition at-most-once under
// concurrent evaluators.
func (s *SQLiteStore) MarkTriggered(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET status = ?, triggered_at = ? WHERE id = ? AND status = ?
	`, string(models.AlertTriggered), at.UTC(), id, string(models.AlertPending))
	if err != nil {
		return false, fmt.Errorf("failed to trigger alert %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to trigger alert %d: %w", id, err)
	}
	if rows > 0 {
		return true, nil
	}

	// No transition: either the rule is already triggered or it never existed.
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*models.AlertRule, error) {
	var rule models.AlertRule
	var threshold, direction, status string
	var triggeredAt sql.NullTime
	if err := row.Scan(&rule.ID, &rule.Ticker, &threshold, &direction, &status, &rule.CreatedAt, &triggeredAt); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("stored threshold %q: %w", threshold, err)
	}
	rule.Threshold = parsed
	rule.Direction = models.AlertDirection(direction)
	rule.Status = models.AlertStatus(status)
	if triggeredAt.Valid {
		t := triggeredAt.Time
		rule.TriggeredAt = &t
	}
	return &rule, nil
}
