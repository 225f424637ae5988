package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events are written to the outbox table and shipped downstream by a relay;
// the audit_events table materializes them for querying.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, 'swap', $2, $3, $4, $5)
	`, uuid.New(), event.SwapID, event.Action, payload, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_events (id, timestamp, swap_id, account_token, action, status, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), event.Timestamp, event.SwapID, event.AccountToken, event.Action, event.Status, event.Message)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) ListBySwap(ctx context.Context, swapID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, swap_id, account_token, action, status, message
		FROM audit_events
		WHERE swap_id = $1
		ORDER BY timestamp ASC
	`, swapID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.SwapID, &e.AccountToken, &e.Action, &e.Status, &e.Message); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
