package swap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fedbridge/pkg/platform/sentinel"
)

// PostgresStore persists swaps in the swap_records and swap_log_entries
// tables. Record writes and log appends share a transaction so the log can
// never drift from the record's state.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema returns the DDL for the swap tables. Applied by migrations tooling
// or directly in tests.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS swap_records (
	swap_id              TEXT PRIMARY KEY,
	source_protocol      TEXT NOT NULL,
	destination_protocol TEXT NOT NULL,
	source_account       TEXT NOT NULL,
	destination_account  TEXT NOT NULL,
	amount               BIGINT NOT NULL CHECK (amount > 0),
	fee_network          BIGINT NOT NULL,
	fee_bridge           BIGINT NOT NULL,
	fee_total            BIGINT NOT NULL,
	kind                 TEXT NOT NULL,
	status               TEXT NOT NULL,
	purpose              TEXT NOT NULL DEFAULT '',
	requires_approval    BOOLEAN NOT NULL DEFAULT FALSE,
	approved_by          TEXT NOT NULL DEFAULT '',
	needs_reconciliation BOOLEAN NOT NULL DEFAULT FALSE,
	spend_reserved       BOOLEAN NOT NULL DEFAULT FALSE,
	lock_handle          TEXT NOT NULL DEFAULT '',
	steps                INT NOT NULL DEFAULT 1,
	created_at           TIMESTAMPTZ NOT NULL,
	completed_at         TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_swap_records_source_account ON swap_records (source_account);
CREATE INDEX IF NOT EXISTS idx_swap_records_destination_account ON swap_records (destination_account);

CREATE TABLE IF NOT EXISTS swap_log_entries (
	swap_id   TEXT NOT NULL REFERENCES swap_records (swap_id),
	step      INT NOT NULL,
	step_name TEXT NOT NULL,
	status    TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (swap_id, step)
);
`
}

func (s *PostgresStore) Create(ctx context.Context, record *Record, first LogEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create swap: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO swap_records (
			swap_id, source_protocol, destination_protocol,
			source_account, destination_account, amount,
			fee_network, fee_bridge, fee_total, kind, status, purpose,
			requires_approval, approved_by, needs_reconciliation,
			spend_reserved, lock_handle, steps, created_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		record.SwapID, record.SourceProtocol, record.DestinationProtocol,
		record.SourceAccount, record.DestinationAccount, record.Amount,
		record.Fees.Network, record.Fees.Bridge, record.Fees.Total,
		record.Kind, record.Status, record.Purpose,
		record.RequiresApproval, record.ApprovedBy, record.NeedsReconciliation,
		record.SpendReserved, record.LockHandle, record.Steps, record.CreatedAt, record.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert swap record: %w", err)
	}

	if err := insertLogEntry(ctx, tx, first); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, swapID string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT swap_id, source_protocol, destination_protocol,
		       source_account, destination_account, amount,
		       fee_network, fee_bridge, fee_total, kind, status, purpose,
		       requires_approval, approved_by, needs_reconciliation,
		       spend_reserved, lock_handle, steps, created_at, completed_at
		FROM swap_records
		WHERE swap_id = $1
	`, swapID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get swap record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Update(ctx context.Context, record *Record, entry LogEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update swap: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE swap_records
		SET status = $2, requires_approval = $3, approved_by = $4,
		    needs_reconciliation = $5, spend_reserved = $6, lock_handle = $7,
		    steps = $8, completed_at = $9
		WHERE swap_id = $1
	`,
		record.SwapID, record.Status, record.RequiresApproval, record.ApprovedBy,
		record.NeedsReconciliation, record.SpendReserved, record.LockHandle,
		record.Steps, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update swap record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}

	if err := insertLogEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListLog(ctx context.Context, swapID string) ([]LogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT swap_id, step, step_name, status, message, timestamp
		FROM swap_log_entries
		WHERE swap_id = $1
		ORDER BY step ASC
	`, swapID)
	if err != nil {
		return nil, fmt.Errorf("query swap log: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.SwapID, &e.Step, &e.StepName, &e.Status, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountToken string) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT swap_id, source_protocol, destination_protocol,
		       source_account, destination_account, amount,
		       fee_network, fee_bridge, fee_total, kind, status, purpose,
		       requires_approval, approved_by, needs_reconciliation,
		       spend_reserved, lock_handle, steps, created_at, completed_at
		FROM swap_records
		WHERE source_account = $1 OR destination_account = $1
		ORDER BY created_at DESC
	`, accountToken)
	if err != nil {
		return nil, fmt.Errorf("query swaps by account: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func insertLogEntry(ctx context.Context, tx pgx.Tx, entry LogEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO swap_log_entries (swap_id, step, step_name, status, message, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.SwapID, entry.Step, entry.StepName, entry.Status, entry.Message, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(
		&r.SwapID, &r.SourceProtocol, &r.DestinationProtocol,
		&r.SourceAccount, &r.DestinationAccount, &r.Amount,
		&r.Fees.Network, &r.Fees.Bridge, &r.Fees.Total,
		&r.Kind, &r.Status, &r.Purpose,
		&r.RequiresApproval, &r.ApprovedBy, &r.NeedsReconciliation,
		&r.SpendReserved, &r.LockHandle, &r.Steps, &r.CreatedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
