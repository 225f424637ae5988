package swap

import "context"

// Store persists swap records and their append-only logs. Create and Update
// write the record and its log entry atomically so the log is always exactly
// the ordered history of transitions.
//
// Stores return sentinel errors (pkg/platform/sentinel); the orchestrator
// translates them into domain errors.
type Store interface {
	// Create persists a new record together with its first log entry.
	// Fails with sentinel.ErrConflict if the swap id already exists.
	Create(ctx context.Context, record *Record, first LogEntry) error

	// Get returns the record, or sentinel.ErrNotFound.
	Get(ctx context.Context, swapID string) (*Record, error)

	// Update persists a state transition and appends its log entry in the
	// same atomic step.
	Update(ctx context.Context, record *Record, entry LogEntry) error

	// ListLog returns the swap's log ordered by step number.
	ListLog(ctx context.Context, swapID string) ([]LogEntry, error)

	// ListByAccount returns swaps whose source or destination account
	// matches the token, newest first.
	ListByAccount(ctx context.Context, accountToken string) ([]*Record, error)
}
