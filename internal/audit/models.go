package audit

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBufferFull signals a dropped event on a bounded sink.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrWriteOnly signals a read against a write-only sink.
	ErrWriteOnly = errors.New("audit sink is write-only")
)

// Event is emitted from the orchestrator on each swap state transition. The
// swap's own log is the authoritative trail; these events feed operational
// and compliance sinks. Keep it transport-agnostic so stores and sinks can
// fan out.
//
// AccountToken is always the privacy-hashed handle, never a raw identifier.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	SwapID       string    `json:"swap_id"`
	AccountToken string    `json:"account_token"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
}

// Store is the append-only persistence port for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySwap(ctx context.Context, swapID string) ([]Event, error)
}
