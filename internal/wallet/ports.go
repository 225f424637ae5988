// Package wallet defines the ports to the external per-protocol wallet
// operations. The orchestrator only ever sees these interfaces; real
// Lightning/Fedimint/Cashu SDK clients plug in behind them.
package wallet

import (
	"context"
	"fmt"
	"sync"

	"fedbridge/internal/mintregistry"
	"fedbridge/pkg/platform/sentinel"
)

// LockHandle references funds reserved on a source protocol.
type LockHandle string

// StageHandle references a pre-staged receipt on a destination protocol.
type StageHandle string

// Client is the per-protocol wallet operation set. All methods may block on
// network I/O; the orchestrator bounds each call with a timeout.
type Client interface {
	// ReserveFunds locks amount on the account so a later commit can
	// debit it. The lock is reversible until Commit.
	ReserveFunds(ctx context.Context, accountToken string, amount int64) (LockHandle, error)

	// ReleaseFunds undoes a reservation. Used both for compensation after
	// a destination failure and for administrative denial.
	ReleaseFunds(ctx context.Context, lock LockHandle) error

	// PrepareReceipt pre-stages the destination-side credit.
	PrepareReceipt(ctx context.Context, accountToken string, amount int64) (StageHandle, error)

	// Commit debits the lock and finalizes the staged credit as one
	// logical unit.
	Commit(ctx context.Context, lock LockHandle, stage StageHandle) error
}

// Registry maps a protocol tag to its wallet client.
type Registry struct {
	mu      sync.RWMutex
	clients map[mintregistry.Protocol]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[mintregistry.Protocol]Client)}
}

// Register installs the client for a protocol, replacing any previous one.
func (r *Registry) Register(p mintregistry.Protocol, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[p] = c
}

// Client returns the wallet client for a protocol.
func (r *Registry) Client(p mintregistry.Protocol) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("wallet client for %s: %w", p, sentinel.ErrUnavailable)
	}
	return c, nil
}
