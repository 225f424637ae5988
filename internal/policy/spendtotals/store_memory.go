package spendtotals

import (
	"context"
	"sync"

	"fedbridge/internal/platform/locks"
)

// InMemoryStore keeps running totals in process memory. The lock is scoped
// to the account so unrelated accounts never contend, while two concurrent
// reservations for the same account serialize.
type InMemoryStore struct {
	accounts *locks.KeyedMutex

	mu     sync.RWMutex
	totals map[string]int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: locks.NewKeyedMutex(),
		totals:   make(map[string]int64),
	}
}

func (s *InMemoryStore) ReserveSpend(_ context.Context, accountToken, period string, amount, ceiling int64) (bool, int64, error) {
	unlock := s.accounts.Lock(accountToken)
	defer unlock()

	key := accountToken + "|" + period

	s.mu.RLock()
	total := s.totals[key]
	s.mu.RUnlock()

	if total+amount > ceiling {
		return false, total, nil
	}

	s.mu.Lock()
	s.totals[key] = total + amount
	s.mu.Unlock()
	return true, total, nil
}

func (s *InMemoryStore) ReleaseSpend(_ context.Context, accountToken, period string, amount int64) error {
	unlock := s.accounts.Lock(accountToken)
	defer unlock()

	key := accountToken + "|" + period

	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.totals[key] - amount
	if total < 0 {
		total = 0
	}
	s.totals[key] = total
	return nil
}
