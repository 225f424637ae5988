package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"fedbridge/pkg/platform/sentinel"
)

// Simulator is a deterministic in-memory wallet client used by development
// wiring. It tracks open locks and stages so double releases and commits of
// unknown handles fail the way a real client would.
type Simulator struct {
	mu     sync.Mutex
	locks  map[LockHandle]int64
	stages map[StageHandle]int64
}

func NewSimulator() *Simulator {
	return &Simulator{
		locks:  make(map[LockHandle]int64),
		stages: make(map[StageHandle]int64),
	}
}

func (s *Simulator) ReserveFunds(_ context.Context, _ string, amount int64) (LockHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := LockHandle(uuid.NewString())
	s.locks[handle] = amount
	return handle, nil
}

func (s *Simulator) ReleaseFunds(_ context.Context, lock LockHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[lock]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.locks, lock)
	return nil
}

func (s *Simulator) PrepareReceipt(_ context.Context, _ string, amount int64) (StageHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := StageHandle(uuid.NewString())
	s.stages[handle] = amount
	return handle, nil
}

func (s *Simulator) Commit(_ context.Context, lock LockHandle, stage StageHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[lock]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.stages[stage]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.locks, lock)
	delete(s.stages, stage)
	return nil
}

// OpenLocks returns the number of outstanding reservations, for tests and
// health reporting.
func (s *Simulator) OpenLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
