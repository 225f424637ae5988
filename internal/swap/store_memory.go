package swap

import (
	"context"
	"sort"
	"sync"

	"fedbridge/pkg/platform/sentinel"
)

// InMemoryStore keeps swap records and logs in process memory. It favors
// clarity over performance and hands out copies so callers can never mutate
// stored state behind the orchestrator's back.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	logs    map[string][]LogEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*Record),
		logs:    make(map[string][]LogEntry),
	}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record, first LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.SwapID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.SwapID] = record.Clone()
	s.logs[record.SwapID] = []LogEntry{first}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, swapID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[swapID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, record *Record, entry LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.SwapID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.SwapID] = record.Clone()
	s.logs[record.SwapID] = append(s.logs[record.SwapID], entry)
	return nil
}

func (s *InMemoryStore) ListLog(_ context.Context, swapID string) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.logs[swapID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *InMemoryStore) ListByAccount(_ context.Context, accountToken string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, record := range s.records {
		if record.SourceAccount == accountToken || record.DestinationAccount == accountToken {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
