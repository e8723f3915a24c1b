// Package memory holds an in-process audit store for tests and dev setups.
package memory

import (
	"context"
	"sort"
	"sync"

	audit "dokflyt/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.JournalpostID] = append(s.events[event.JournalpostID], event)
	return nil
}

func (s *InMemoryStore) ListByJournalpost(_ context.Context, journalpostID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[journalpostID]...), nil
}

// ListRecent returns the most recent events across all journalposts.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })

	start := len(all) - limit
	if start < 0 {
		start = 0
	}
	return all[start:], nil
}
