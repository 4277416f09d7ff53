// Package history keeps per-instance event history so late subscribers can
// query what already happened, plus aggregate counters for the stats
// endpoint. The in-memory store is the default; the SQLite store offers the
// same contract with on-disk persistence.
package history

import (
	"context"
	"sync"

	"github.com/hupe1980/kitchenmesh/workflow"
)

// Stats aggregates totals across all recorded instances.
type Stats struct {
	TotalInstances int `json:"totalInstances"`
	TotalEvents    int `json:"totalEvents"`
}

// Store records lifecycle events keyed by workflow instance id.
type Store interface {
	// Append records one event under its workflow id, preserving order.
	Append(ctx context.Context, evt *workflow.StatusEvent) error

	// History returns the ordered events of one instance. An unknown id
	// yields an empty slice, not an error.
	History(ctx context.Context, workflowID string) ([]workflow.StatusEvent, error)

	// Stats returns aggregate counters.
	Stats(ctx context.Context) (Stats, error)
}

// InMemoryStore is a mutex-guarded per-key append-only event list. Write
// volume is low (one workflow emits a handful of events), so coarse locking
// is fine.
type InMemoryStore struct {
	mu     sync.Mutex
	events map[string][]workflow.StatusEvent
	total  int
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]workflow.StatusEvent)}
}

// Append implements Store.
func (s *InMemoryStore) Append(_ context.Context, evt *workflow.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[evt.WorkflowID] = append(s.events[evt.WorkflowID], *evt)
	s.total++
	return nil
}

// History implements Store.
func (s *InMemoryStore) History(_ context.Context, workflowID string) ([]workflow.StatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]workflow.StatusEvent(nil), s.events[workflowID]...), nil
}

// Stats implements Store.
func (s *InMemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{TotalInstances: len(s.events), TotalEvents: s.total}, nil
}
