package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensehq/vega/pkg/rules"
)

// Memory is a mutex-guarded in-memory store. Stored rule sets are
// shared by reference; they are immutable by contract, so no copies are
// made.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]*rules.RuleSet
	entries []Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*rules.RuleSet)}
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, rs *rules.RuleSet) (string, error) {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id] = rs
	m.entries = append(m.entries, Entry{
		ID:               id,
		CreatedAt:        time.Now().UTC(),
		Version:          rs.Version,
		Source:           rs.Source,
		RuleCount:        len(rs.Rules),
		EnforceableCount: rs.EnforceableCount(),
	})
	return id, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, id string) (*rules.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rs, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	return nil
}
