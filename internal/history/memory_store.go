package history

import (
	"sync"
)

// MemoryStore keeps ledger state in memory, for tests.
type MemoryStore struct {
	mu    sync.Mutex
	state *State

	// SaveErr forces Save to fail.
	SaveErr error

	// Saves counts Save calls.
	Saves int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: NewState()}
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyState(), nil
}

// Save replaces the stored state.
func (m *MemoryStore) Save(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = state
	return nil
}

// Close releases resources.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) copyState() *State {
	out := NewState()
	out.History = append(out.History, m.state.History...)
	out.BulkOperations = append(out.BulkOperations, m.state.BulkOperations...)
	return out
}
