package history

import (
	"errors"

	"github.com/notemover/notemover/internal/models"
)

// State is the ledger's persisted form: both collections, newest first.
type State struct {
	History        []*models.HistoryEntry  `json:"history"`
	BulkOperations []*models.BulkOperation `json:"bulkOperations"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		History:        []*models.HistoryEntry{},
		BulkOperations: []*models.BulkOperation{},
	}
}

// Repair fills nil collections so ledger logic never sees them.
func (s *State) Repair() {
	if s.History == nil {
		s.History = []*models.HistoryEntry{}
	}
	if s.BulkOperations == nil {
		s.BulkOperations = []*models.BulkOperation{}
	}
}

// Store persists ledger state.
type Store interface {
	// Load retrieves the persisted state. A store with no prior state
	// returns an empty state, not an error.
	Load() (*State, error)

	// Save persists the state.
	Save(state *State) error

	// Close releases resources.
	Close() error
}

// Errors
var (
	ErrHistoryCorrupt = errors.New("history file is corrupt")
)
