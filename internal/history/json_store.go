package history

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/notemover/notemover/internal/events"
)

// document is the on-disk wrapper; both arrays live under a "history" key so
// the serialized shape round-trips exactly.
type document struct {
	History *State `json:"history"`
}

// JSONStore implements file-based ledger persistence with atomic writes and a
// single backup generation.
type JSONStore struct {
	path   string
	logger *events.Logger
	mu     sync.Mutex
}

// NewJSONStore creates a JSON-backed history store.
func NewJSONStore(path string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	return &JSONStore{
		path:   path,
		logger: logger.WithField("component", "json_history_store"),
	}, nil
}

// Load reads the persisted state. A missing file is an empty ledger; a
// corrupt file falls back to the backup, then to empty.
func (s *JSONStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc.History == nil {
		s.logger.Warn("History file corrupt, trying backup")
		if state, berr := s.loadBackup(); berr == nil {
			return state, nil
		}
		s.logger.Warn("Backup unavailable, starting with empty history")
		return NewState(), nil
	}

	doc.History.Repair()
	return doc.History, nil
}

// Save persists the state atomically, keeping the previous file as backup.
func (s *JSONStore) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jsonData, err := json.MarshalIndent(document{History: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+".backup"); err != nil {
			s.logger.WithError(err).Warn("Failed to create history backup")
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename history file: %w", err)
	}

	return nil
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) loadBackup() (*State, error) {
	data, err := os.ReadFile(s.path + ".backup")
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc.History == nil {
		return nil, ErrHistoryCorrupt
	}

	doc.History.Repair()
	return doc.History, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
