package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/notemover/notemover/internal/events"
)

// Store errors
var (
	ErrSettingsCorrupt = errors.New("settings file is corrupt")
)

// document is the on-disk wrapper around Settings.
type document struct {
	Settings *Settings `json:"settings"`
}

// Store persists the settings document as JSON with atomic writes and a
// single backup generation.
type Store struct {
	path   string
	logger *events.Logger
	mu     sync.Mutex
}

// NewStore creates a settings store at the given file path.
func NewStore(path string, logger *events.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}

	return &Store{
		path:   path,
		logger: logger.WithField("component", "settings_store"),
	}, nil
}

// Load reads the settings document. A missing file yields defaults; a corrupt
// file is repaired from backup when possible, otherwise replaced by defaults.
// Load never surfaces corruption to rule or history logic.
func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc.Settings == nil {
		s.logger.Warn("Settings file corrupt, trying backup")
		if restored, berr := s.loadBackup(); berr == nil {
			return restored, nil
		}
		s.logger.Warn("Backup unavailable, starting from defaults")
		return DefaultSettings(), nil
	}

	doc.Settings.Repair()
	return doc.Settings, nil
}

// Save persists the settings document atomically, keeping the previous file
// as a backup.
func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.Repair()

	jsonData, err := json.MarshalIndent(document{Settings: settings}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+".backup"); err != nil {
			s.logger.WithError(err).Warn("Failed to create settings backup")
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename settings file: %w", err)
	}

	return nil
}

func (s *Store) loadBackup() (*Settings, error) {
	data, err := os.ReadFile(s.path + ".backup")
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc.Settings == nil {
		return nil, ErrSettingsCorrupt
	}

	doc.Settings.Repair()
	return doc.Settings, nil
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
