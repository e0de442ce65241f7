package vault

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/notemover/notemover/internal/models"
)

// MockVault provides an in-memory Vault for testing.
type MockVault struct {
	mu      sync.RWMutex
	notes   map[string]string
	times   map[string]models.FileTimes
	folders map[string]bool

	// Errs forces a failure for a given path.
	Errs map[string]error

	// Renames records Rename calls as "old -> new".
	Renames []string
}

// NewMockVault creates an empty mock vault.
func NewMockVault() *MockVault {
	return &MockVault{
		notes:   make(map[string]string),
		times:   make(map[string]models.FileTimes),
		folders: make(map[string]bool),
		Errs:    make(map[string]error),
	}
}

// AddNote stores a note with content.
func (m *MockVault) AddNote(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[path] = content
	m.addFolders(path)
}

// SetTimes stores stat timestamps for a note.
func (m *MockVault) SetTimes(path string, times models.FileTimes) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times[path] = times
}

// AddFolder marks a folder as existing.
func (m *MockVault) AddFolder(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[strings.Trim(path, "/")] = true
}

// RemoveNote deletes a note.
func (m *MockVault) RemoveNote(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, path)
	delete(m.times, path)
}

func (m *MockVault) addFolders(path string) {
	dir := filepath.ToSlash(filepath.Dir(path))
	for dir != "." && dir != "/" && dir != "" {
		m.folders[dir] = true
		dir = filepath.ToSlash(filepath.Dir(dir))
	}
}

func (m *MockVault) forced(path string) error {
	if err, ok := m.Errs[path]; ok {
		return err
	}
	return nil
}

// ReadContent returns note content.
func (m *MockVault) ReadContent(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.forced(path); err != nil {
		return "", err
	}
	content, ok := m.notes[path]
	if !ok {
		return "", fmt.Errorf("note not found: %s", path)
	}
	return content, nil
}

// Stat returns stored timestamps.
func (m *MockVault) Stat(path string) (models.FileTimes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.forced(path); err != nil {
		return models.FileTimes{}, err
	}
	times, ok := m.times[path]
	if !ok {
		if _, exists := m.notes[path]; !exists {
			return models.FileTimes{}, fmt.Errorf("note not found: %s", path)
		}
	}
	return times, nil
}

// ListTags parses the stored content.
func (m *MockVault) ListTags(path string) ([]string, error) {
	content, err := m.ReadContent(path)
	if err != nil {
		return nil, err
	}
	return parseNote(content).tags(), nil
}

// Property parses the stored content.
func (m *MockVault) Property(path, name string) (interface{}, bool, error) {
	content, err := m.ReadContent(path)
	if err != nil {
		return nil, false, err
	}
	value, ok := parseNote(content).property(name)
	return value, ok, nil
}

// Headings parses the stored content.
func (m *MockVault) Headings(path string) ([]string, error) {
	content, err := m.ReadContent(path)
	if err != nil {
		return nil, err
	}
	return parseNote(content).headings(), nil
}

// Links parses the stored content.
func (m *MockVault) Links(path string) ([]string, error) {
	content, err := m.ReadContent(path)
	if err != nil {
		return nil, err
	}
	return parseNote(content).links(), nil
}

// Embeds parses the stored content.
func (m *MockVault) Embeds(path string) ([]string, error) {
	content, err := m.ReadContent(path)
	if err != nil {
		return nil, err
	}
	return parseNote(content).embeds(), nil
}

// Exists checks for a note.
func (m *MockVault) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.forced(path); err != nil {
		return false, err
	}
	_, ok := m.notes[path]
	return ok, nil
}

// FolderExists checks for a folder.
func (m *MockVault) FolderExists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if path == "" || path == "." || path == "/" {
		return true, nil
	}
	if err := m.forced(path); err != nil {
		return false, err
	}
	return m.folders[strings.Trim(path, "/")], nil
}

// EnsureFolder marks a folder and its parents as existing.
func (m *MockVault) EnsureFolder(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.forced(path); err != nil {
		return err
	}
	dir := strings.Trim(path, "/")
	for dir != "" && dir != "." {
		m.folders[dir] = true
		dir = filepath.ToSlash(filepath.Dir(dir))
		if dir == "." || dir == "/" {
			break
		}
	}
	return nil
}

// Rename moves a note in memory.
func (m *MockVault) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.forced(oldPath); err != nil {
		return err
	}
	content, ok := m.notes[oldPath]
	if !ok {
		return fmt.Errorf("note not found: %s", oldPath)
	}

	m.notes[newPath] = content
	delete(m.notes, oldPath)
	if times, ok := m.times[oldPath]; ok {
		m.times[newPath] = times
		delete(m.times, oldPath)
	}
	m.addFolders(newPath)
	m.Renames = append(m.Renames, oldPath+" -> "+newPath)
	return nil
}

// ListNotes returns all note paths, sorted.
func (m *MockVault) ListNotes() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.notes))
	for p := range m.notes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
