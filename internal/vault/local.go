package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

// LocalVault implements Vault over the local filesystem.
type LocalVault struct {
	baseDir string
	logger  *events.Logger
}

// NewLocalVault creates a vault rooted at baseDir.
func NewLocalVault(baseDir string, logger *events.Logger) (*LocalVault, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault directory: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat vault directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path is not a directory: %s", absPath)
	}

	return &LocalVault{
		baseDir: absPath,
		logger:  logger.WithField("component", "local_vault"),
	}, nil
}

// ReadContent returns the full text of a note.
func (v *LocalVault) ReadContent(path string) (string, error) {
	safePath, err := v.sanitizePath(path)
	if err != nil {
		return "", &models.VaultError{Op: "read", Path: path, Err: err}
	}

	data, err := os.ReadFile(safePath)
	if err != nil {
		return "", &models.VaultError{Op: "read", Path: path, Err: err}
	}

	return string(data), nil
}

// Stat returns the note's timestamps. Creation time is not portably available,
// so it falls back to the modification time.
func (v *LocalVault) Stat(path string) (models.FileTimes, error) {
	safePath, err := v.sanitizePath(path)
	if err != nil {
		return models.FileTimes{}, &models.VaultError{Op: "stat", Path: path, Err: err}
	}

	info, err := os.Stat(safePath)
	if err != nil {
		return models.FileTimes{}, &models.VaultError{Op: "stat", Path: path, Err: err}
	}

	return models.FileTimes{
		CreatedAt:  createdTime(info),
		ModifiedAt: info.ModTime(),
	}, nil
}

// ListTags returns the note's tags, frontmatter plus inline.
func (v *LocalVault) ListTags(path string) ([]string, error) {
	doc, err := v.parse(path)
	if err != nil {
		return nil, err
	}
	return doc.tags(), nil
}

// Property returns a frontmatter property value and whether it is present.
func (v *LocalVault) Property(path, name string) (interface{}, bool, error) {
	doc, err := v.parse(path)
	if err != nil {
		return nil, false, err
	}
	value, ok := doc.property(name)
	return value, ok, nil
}

// Headings returns the note's heading texts.
func (v *LocalVault) Headings(path string) ([]string, error) {
	doc, err := v.parse(path)
	if err != nil {
		return nil, err
	}
	return doc.headings(), nil
}

// Links returns wiki link targets.
func (v *LocalVault) Links(path string) ([]string, error) {
	doc, err := v.parse(path)
	if err != nil {
		return nil, err
	}
	return doc.links(), nil
}

// Embeds returns embed link targets.
func (v *LocalVault) Embeds(path string) ([]string, error) {
	doc, err := v.parse(path)
	if err != nil {
		return nil, err
	}
	return doc.embeds(), nil
}

// Exists checks whether a note exists.
func (v *LocalVault) Exists(path string) (bool, error) {
	safePath, err := v.sanitizePath(path)
	if err != nil {
		return false, &models.VaultError{Op: "exists", Path: path, Err: err}
	}

	info, err := os.Stat(safePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &models.VaultError{Op: "exists", Path: path, Err: err}
	}

	return !info.IsDir(), nil
}

// FolderExists checks whether a folder exists.
func (v *LocalVault) FolderExists(path string) (bool, error) {
	if path == "" || path == "." || path == "/" {
		return true, nil
	}

	safePath, err := v.sanitizePath(path)
	if err != nil {
		return false, &models.VaultError{Op: "folder_exists", Path: path, Err: err}
	}

	info, err := os.Stat(safePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &models.VaultError{Op: "folder_exists", Path: path, Err: err}
	}

	return info.IsDir(), nil
}

// EnsureFolder creates a folder and its parents if missing.
func (v *LocalVault) EnsureFolder(path string) error {
	if path == "" || path == "." || path == "/" {
		return nil
	}

	safePath, err := v.sanitizePath(path)
	if err != nil {
		return &models.VaultError{Op: "ensure_folder", Path: path, Err: err}
	}

	if err := os.MkdirAll(safePath, 0755); err != nil {
		return &models.VaultError{Op: "ensure_folder", Path: path, Err: err}
	}

	return nil
}

// Rename moves a note to a new vault-relative path.
func (v *LocalVault) Rename(oldPath, newPath string) error {
	oldSafe, err := v.sanitizePath(oldPath)
	if err != nil {
		return &models.VaultError{Op: "rename", Path: oldPath, Err: err}
	}

	newSafe, err := v.sanitizePath(newPath)
	if err != nil {
		return &models.VaultError{Op: "rename", Path: newPath, Err: err}
	}

	v.logger.WithFields(map[string]interface{}{
		"old": oldPath,
		"new": newPath,
	}).Debug("Renaming note")

	if err := os.MkdirAll(filepath.Dir(newSafe), 0755); err != nil {
		return &models.VaultError{Op: "rename", Path: newPath, Err: err}
	}

	if err := os.Rename(oldSafe, newSafe); err != nil {
		return &models.VaultError{Op: "rename", Path: oldPath, Err: err}
	}

	return nil
}

// ListNotes returns the vault-relative paths of all Markdown notes.
func (v *LocalVault) ListNotes() ([]string, error) {
	var notes []string

	err := filepath.WalkDir(v.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories hold vault internals, not notes.
			if strings.HasPrefix(d.Name(), ".") && path != v.baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			rel, err := filepath.Rel(v.baseDir, path)
			if err != nil {
				return err
			}
			notes = append(notes, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, &models.VaultError{Op: "list", Path: v.baseDir, Err: err}
	}

	return notes, nil
}

// parse reads and parses a note.
func (v *LocalVault) parse(path string) (*noteDoc, error) {
	content, err := v.ReadContent(path)
	if err != nil {
		return nil, err
	}
	return parseNote(content), nil
}

// sanitizePath resolves a vault-relative path, rejecting traversal.
func (v *LocalVault) sanitizePath(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null bytes")
	}

	cleaned := filepath.Clean(filepath.FromSlash(path))
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains '..'")
	}
	cleaned = strings.TrimPrefix(cleaned, string(filepath.Separator))

	fullPath := filepath.Join(v.baseDir, cleaned)
	if !strings.HasPrefix(fullPath, v.baseDir+string(filepath.Separator)) && fullPath != v.baseDir {
		return "", fmt.Errorf("path escapes vault directory")
	}

	return fullPath, nil
}
