package vault

import (
	"github.com/notemover/notemover/internal/models"
)

// Vault is the gateway to the note store. All methods may fail; callers in the
// matching and ledger code catch every failure and fail closed.
type Vault interface {
	// ReadContent returns the full text of a note.
	ReadContent(path string) (string, error)

	// Stat returns the note's timestamps.
	Stat(path string) (models.FileTimes, error)

	// ListTags returns the note's tags (frontmatter plus inline), with the
	// leading '#' preserved.
	ListTags(path string) ([]string, error)

	// Property returns a frontmatter property value and whether it is present.
	Property(path, name string) (interface{}, bool, error)

	// Headings returns the note's heading texts in document order.
	Headings(path string) ([]string, error)

	// Links returns the targets of wiki links in the note.
	Links(path string) ([]string, error)

	// Embeds returns the targets of embed links in the note.
	Embeds(path string) ([]string, error)

	// Exists checks whether a note exists.
	Exists(path string) (bool, error)

	// FolderExists checks whether a folder exists.
	FolderExists(path string) (bool, error)

	// EnsureFolder creates a folder (and parents) if missing.
	EnsureFolder(path string) error

	// Rename moves a note to a new vault-relative path.
	Rename(oldPath, newPath string) error

	// ListNotes returns the vault-relative paths of all Markdown notes.
	ListNotes() ([]string, error)
}
