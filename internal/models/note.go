package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Note identifies a file in the vault by its vault-relative path.
type Note struct {
	Path string `json:"path"`
}

// NormalizedPath returns the cleaned, forward-slash path.
func (n *Note) NormalizedPath() string {
	return strings.ReplaceAll(filepath.Clean(n.Path), "\\", "/")
}

// Name returns the file name including extension.
func (n *Note) Name() string {
	return filepath.Base(n.NormalizedPath())
}

// Folder returns the containing folder, "" for vault-root files.
func (n *Note) Folder() string {
	dir := filepath.Dir(n.NormalizedPath())
	if dir == "." {
		return ""
	}
	return dir
}

// Extension returns the file extension without the leading dot.
func (n *Note) Extension() string {
	return strings.TrimPrefix(filepath.Ext(n.Path), ".")
}

// BaseName returns the file name without its extension.
func (n *Note) BaseName() string {
	name := n.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// FileTimes holds the stat timestamps for a note.
type FileTimes struct {
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NoteEvent describes an externally observed vault change.
type NoteEvent struct {
	Type      NoteEventType `json:"type"`
	Path      string        `json:"path"`
	OldPath   string        `json:"old_path,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NoteEventType defines types of vault events.
type NoteEventType string

const (
	NoteEventCreate NoteEventType = "create"
	NoteEventModify NoteEventType = "modify"
	NoteEventRename NoteEventType = "rename"
	NoteEventDelete NoteEventType = "delete"
)
