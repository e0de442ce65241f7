package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeRule      = "RULE_ERROR"
	ErrCodeHistory   = "HISTORY_ERROR"
	ErrCodeVault     = "VAULT_ERROR"
	ErrCodeSettings  = "SETTINGS_ERROR"
	ErrCodeConfig    = "CONFIG_ERROR"
	ErrCodeRetention = "RETENTION_ERROR"
)

// Sentinel errors
var (
	ErrEntryNotFound    = errors.New("history entry not found")
	ErrBulkOpNotFound   = errors.New("bulk operation not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrFolderNotFound   = errors.New("folder not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidRetention = errors.New("invalid retention policy")
	ErrNoMatch          = errors.New("no rule matched")
)

// RuleError reports a structurally invalid rule or trigger.
type RuleError struct {
	Rule   string
	Reason string
}

func (e *RuleError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
	}
	return e.Reason
}

// UndoError provides detailed undo failure information.
type UndoError struct {
	EntryID string
	Path    string
	Err     error
}

func (e *UndoError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("undo entry %s: %s: %v", e.EntryID, e.Path, e.Err)
	}
	return fmt.Sprintf("undo entry %s: %v", e.EntryID, e.Err)
}

func (e *UndoError) Unwrap() error {
	return e.Err
}

// VaultError wraps a gateway I/O failure with enough context to diagnose.
type VaultError struct {
	Op   string
	Path string
	Err  error
}

func (e *VaultError) Error() string {
	return fmt.Sprintf("vault %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}
