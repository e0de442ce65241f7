package service

import (
	"context"
	"fmt"
	"path"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/history"
	"github.com/notemover/notemover/internal/models"
	"github.com/notemover/notemover/internal/rules"
	"github.com/notemover/notemover/internal/vault"
)

// MoveResult reports one organize decision.
type MoveResult struct {
	Note        string `json:"note"`
	Destination string `json:"destination,omitempty"`
	NewPath     string `json:"new_path,omitempty"`
	Moved       bool   `json:"moved"`
	Skipped     bool   `json:"skipped"`
	Error       string `json:"error,omitempty"`
}

// SweepResult summarizes a full-vault pass.
type SweepResult struct {
	OperationID string       `json:"operation_id,omitempty"`
	Scanned     int          `json:"scanned"`
	Moved       int          `json:"moved"`
	Failed      int          `json:"failed"`
	Results     []MoveResult `json:"results"`
}

// Organizer applies matching rules to notes and records moves in the ledger.
type Organizer struct {
	vault   vault.Vault
	matcher rules.Matcher
	ledger  *history.Ledger
	logger  *events.Logger
	dryRun  bool
}

// NewOrganizer creates an organizer service.
func NewOrganizer(v vault.Vault, matcher rules.Matcher, ledger *history.Ledger, logger *events.Logger) *Organizer {
	return &Organizer{
		vault:   v,
		matcher: matcher,
		ledger:  ledger,
		logger:  logger.WithField("service", "organizer"),
	}
}

// SetDryRun makes the organizer report decisions without moving anything.
func (o *Organizer) SetDryRun(dryRun bool) {
	o.dryRun = dryRun
}

// OrganizeFile matches a single note and moves it to its destination. A note
// already in place, or with no matching rule, is reported as skipped.
func (o *Organizer) OrganizeFile(ctx context.Context, notePath string) MoveResult {
	ctx = events.WithNotePath(ctx, notePath)
	logger := events.FromContext(ctx)

	note := &models.Note{Path: notePath}
	result := MoveResult{Note: notePath}

	destination, ok := o.matcher.Destination(note)
	if !ok {
		logger.Debug("No rule matched")
		result.Skipped = true
		return result
	}
	result.Destination = destination

	newPath := path.Join(destination, note.Name())
	if newPath == note.NormalizedPath() {
		logger.Debug("Note already at destination")
		result.Skipped = true
		return result
	}
	result.NewPath = newPath

	if o.dryRun {
		logger.WithField("dest", destination).Info("Dry run: would move note")
		result.Moved = true
		return result
	}

	if err := o.moveNote(note, destination, newPath); err != nil {
		logger.WithError(err).Warn("Move failed")
		result.Error = err.Error()
		return result
	}

	logger.WithField("dest", destination).Info("Moved note")
	result.Moved = true
	return result
}

// OrganizeAll sweeps the whole vault as one bulk operation. Per-file failures
// are collected, never aborting the pass; begin/add/end run as one
// non-interleaved unit.
func (o *Organizer) OrganizeAll(ctx context.Context, opType models.OperationType) (*SweepResult, error) {
	notes, err := o.vault.ListNotes()
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	result := &SweepResult{Scanned: len(notes)}

	if !o.dryRun {
		result.OperationID = o.ledger.StartBulkOperation(opType)
		defer o.ledger.EndBulkOperation()
		ctx = events.WithOperation(ctx, result.OperationID)
	}

	for _, notePath := range notes {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		r := o.OrganizeFile(ctx, notePath)
		if r.Skipped {
			continue
		}
		result.Results = append(result.Results, r)
		if r.Error != "" {
			result.Failed++
		} else if r.Moved {
			result.Moved++
		}
	}

	o.logger.WithFields(map[string]interface{}{
		"scanned": result.Scanned,
		"moved":   result.Moved,
		"failed":  result.Failed,
	}).Info("Vault sweep complete")

	return result, nil
}

// HandleRename feeds an externally observed rename into the ledger, which
// filters self-caused moves and duplicates itself.
func (o *Organizer) HandleRename(ctx context.Context, oldPath, newPath string) {
	note := &models.Note{Path: newPath}
	o.ledger.AddEntryFromVaultEvent(oldPath, newPath, note.Name())
}

// moveNote ensures the destination folder, renames under the self-move guard
// and records the move.
func (o *Organizer) moveNote(note *models.Note, destination, newPath string) error {
	if err := o.vault.EnsureFolder(destination); err != nil {
		return fmt.Errorf("ensure destination folder: %w", err)
	}

	err := o.ledger.WithSelfMove(func() error {
		return o.vault.Rename(note.Path, newPath)
	})
	if err != nil {
		return fmt.Errorf("rename note: %w", err)
	}

	o.ledger.AddEntry(note.NormalizedPath(), newPath, note.Name())
	return nil
}
