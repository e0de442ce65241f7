package history

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

// Notifier surfaces user-visible notices for failed or partial operations.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls the function.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Config controls ledger behavior.
type Config struct {
	// MaxEntries caps the flat history list; oldest entries are evicted.
	MaxEntries int

	// DuplicateWindow suppresses vault-event entries that repeat a recent
	// fileName+destination pair.
	DuplicateWindow time.Duration

	// Retention is the default policy for Sweep.
	Retention models.RetentionPolicy
}

// currentBulk tracks the in-progress batch.
type currentBulk struct {
	id     string
	opType models.OperationType
}

// Ledger is the append-only record of move operations. It owns both the flat
// entry list and the bulk-operation collection (newest first each) and is
// their sole in-memory mutator. Every mutating operation persists before it
// returns. Failures never escape as panics or errors: they resolve to boolean
// outcomes plus a notifier message.
type Ledger struct {
	vault  RenameGateway
	store  Store
	logger *events.Logger
	notify Notifier

	cfg   Config
	clock func() time.Time
	newID func() string

	mu       sync.Mutex
	entries  []*models.HistoryEntry
	bulkOps  []*models.BulkOperation
	current  *currentBulk
	selfMove int
}

// RenameGateway is the slice of the vault the ledger needs for undo.
type RenameGateway interface {
	Exists(path string) (bool, error)
	FolderExists(path string) (bool, error)
	EnsureFolder(path string) error
	Rename(oldPath, newPath string) error
}

// NewLedger creates a ledger and loads persisted state.
func NewLedger(gateway RenameGateway, store Store, cfg Config, logger *events.Logger) (*Ledger, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 500
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = 2 * time.Second
	}

	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	state.Repair()

	logger = logger.WithField("component", "history_ledger")

	return &Ledger{
		vault:   gateway,
		store:   store,
		logger:  logger,
		notify:  NotifierFunc(func(msg string) { logger.Warn(msg) }),
		cfg:     cfg,
		clock:   time.Now,
		newID:   uuid.NewString,
		entries: state.History,
		bulkOps: state.BulkOperations,
	}, nil
}

// SetNotifier replaces the user-notice sink.
func (l *Ledger) SetNotifier(n Notifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n != nil {
		l.notify = n
	}
}

// SetClock overrides the clock, for tests.
func (l *Ledger) SetClock(clock func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
}

// AddEntry records a move the organizer performed. The entry joins the open
// bulk operation, if any.
func (l *Ledger) AddEntry(sourcePath, destinationPath, fileName string) *models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := &models.HistoryEntry{
		ID:              l.newID(),
		SourcePath:      sourcePath,
		DestinationPath: destinationPath,
		FileName:        fileName,
		Timestamp:       l.clock(),
		OperationType:   models.OperationSingle,
	}

	if l.current != nil {
		entry.BulkOperationID = l.current.id
		entry.OperationType = l.current.opType
		if op := l.findBulkOp(l.current.id); op != nil {
			op.Entries = append(op.Entries, entry)
			op.TotalFiles = len(op.Entries)
		}
	}

	l.entries = append([]*models.HistoryEntry{entry}, l.entries...)
	l.truncateLocked()
	l.persistLocked()

	l.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"source":   sourcePath,
		"dest":     destinationPath,
	}).Debug("Recorded move")

	return entry
}

// AddEntryFromVaultEvent records an externally observed rename, filtering out
// self-caused moves, same-folder renames, and near-duplicate notifications.
func (l *Ledger) AddEntryFromVaultEvent(sourcePath, destinationPath, fileName string) *models.HistoryEntry {
	l.mu.Lock()

	if l.selfMove > 0 {
		l.mu.Unlock()
		l.logger.WithField("file", fileName).Debug("Ignoring self-caused move")
		return nil
	}

	if filepath.Dir(sourcePath) == filepath.Dir(destinationPath) {
		l.mu.Unlock()
		l.logger.WithField("file", fileName).Debug("Ignoring same-folder rename")
		return nil
	}

	now := l.clock()
	for _, existing := range l.entries {
		if now.Sub(existing.Timestamp) > l.cfg.DuplicateWindow {
			break // entries are newest first
		}
		if existing.FileName == fileName && existing.DestinationPath == destinationPath {
			l.mu.Unlock()
			l.logger.WithField("file", fileName).Debug("Ignoring duplicate vault event")
			return nil
		}
	}

	l.mu.Unlock()
	return l.AddEntry(sourcePath, destinationPath, fileName)
}

// MarkSelfMoveStart flags subsequent vault events as self-caused. Callers
// must pair it with MarkSelfMoveEnd on every path.
func (l *Ledger) MarkSelfMoveStart() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selfMove++
}

// MarkSelfMoveEnd clears the self-caused flag.
func (l *Ledger) MarkSelfMoveEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.selfMove > 0 {
		l.selfMove--
	}
}

// WithSelfMove runs fn with the self-caused flag held, releasing it on every
// path including panics.
func (l *Ledger) WithSelfMove(fn func() error) error {
	l.MarkSelfMoveStart()
	defer l.MarkSelfMoveEnd()
	return fn()
}

// UndoEntry reverses one recorded move. It reports success as a boolean and
// never fails with an error; failures surface through the notifier.
func (l *Ledger) UndoEntry(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.findEntry(id)
	if entry == nil {
		l.notify.Notify(fmt.Sprintf("History entry not found: %s", id))
		return false
	}

	if !l.undoEntryLocked(entry) {
		return false
	}

	l.persistLocked()
	return true
}

// UndoLastMove reverses the most recent move of the named file.
func (l *Ledger) UndoLastMove(fileName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Entries are newest first; the first hit is the last move.
	var entry *models.HistoryEntry
	for _, e := range l.entries {
		if e.FileName == fileName {
			entry = e
			break
		}
	}
	if entry == nil {
		l.notify.Notify(fmt.Sprintf("No move history for %s", fileName))
		return false
	}

	if !l.undoEntryLocked(entry) {
		return false
	}

	l.persistLocked()
	return true
}

// UndoBulkOperation reverses a whole batch, most recently moved entries
// first to reduce destination-folder conflicts. Entries fail independently:
// successes are removed, failures stay in the operation. Returns true only
// when every entry succeeded.
func (l *Ledger) UndoBulkOperation(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	op := l.findBulkOp(id)
	if op == nil {
		l.notify.Notify(fmt.Sprintf("Bulk operation not found: %s", id))
		return false
	}

	pending := make([]*models.HistoryEntry, len(op.Entries))
	copy(pending, op.Entries)
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Timestamp.After(pending[j].Timestamp)
	})

	failed := 0
	for _, entry := range pending {
		if !l.undoEntryLocked(entry) {
			failed++
		}
	}

	if op.TotalFiles == 0 {
		l.removeBulkOpLocked(op.ID)
	}

	l.persistLocked()

	if failed > 0 {
		l.notify.Notify(fmt.Sprintf("Undo incomplete: %d of %d files could not be restored", failed, len(pending)))
		return false
	}
	return true
}

// StartBulkOperation opens a batch window; entries added until
// EndBulkOperation join it.
func (l *Ledger) StartBulkOperation(opType models.OperationType) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	op := &models.BulkOperation{
		ID:            l.newID(),
		OperationType: opType,
		Timestamp:     l.clock(),
		Entries:       []*models.HistoryEntry{},
	}
	l.bulkOps = append([]*models.BulkOperation{op}, l.bulkOps...)
	l.current = &currentBulk{id: op.ID, opType: opType}

	l.logger.WithFields(map[string]interface{}{
		"operation_id": op.ID,
		"type":         string(opType),
	}).Debug("Started bulk operation")

	return op.ID
}

// EndBulkOperation closes the batch window, dropping the operation if it
// collected no entries.
func (l *Ledger) EndBulkOperation() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	if op := l.findBulkOp(l.current.id); op != nil && len(op.Entries) == 0 {
		l.removeBulkOpLocked(op.ID)
	}
	l.current = nil
	l.persistLocked()
}

// Sweep removes entries older than the policy window and prunes affected
// bulk operations. It returns the number of entries removed.
func (l *Ledger) Sweep(policy models.RetentionPolicy) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if policy.Validate() != nil {
		policy = l.cfg.Retention
		if policy.Validate() != nil {
			return 0
		}
	}

	cutoff := policy.Cutoff(l.clock())

	kept := l.entries[:0]
	removed := 0
	for _, entry := range l.entries {
		if entry.Timestamp.Before(cutoff) {
			removed++
			if entry.BulkOperationID != "" {
				if op := l.findBulkOp(entry.BulkOperationID); op != nil {
					op.RemoveEntry(entry.ID)
				}
			}
			continue
		}
		kept = append(kept, entry)
	}
	l.entries = kept

	l.pruneEmptyBulkOpsLocked()

	if removed > 0 {
		l.persistLocked()
		l.logger.WithField("removed", removed).Info("Retention sweep complete")
	}
	return removed
}

// GetHistory returns a copy of the flat list, newest first.
func (l *Ledger) GetHistory() []*models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// GetBulkOperations returns a copy of the bulk operations, newest first.
func (l *Ledger) GetBulkOperations() []*models.BulkOperation {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*models.BulkOperation, len(l.bulkOps))
	copy(out, l.bulkOps)
	return out
}

// ClearHistory removes everything and persists the empty state.
func (l *Ledger) ClearHistory() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = []*models.HistoryEntry{}
	l.bulkOps = []*models.BulkOperation{}
	l.current = nil
	l.persistLocked()
}

// Close releases the store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// undoEntryLocked performs the reverse rename for one entry and, on success,
// removes it from both collections. The caller persists. Failures are
// notified and leave the entry untouched.
func (l *Ledger) undoEntryLocked(entry *models.HistoryEntry) bool {
	exists, err := l.vault.Exists(entry.DestinationPath)
	if err != nil || !exists {
		l.logger.WithError(err).WithField("path", entry.DestinationPath).Warn("File missing at destination, cannot undo")
		l.notify.Notify(fmt.Sprintf("Cannot undo %s: file not found at %s", entry.FileName, entry.DestinationPath))
		return false
	}

	sourceFolder := filepath.Dir(entry.SourcePath)
	if sourceFolder != "." && sourceFolder != "/" {
		folderExists, err := l.vault.FolderExists(sourceFolder)
		if err == nil && !folderExists {
			if err := l.vault.EnsureFolder(sourceFolder); err != nil {
				l.logger.WithError(err).WithField("folder", sourceFolder).Warn("Cannot recreate source folder")
				l.notify.Notify(fmt.Sprintf("Cannot undo %s: failed to recreate folder %s", entry.FileName, sourceFolder))
				return false
			}
		}
	}

	// The reverse rename runs with the self-caused flag held so the vault
	// event it generates is not re-logged; the flag clears on every path.
	err = func() error {
		l.selfMove++
		defer func() { l.selfMove-- }()
		return l.vault.Rename(entry.DestinationPath, entry.SourcePath)
	}()

	if err != nil {
		l.logger.WithError(err).WithFields(map[string]interface{}{
			"from": entry.DestinationPath,
			"to":   entry.SourcePath,
		}).Warn("Reverse rename failed")
		l.notify.Notify(fmt.Sprintf("Cannot undo %s: %v", entry.FileName, err))
		return false
	}

	l.removeEntryLocked(entry.ID)

	l.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"restored": entry.SourcePath,
	}).Info("Move undone")
	return true
}

// removeEntryLocked removes an entry from the flat list and its bulk
// operation, deleting the operation if it becomes empty.
func (l *Ledger) removeEntryLocked(id string) {
	for i, e := range l.entries {
		if e.ID == id {
			if e.BulkOperationID != "" {
				if op := l.findBulkOp(e.BulkOperationID); op != nil {
					op.RemoveEntry(id)
					if op.TotalFiles == 0 {
						l.removeBulkOpLocked(op.ID)
					}
				}
			}
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// truncateLocked evicts the oldest entries beyond the retained cap.
func (l *Ledger) truncateLocked() {
	for len(l.entries) > l.cfg.MaxEntries {
		oldest := l.entries[len(l.entries)-1]
		l.entries = l.entries[:len(l.entries)-1]
		if oldest.BulkOperationID != "" {
			if op := l.findBulkOp(oldest.BulkOperationID); op != nil {
				op.RemoveEntry(oldest.ID)
				if op.TotalFiles == 0 && !l.isCurrentLocked(op.ID) {
					l.removeBulkOpLocked(op.ID)
				}
			}
		}
	}
}

// pruneEmptyBulkOpsLocked removes operations left with no entries, keeping
// the open one.
func (l *Ledger) pruneEmptyBulkOpsLocked() {
	kept := l.bulkOps[:0]
	for _, op := range l.bulkOps {
		if len(op.Entries) == 0 && !l.isCurrentLocked(op.ID) {
			continue
		}
		kept = append(kept, op)
	}
	l.bulkOps = kept
}

func (l *Ledger) isCurrentLocked(id string) bool {
	return l.current != nil && l.current.id == id
}

func (l *Ledger) findEntry(id string) *models.HistoryEntry {
	for _, e := range l.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (l *Ledger) removeBulkOpLocked(id string) {
	for i, op := range l.bulkOps {
		if op.ID == id {
			l.bulkOps = append(l.bulkOps[:i], l.bulkOps[i+1:]...)
			return
		}
	}
}

func (l *Ledger) findBulkOp(id string) *models.BulkOperation {
	for _, op := range l.bulkOps {
		if op.ID == id {
			return op
		}
	}
	return nil
}

// persistLocked saves before the mutating operation returns. A persistence
// failure is logged and notified; the in-memory state remains authoritative.
func (l *Ledger) persistLocked() {
	state := &State{
		History:        l.entries,
		BulkOperations: l.bulkOps,
	}
	if err := l.store.Save(state); err != nil {
		l.logger.WithError(err).Error("Failed to persist history")
		l.notify.Notify(fmt.Sprintf("Failed to save move history: %v", err))
	}
}
