package history

import (
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

// SQLiteStore implements SQLite-based ledger persistence.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore creates a SQLite history store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_history_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS bulk_operations (
        id TEXT PRIMARY KEY,
        operation_type TEXT NOT NULL,
        timestamp TIMESTAMP NOT NULL
    );

    CREATE TABLE IF NOT EXISTS history_entries (
        id TEXT PRIMARY KEY,
        source_path TEXT NOT NULL,
        destination_path TEXT NOT NULL,
        file_name TEXT NOT NULL,
        timestamp TIMESTAMP NOT NULL,
        bulk_operation_id TEXT,
        operation_type TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_history_entries_bulk ON history_entries(bulk_operation_id);
    CREATE INDEX IF NOT EXISTS idx_history_entries_file ON history_entries(file_name);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Load reconstructs the ledger state, both collections newest first.
func (s *SQLiteStore) Load() (*State, error) {
	s.logger.Debug("Loading history from SQLite")

	state := NewState()

	rows, err := s.db.Query(`
        SELECT id, source_path, destination_path, file_name, timestamp,
               COALESCE(bulk_operation_id, ''), operation_type
        FROM history_entries
        ORDER BY timestamp DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.HistoryEntry
		var opType string
		if err := rows.Scan(&entry.ID, &entry.SourcePath, &entry.DestinationPath,
			&entry.FileName, &entry.Timestamp, &entry.BulkOperationID, &opType); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entry.OperationType = models.OperationType(opType)
		state.History = append(state.History, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	opRows, err := s.db.Query(`
        SELECT id, operation_type, timestamp
        FROM bulk_operations
        ORDER BY timestamp DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query bulk operations: %w", err)
	}
	defer opRows.Close()

	byID := make(map[string]*models.BulkOperation)
	for opRows.Next() {
		var op models.BulkOperation
		var opType string
		if err := opRows.Scan(&op.ID, &opType, &op.Timestamp); err != nil {
			return nil, fmt.Errorf("scan bulk operation row: %w", err)
		}
		op.OperationType = models.OperationType(opType)
		op.Entries = []*models.HistoryEntry{}
		state.BulkOperations = append(state.BulkOperations, &op)
		byID[op.ID] = &op
	}
	if err := opRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bulk operations: %w", err)
	}

	// Reattach entries to their operations, oldest first within each.
	for _, entry := range state.History {
		if entry.BulkOperationID == "" {
			continue
		}
		if op, ok := byID[entry.BulkOperationID]; ok {
			op.Entries = append(op.Entries, entry)
		}
	}
	for _, op := range state.BulkOperations {
		sort.Slice(op.Entries, func(i, j int) bool {
			return op.Entries[i].Timestamp.Before(op.Entries[j].Timestamp)
		})
		op.TotalFiles = len(op.Entries)
	}

	return state, nil
}

// Save persists the full state in one transaction.
func (s *SQLiteStore) Save(state *State) error {
	s.logger.WithFields(map[string]interface{}{
		"entries":    len(state.History),
		"operations": len(state.BulkOperations),
	}).Debug("Saving history to SQLite")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM bulk_operations"); err != nil {
		return fmt.Errorf("clear bulk operations: %w", err)
	}

	opStmt, err := tx.Prepare(`
        INSERT INTO bulk_operations (id, operation_type, timestamp)
        VALUES (?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare bulk statement: %w", err)
	}
	defer opStmt.Close()

	for _, op := range state.BulkOperations {
		if _, err := opStmt.Exec(op.ID, string(op.OperationType), op.Timestamp); err != nil {
			return fmt.Errorf("insert bulk operation %s: %w", op.ID, err)
		}
	}

	entryStmt, err := tx.Prepare(`
        INSERT INTO history_entries
            (id, source_path, destination_path, file_name, timestamp, bulk_operation_id, operation_type)
        VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare entry statement: %w", err)
	}
	defer entryStmt.Close()

	for _, entry := range state.History {
		if _, err := entryStmt.Exec(entry.ID, entry.SourcePath, entry.DestinationPath,
			entry.FileName, entry.Timestamp, entry.BulkOperationID,
			string(entry.OperationType)); err != nil {
			return fmt.Errorf("insert entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
