package history

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreEmpty(t *testing.T) {
	store := newSQLiteStore(t)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.History)
	assert.Empty(t, state.BulkOperations)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	older := &models.HistoryEntry{
		ID: "e1", SourcePath: "inbox/a.md", DestinationPath: "Work/a.md",
		FileName: "a.md", Timestamp: base, BulkOperationID: "op-1",
		OperationType: models.OperationBulk,
	}
	newer := &models.HistoryEntry{
		ID: "e2", SourcePath: "inbox/b.md", DestinationPath: "Work/b.md",
		FileName: "b.md", Timestamp: base.Add(time.Minute), BulkOperationID: "op-1",
		OperationType: models.OperationBulk,
	}
	standalone := &models.HistoryEntry{
		ID: "e3", SourcePath: "inbox/c.md", DestinationPath: "Work/c.md",
		FileName: "c.md", Timestamp: base.Add(2 * time.Minute),
		OperationType: models.OperationSingle,
	}

	in := NewState()
	in.History = []*models.HistoryEntry{standalone, newer, older}
	in.BulkOperations = []*models.BulkOperation{{
		ID: "op-1", OperationType: models.OperationBulk, Timestamp: base,
		Entries: []*models.HistoryEntry{older, newer}, TotalFiles: 2,
	}}

	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)

	require.Len(t, out.History, 3)
	assert.Equal(t, "e3", out.History[0].ID, "newest first")
	assert.Equal(t, "e1", out.History[2].ID)
	assert.Empty(t, out.History[0].BulkOperationID)
	assert.Equal(t, models.OperationSingle, out.History[0].OperationType)

	require.Len(t, out.BulkOperations, 1)
	op := out.BulkOperations[0]
	assert.Equal(t, 2, op.TotalFiles)
	require.Len(t, op.Entries, 2)
	assert.Equal(t, "e1", op.Entries[0].ID, "oldest first within an operation")
	assert.Equal(t, "e2", op.Entries[1].ID)
}

func TestSQLiteStoreSaveReplacesState(t *testing.T) {
	store := newSQLiteStore(t)

	in := NewState()
	in.History = []*models.HistoryEntry{{
		ID: "e1", SourcePath: "a", DestinationPath: "b", FileName: "a.md",
		Timestamp: time.Now(), OperationType: models.OperationSingle,
	}}
	require.NoError(t, store.Save(in))
	require.NoError(t, store.Save(NewState()))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, out.History)
}
