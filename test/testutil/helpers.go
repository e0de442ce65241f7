package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// WriteNote writes a markdown note under dir, creating parent folders. The
// relative path uses forward slashes regardless of platform.
func WriteNote(t *testing.T, dir, relPath, content string) string {
	t.Helper()

	full := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
	return full
}

// NoteWithFrontmatter builds note content from frontmatter lines and a body.
func NoteWithFrontmatter(frontmatter []string, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	for _, line := range frontmatter {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

// TagRule builds an active rule moving notes carrying the tag.
func TagRule(name, tag, destination string) models.RuleV2 {
	return models.RuleV2{
		Name:        name,
		Destination: destination,
		Aggregation: models.AggregateAll,
		Active:      true,
		Triggers: []models.Trigger{{
			CriteriaType: models.CriteriaTag,
			Operator:     models.OpIncludesItem,
			Value:        tag,
		}},
	}
}

// Entry builds a history entry with the given timestamp.
func Entry(id, source, destination string, ts time.Time) *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:              id,
		SourcePath:      source,
		DestinationPath: destination,
		FileName:        filepath.Base(source),
		Timestamp:       ts,
		OperationType:   models.OperationSingle,
	}
}
