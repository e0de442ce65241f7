package models

import (
	"time"
)

// OperationType classifies how a move was initiated.
type OperationType string

const (
	OperationSingle   OperationType = "single"
	OperationBulk     OperationType = "bulk"
	OperationPeriodic OperationType = "periodic"
)

// HistoryEntry records one file move. Entries are created at move time and
// never mutated; they are removed on successful undo or by the retention sweep.
type HistoryEntry struct {
	ID              string        `json:"id"`
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath"`
	FileName        string        `json:"fileName"`
	Timestamp       time.Time     `json:"timestamp"`
	BulkOperationID string        `json:"bulkOperationId,omitempty"`
	OperationType   OperationType `json:"operationType"`
}

// BulkOperation groups the entries produced by one batch move. Entries hold a
// back-reference by ID; the ledger is the sole mutator of both collections.
type BulkOperation struct {
	ID            string          `json:"id"`
	OperationType OperationType   `json:"operationType"`
	Timestamp     time.Time       `json:"timestamp"`
	Entries       []*HistoryEntry `json:"entries"`
	TotalFiles    int             `json:"totalFiles"`
}

// RemoveEntry drops an entry by ID and refreshes the count.
func (b *BulkOperation) RemoveEntry(id string) {
	for i, e := range b.Entries {
		if e.ID == id {
			b.Entries = append(b.Entries[:i], b.Entries[i+1:]...)
			break
		}
	}
	b.TotalFiles = len(b.Entries)
}

// RetentionUnit is the unit of a retention policy window.
type RetentionUnit string

const (
	RetentionDays   RetentionUnit = "days"
	RetentionWeeks  RetentionUnit = "weeks"
	RetentionMonths RetentionUnit = "months"
)

// RetentionPolicy declares how long history entries are kept.
type RetentionPolicy struct {
	Value int           `json:"value"`
	Unit  RetentionUnit `json:"unit"`
}

// Cutoff converts the policy into an absolute time; entries with a timestamp
// strictly before the cutoff are eligible for removal.
func (p RetentionPolicy) Cutoff(now time.Time) time.Time {
	switch p.Unit {
	case RetentionWeeks:
		return now.AddDate(0, 0, -7*p.Value)
	case RetentionMonths:
		return now.AddDate(0, -p.Value, 0)
	default:
		return now.AddDate(0, 0, -p.Value)
	}
}

// Validate checks the policy is usable.
func (p RetentionPolicy) Validate() error {
	if p.Value <= 0 {
		return ErrInvalidRetention
	}
	switch p.Unit {
	case RetentionDays, RetentionWeeks, RetentionMonths:
		return nil
	}
	return ErrInvalidRetention
}
