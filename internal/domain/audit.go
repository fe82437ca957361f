package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the terminal outcome of one file-processing attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// AuditLogEntry is one append-only row of the ingestion audit trail. Every
// attempt gets its own entry; entries are never updated or deleted.
type AuditLogEntry struct {
	RunID         uuid.UUID `db:"run_id"         json:"run_id"`
	FileName      string    `db:"file_name"      json:"file_name"`
	Domain        string    `db:"domain"         json:"domain"`
	EventType     string    `db:"event_type"     json:"event_type"`
	Status        Status    `db:"status"         json:"status"`
	RowsProcessed int       `db:"rows_processed" json:"rows_processed"`
	RowsFailed    int       `db:"rows_failed"    json:"rows_failed"`
	ErrorMessage  string    `db:"error_message"  json:"error_message,omitempty"`
	ProcessedAt   time.Time `db:"processed_at"   json:"processed_at"`
	ArchivePath   string    `db:"archive_path"   json:"archive_path"`
}
