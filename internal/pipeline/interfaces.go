package pipeline

import (
	"context"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// EventsLoader persists transformed records with idempotent-insert semantics.
// A duplicate natural key is a no-op, a record-level failure does not abort
// the batch, and an unreachable store fails the remaining batch with an error
// wrapping domain.ErrStorageUnavailable.
type EventsLoader interface {
	LoadEvents(ctx context.Context, table string, records []domain.Record) (domain.FileLoadSummary, error)
}

// AuditRecorder appends one audit entry per file-processing attempt.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry *domain.AuditLogEntry) error
}
