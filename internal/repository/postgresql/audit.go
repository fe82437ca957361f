package postgresql

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

const TableAuditLog = "ingestion_audit_log"

// AuditRepository owns the append-only ingestion audit trail. Entries are
// inserted, never updated or deleted.
type AuditRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AuditRepository) RecordAudit(ctx context.Context, entry *domain.AuditLogEntry) error {
	sql, args, err := r.qb.
		Insert(TableAuditLog).
		Columns(
			"run_id",
			"file_name",
			"domain",
			"event_type",
			"status",
			"rows_processed",
			"rows_failed",
			"error_message",
			"processed_at",
			"archive_path",
		).
		Values(
			entry.RunID,
			entry.FileName,
			entry.Domain,
			entry.EventType,
			entry.Status,
			entry.RowsProcessed,
			entry.RowsFailed,
			entry.ErrorMessage,
			entry.ProcessedAt,
			entry.ArchivePath,
		).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return executeQueryError(err)
	}

	return nil
}

// AuditEntries returns audit entries, newest first.
func (r *AuditRepository) AuditEntries(
	ctx context.Context,
	limit, offset uint64,
) ([]*domain.AuditLogEntry, int, error) {
	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableAuditLog).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	sql, args, err = r.qb.
		Select(
			"run_id",
			"file_name",
			"domain",
			"event_type",
			"status",
			"rows_processed",
			"rows_failed",
			"error_message",
			"processed_at",
			"archive_path",
		).
		From(TableAuditLog).
		OrderBy("processed_at DESC", "id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.AuditLogEntry])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return entries, total, nil
}
