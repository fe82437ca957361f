package postgresql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

type EventsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewEventsRepository(pool *pgxpool.Pool) *EventsRepository {
	return &EventsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// LoadEvents inserts records one by one into table. A natural-key conflict
// is left untouched and counted as a duplicate; any other per-record failure
// is counted and does not abort the rest of the batch. Only an unreachable
// store fails the remaining batch, with an error wrapping
// domain.ErrStorageUnavailable.
func (r *EventsRepository) LoadEvents(
	ctx context.Context,
	table string,
	records []domain.Record,
) (domain.FileLoadSummary, error) {
	summary := domain.FileLoadSummary{Attempted: len(records)}

	for _, record := range records {
		sql, args, err := r.insertQuery(table, record)
		if err != nil {
			return summary, createQueryError(err)
		}

		tag, err := r.pool.Exec(ctx, sql, args...)
		if err != nil {
			if storageUnavailable(err) {
				return summary, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
			}

			summary.Failed++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("row %d: %v", record.SourceRow, err))
			continue
		}

		if tag.RowsAffected() == 0 {
			summary.Duplicates++
			continue
		}

		summary.Inserted++
	}

	return summary, nil
}

func (r *EventsRepository) insertQuery(table string, record domain.Record) (string, []any, error) {
	builder := r.qb.Insert(table)

	switch payload := record.Payload.(type) {
	case *domain.WorkflowEvent:
		builder = builder.
			Columns(
				"natural_key",
				"event_timestamp",
				"document_type",
				"destination_code",
				"request_id",
				"item_count",
				"status",
				"file_name",
				"ingested_at",
			).
			Values(
				record.NaturalKey,
				payload.EventTimestamp,
				payload.DocumentType,
				payload.DestinationCode,
				payload.RequestID,
				payload.ItemCount,
				payload.Status,
				record.SourceFile,
				time.Now(),
			)

	case *domain.ErrorEvent:
		builder = builder.
			Columns(
				"natural_key",
				"event_timestamp",
				"document_type",
				"destination_code",
				"request_id",
				"service_name",
				"error_category",
				"comment",
				"file_name",
				"ingested_at",
			).
			Values(
				record.NaturalKey,
				payload.EventTimestamp,
				payload.DocumentType,
				payload.DestinationCode,
				payload.RequestID,
				payload.ServiceName,
				payload.ErrorCategory,
				payload.Comment,
				record.SourceFile,
				time.Now(),
			)

	default:
		return "", nil, fmt.Errorf("unsupported payload kind %q", record.Payload.Kind())
	}

	return builder.
		Suffix("ON CONFLICT (natural_key) DO NOTHING").
		ToSql()
}

// WorkflowEvents returns recent workflow events from table, newest first.
func (r *EventsRepository) WorkflowEvents(
	ctx context.Context,
	table string,
	limit, offset uint64,
) ([]*domain.StoredEvent, int, error) {
	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(table).
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
			"id",
			"natural_key",
			"event_timestamp",
			"document_type",
			"destination_code",
			"request_id",
			"item_count",
			"status",
			"file_name",
			"ingested_at",
		).
		From(table).
		OrderBy("event_timestamp DESC", "id DESC").
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

	events, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.StoredEvent])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return events, total, nil
}

// storageUnavailable separates record-scoped failures from a dead store. A
// SQL-level error from a live server is record-scoped unless its SQLSTATE
// class marks a connection or resource problem.
func storageUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if state := pgErr.SQLState(); len(state) >= 2 {
			switch state[:2] {
			case "08", "53", "57":
				return true
			}
		}

		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
