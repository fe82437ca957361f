package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kurochkinivan/csv_ingestor/internal/config"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
	"github.com/kurochkinivan/csv_ingestor/internal/registry"
	"golang.org/x/sync/errgroup"
)

// how many row-level defects are carried into an audit entry's message
const maxReportedRowErrors = 20

// Orchestrator drives each candidate file through
// detect → validate → transform → load → archive → audit. Files are
// independent: a failure on one never blocks the others. The only run-level
// fatal conditions are an unreadable input directory and an unreachable
// store.
type Orchestrator struct {
	log         *slog.Logger
	cfg         config.App
	registry    *registry.Registry
	detector    *Detector
	validator   *Validator
	transformer *Transformer
	archiver    *Archiver
	locker      *Locker
	loader      EventsLoader
	audit       AuditRecorder
}

func NewOrchestrator(
	log *slog.Logger,
	cfg config.App,
	reg *registry.Registry,
	loader EventsLoader,
	audit AuditRecorder,
) *Orchestrator {
	return &Orchestrator{
		log:         log,
		cfg:         cfg,
		registry:    reg,
		detector:    NewDetector(log, reg),
		validator:   NewValidator(log, cfg.CSVSeparator, cfg.FallbackEncoding),
		transformer: NewTransformer(log),
		archiver:    NewArchiver(log, cfg.ArchiveDirectory, cfg.ErrorDirectory),
		locker:      NewLocker(log, cfg.LockStaleAfter),
		loader:      loader,
		audit:       audit,
	}
}

// RunOnce processes every candidate currently in the input directory once.
// The returned error is non-nil only for run-level fatal conditions; files
// already disposed before the abort keep their archive moves and audit
// entries.
func (o *Orchestrator) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	runID := uuid.New()
	log := o.log.With(slog.String("run_id", runID.String()))

	files, err := o.detector.Scan(ctx, o.cfg.InputDirectory)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("failed to scan input directory: %w", err)
	}

	if len(files) == 0 {
		log.DebugContext(ctx, "no candidate files detected")
		return domain.RunSummary{}, nil
	}

	log.InfoContext(ctx, "run started", slog.Int("candidates", len(files)))

	var (
		mu      sync.Mutex
		summary domain.RunSummary
	)

	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	// the group context only gates scheduling: cancellation is honored
	// between files, a file already in flight runs to its disposition
	erg, groupCtx := errgroup.WithContext(ctx)
	erg.SetLimit(workers)

	fileCtx := context.WithoutCancel(ctx)

	for _, file := range files {
		if groupCtx.Err() != nil {
			break
		}

		erg.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}

			status, err := o.processLocked(fileCtx, log, runID, file)
			if err != nil {
				if errors.Is(err, errLocked) {
					log.DebugContext(ctx, "file is locked, skipping",
						slog.String("filename", file.Name))
					return nil
				}

				if errors.Is(err, domain.ErrStorageUnavailable) {
					// fatal: abort remaining files, leave this one in
					// input for the next run
					return err
				}

				// archive failure: the file keeps its input position
				// and is retried next run
				log.ErrorContext(ctx, "file left in input for retry",
					slog.String("filename", file.Name),
					slog.String("err", err.Error()),
				)

				mu.Lock()
				summary.FilesProcessed++
				summary.Errors++
				mu.Unlock()

				return nil
			}

			mu.Lock()
			summary.FilesProcessed++
			switch status {
			case domain.StatusSuccess:
				summary.Successes++
			case domain.StatusPartial:
				summary.Partials++
			default:
				summary.Errors++
			}
			mu.Unlock()

			return nil
		})
	}

	err = erg.Wait()

	log.InfoContext(ctx, "run finished",
		slog.Int("files_processed", summary.FilesProcessed),
		slog.Int("successes", summary.Successes),
		slog.Int("partials", summary.Partials),
		slog.Int("errors", summary.Errors),
	)

	return summary, err
}

// processLocked wraps one file's pipeline in its processing marker.
func (o *Orchestrator) processLocked(
	ctx context.Context,
	log *slog.Logger,
	runID uuid.UUID,
	file domain.DetectedFile,
) (domain.Status, error) {
	lock, err := o.locker.Acquire(file.Path)
	if err != nil {
		return "", err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			log.ErrorContext(ctx, "failed to release file lock",
				slog.String("filename", file.Name),
				slog.String("err", releaseErr.Error()),
			)
		}
	}()

	return o.processFile(ctx, log, runID, file)
}

func (o *Orchestrator) processFile(
	ctx context.Context,
	log *slog.Logger,
	runID uuid.UUID,
	file domain.DetectedFile,
) (domain.Status, error) {
	log = log.With(
		slog.String("filename", file.Name),
		slog.String("domain", file.Domain),
		slog.String("event_type", string(file.EventType)),
	)

	desc, ok := o.registry.Descriptor(file.Domain)
	if !ok {
		// cannot happen for files the detector produced
		return "", fmt.Errorf("unknown domain %q", file.Domain)
	}
	spec := desc.Events[file.EventType]

	validation := o.validator.Validate(file, spec.Columns)
	if !validation.Valid {
		log.ErrorContext(ctx, "validation failed",
			slog.String("reasons", strings.Join(validation.Reasons, "; ")))

		return o.disposeError(ctx, log, runID, file, strings.Join(validation.Reasons, "; "), 0, 0)
	}

	records, rowErrors, err := o.transformer.Transform(file, validation, spec)
	if err != nil {
		log.ErrorContext(ctx, "transformation failed", slog.String("err", err.Error()))

		return o.disposeError(ctx, log, runID, file, err.Error(), 0, validation.RowCount)
	}

	loadSummary, err := o.loader.LoadEvents(ctx, spec.Table, records)
	if err != nil {
		// no terminal disposition was reached: the file stays in input
		// and is retried naturally on the next run
		return "", fmt.Errorf("failed to load %q: %w", file.Name, err)
	}

	rowsProcessed := loadSummary.Inserted + loadSummary.Duplicates
	rowsFailed := len(rowErrors) + loadSummary.Failed

	status := domain.StatusSuccess
	if rowsFailed > 0 {
		status = domain.StatusPartial
	}

	archivePath, err := o.archiver.Archive(file, status)
	if err != nil {
		return "", err
	}

	failures := append(rowErrors, loadSummary.Errors...)

	o.recordAudit(ctx, log, &domain.AuditLogEntry{
		RunID:         runID,
		FileName:      file.Name,
		Domain:        file.Domain,
		EventType:     string(file.EventType),
		Status:        status,
		RowsProcessed: rowsProcessed,
		RowsFailed:    rowsFailed,
		ErrorMessage:  joinFailures(failures),
		ProcessedAt:   time.Now(),
		ArchivePath:   archivePath,
	})

	log.InfoContext(ctx, "file processed",
		slog.String("status", string(status)),
		slog.Int("rows_processed", rowsProcessed),
		slog.Int("rows_failed", rowsFailed),
		slog.Int("duplicates", loadSummary.Duplicates),
	)

	return status, nil
}

// disposeError routes a rejected file to the error tree and audits it.
func (o *Orchestrator) disposeError(
	ctx context.Context,
	log *slog.Logger,
	runID uuid.UUID,
	file domain.DetectedFile,
	message string,
	rowsProcessed, rowsFailed int,
) (domain.Status, error) {
	archivePath, err := o.archiver.Archive(file, domain.StatusError)
	if err != nil {
		return "", err
	}

	o.recordAudit(ctx, log, &domain.AuditLogEntry{
		RunID:         runID,
		FileName:      file.Name,
		Domain:        file.Domain,
		EventType:     string(file.EventType),
		Status:        domain.StatusError,
		RowsProcessed: rowsProcessed,
		RowsFailed:    rowsFailed,
		ErrorMessage:  message,
		ProcessedAt:   time.Now(),
		ArchivePath:   archivePath,
	})

	return domain.StatusError, nil
}

// recordAudit is the pipeline's last step: best effort, but loud. A failed
// audit write never undoes the completed archive move or load.
func (o *Orchestrator) recordAudit(ctx context.Context, log *slog.Logger, entry *domain.AuditLogEntry) {
	if err := o.audit.RecordAudit(ctx, entry); err != nil {
		log.ErrorContext(ctx, "failed to write audit entry",
			slog.String("filename", entry.FileName),
			slog.String("err", err.Error()),
		)
	}
}

func joinFailures(failures []string) string {
	if len(failures) == 0 {
		return ""
	}

	if len(failures) > maxReportedRowErrors {
		rest := len(failures) - maxReportedRowErrors
		failures = append(failures[:maxReportedRowErrors:maxReportedRowErrors],
			fmt.Sprintf("and %d more", rest))
	}

	return strings.Join(failures, "; ")
}
