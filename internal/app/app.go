package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kurochkinivan/csv_ingestor/internal/config"
	v1 "github.com/kurochkinivan/csv_ingestor/internal/controller/http/v1"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
	"github.com/kurochkinivan/csv_ingestor/internal/pipeline"
	"github.com/kurochkinivan/csv_ingestor/internal/registry"
	"github.com/kurochkinivan/csv_ingestor/internal/repository/postgresql"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting app",
		slog.String("input_dir", a.cfg.App.InputDirectory),
		slog.String("archive_dir", a.cfg.App.ArchiveDirectory),
		slog.String("error_dir", a.cfg.App.ErrorDirectory),
		slog.Duration("scan_interval", a.cfg.App.ScanInterval),
		slog.Bool("once", a.cfg.App.RunOnce),
	)

	reg, err := registry.Bootstrap()
	if err != nil {
		return fmt.Errorf("failed to bootstrap domain registry: %w", err)
	}

	a.log.InfoContext(ctx, "domains registered", slog.Any("domains", reg.Domains()))

	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	eventsRepository := postgresql.NewEventsRepository(pool)
	auditRepository := postgresql.NewAuditRepository(pool)

	orchestrator := pipeline.NewOrchestrator(a.log, a.cfg.App, reg, eventsRepository, auditRepository)

	if a.cfg.App.RunOnce {
		summary, err := orchestrator.RunOnce(ctx)
		a.logSummary(ctx, summary)
		return err
	}

	return a.runScheduled(ctx, reg, orchestrator, eventsRepository, auditRepository)
}

func (a *App) runScheduled(
	ctx context.Context,
	reg *registry.Registry,
	orchestrator *pipeline.Orchestrator,
	eventsRepo *postgresql.EventsRepository,
	auditRepo *postgresql.AuditRepository,
) error {
	resolveTable := func(domainName string) (string, bool) {
		desc, ok := reg.Descriptor(domainName)
		if !ok {
			return "", false
		}

		return desc.Table(domain.KindWorkflow)
	}

	server := v1.NewServer(a.cfg.HTTP, auditRepo, eventsRepo, resolveTable)

	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "scheduler started", slog.Duration("interval", a.cfg.App.ScanInterval))

		ticker := time.NewTicker(a.cfg.App.ScanInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				summary, err := orchestrator.RunOnce(ctx)
				if err != nil {
					// fatal for this run only; the next tick retries
					a.log.ErrorContext(ctx, "run aborted", slog.String("err", err.Error()))
				}
				a.logSummary(ctx, summary)

			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	a.log.InfoContext(ctx, "all components started")

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "app stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "app stopped gracefully")

	return nil
}

func (a *App) logSummary(ctx context.Context, summary domain.RunSummary) {
	if summary.FilesProcessed == 0 {
		return
	}

	a.log.InfoContext(ctx, "run summary",
		slog.Int("files_processed", summary.FilesProcessed),
		slog.Int("successes", summary.Successes),
		slog.Int("partials", summary.Partials),
		slog.Int("errors", summary.Errors),
	)
}
