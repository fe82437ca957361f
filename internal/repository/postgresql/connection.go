package postgresql

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/csv_ingestor/internal/config"
)

// the store must be reachable before the first scan; a short ping loop
// covers the usual compose race where the database is still starting
const (
	pingAttempts = 5
	pingBackoff  = 3 * time.Second
)

func NewConnection(ctx context.Context, log *slog.Logger, cfg config.PostgreSQL) (*pgxpool.Pool, error) {
	connectionURL := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     cfg.DBName,
		RawQuery: "sslmode=disable",
	}

	pool, err := pgxpool.New(ctx, connectionURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pingWithRetry(ctx, log, pool.Ping, pingAttempts, pingBackoff); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	return pool, nil
}

// pingWithRetry calls ping up to attempts times, waiting delay between
// failures. The last ping error is returned when every attempt fails;
// context cancellation cuts the wait short.
func pingWithRetry(
	ctx context.Context,
	log *slog.Logger,
	ping func(context.Context) error,
	attempts int,
	delay time.Duration,
) error {
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		log.Debug("database ping failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.String("err", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
