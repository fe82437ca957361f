package postgresql

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingWithRetry_EventualSuccess(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := pingWithRetry(context.Background(), log, ping, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPingWithRetry_GivesUp(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	lastErr := errors.New("connection refused")
	calls := 0
	ping := func(context.Context) error {
		calls++
		return lastErr
	}

	err := pingWithRetry(context.Background(), log, ping, 3, time.Millisecond)
	require.ErrorIs(t, err, lastErr)
	assert.Equal(t, 3, calls)
}

func TestPingWithRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ping := func(context.Context) error {
		return errors.New("connection refused")
	}

	err := pingWithRetry(ctx, log, ping, 5, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
