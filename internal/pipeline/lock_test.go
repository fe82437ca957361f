package pipeline_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/kurochkinivan/csv_ingestor/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", "data")

	locker := pipeline.NewLocker(slog.New(slog.DiscardHandler), time.Hour)

	lock, err := locker.Acquire(path)
	require.NoError(t, err)

	_, err = os.Stat(path + ".lock")
	require.NoError(t, err)

	require.NoError(t, lock.Release())

	_, err = os.Stat(path + ".lock")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocker_Acquire_Held(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", "data")

	locker := pipeline.NewLocker(slog.New(slog.DiscardHandler), time.Hour)

	lock, err := locker.Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	_, err = locker.Acquire(path)
	assert.Error(t, err)
}

func TestLocker_Acquire_ReclaimsStale(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", "data")

	// marker left behind by a crashed run
	lockPath := path + ".lock"
	require.NoError(t, os.WriteFile(lockPath, []byte("1234 2025-11-11T00:00:00Z\n"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	locker := pipeline.NewLocker(slog.New(slog.DiscardHandler), time.Hour)

	lock, err := locker.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestLocker_Acquire_FreshMarkerNotReclaimed(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", "data")

	lockPath := path + ".lock"
	require.NoError(t, os.WriteFile(lockPath, []byte("1234\n"), 0o644))

	locker := pipeline.NewLocker(slog.New(slog.DiscardHandler), time.Hour)

	_, err := locker.Acquire(path)
	require.Error(t, err)

	// the marker survives
	_, err = os.Stat(lockPath)
	assert.NoError(t, err)
}
