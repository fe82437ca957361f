package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// errLocked means another run is currently processing the file.
var errLocked = errors.New("file is locked by another run")

const lockSuffix = ".lock"

// Locker guards each input file with a marker file so overlapping runs never
// double-process it. A marker left behind by a crash is reclaimed once it is
// older than the staleness threshold.
type Locker struct {
	log        *slog.Logger
	staleAfter time.Duration
}

func NewLocker(log *slog.Logger, staleAfter time.Duration) *Locker {
	return &Locker{
		log:        log,
		staleAfter: staleAfter,
	}
}

// FileLock is an acquired processing marker.
type FileLock struct {
	path string
}

// Acquire takes the marker for filePath, reclaiming a stale one if needed.
// Returns errLocked while another run holds a fresh marker.
func (l *Locker) Acquire(filePath string) (*FileLock, error) {
	lockPath := filePath + lockSuffix

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().Format(time.RFC3339))
			if closeErr := f.Close(); closeErr != nil {
				os.Remove(lockPath)
				return nil, closeErr
			}

			return &FileLock{path: lockPath}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, statErr := os.Stat(lockPath)
		if statErr != nil {
			// the holder released it between our attempts; retry once
			continue
		}

		if time.Since(info.ModTime()) < l.staleAfter {
			return nil, errLocked
		}

		l.log.Warn("reclaiming stale lock",
			slog.String("lock", lockPath),
			slog.Duration("age", time.Since(info.ModTime())),
		)

		if removeErr := os.Remove(lockPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to reclaim stale lock: %w", removeErr)
		}
	}

	return nil, errLocked
}

// Release removes the marker. Safe to call after the guarded file was moved.
func (f *FileLock) Release() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}
