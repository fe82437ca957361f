package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
	"github.com/kurochkinivan/csv_ingestor/internal/registry"
)

// Detector scans the input directory and classifies file names against the
// registered domains. Detection has no side effects; unmatched files are
// reported and skipped so unrelated files can share the directory.
type Detector struct {
	log      *slog.Logger
	registry *registry.Registry
}

func NewDetector(log *slog.Logger, reg *registry.Registry) *Detector {
	return &Detector{
		log:      log,
		registry: reg,
	}
}

// Scan lists candidates in lexicographic name order. A missing directory
// yields an empty result, not an error.
func (d *Detector) Scan(ctx context.Context, dir string) ([]domain.DetectedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.log.DebugContext(ctx, "input directory does not exist yet", slog.String("dir", dir))
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	seen := make(map[string]struct{}, len(entries))
	files := make([]domain.DetectedFile, 0, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, ok := d.classifyEntry(ctx, dir, entry)
		if !ok {
			continue
		}

		if _, dup := seen[file.Path]; dup {
			continue
		}
		seen[file.Path] = struct{}{}

		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return files, nil
}

func (d *Detector) classifyEntry(ctx context.Context, dir string, entry os.DirEntry) (domain.DetectedFile, bool) {
	// regular files only, symlinks and directories are not candidates
	if !entry.Type().IsRegular() {
		return domain.DetectedFile{}, false
	}

	match, err := d.registry.Resolve(entry.Name())
	if err != nil {
		d.log.DebugContext(ctx, "skipping unmatched file", slog.String("filename", entry.Name()))
		return domain.DetectedFile{}, false
	}

	info, err := entry.Info()
	if err != nil {
		// the file vanished between listing and stat
		d.log.WarnContext(ctx, "failed to stat file, skipping",
			slog.String("filename", entry.Name()),
			slog.String("err", err.Error()),
		)
		return domain.DetectedFile{}, false
	}

	return domain.DetectedFile{
		Path:       filepath.Join(dir, entry.Name()),
		Name:       entry.Name(),
		Domain:     match.Descriptor.Name,
		EventType:  match.EventType,
		Kind:       match.Kind,
		FileDate:   match.FileDate,
		SizeBytes:  info.Size(),
		DetectedAt: time.Now(),
	}, true
}
