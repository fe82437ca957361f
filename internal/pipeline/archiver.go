package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// Archiver moves disposed files into dated archive or error subdirectories.
// It never deletes a file without a copy in the destination, and never
// silently overwrites an existing one.
type Archiver struct {
	log        *slog.Logger
	archiveDir string
	errorDir   string
}

func NewArchiver(log *slog.Logger, archiveDir, errorDir string) *Archiver {
	return &Archiver{
		log:        log,
		archiveDir: archiveDir,
		errorDir:   errorDir,
	}
}

// Archive moves the file under <root>/<today>/, choosing root by outcome:
// success and partial go to the archive tree, error goes to the error tree.
// Returns the destination path.
func (a *Archiver) Archive(file domain.DetectedFile, status domain.Status) (string, error) {
	root := a.archiveDir
	if status == domain.StatusError {
		root = a.errorDir
	}

	destDir := filepath.Join(root, time.Now().Format(time.DateOnly))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", destDir, err)
	}

	destPath := filepath.Join(destDir, file.Name)

	// a same-named file means a previous attempt crashed after moving;
	// keep both rather than overwrite
	if _, err := os.Stat(destPath); err == nil {
		destPath = fmt.Sprintf("%s.%d", destPath, time.Now().UnixNano())
	}

	if err := a.move(file.Path, destPath); err != nil {
		return "", fmt.Errorf("failed to archive %q: %w", file.Name, err)
	}

	a.log.Debug("archived file",
		slog.String("filename", file.Name),
		slog.String("archive_path", destPath),
	)

	return destPath, nil
}

// move renames within one filesystem; across filesystems it copies first and
// deletes the source only after the copy is fully on disk.
func (a *Archiver) move(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	if err := copyFile(src, dest); err != nil {
		return err
	}

	return os.Remove(src)
}

func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, in.Close()) }()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}

	return out.Close()
}
