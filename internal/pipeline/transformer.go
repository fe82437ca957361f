package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// Transformer maps validated CSV rows into typed records. A malformed row is
// excluded and reported, never aborts the file; re-running over the same
// bytes yields identical records.
type Transformer struct {
	log *slog.Logger
}

func NewTransformer(log *slog.Logger) *Transformer {
	return &Transformer{log: log}
}

// Transform decodes the data rows of file using the encoding and separator
// the validator established. The returned error is reserved for total
// failure (the file became unreadable after detection); row-level defects
// come back in rowErrors.
func (t *Transformer) Transform(
	file domain.DetectedFile,
	validation domain.ValidationResult,
	spec domain.EventSpec,
) (records []domain.Record, rowErrors []string, err error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	decoded, err := decodeReader(f, validation.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode file: %w", err)
	}

	reader := csv.NewReader(decoded)
	reader.Comma = validation.Separator

	// the header was already checked; consume it and decode data rows
	// against the canonical column names
	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	dec, err := csvutil.NewDecoder(reader, spec.Columns...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	rowNumber := 1 // header
	for {
		rowNumber++

		row := spec.NewRow()

		decodeErr := dec.Decode(row)
		if errors.Is(decodeErr, io.EOF) {
			break
		}

		if decodeErr != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", rowNumber, decodeErr))
			continue
		}

		payload, eventErr := row.Event(file)
		if eventErr != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", rowNumber, eventErr))
			continue
		}

		records = append(records, domain.Record{
			Domain:     file.Domain,
			EventType:  file.EventType,
			NaturalKey: domain.NaturalKey(file.Domain, file.EventType, payload),
			SourceFile: file.Name,
			SourceRow:  rowNumber,
			Payload:    payload,
		})
	}

	t.log.Debug("transformed file",
		slog.String("filename", file.Name),
		slog.Int("records", len(records)),
		slog.Int("row_errors", len(rowErrors)),
	)

	return records, rowErrors, nil
}
