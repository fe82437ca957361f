package pipeline_test

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
	"github.com/kurochkinivan/csv_ingestor/internal/pipeline"
	"github.com/kurochkinivan/csv_ingestor/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utf8Validation() domain.ValidationResult {
	return domain.ValidationResult{Valid: true, Encoding: "utf-8", Separator: ';'}
}

func TestTransformer_Transform(t *testing.T) {
	t.Parallel()

	spec := registry.IDPS().Events["WO-BACKLOG"]

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", strings.Join([]string{
		"Timestamp;Type de document;Code de destination;Request ID",
		"2025-11-11 10:30:00;passport;LOM;REQ-001",
		"2025-11-11 10:31:00;id-card;KAR;REQ-002",
	}, "\n"))

	file := domain.DetectedFile{
		Path:      path,
		Name:      "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		Domain:    "idps",
		EventType: "WO-BACKLOG",
	}

	transformer := pipeline.NewTransformer(slog.New(slog.DiscardHandler))

	records, rowErrors, err := transformer.Transform(file, utf8Validation(), spec)
	require.NoError(t, err)
	require.Empty(t, rowErrors)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "idps", first.Domain)
	assert.Equal(t, domain.EventType("WO-BACKLOG"), first.EventType)
	assert.Equal(t, file.Name, first.SourceFile)
	assert.Equal(t, 2, first.SourceRow)
	assert.NotEmpty(t, first.NaturalKey)

	event, ok := first.Payload.(*domain.WorkflowEvent)
	require.True(t, ok)
	assert.Equal(t, "REQ-001", event.RequestID)
	assert.Equal(t, "BACKLOG", event.Status)

	assert.Equal(t, 3, records[1].SourceRow)
	assert.NotEqual(t, records[0].NaturalKey, records[1].NaturalKey)
}

func TestTransformer_Transform_RowIsolation(t *testing.T) {
	t.Parallel()

	spec := registry.IDPS().Events["WO-BACKLOG"]

	lines := []string{"Timestamp;Type de document;Code de destination;Request ID"}
	for i := 1; i <= 10; i++ {
		if i == 5 {
			// malformed timestamp fails the row, not the file
			lines = append(lines, fmt.Sprintf("garbage;passport;LOM;REQ-%03d", i))
			continue
		}
		lines = append(lines, fmt.Sprintf("2025-11-11 10:30:%02d;passport;LOM;REQ-%03d", i, i))
	}

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", strings.Join(lines, "\n"))

	file := domain.DetectedFile{
		Path:      path,
		Name:      "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		Domain:    "idps",
		EventType: "WO-BACKLOG",
	}

	transformer := pipeline.NewTransformer(slog.New(slog.DiscardHandler))

	records, rowErrors, err := transformer.Transform(file, utf8Validation(), spec)
	require.NoError(t, err)

	assert.Len(t, records, 9)
	require.Len(t, rowErrors, 1)
	// data row 5 sits on physical row 6
	assert.Contains(t, rowErrors[0], "row 6")
	assert.Contains(t, rowErrors[0], "invalid timestamp")
}

func TestTransformer_Transform_Deterministic(t *testing.T) {
	t.Parallel()

	spec := registry.IDPS().Events["QC-ERROR"]

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-QC-ERROR-2025-11-11.csv", strings.Join([]string{
		"Timestamp;Service;Type de document;Code de destination;Request ID;infos_comment",
		`2025-11-11 10:30:00;qc-station-2;passport;LOM;REQ-001;"{""raw"": ""blurry photo""}"`,
	}, "\n"))

	file := domain.DetectedFile{
		Path:      path,
		Name:      "IDPS-TG-EID-QC-ERROR-2025-11-11.csv",
		Domain:    "idps",
		EventType: "QC-ERROR",
	}

	transformer := pipeline.NewTransformer(slog.New(slog.DiscardHandler))

	first, _, err := transformer.Transform(file, utf8Validation(), spec)
	require.NoError(t, err)
	second, _, err := transformer.Transform(file, utf8Validation(), spec)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].NaturalKey, second[0].NaturalKey)

	event, ok := first[0].Payload.(*domain.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "blurry photo", event.Comment)
	assert.Equal(t, "QC_ERROR", event.ErrorCategory)
}
