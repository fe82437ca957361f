package pipeline_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
	"github.com/kurochkinivan/csv_ingestor/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idpsWorkflowColumns = []string{"Timestamp", "Type de document", "Code de destination", "Request ID"}

func newValidator(t *testing.T) *pipeline.Validator {
	t.Helper()

	return pipeline.NewValidator(slog.New(slog.DiscardHandler), ';', "windows-1252")
}

func detected(path string) domain.DetectedFile {
	return domain.DetectedFile{Path: path, Name: filepath.Base(path)}
}

func TestValidator_Validate_HappyPath(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", strings.Join([]string{
		"Timestamp;Type de document;Code de destination;Request ID",
		"2025-11-11 10:30:00;passport;LOM;REQ-001",
		"2025-11-11 10:31:00;passport;LOM;REQ-002",
		"",
	}, "\n"))

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.True(t, result.Valid, "reasons: %v", result.Reasons)
	assert.Equal(t, "utf-8", result.Encoding)
	assert.Equal(t, ';', result.Separator)
	assert.Equal(t, 2, result.RowCount)
}

func TestValidator_Validate_HeaderOnlyIsValid(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		"Timestamp;Type de document;Code de destination;Request ID\n")

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.True(t, result.Valid, "reasons: %v", result.Reasons)
	assert.Equal(t, 0, result.RowCount)
}

func TestValidator_Validate_CaseInsensitiveHeader(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		"TIMESTAMP;type de document;CODE DE DESTINATION;request id\n2025-11-11;p;L;R1\n")

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	assert.True(t, result.Valid, "reasons: %v", result.Reasons)
}

func TestValidator_Validate_EmptyFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", "")

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.False(t, result.Valid)
	require.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "empty")
}

func TestValidator_Validate_SeparatorMismatch(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		"Timestamp,Type de document,Code de destination,Request ID\n")

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.False(t, result.Valid)
	require.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "separator-mismatch")
	assert.Contains(t, result.Reasons[0], "','")
}

func TestValidator_Validate_SchemaMismatch(t *testing.T) {
	t.Parallel()

	// wrong name in column 2, extra column at the end
	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		"Timestamp;Doc Type;Code de destination;Request ID;Extra\n")

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.False(t, result.Valid)
	require.Len(t, result.Reasons, 2)
	assert.Contains(t, result.Reasons[0], `column 2 is "Doc Type"`)
	assert.Contains(t, result.Reasons[1], `extra column "Extra"`)
}

func TestValidator_Validate_MissingColumns(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
		"Timestamp;Type de document\n")

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.False(t, result.Valid)
	require.Len(t, result.Reasons, 2)
	assert.Contains(t, result.Reasons[0], `missing column "Code de destination"`)
	assert.Contains(t, result.Reasons[1], `missing column "Request ID"`)
}

func TestValidator_Validate_FallbackEncoding(t *testing.T) {
	t.Parallel()

	// "Pièce d'identité" in windows-1252: 0xE8 is not valid UTF-8
	header := []byte("Timestamp;Type de document;Code de destination;Request ID\n")
	row := []byte("2025-11-11 10:30:00;Pi\xe8ce;LOM;REQ-001\n")

	dir := t.TempDir()
	path := filepath.Join(dir, "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv")
	require.NoError(t, os.WriteFile(path, append(header, row...), 0o644))

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.True(t, result.Valid, "reasons: %v", result.Reasons)
	assert.Equal(t, "windows-1252", result.Encoding)
	assert.Equal(t, 1, result.RowCount)
}

func TestValidator_Validate_MultibyteRuneAtSampleBoundary(t *testing.T) {
	t.Parallel()

	// place a two-byte rune so its first byte is the last byte of the
	// 8 KiB detection sample; the file is valid UTF-8 throughout and
	// must not fall back to the single-byte encoding
	prefix := "Timestamp;Type de document;Code de destination;Request ID\n" +
		"2025-11-11 10:30:00;"
	pad := strings.Repeat("a", 8191-len(prefix))
	content := prefix + pad + "é;LOM;REQ-001\n"

	path := writeFile(t, t.TempDir(), "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv", content)

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.True(t, result.Valid, "reasons: %v", result.Reasons)
	assert.Equal(t, "utf-8", result.Encoding)
	assert.Equal(t, 1, result.RowCount)
}

func TestValidator_Validate_UTF8BOM(t *testing.T) {
	t.Parallel()

	content := append([]byte{0xEF, 0xBB, 0xBF},
		[]byte("Timestamp;Type de document;Code de destination;Request ID\n2025-11-11;p;L;R1\n")...)

	dir := t.TempDir()
	path := filepath.Join(dir, "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.True(t, result.Valid, "reasons: %v", result.Reasons)
	assert.Equal(t, "utf-8-bom", result.Encoding)
}

func TestValidator_Validate_BinaryContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0x01}, 0o644))

	result := newValidator(t).Validate(detected(path), idpsWorkflowColumns)

	require.False(t, result.Valid)
	assert.Contains(t, result.Reasons[0], "undecodable")
}
