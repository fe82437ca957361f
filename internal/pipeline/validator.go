package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

const encodingSampleSize = 8 << 10

var separatorCandidates = []rune{';', ',', '\t', '|'}

// Validator runs the domain-agnostic checks on a detected file: readability,
// encoding, separator, then the domain's header schema. Checks short-circuit
// between classes but accumulate every defect within a class.
type Validator struct {
	log              *slog.Logger
	separator        rune
	fallbackEncoding string
}

func NewValidator(log *slog.Logger, separator rune, fallbackEncoding string) *Validator {
	return &Validator{
		log:              log,
		separator:        separator,
		fallbackEncoding: fallbackEncoding,
	}
}

func invalid(reasons ...string) domain.ValidationResult {
	return domain.ValidationResult{Valid: false, Reasons: reasons}
}

// Validate checks file against the expected header columns of its resolved
// event type. A schema-valid file with zero data rows is valid with
// RowCount = 0.
func (v *Validator) Validate(file domain.DetectedFile, columns []string) (result domain.ValidationResult) {
	f, err := os.Open(file.Path)
	if err != nil {
		return invalid(fmt.Sprintf("unreadable: %v", err))
	}
	defer f.Close()

	sample := make([]byte, encodingSampleSize)
	n, err := f.Read(sample)
	if err != nil && !errors.Is(err, io.EOF) {
		return invalid(fmt.Sprintf("unreadable: %v", err))
	}

	if n == 0 {
		return invalid("empty: file has no content")
	}

	head := sample[:n]
	// a full sample may end mid-rune; a shorter one ends with the file
	if n == encodingSampleSize {
		head = trimPartialRune(head)
	}

	encodingName, err := detectEncoding(head, v.fallbackEncoding)
	if err != nil {
		return invalid(fmt.Sprintf("undecodable: %v", err))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return invalid(fmt.Sprintf("unreadable: %v", err))
	}

	decoded, err := decodeReader(f, encodingName)
	if err != nil {
		return invalid(fmt.Sprintf("undecodable: %v", err))
	}

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return invalid(fmt.Sprintf("unreadable: %v", err))
		}
		return invalid("empty: file has no header row")
	}
	header := scanner.Text()

	if reasons := v.checkSeparator(header); len(reasons) > 0 {
		result = invalid(reasons...)
		result.Encoding = encodingName
		return result
	}

	if reasons := checkSchema(header, v.separator, columns); len(reasons) > 0 {
		result = invalid(reasons...)
		result.Encoding = encodingName
		result.Separator = v.separator
		return result
	}

	rowCount := 0
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			rowCount++
		}
	}
	if err := scanner.Err(); err != nil {
		return invalid(fmt.Sprintf("unreadable: %v", err))
	}

	return domain.ValidationResult{
		Valid:     true,
		Encoding:  encodingName,
		Separator: v.separator,
		RowCount:  rowCount,
	}
}

// checkSeparator verifies the header uses the configured separator, naming
// the likely actual one when it does not.
func (v *Validator) checkSeparator(header string) []string {
	if strings.ContainsRune(header, v.separator) {
		return nil
	}

	for _, candidate := range separatorCandidates {
		if candidate == v.separator {
			continue
		}

		if strings.ContainsRune(header, candidate) {
			return []string{fmt.Sprintf(
				"separator-mismatch: expected %q, header appears to use %q",
				v.separator, candidate,
			)}
		}
	}

	return []string{fmt.Sprintf("separator-mismatch: separator %q not found in header", v.separator)}
}

// checkSchema compares header column names with the expected schema:
// case-insensitive, exact order, no reordering tolerance. All defects of the
// class are reported together.
func checkSchema(header string, separator rune, expected []string) []string {
	got := strings.Split(header, string(separator))
	for i := range got {
		got[i] = strings.TrimSpace(got[i])
	}

	var reasons []string

	for i, want := range expected {
		if i >= len(got) {
			reasons = append(reasons, fmt.Sprintf("schema-mismatch: missing column %q", want))
			continue
		}

		if !strings.EqualFold(got[i], want) {
			reasons = append(reasons, fmt.Sprintf(
				"schema-mismatch: column %d is %q, expected %q", i+1, got[i], want,
			))
		}
	}

	for i := len(expected); i < len(got); i++ {
		reasons = append(reasons, fmt.Sprintf("schema-mismatch: unexpected extra column %q", got[i]))
	}

	return reasons
}
