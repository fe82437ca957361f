package registry

import (
	"encoding/json"
	"strings"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// statusFromType derives the workflow status from the file's TYPE segment:
// WO-BACKLOG, DEDUP-BACKLOG and CASE-BACKLOG all carry status BACKLOG.
func statusFromType(eventType domain.EventType) string {
	s := string(eventType)
	if i := strings.LastIndex(s, "-"); i >= 0 {
		return s[i+1:]
	}

	return s
}

// categoryFromType derives the error category from the file's TYPE segment,
// e.g. QC-ERROR becomes QC_ERROR.
func categoryFromType(eventType domain.EventType) string {
	return strings.ReplaceAll(string(eventType), "-", "_")
}

// extractComment unwraps a comment field that may carry JSON. Objects with a
// "raw" key yield that key, other JSON is re-marshaled compactly, anything
// else passes through verbatim.
func extractComment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return value
	}

	if raw, ok := parsed["raw"].(string); ok && raw != "" {
		return raw
	}

	compact, err := json.Marshal(parsed)
	if err != nil {
		return value
	}

	return string(compact)
}
