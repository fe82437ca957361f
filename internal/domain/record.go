package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// EventPayload is the closed set of shapes a data row maps into. The key
// fields feed the natural key, so their order and content must stay stable
// across re-runs of the same file.
type EventPayload interface {
	Kind() EventKind
	KeyFields() []string
}

// WorkflowEvent mirrors the <domain>_workflow_events tables.
type WorkflowEvent struct {
	EventTimestamp  time.Time
	DocumentType    string
	DestinationCode string
	RequestID       string
	ItemCount       int
	Status          string
}

func (e *WorkflowEvent) Kind() EventKind { return KindWorkflow }

func (e *WorkflowEvent) KeyFields() []string {
	return []string{
		e.RequestID,
		e.Status,
		e.EventTimestamp.UTC().Format(time.RFC3339Nano),
	}
}

// ErrorEvent mirrors the <domain>_error_events tables.
type ErrorEvent struct {
	EventTimestamp  time.Time
	DocumentType    string
	DestinationCode string
	RequestID       string
	ServiceName     string
	ErrorCategory   string
	Comment         string
}

func (e *ErrorEvent) Kind() EventKind { return KindError }

func (e *ErrorEvent) KeyFields() []string {
	return []string{
		e.RequestID,
		e.ServiceName,
		e.ErrorCategory,
		e.EventTimestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Record is one transformed data row, ready for loading. Never mutated
// after creation.
type Record struct {
	Domain     string
	EventType  EventType
	NaturalKey string
	SourceFile string
	SourceRow  int
	Payload    EventPayload
}

// NaturalKey derives the idempotency key for a payload. Duplicate keys are
// resolved by the store's uniqueness constraint, so the derivation must be
// deterministic byte for byte.
func NaturalKey(domainName string, eventType EventType, payload EventPayload) string {
	h := sha256.New()

	parts := append([]string{domainName, string(eventType)}, payload.KeyFields()...)
	h.Write([]byte(strings.Join(parts, "\x1f")))

	return hex.EncodeToString(h.Sum(nil))
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTimestamp parses an event timestamp in any of the source systems'
// known layouts.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	var err error
	for _, layout := range timestampLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, err
}

// ParseCount coerces a numeric CSV field, rejecting overflow and garbage.
// An empty field counts as zero.
func ParseCount(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, err
	}

	return int(n), nil
}
