package domain

import (
	"strings"
	"time"
)

// EventKind groups event types into the two canonical payload shapes.
type EventKind string

const (
	KindWorkflow EventKind = "workflow"
	KindError    EventKind = "error"
)

// EventType is the TYPE segment of a file name, e.g. WO-BACKLOG.
type EventType string

// Descriptor bundles everything one source domain supplies to the pipeline:
// its file name pattern, the expected schema and destination table per event
// type, and the csvutil row type used to decode data rows. Descriptors are
// built once at startup and never mutated afterwards.
type Descriptor struct {
	Name    string
	Pattern FilePattern
	Events  map[EventType]EventSpec
}

// EventSpec describes one event type of a domain.
type EventSpec struct {
	Kind    EventKind
	Columns []string
	Table   string
	NewRow  func() Row
}

// Table returns the destination table serving the given event kind. All
// event types of one kind share a table within a domain.
func (d *Descriptor) Table(kind EventKind) (string, bool) {
	for _, spec := range d.Events {
		if spec.Kind == kind {
			return spec.Table, true
		}
	}

	return "", false
}

// Row is one decoded CSV data row. Implementations carry csv tags for
// csvutil and convert themselves into an event payload, failing the row
// (never the file) on malformed fields.
type Row interface {
	Event(file DetectedFile) (EventPayload, error)
}

const fileExtension = ".csv"

// FilePattern is a structured matcher over the
// <PREFIX>-<SITE>-<CODE>-<TYPE>-<YYYY-MM-DD>.csv convention. Keeping the
// matcher structured instead of a free regexp makes overlap between two
// registered domains a simple triple comparison.
type FilePattern struct {
	Prefix string
	Site   string
	Code   string
}

// Overlaps reports whether two patterns can match the same file name.
func (p FilePattern) Overlaps(other FilePattern) bool {
	return p.Prefix == other.Prefix && p.Site == other.Site && p.Code == other.Code
}

// Match parses fileName against the pattern. The returned event type is the
// raw TYPE segment; callers still have to check it against the descriptor's
// known event types.
func (p FilePattern) Match(fileName string) (EventType, time.Time, bool) {
	name, ok := strings.CutSuffix(fileName, fileExtension)
	if !ok {
		return "", time.Time{}, false
	}

	parts := strings.Split(name, "-")
	// prefix, site, code, at least one type segment, three date segments
	if len(parts) < 7 {
		return "", time.Time{}, false
	}

	if parts[0] != p.Prefix || parts[1] != p.Site || parts[2] != p.Code {
		return "", time.Time{}, false
	}

	dateStr := strings.Join(parts[len(parts)-3:], "-")
	fileDate, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return "", time.Time{}, false
	}

	eventType := EventType(strings.Join(parts[3:len(parts)-3], "-"))
	if eventType == "" {
		return "", time.Time{}, false
	}

	return eventType, fileDate, true
}
