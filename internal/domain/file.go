package domain

import "time"

// DetectedFile is an input file classified by the registry. Created by the
// detector, consumed read-only by the rest of the pipeline.
type DetectedFile struct {
	Path       string
	Name       string
	Domain     string
	EventType  EventType
	Kind       EventKind
	FileDate   time.Time
	SizeBytes  int64
	DetectedAt time.Time
}
