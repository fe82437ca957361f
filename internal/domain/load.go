package domain

import "time"

// LoadOutcome classifies what happened to a single record during loading.
type LoadOutcome string

const (
	OutcomeInserted  LoadOutcome = "inserted"
	OutcomeDuplicate LoadOutcome = "skipped-duplicate"
	OutcomeFailed    LoadOutcome = "failed"
)

// FileLoadSummary aggregates per-record outcomes for one file.
type FileLoadSummary struct {
	Attempted  int
	Inserted   int
	Duplicates int
	Failed     int
	Errors     []string
}

// StoredEvent is the read model served for loaded workflow events.
type StoredEvent struct {
	ID              int64     `db:"id"               json:"id"`
	NaturalKey      string    `db:"natural_key"      json:"natural_key"`
	EventTimestamp  time.Time `db:"event_timestamp"  json:"event_timestamp"`
	DocumentType    string    `db:"document_type"    json:"document_type"`
	DestinationCode string    `db:"destination_code" json:"destination_code"`
	RequestID       string    `db:"request_id"       json:"request_id"`
	ItemCount       int       `db:"item_count"       json:"item_count"`
	Status          string    `db:"status"           json:"status"`
	FileName        string    `db:"file_name"        json:"file_name"`
	IngestedAt      time.Time `db:"ingested_at"      json:"ingested_at"`
}
