package registry

import (
	"fmt"
	"strings"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// ABIS describes the biometric matching system. File names look like
// ABIS-TG-BIO-DEDUP-BACKLOG-2025-11-11.csv.
func ABIS() *domain.Descriptor {
	workflow := domain.EventSpec{
		Kind:    domain.KindWorkflow,
		Columns: []string{"Timestamp", "Gallery", "Transaction ID", "Candidate Count"},
		Table:   "abis_workflow_events",
		NewRow:  func() domain.Row { return &abisWorkflowRow{} },
	}

	errSpec := domain.EventSpec{
		Kind:    domain.KindError,
		Columns: []string{"Timestamp", "Service", "Gallery", "Transaction ID", "Error Detail"},
		Table:   "abis_error_events",
		NewRow:  func() domain.Row { return &abisErrorRow{} },
	}

	return &domain.Descriptor{
		Name:    "abis",
		Pattern: domain.FilePattern{Prefix: "ABIS", Site: "TG", Code: "BIO"},
		Events: map[domain.EventType]domain.EventSpec{
			"DEDUP-BACKLOG": workflow,
			"DEDUP-FINISH":  workflow,
			"MATCH-ERROR":   errSpec,
			"QUALITY-ERROR": errSpec,
		},
	}
}

type abisWorkflowRow struct {
	Timestamp      string `csv:"Timestamp"`
	Gallery        string `csv:"Gallery"`
	TransactionID  string `csv:"Transaction ID"`
	CandidateCount string `csv:"Candidate Count"`
}

func (r *abisWorkflowRow) Event(file domain.DetectedFile) (domain.EventPayload, error) {
	transactionID := strings.TrimSpace(r.TransactionID)
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id is required")
	}

	ts, err := domain.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	count, err := domain.ParseCount(r.CandidateCount)
	if err != nil {
		return nil, fmt.Errorf("invalid candidate count %q: %w", r.CandidateCount, err)
	}

	return &domain.WorkflowEvent{
		EventTimestamp:  ts,
		DestinationCode: strings.TrimSpace(r.Gallery),
		RequestID:       transactionID,
		ItemCount:       count,
		Status:          statusFromType(file.EventType),
	}, nil
}

type abisErrorRow struct {
	Timestamp     string `csv:"Timestamp"`
	Service       string `csv:"Service"`
	Gallery       string `csv:"Gallery"`
	TransactionID string `csv:"Transaction ID"`
	ErrorDetail   string `csv:"Error Detail"`
}

func (r *abisErrorRow) Event(file domain.DetectedFile) (domain.EventPayload, error) {
	transactionID := strings.TrimSpace(r.TransactionID)
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id is required")
	}

	ts, err := domain.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.ErrorEvent{
		EventTimestamp:  ts,
		DestinationCode: strings.TrimSpace(r.Gallery),
		RequestID:       transactionID,
		ServiceName:     strings.TrimSpace(r.Service),
		ErrorCategory:   categoryFromType(file.EventType),
		Comment:         strings.TrimSpace(r.ErrorDetail),
	}, nil
}
