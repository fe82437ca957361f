package registry

import (
	"fmt"
	"strings"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// Adjudication describes the manual review system. File names look like
// ADJ-TG-CASE-CASE-BACKLOG-2025-11-11.csv.
func Adjudication() *domain.Descriptor {
	workflow := domain.EventSpec{
		Kind:    domain.KindWorkflow,
		Columns: []string{"Timestamp", "Case Type", "Queue", "Case ID"},
		Table:   "adjudication_workflow_events",
		NewRow:  func() domain.Row { return &adjudicationWorkflowRow{} },
	}

	errSpec := domain.EventSpec{
		Kind:    domain.KindError,
		Columns: []string{"Timestamp", "Service", "Case Type", "Queue", "Case ID", "Error Detail"},
		Table:   "adjudication_error_events",
		NewRow:  func() domain.Row { return &adjudicationErrorRow{} },
	}

	return &domain.Descriptor{
		Name:    "adjudication",
		Pattern: domain.FilePattern{Prefix: "ADJ", Site: "TG", Code: "CASE"},
		Events: map[domain.EventType]domain.EventSpec{
			"CASE-BACKLOG": workflow,
			"CASE-FINISH":  workflow,
			"REVIEW-ERROR": errSpec,
		},
	}
}

type adjudicationWorkflowRow struct {
	Timestamp string `csv:"Timestamp"`
	CaseType  string `csv:"Case Type"`
	Queue     string `csv:"Queue"`
	CaseID    string `csv:"Case ID"`
}

func (r *adjudicationWorkflowRow) Event(file domain.DetectedFile) (domain.EventPayload, error) {
	caseID := strings.TrimSpace(r.CaseID)
	if caseID == "" {
		return nil, fmt.Errorf("case id is required")
	}

	ts, err := domain.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.WorkflowEvent{
		EventTimestamp:  ts,
		DocumentType:    strings.TrimSpace(r.CaseType),
		DestinationCode: strings.TrimSpace(r.Queue),
		RequestID:       caseID,
		Status:          statusFromType(file.EventType),
	}, nil
}

type adjudicationErrorRow struct {
	Timestamp   string `csv:"Timestamp"`
	Service     string `csv:"Service"`
	CaseType    string `csv:"Case Type"`
	Queue       string `csv:"Queue"`
	CaseID      string `csv:"Case ID"`
	ErrorDetail string `csv:"Error Detail"`
}

func (r *adjudicationErrorRow) Event(file domain.DetectedFile) (domain.EventPayload, error) {
	caseID := strings.TrimSpace(r.CaseID)
	if caseID == "" {
		return nil, fmt.Errorf("case id is required")
	}

	ts, err := domain.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.ErrorEvent{
		EventTimestamp:  ts,
		DocumentType:    strings.TrimSpace(r.CaseType),
		DestinationCode: strings.TrimSpace(r.Queue),
		RequestID:       caseID,
		ServiceName:     strings.TrimSpace(r.Service),
		ErrorCategory:   categoryFromType(file.EventType),
		Comment:         strings.TrimSpace(r.ErrorDetail),
	}, nil
}
