package registry

import (
	"fmt"
	"strings"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

// IDPS describes the document issuance system. File names look like
// IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv.
func IDPS() *domain.Descriptor {
	workflowColumns := []string{"Timestamp", "Type de document", "Code de destination", "Request ID"}
	errorColumns := []string{"Timestamp", "Service", "Type de document", "Code de destination", "Request ID", "infos_comment"}

	workflow := domain.EventSpec{
		Kind:    domain.KindWorkflow,
		Columns: workflowColumns,
		Table:   "idps_workflow_events",
		NewRow:  func() domain.Row { return &idpsWorkflowRow{} },
	}

	errSpec := domain.EventSpec{
		Kind:    domain.KindError,
		Columns: errorColumns,
		Table:   "idps_error_events",
		NewRow:  func() domain.Row { return &idpsErrorRow{} },
	}

	return &domain.Descriptor{
		Name:    "idps",
		Pattern: domain.FilePattern{Prefix: "IDPS", Site: "TG", Code: "EID"},
		Events: map[domain.EventType]domain.EventSpec{
			"WO-BACKLOG":  workflow,
			"WO-FINISH":   workflow,
			"QC-ERROR":    errSpec,
			"PERSO-ERROR": errSpec,
			"SUP-ERROR":   errSpec,
		},
	}
}

type idpsWorkflowRow struct {
	Timestamp       string `csv:"Timestamp"`
	DocumentType    string `csv:"Type de document"`
	DestinationCode string `csv:"Code de destination"`
	RequestID       string `csv:"Request ID"`
}

func (r *idpsWorkflowRow) Event(file domain.DetectedFile) (domain.EventPayload, error) {
	requestID := strings.TrimSpace(r.RequestID)
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}

	ts, err := domain.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.WorkflowEvent{
		EventTimestamp:  ts,
		DocumentType:    strings.TrimSpace(r.DocumentType),
		DestinationCode: strings.TrimSpace(r.DestinationCode),
		RequestID:       requestID,
		Status:          statusFromType(file.EventType),
	}, nil
}

type idpsErrorRow struct {
	Timestamp       string `csv:"Timestamp"`
	Service         string `csv:"Service"`
	DocumentType    string `csv:"Type de document"`
	DestinationCode string `csv:"Code de destination"`
	RequestID       string `csv:"Request ID"`
	Comment         string `csv:"infos_comment"`
}

func (r *idpsErrorRow) Event(file domain.DetectedFile) (domain.EventPayload, error) {
	requestID := strings.TrimSpace(r.RequestID)
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}

	ts, err := domain.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.ErrorEvent{
		EventTimestamp:  ts,
		DocumentType:    strings.TrimSpace(r.DocumentType),
		DestinationCode: strings.TrimSpace(r.DestinationCode),
		RequestID:       requestID,
		ServiceName:     strings.TrimSpace(r.Service),
		ErrorCategory:   categoryFromType(file.EventType),
		Comment:         extractComment(r.Comment),
	}, nil
}
