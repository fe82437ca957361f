package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

type AuditRepository interface {
	AuditEntries(ctx context.Context, limit, offset uint64) ([]*domain.AuditLogEntry, int, error)
}

type EventsRepository interface {
	WorkflowEvents(ctx context.Context, table string, limit, offset uint64) ([]*domain.StoredEvent, int, error)
}

// TableResolver maps a domain name to its workflow events table.
type TableResolver func(domainName string) (string, bool)

type IngestionHandler struct {
	auditRepository  AuditRepository
	eventsRepository EventsRepository
	resolveTable     TableResolver
}

func NewIngestionHandler(
	auditRepository AuditRepository,
	eventsRepository EventsRepository,
	resolveTable TableResolver,
) *IngestionHandler {
	return &IngestionHandler{
		auditRepository:  auditRepository,
		eventsRepository: eventsRepository,
		resolveTable:     resolveTable,
	}
}

type GetAuditEntriesResponse struct {
	Entries    []*domain.AuditLogEntry `json:"entries"`
	Pagination Pagination              `json:"pagination"`
}

func (h *IngestionHandler) GetAuditEntries(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	entries, total, err := h.auditRepository.AuditEntries(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, GetAuditEntriesResponse{
		Entries:    entries,
		Pagination: paginationOf(page, limit, total),
	})
}

type GetWorkflowEventsResponse struct {
	Events     []*domain.StoredEvent `json:"events"`
	Pagination Pagination                `json:"pagination"`
}

func (h *IngestionHandler) GetWorkflowEvents(w http.ResponseWriter, r *http.Request) {
	domainName := chi.URLParam(r, "domain")

	table, ok := h.resolveTable(domainName)
	if !ok {
		http.Error(w, "unknown domain", http.StatusNotFound)
		return
	}

	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	events, total, err := h.eventsRepository.WorkflowEvents(r.Context(), table, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, GetWorkflowEventsResponse{
		Events:     events,
		Pagination: paginationOf(page, limit, total),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

