package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	v1 "github.com/kurochkinivan/csv_ingestor/internal/controller/http/v1"
	"github.com/kurochkinivan/csv_ingestor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditRepository struct {
	entries []*domain.AuditLogEntry
	total   int
	err     error
}

func (f *fakeAuditRepository) AuditEntries(_ context.Context, limit, offset uint64) ([]*domain.AuditLogEntry, int, error) {
	if f.err != nil {
		return nil, -1, f.err
	}
	return f.entries, f.total, nil
}

type fakeEventsRepository struct {
	events []*domain.StoredEvent
	total  int
	table  string
}

func (f *fakeEventsRepository) WorkflowEvents(_ context.Context, table string, limit, offset uint64) ([]*domain.StoredEvent, int, error) {
	f.table = table
	return f.events, f.total, nil
}

func testRouter(audit v1.AuditRepository, events v1.EventsRepository) http.Handler {
	resolveTable := func(domainName string) (string, bool) {
		if domainName == "idps" {
			return "idps_workflow_events", true
		}
		return "", false
	}

	h := v1.NewIngestionHandler(audit, events, resolveTable)

	r := chi.NewRouter()
	r.Get("/audit", h.GetAuditEntries)
	r.Get("/events/{domain}", h.GetWorkflowEvents)

	return r
}

func TestIngestionHandler_GetAuditEntries(t *testing.T) {
	t.Parallel()

	audit := &fakeAuditRepository{
		entries: []*domain.AuditLogEntry{{
			FileName:      "IDPS-TG-EID-WO-BACKLOG-2025-11-11.csv",
			Domain:        "idps",
			EventType:     "WO-BACKLOG",
			Status:        domain.StatusSuccess,
			RowsProcessed: 2,
			ProcessedAt:   time.Date(2025, 11, 11, 12, 0, 0, 0, time.UTC),
		}},
		total: 1,
	}

	router := testRouter(audit, &fakeEventsRepository{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp v1.GetAuditEntriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "idps", resp.Entries[0].Domain)
	assert.Equal(t, domain.StatusSuccess, resp.Entries[0].Status)
	assert.Equal(t, 1, resp.Pagination.Total)
	assert.Equal(t, uint64(1), resp.Pagination.Page)
}

func TestIngestionHandler_GetAuditEntries_BadPagination(t *testing.T) {
	t.Parallel()

	router := testRouter(&fakeAuditRepository{}, &fakeEventsRepository{})

	for _, target := range []string{
		"/audit?page=0",
		"/audit?page=abc",
		"/audit?limit=0",
		"/audit?limit=101",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %q", target)
	}
}

func TestIngestionHandler_GetAuditEntries_RepositoryError(t *testing.T) {
	t.Parallel()

	router := testRouter(&fakeAuditRepository{err: errors.New("boom")}, &fakeEventsRepository{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIngestionHandler_GetWorkflowEvents(t *testing.T) {
	t.Parallel()

	events := &fakeEventsRepository{
		events: []*domain.StoredEvent{{
			NaturalKey: "abc123",
			RequestID:  "REQ-001",
			Status:     "BACKLOG",
		}},
		total: 1,
	}

	router := testRouter(&fakeAuditRepository{}, events)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/idps", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idps_workflow_events", events.table)

	var resp v1.GetWorkflowEventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Events, 1)
	assert.Equal(t, "REQ-001", resp.Events[0].RequestID)
}

func TestIngestionHandler_GetWorkflowEvents_UnknownDomain(t *testing.T) {
	t.Parallel()

	router := testRouter(&fakeAuditRepository{}, &fakeEventsRepository{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
