package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows        []TimelineRow
	lastFilters TimelineFilters
	lastOffset  int
	lastLimit   int
}

func (s *stubTimelineRepo) Window(_ context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.lastFilters, s.lastOffset, s.lastLimit = f, offset, limit
	out := s.rows
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func rowAt(ts, action string) TimelineRow {
	at, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: at, Actor: "owner", Action: action, Entity: "treasury", EntityID: "all"}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		rowAt("2026-03-10T10:00:00Z", "reset"),
		rowAt("2026-03-09T09:00:00Z", "transfer"),
		rowAt("2026-03-08T08:00:00Z", "transfer"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2, Actor: "  owner "})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
	assert.Equal(t, "owner", repo.lastFilters.Actor)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.PrevPage)
	assert.Equal(t, 2, repo.lastOffset)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	result, err := NewService(repo).Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
	assert.Equal(t, maxPageSize+1, repo.lastLimit)
	assert.NotNil(t, result.Rows)
}

func TestWriteCSV(t *testing.T) {
	row := rowAt("2026-03-10T10:00:00Z", "reset")
	row.Meta = map[string]any{"deleted": 4}
	body, err := WriteCSV([]TimelineRow{row})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "at,actor,action,entity,entity_id,meta", lines[0])
	assert.Contains(t, lines[1], `2026-03-10T10:00:00Z,owner,reset,treasury,all,"{""deleted"":4}"`)
}

func newAuditRouter(repo Repository) http.Handler {
	h := NewHandler(nil, NewService(repo))
	h.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/audit-logs", h.MountRoutes)
	return r
}

func TestTimelineEndpointDefaultsToLastWeek(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{rowAt("2026-03-10T10:00:00Z", "reset")}}
	rec := httptest.NewRecorder()
	newAuditRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit-logs?entity=treasury", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Rows, 1)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), repo.lastFilters.From)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), repo.lastFilters.To)
	assert.Equal(t, "treasury", repo.lastFilters.Entity)
}

func TestTimelineEndpointRejectsBadFilters(t *testing.T) {
	router := newAuditRouter(&stubTimelineRepo{})
	for _, query := range []string{
		"?from=yesterday",
		"?from=2026-03-10&to=2026-03-01",
		"?from=2025-01-01&to=2026-03-01",
		"?page=0",
		"?page_size=abc",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit-logs"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestExportEndpoint(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{rowAt("2026-03-10T10:00:00Z", "reset")}}
	rec := httptest.NewRecorder()
	newAuditRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit-logs/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "owner,reset,treasury")
	assert.Equal(t, maxExportRows, repo.lastLimit)
}
