package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelineview/internal/config"
	"timelineview/internal/model"
	"timelineview/internal/render"
	"timelineview/internal/source"
	"timelineview/internal/vault"
	"timelineview/internal/view"
)

type stubEngine struct {
	now     time.Time
	records []model.Record
}

func (s *stubEngine) Query(_ context.Context, _ string) ([]model.Record, error) {
	return s.records, nil
}

func (s *stubEngine) Now() time.Time { return s.now }

func (s *stubEngine) OnRefresh(func()) (cancel func()) { return func() {} }

func testServer(t *testing.T) (*Server, *view.Registry) {
	t.Helper()

	engine := &stubEngine{
		now: time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC),
	}
	engine.records = []model.Record{
		{Text: "standup", Attrs: map[string]any{"start": engine.now}},
	}

	pipeline := render.NewPipeline(engine)
	registry := view.NewRegistry(engine, pipeline)
	registry.Apply(context.Background(), []vault.Block{
		{Doc: "a.md", Index: 0, Source: "EventFind: all\nEventStartField: start\nPeriod: 7"},
	})

	cfg := config.DefaultConfig()
	return NewServer(cfg, registry, pipeline), registry
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestIndexListsViews(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a.md#0")
	// The link escapes the '#' in the view ID as a path segment.
	assert.Contains(t, rec.Body.String(), `href="/view/a.md%230"`)
}

func TestViewPage(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/view/a.md%230")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeline-container")
	assert.Contains(t, rec.Body.String(), "standup")
}

func TestViewNotFound(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/view/missing.md%230")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// downEngine fails every query, so attached views never mount content.
type downEngine struct {
	stubEngine
}

func (d *downEngine) Query(context.Context, string) ([]model.Record, error) {
	return nil, fmt.Errorf("feed offline: %w", source.ErrUnavailable)
}

func TestViewPendingPageIsCaptureReady(t *testing.T) {
	engine := &downEngine{}
	engine.now = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	pipeline := render.NewPipeline(engine)
	registry := view.NewRegistry(engine, pipeline)
	registry.Apply(context.Background(), []vault.Block{
		{Doc: "a.md", Index: 0, Source: "EventFind: all\nEventStartField: start\nPeriod: 7"},
	})
	s := NewServer(config.DefaultConfig(), registry, pipeline)

	// The placeholder page must carry the readiness marker a screenshot
	// capture waits on, or captures of unrendered views hang.
	rec := get(t, s, "/view/a.md%230")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeline-pending")
	assert.Contains(t, rec.Body.String(), `data-ready="true"`)
}

func TestAPIViews(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/api/views")
	require.Equal(t, http.StatusOK, rec.Code)

	var dtos []viewDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "a.md#0", dtos[0].ID)
	assert.True(t, dtos[0].Mounted)
}

func TestAPIEvents(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/api/events?view=a.md%230")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a.md#0", resp.View)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "standup", resp.Events[0].Text)
	assert.Equal(t, "2026-08-28", resp.WindowTo)
	assert.Equal(t, "2026-08-22", resp.WindowFrom)
}

func TestAPIEvents_UnknownView(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/api/events?view=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	s, _ := testServer(t)
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}

	// /health stays open.
	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Everything else requires credentials.
	rec = get(t, s, "/api/views")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/views", nil)
	req.SetBasicAuth("u", "p")
	authed := httptest.NewRecorder()
	s.Handler().ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestPreviewWithoutConfig(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/preview.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
