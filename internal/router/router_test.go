package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"groupreaper/internal/metrics"
	"groupreaper/internal/schedule"
)

type fakeJobs map[string]schedule.Job

func (f fakeJobs) Job(_ context.Context, guid string) (schedule.Job, error) {
	if guid == "broken" {
		return schedule.Job{}, errors.New("db down")
	}
	job, ok := f[guid]
	if !ok {
		return schedule.Job{}, schedule.ErrNotFound
	}
	return job, nil
}

func newTestEngine(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	jobs := fakeJobs{"abc": {GUID: "abc", Kind: "issue_group", ObjectID: 9, Attempts: 1}}
	return NewEngine(NewDeletionHandler(jobs, nil), reg)
}

func TestDeletionStatus(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/deletions/abc", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["guid"] != "abc" || body["object_id"] != float64(9) {
		t.Fatalf("unexpected body: %v", body)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/deletions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/deletions/broken", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestNoDeletionTrigger(t *testing.T) {
	engine := newTestEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/deletions/abc", nil))
	if w.Code == http.StatusOK {
		t.Fatalf("POST must not be routed")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	engine := newTestEngine(t)
	metrics.ObserveChunk("group_hash", 3)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status %d", w.Code)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `groupreaper_chunks_total{kind="group_hash"}`) {
		t.Fatalf("metrics output missing chunk counter:\n%s", w.Body.String())
	}
}
