// ABOUTME: Tests for the flyout HTTP server: submit, list, fetch, report, health.
// ABOUTME: Uses a stub runner and an in-memory result store; no real agent or database.

package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/flyout/store"
	"github.com/2389-research/flyout/workflow"
)

// memStore is an in-memory ResultStore for handler tests.
type memStore struct {
	results map[string]*workflow.Result
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{results: make(map[string]*workflow.Result)}
}

func (m *memStore) Save(result *workflow.Result) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.results[result.WorkflowID] = result
	return nil
}

func (m *memStore) Get(workflowID string) (*workflow.Result, error) {
	result, ok := m.results[workflowID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return result, nil
}

func (m *memStore) List() ([]store.Summary, error) {
	var summaries []store.Summary
	for id, r := range m.results {
		summaries = append(summaries, store.Summary{WorkflowID: id, Steps: len(r.Timeline)})
	}
	return summaries, nil
}

func stubRunner(result *workflow.Result) Runner {
	return RunnerFunc(func(ctx context.Context, p workflow.Params) *workflow.Result {
		return result
	})
}

func stubResult() *workflow.Result {
	flight := workflow.StepResult{Step: "buy_flight", Success: true}
	flight.SetField("confirmation_number", "FL1", workflow.SourceAgent)
	return &workflow.Result{
		WorkflowID: "wf_test",
		Submitted:  time.Date(2024, 7, 19, 10, 0, 0, 0, time.UTC),
		Timeline: []workflow.TimelineEntry{
			{Step: "buy_flight", Result: flight},
			{Step: "order_ride", Result: workflow.Failure("order_ride", "no drivers")},
		},
	}
}

func testServer(t *testing.T, runner Runner, st ResultStore) *Server {
	t.Helper()
	s, err := NewServer(ServerConfig{Runner: runner, Store: st})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func TestHealthz(t *testing.T) {
	s := testServer(t, stubRunner(stubResult()), newMemStore())
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSubmitRunsSavesAndReturnsResult(t *testing.T) {
	st := newMemStore()
	s := testServer(t, stubRunner(stubResult()), st)

	body := strings.NewReader(`{"from":"JFK","depart_date":"2024-07-19"}`)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/workflows", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got workflow.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.WorkflowID != "wf_test" {
		t.Errorf("expected wf_test, got %q", got.WorkflowID)
	}
	if _, ok := st.results["wf_test"]; !ok {
		t.Error("expected result persisted")
	}
}

func TestSubmitPartialFailureStillHTTPSuccess(t *testing.T) {
	s := testServer(t, stubRunner(stubResult()), newMemStore())

	body := strings.NewReader(`{"from":"JFK","depart_date":"2024-07-19"}`)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/workflows", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("step failures must not change the HTTP status, got %d", rec.Code)
	}
	var got workflow.Result
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Timeline[1].Result.Success {
		t.Error("expected the failed step visible in the timeline")
	}
}

func TestSubmitRejectsBadParams(t *testing.T) {
	runs := 0
	runner := RunnerFunc(func(ctx context.Context, p workflow.Params) *workflow.Result {
		runs++
		return stubResult()
	})
	s := testServer(t, runner, newMemStore())

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing from", `{"depart_date":"2024-07-19"}`},
		{"bad date", `{"from":"JFK","depart_date":"tomorrow"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/workflows", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
	if runs != 0 {
		t.Errorf("expected no workflow runs for invalid input, got %d", runs)
	}
}

func TestGetWorkflowAndNotFound(t *testing.T) {
	st := newMemStore()
	st.results["wf_test"] = stubResult()
	s := testServer(t, stubRunner(stubResult()), st)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workflows/wf_test", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for existing workflow, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workflows/wf_missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing workflow, got %d", rec.Code)
	}
}

func TestListWorkflowsEmptyIsArray(t *testing.T) {
	s := testServer(t, stubRunner(stubResult()), newMemStore())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workflows", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestReportRendersHTML(t *testing.T) {
	st := newMemStore()
	st.results["wf_test"] = stubResult()
	s := testServer(t, stubRunner(stubResult()), st)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/workflows/wf_test/report", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "wf_test") {
		t.Error("expected workflow id in the rendered report")
	}
}

func TestSubmitSaveFailureIs500(t *testing.T) {
	st := newMemStore()
	st.saveErr = sql.ErrConnDone
	s := testServer(t, stubRunner(stubResult()), st)

	body := strings.NewReader(`{"from":"JFK","depart_date":"2024-07-19"}`)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/workflows", body))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when persistence fails, got %d", rec.Code)
	}
}
