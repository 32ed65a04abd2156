package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/report"
)

func value(v any) core.Action {
	return core.ActionFunc(func(context.Context, *core.RunContext) (any, error) { return v, nil })
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *engine.Engine, *events.EventBus) {
	t.Helper()
	bus := events.New(100)
	t.Cleanup(bus.Close)

	eng := engine.New(engine.WithEventBus(bus), engine.WithResetBeforeRun())

	orders := core.NewWorkflow("order_processing", "validate, charge and ship")
	orders.AddTask("validate", value(map[string]any{"valid": true}))
	orders.AddTask("payment", core.ActionFunc(func(_ context.Context, rc *core.RunContext) (any, error) {
		if declined, _ := rc.Get("declined"); declined == true {
			return nil, errors.New("card declined")
		}
		return map[string]any{"payment_id": "pay_123"}, nil
	}), "validate")
	orders.AddTask("fulfill", value(map[string]any{"shipped": true}), "payment")
	eng.RegisterWorkflow(orders)

	cyclic := core.NewWorkflow("cyclic", "")
	cyclic.AddTask("A", value(1), "B")
	cyclic.AddTask("B", value(2), "A")
	eng.RegisterWorkflow(cyclic)

	return NewServer(eng, bus, opts...), eng, bus
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(2), body["workflows"])
}

func TestListWorkflows(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]WorkflowSummary](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "cyclic", list[0].Name)
	assert.Equal(t, "order_processing", list[1].Name)
	assert.Equal(t, 3, list[1].Tasks)
	assert.False(t, list[1].Running)
}

func TestGetWorkflow(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/workflows/order_processing", "")
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decode[WorkflowDetail](t, rec)
	assert.Equal(t, []string{"validate", "payment", "fulfill"}, detail.Order)
	assert.Equal(t, [][]string{{"validate"}, {"payment"}, {"fulfill"}}, detail.Levels)
	require.Len(t, detail.Tasks, 3)
	assert.Equal(t, []string{"validate"}, detail.Tasks[1].Dependencies)

	rec = do(t, s, http.MethodGet, "/api/v1/workflows/cyclic", "")
	detail = decode[WorkflowDetail](t, rec)
	assert.Equal(t, []string{"A", "B"}, detail.Cycle)
}

func TestGetWorkflow_NotFoundSuggests(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/workflows/order", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "WORKFLOW_NOT_FOUND", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, []any{"order_processing"}, details["suggestions"])
}

func TestRunWorkflow(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/workflows/order_processing/runs", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decode[report.Document](t, rec)
	assert.Equal(t, "order_processing", doc.Workflow)
	assert.True(t, doc.Summary.Succeeded)
	require.Len(t, doc.Tasks, 3)
	assert.Equal(t, "completed", doc.Tasks[2].Status)
	assert.Equal(t, map[string]any{"shipped": true}, doc.Tasks[2].Result)

	run, ok := s.History().Get(doc.RunID)
	require.True(t, ok)
	assert.Equal(t, RunCompleted, run.Status)
	assert.NotNil(t, run.Report)
}

func TestRunWorkflow_ContextFromBodyAndDefaults(t *testing.T) {
	s, _, _ := newTestServer(t, WithDefaultContext(func(string) map[string]any {
		return map[string]any{"declined": false}
	}))

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/order_processing/runs", `{"declined": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decode[report.Document](t, rec)
	assert.Equal(t, "failed", doc.Tasks[1].Status)
	require.NotNil(t, doc.Tasks[1].Error)
	assert.Equal(t, "card declined", *doc.Tasks[1].Error)
	assert.Equal(t, "completed", doc.Tasks[2].Status, "failed dependencies still resolve")
	assert.False(t, doc.Summary.Succeeded)
}

func TestRunWorkflow_Errors(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/nonexistent/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/workflows/cyclic/runs", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, core.CodeWorkflowDeadlock, body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, []any{"A", "B"}, details["remaining"])

	rec = do(t, s, http.MethodPost, "/api/v1/workflows/order_processing/runs", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunWorkflow_Conflict(t *testing.T) {
	s, eng, _ := newTestServer(t)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := core.NewWorkflow("slow", "")
	slow.AddTask("block", core.ActionFunc(func(context.Context, *core.RunContext) (any, error) {
		close(started)
		<-release
		return nil, nil
	}))
	eng.RegisterWorkflow(slow)

	done := make(chan int, 1)
	go func() {
		done <- do(t, s, http.MethodPost, "/api/v1/workflows/slow/runs", "").Code
	}()
	<-started

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/slow/runs", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestRuns_ListAndGet(t *testing.T) {
	s, _, _ := newTestServer(t)

	first := decode[report.Document](t, do(t, s, http.MethodPost, "/api/v1/workflows/order_processing/runs", ""))
	second := decode[report.Document](t, do(t, s, http.MethodPost, "/api/v1/workflows/order_processing/runs", ""))
	assert.NotEqual(t, first.RunID, second.RunID)

	rec := do(t, s, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]RunRecord](t, rec)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID, "most recent first")
	assert.Nil(t, runs[0].Report)

	rec = do(t, s, http.MethodGet, "/api/v1/runs?workflow=cyclic", "")
	assert.Empty(t, decode[[]RunRecord](t, rec))

	rec = do(t, s, http.MethodGet, "/api/v1/runs/"+first.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[RunRecord](t, rec)
	require.NotNil(t, run.Report)
	assert.Equal(t, first.RunID, run.Report.RunID)

	rec = do(t, s, http.MethodGet, "/api/v1/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RUN_NOT_FOUND", decode[map[string]any](t, rec)["code"])
}

func TestRunHistory_Listen(t *testing.T) {
	s, eng, bus := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.History().Listen(ctx, bus)
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 2 }, time.Second, 5*time.Millisecond)

	// Runs started outside the API are recorded from events.
	_, err := eng.ExecuteWorkflow(context.Background(), "cyclic", nil)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		runs := s.History().List("cyclic")
		return len(runs) == 1 && runs[0].Status == RunFailed
	}, time.Second, 5*time.Millisecond)

	run := s.History().List("cyclic")[0]
	assert.Equal(t, []string{"A", "B"}, run.Remaining)
	assert.NotNil(t, run.FinishedAt)
}

func TestRunHistory_Bounded(t *testing.T) {
	h := NewRunHistory(2)
	for _, id := range []string{"r1", "r2", "r3"} {
		h.Observe(events.NewWorkflowStartedEvent("wf", id, 1))
	}
	assert.Equal(t, 2, h.Len())
	_, ok := h.Get("r1")
	assert.False(t, ok, "oldest run evicted")

	h.Observe(events.NewWorkflowCompletedEvent("wf", "r3", time.Millisecond, 1, 1, 0, 0))
	rec, _ := h.Get("r3")
	assert.Equal(t, RunCompleted, rec.Status)
	require.NotNil(t, rec.Summary)
	assert.True(t, rec.Summary.Succeeded)
}

func TestRunHistory_AttachBeforeStartedEvent(t *testing.T) {
	h := NewRunHistory(10)
	h.Attach(report.Document{RunID: "r1", Workflow: "wf", Summary: report.Summary{Total: 1, Completed: 1}})
	h.Observe(events.NewWorkflowStartedEvent("wf", "r1", 1))

	rec, ok := h.Get("r1")
	require.True(t, ok)
	assert.Equal(t, RunCompleted, rec.Status)
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/workflows", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	noCORS, _, _ := newTestServer(t, WithCORS(false))
	rec = httptest.NewRecorder()
	noCORS.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSSE(t *testing.T) {
	s, eng, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?workflow=order_processing", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}
	require.Equal(t, "connected", readEvent())

	_, err = eng.ExecuteWorkflow(context.Background(), "order_processing", nil)
	require.NoError(t, err)
	assert.Equal(t, events.TypeWorkflowStarted, readEvent())
	assert.Equal(t, events.TypeTaskStarted, readEvent())
}

func TestHTTPStatusForDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrValidation(core.CodeInvalidParams, "x"), http.StatusUnprocessableEntity},
		{core.ErrNotFound("workflow", "x"), http.StatusNotFound},
		{core.ErrState(core.CodeWorkflowRunning, "x"), http.StatusConflict},
		{core.ErrDeadlock([]string{"a"}), http.StatusUnprocessableEntity},
		{core.ErrTimeout("x"), http.StatusGatewayTimeout},
		{core.ErrCancelled(context.Canceled), http.StatusServiceUnavailable},
		{core.ErrExecution(core.CodeActionFailed, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, ok := httpStatusForDomainError(tt.err)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
	_, ok := httpStatusForDomainError(errors.New("plain"))
	assert.False(t, ok)
}

func TestRunControl(t *testing.T) {
	s, eng, _ := newTestServer(t)

	started := make(chan struct{})
	slow := core.NewWorkflow("slow", "")
	slow.AddTask("block", core.ActionFunc(func(ctx context.Context, _ *core.RunContext) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	slow.AddTask("after", value("unreachable"), "block")
	eng.RegisterWorkflow(slow)

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/slow/pause", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "no run in progress")
	rec = do(t, s, http.MethodGet, "/api/v1/workflows/slow/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- do(t, s, http.MethodPost, "/api/v1/workflows/slow/runs", "")
	}()
	<-started

	rec = do(t, s, http.MethodPost, "/api/v1/workflows/slow/pause", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	st := decode[engine.RunStatus](t, rec)
	assert.True(t, st.Paused)
	assert.NotEmpty(t, st.RunID)

	rec = do(t, s, http.MethodGet, "/api/v1/workflows/slow/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[engine.RunStatus](t, rec).Paused)

	rec = do(t, s, http.MethodPost, "/api/v1/workflows/slow/cancel", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decode[engine.RunStatus](t, rec).Cancelled)

	run := <-done
	assert.Equal(t, http.StatusServiceUnavailable, run.Code)
	assert.Equal(t, core.CodeRunCancelled, decode[map[string]any](t, run)["code"])

	rec = do(t, s, http.MethodPost, "/api/v1/workflows/ghost/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
