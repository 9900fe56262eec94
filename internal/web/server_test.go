package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/flows"
	"github.com/spigell/careercraft/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubCompleter) Model() string { return "stub" }

func (s *stubCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const (
	roadmapResponse = `{"roadmap": "# DevOps roadmap\n\n- Learn **Linux**\n\n<script>alert(1)</script>"}`
	sampleResume    = "Senior Go developer with eight years of Kubernetes, PostgreSQL and AWS experience."
)

func newTestServer(t *testing.T, stub *stubCompleter, opts Options) (*Server, *metrics.Metrics) {
	t.Helper()

	m := metrics.New(nil)
	reg := flow.NewRegistry()
	require.NoError(t, flows.Register(reg, stub, flow.WithObserver(m)))

	opts.Registry = reg
	opts.Metrics = m

	srv, err := New(opts)
	require.NoError(t, err)

	return srv, m
}

func postForm(srv http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func postJSON(srv http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var body map[string]apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestIndexListsFlows(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{}, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `href="/dashboard-summary"`)
	assert.Contains(t, rec.Body.String(), "Personalized Study Plan")
}

func TestFormRendersIdleState(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{}, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/study-plan", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-state="idle"`)
	assert.Contains(t, body, `name="days" type="number" min="1" value="7"`)
	assert.Contains(t, body, `name="resumeTextFile" type="file"`)
	assert.Contains(t, body, "b.disabled=true")
}

func TestUnknownFlowPage(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{}, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitPreconditions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		path   string
		values url.Values
		notice string
	}{
		{
			name:   "short dashboard resume",
			path:   "/dashboard-summary",
			values: url.Values{"resumeText": {"too short"}, "profession": {"Software Engineer"}},
			notice: "at least 50 characters",
		},
		{
			name:   "profession not selected",
			path:   "/roadmap",
			values: url.Values{"profession": {""}},
			notice: "Please select a target role.",
		},
		{
			name:   "blank technology",
			path:   "/historical-questions",
			values: url.Values{"technology": {"   "}},
			notice: "Please provide a technology.",
		},
		{
			name:   "missing job description",
			path:   "/job-match",
			values: url.Values{"resumeText": {sampleResume}, "jobDescription": {""}},
			notice: "Please provide a job description.",
		},
		{
			name:   "non positive days",
			path:   "/study-plan",
			values: url.Values{"resumeText": {sampleResume}, "jobDescription": {"Go role"}, "days": {"0"}},
			notice: "Days to prepare must be a positive number.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubCompleter{response: "{}"}
			srv, _ := newTestServer(t, stub, Options{})

			rec := postForm(srv, tc.path, tc.values)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `role="alert"`)
			assert.Contains(t, rec.Body.String(), tc.notice)
			assert.Contains(t, rec.Body.String(), `data-state="idle"`)
			assert.Equal(t, 0, stub.Calls())
		})
	}
}

func TestSubmitRendersMarkdownResult(t *testing.T) {
	stub := &stubCompleter{response: roadmapResponse}
	srv, m := newTestServer(t, stub, Options{})

	rec := postForm(srv, "/roadmap", url.Values{"profession": {"DevOps Engineer"}})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>DevOps roadmap</h1>")
	assert.Contains(t, body, "<strong>Linux</strong>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, `class="card result" data-state="success"`)
	assert.Contains(t, body, `<option value="DevOps Engineer" selected>`)
	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlowRuns.WithLabelValues(flows.RoadmapName, "success")))
}

func TestSubmitShowsFailureNotification(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection reset")}
	srv, _ := newTestServer(t, stub, Options{})

	rec := postForm(srv, "/roadmap", url.Values{"profession": {"DevOps Engineer"}})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "An error occurred during analysis. Please try again.")
	assert.Contains(t, body, `data-state="failed"`)
	assert.NotContains(t, body, "connection reset")
}

func TestSubmitUsesUploadedResume(t *testing.T) {
	stub := &stubCompleter{response: `{"matchScore": 80, "strongAreas": ["Go"], "improvementAreas": ["gRPC"], "targetedStudyPlan": "- gRPC"}`}
	srv, _ := newTestServer(t, stub, Options{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("resumeText", ""))
	require.NoError(t, mw.WriteField("jobDescription", "Go engineer with gRPC"))
	fw, err := mw.CreateFormFile("resumeTextFile", "resume.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Jane Doe\nGo developer from the uploaded file"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/job-match", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "Go developer from the uploaded file")
	assert.Contains(t, rec.Body.String(), "Match score")
}

func TestAPIRunFlow(t *testing.T) {
	stub := &stubCompleter{response: roadmapResponse}
	srv, _ := newTestServer(t, stub, Options{})

	rec := postJSON(srv, "/api/flows/roadmap", `{"profession": "DevOps Engineer"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, roadmapResponse, rec.Body.String())
}

func TestAPIErrorStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		stub     *stubCompleter
		path     string
		body     string
		code     int
		kind     string
		calls    int
		detailOf string
	}{
		{
			name:     "invalid input",
			stub:     &stubCompleter{response: "{}"},
			path:     "/api/flows/job-match",
			body:     `{"resumeText": "Go", "jobDescription": ""}`,
			code:     http.StatusBadRequest,
			kind:     string(flow.KindInvalidInput),
			detailOf: "jobDescription",
		},
		{
			name:  "malformed body",
			stub:  &stubCompleter{response: "{}"},
			path:  "/api/flows/roadmap",
			body:  `{"profession":`,
			code:  http.StatusBadRequest,
			kind:  string(flow.KindInvalidInput),
			calls: 0,
		},
		{
			name:     "schema violation",
			stub:     &stubCompleter{response: `{"roadmap": ""}`},
			path:     "/api/flows/roadmap",
			body:     `{"profession": "DevOps Engineer"}`,
			code:     http.StatusBadGateway,
			kind:     string(flow.KindSchemaViolation),
			calls:    1,
			detailOf: "roadmap",
		},
		{
			name:  "service failure",
			stub:  &stubCompleter{err: context.DeadlineExceeded},
			path:  "/api/flows/roadmap",
			body:  `{"profession": "DevOps Engineer"}`,
			code:  http.StatusServiceUnavailable,
			kind:  string(flow.KindServiceFailure),
			calls: 1,
		},
		{
			name: "unknown flow",
			stub: &stubCompleter{},
			path: "/api/flows/horoscope",
			body: `{}`,
			code: http.StatusNotFound,
			kind: "not_found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTestServer(t, tc.stub, Options{})
			rec := postJSON(srv, tc.path, tc.body)

			require.Equal(t, tc.code, rec.Code, rec.Body.String())
			e := decodeError(t, rec)
			assert.Equal(t, tc.kind, e.Kind)
			assert.NotEmpty(t, e.Message)
			assert.Equal(t, tc.calls, tc.stub.Calls())
			if tc.detailOf != "" {
				assert.Contains(t, strings.Join(e.Details, " "), tc.detailOf)
			}
		})
	}
}

func TestAPIRateLimit(t *testing.T) {
	stub := &stubCompleter{response: roadmapResponse}
	srv, m := newTestServer(t, stub, Options{RatePerMinute: 1, RateBurst: 2})

	for i := 0; i < 2; i++ {
		rec := postJSON(srv, "/api/flows/roadmap", `{"profession": "DevOps Engineer"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(srv, "/api/flows/roadmap", `{"profession": "DevOps Engineer"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Kind)
	assert.Equal(t, 2, stub.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestAPIListFlows(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{}, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/flows", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Flows []apiFlow `json:"flows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Flows, 10)
	assert.Equal(t, flows.DashboardSummaryName, body.Flows[0].Name)
	assert.Equal(t, "resumeText", body.Flows[0].Fields[0].Name)
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{}, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `careercraft_http_requests_total{code="200",route="GET /healthz"} 1`)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv, _ := newTestServer(t, &stubCompleter{}, Options{Logger: zap.New(core)})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "GET /healthz", fields["route"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestRecovererReturns500(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := &Server{logger: zap.New(core)}

	h := withRequestID(s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("handler panic").Len())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
