package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTraceMiddlewareKeepsCallerTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-ask-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", nil)
	req.Header.Set(traceHeader, "trace-ask-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-ask-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareAssignsTraceID(t *testing.T) {
	var seen string
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if seen == "" || rr.Header().Get(traceHeader) != seen {
		t.Fatalf("trace id = %q, header = %q", seen, rr.Header().Get(traceHeader))
	}
}

func TestTraceIDContextRoundTrip(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("TraceIDFromContext(empty) = %q", got)
	}
}

func TestLoggingMiddlewareRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/ask", nil))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "status=502", "bytes=8", "path=/v1/ask"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %q", out, want)
		}
	}
}

func TestLoggingMiddlewareIncludesQuestionID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(QuestionIDHeader, "q-42")
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/ask", nil))

	if out := buf.String(); !strings.Contains(out, "question_id=q-42") {
		t.Fatalf("log line %q missing question id", out)
	}
}

func TestRecoverMiddlewareReturns500(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := RecoverMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("chart renderer exploded")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error_code":"INTERNAL"`) {
		t.Fatalf("body = %q", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "chart renderer exploded") {
		t.Fatalf("panic not logged: %q", buf.String())
	}
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/charts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := MetricsMiddleware(mux)

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /v1/charts/{id}", "404")
	before := testutil.ToFloat64(counter)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/charts/abc", nil))
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("http_requests_total = %v, want %v", got, before+1)
	}
}
