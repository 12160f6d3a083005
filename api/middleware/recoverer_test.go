package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/logger"
)

func TestRecovererLogsAndReturns500(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	h := RequestID(logg)(Logging(logg)(Recoverer(logg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("expected request id to be echoed")
	}
	logs := buf.String()
	for _, want := range []string{"panic.recovered", "request.complete", `"status":500`, "req-123"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %q in logs: %s", want, logs)
		}
	}
}

func TestStatusRecorderFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}
	var w http.ResponseWriter = sr
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("status recorder must implement http.Flusher")
	}
	_, _ = w.Write([]byte("data: 1\n\n"))
	f.Flush()
	if !rec.Flushed || sr.status != http.StatusOK {
		t.Fatalf("expected flushed 200 stream, got flushed=%v status=%d", rec.Flushed, sr.status)
	}
}

func TestRecovererLeavesStartedStreamAlone(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	h := Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("event: slides\ndata: {}\n\n"))
		panic("stream broke")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/carousel/stream", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected original 200 to stand, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Fatalf("error envelope must not be appended to a stream: %q", rec.Body.String())
	}
	if !strings.Contains(buf.String(), `"response_started":true`) {
		t.Fatalf("expected panic to be logged: %s", buf.String())
	}
}

func TestRecovererRepanicsAbortHandler(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seen = w.Header().Get("X-Request-Id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "bad id\nwith newline")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-Id")
	if got == "" || strings.ContainsAny(got, " \n") || got != seen {
		t.Fatalf("expected a freshly minted request id, got %q", got)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected uuid request id, got %q: %v", got, err)
	}
}
