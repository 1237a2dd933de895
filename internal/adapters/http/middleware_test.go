package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestAccessLogIncludesAnnotations(t *testing.T) {
	logs := captureLogs(t)
	handler := requestIDMiddleware(accessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotateRequest(r.Context(), "category", "자동차보험", "fallback", true)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/qa/query", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get(requestIDHeader))
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, logs.String())
	}
	if entry["msg"] != "http_request" || entry["level"] != "WARN" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["request_id"] != "req-42" || entry["category"] != "자동차보험" || entry["fallback"] != true {
		t.Fatalf("annotations missing: %v", entry)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["bytes"] != float64(2) {
		t.Fatalf("status or size not recorded: %v", entry)
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("a", 200))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "" || len(seen) > 128 {
		t.Fatalf("expected a generated request id, got %q", seen)
	}
}

func TestAnnotateOutsideAccessLogIsNoop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	annotateRequest(req.Context(), "k", "v")
}
