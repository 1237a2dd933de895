package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "bad gateway", err: &StatusError{StatusCode: http.StatusBadGateway}, want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "too many requests", err: &StatusError{StatusCode: http.StatusTooManyRequests}, want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "bad request", err: &StatusError{StatusCode: http.StatusBadRequest}, want: ErrorClassification{}},
		{name: "wrapped not found", err: fmt.Errorf("search: %w", &StatusError{StatusCode: http.StatusNotFound}), want: ErrorClassification{}},
		{name: "canceled", err: context.Canceled, want: ErrorClassification{}},
		{name: "circuit open", err: gobreaker.ErrOpenState, want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "decode failure", err: errors.New("decode embed response"), want: ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyHTTP(tc.err); got != tc.want {
				t.Fatalf("ClassifyHTTP() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSurfaceMapsToDomainKinds(t *testing.T) {
	if err := Surface(ClassifyHTTP, "op", nil); err != nil {
		t.Fatalf("nil must stay nil, got %v", err)
	}
	if !domain.IsKind(Surface(ClassifyHTTP, "ollama generate", &StatusError{StatusCode: 503}), domain.ErrTemporary) {
		t.Fatalf("503 must be temporary")
	}
	if !domain.IsKind(Surface(ClassifyHTTP, "qdrant search", gobreaker.ErrOpenState), domain.ErrTemporary) {
		t.Fatalf("open circuit must be temporary")
	}
	rejected := Surface(ClassifyHTTP, "qdrant search", &StatusError{StatusCode: 400})
	if !domain.IsKind(rejected, domain.ErrExternalService) || domain.IsKind(rejected, domain.ErrTemporary) {
		t.Fatalf("400 must be an external service error, got %v", rejected)
	}
	if !HasStatus(rejected, 400) {
		t.Fatalf("status must survive wrapping")
	}
	if got := Surface(ClassifyHTTP, "op", context.Canceled); !errors.Is(got, context.Canceled) || domain.IsKind(got, domain.ErrExternalService) {
		t.Fatalf("cancellation must pass through, got %v", got)
	}
	already := domain.WrapError(domain.ErrTemporary, "inner", errors.New("x"))
	if Surface(ClassifyHTTP, "outer", already) != already {
		t.Fatalf("classified errors must not be wrapped twice")
	}
}

func TestNewStatusErrorTruncatesBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusInternalServerError,
		Status:     "500 Internal Server Error",
		Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", 5000))),
	}
	err := NewStatusError("qdrant", "upsert", resp)
	if len(err.Body) != statusBodyLimit {
		t.Fatalf("body length = %d, want %d", len(err.Body), statusBodyLimit)
	}
	if !strings.HasPrefix(err.Error(), "qdrant upsert status: 500 Internal Server Error") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestBackoffSchedule(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     350 * time.Millisecond,
		RetryMultiplier:     2,
	}.normalize()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := cfg.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	got := Config{RetryInitialBackoff: time.Second, RetryMaxBackoff: time.Millisecond, BreakerFailureRatio: 2}.normalize()
	def := DefaultConfig()
	if got.RetryMaxAttempts != def.RetryMaxAttempts || got.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if got.RetryMaxBackoff != time.Second {
		t.Fatalf("max backoff must not be below initial, got %v", got.RetryMaxBackoff)
	}
}
