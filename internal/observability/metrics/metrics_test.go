package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func assertSample(t *testing.T, body, sample string) {
	t.Helper()
	if !strings.Contains(body, sample) {
		t.Fatalf("missing sample %q in:\n%s", sample, body)
	}
}

func TestObserveQueryRecordsPipelineCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.ObserveQuery(domain.MetricsRecord{
		ClassificationTime:     10 * time.Millisecond,
		RetrievalTime:          20 * time.Millisecond,
		GenerationTime:         30 * time.Millisecond,
		TotalTime:              60 * time.Millisecond,
		ClassificationTokens:   12,
		GenerationInputTokens:  300,
		GenerationOutputTokens: 40,
		RetrievedDocsCount:     3,
		FallbackActivated:      true,
		ClassifiedCategory:     domain.CategoryVehicle,
	}, domain.SourceKeyword)

	body := scrape(t, m.Handler())
	assertSample(t, body, `icqa_qa_questions_total{category="자동차보험",service="api",source="keyword"} 1`)
	assertSample(t, body, `icqa_qa_fallback_total{service="api"} 1`)
	assertSample(t, body, `icqa_qa_filtered_search_total{service="api"} 0`)
	assertSample(t, body, `icqa_llm_tokens_total{direction="out",service="api",stage="generation"} 40`)
	assertSample(t, body, `icqa_qa_retrieved_segments_count{service="api"} 1`)
}

func TestMiddlewareNormalizesDocumentPaths(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/abc", nil))

	assertSample(t, scrape(t, m.Handler()),
		`icqa_http_requests_total{method="GET",path="/v1/documents/{document_id}",service="api",status="404"} 1`)
}

func TestWorkerMetricsObserveIndexing(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartDocument()
	m.ObserveIndexed(domain.CategoryFire, 7)
	m.ObserveIndexed(domain.CategoryFire, 0)
	m.ObserveIdentifierError()
	m.FinishDocument(time.Second, nil)

	body := scrape(t, m.Handler())
	assertSample(t, body, `icqa_worker_segments_indexed_total{category="화재보험",service="worker"} 7`)
	assertSample(t, body, `icqa_worker_identifier_errors_total{service="worker"} 1`)
	assertSample(t, body, `icqa_worker_document_process_in_flight{service="worker"} 0`)
	assertSample(t, body, `icqa_worker_document_process_total{service="worker",status="success"} 1`)
}

func TestResilienceMetricsExposeBreakerState(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.RetryAttempted("ollama_generate")
	m.BreakerStateChanged("ollama_generate", "open")

	body := scrape(t, m.Handler())
	assertSample(t, body, `icqa_outbound_breaker_state{operation="ollama_generate",service="worker"} 2`)
	assertSample(t, body, `icqa_outbound_retries_total{operation="ollama_generate",service="worker"} 1`)
}
