package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const namespace = "icqa"

// HTTPServerMetrics covers request traffic plus the per-question QA pipeline.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	qaQuestionsTotal      *prometheus.CounterVec
	qaStageDuration       *prometheus.HistogramVec
	qaRetrievedSegments   prometheus.Histogram
	qaFallbackTotal       prometheus.Counter
	qaFilteredSearchTotal prometheus.Counter
	qaTokensTotal         *prometheus.CounterVec

	*ResilienceMetrics
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	qaQuestionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "questions_total",
			Help:      "Answered questions by classified category and classification source.",
		},
		[]string{"service", "category", "source"},
	)
	qaStageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "stage"},
	)
	qaRetrievedSegments := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "qa",
			Name:        "retrieved_segments",
			Help:        "Distribution of retrieved segments per question.",
			Buckets:     []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	qaFallbackTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "qa",
			Name:        "fallback_total",
			Help:        "Questions whose category-filtered search came back empty and fell back to the full corpus.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	qaFilteredSearchTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "qa",
			Name:        "filtered_search_total",
			Help:        "Questions answered from a category-filtered search.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	qaTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Estimated token usage by stage and direction.",
		},
		[]string{"service", "stage", "direction"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		qaQuestionsTotal,
		qaStageDuration,
		qaRetrievedSegments,
		qaFallbackTotal,
		qaFilteredSearchTotal,
		qaTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		service:               service,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		qaQuestionsTotal:      qaQuestionsTotal,
		qaStageDuration:       qaStageDuration,
		qaRetrievedSegments:   qaRetrievedSegments,
		qaFallbackTotal:       qaFallbackTotal,
		qaFilteredSearchTotal: qaFilteredSearchTotal,
		qaTokensTotal:         qaTokensTotal,
		ResilienceMetrics:     newResilienceMetrics(registry, service),
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// ObserveQuery records one finalized question.
func (m *HTTPServerMetrics) ObserveQuery(record domain.MetricsRecord, source domain.ClassificationSource) {
	category := string(record.ClassifiedCategory)
	if category == "" {
		category = "unknown"
	}
	if source == "" {
		source = "unknown"
	}
	m.qaQuestionsTotal.WithLabelValues(m.service, category, string(source)).Inc()

	m.qaStageDuration.WithLabelValues(m.service, "classification").Observe(record.ClassificationTime.Seconds())
	m.qaStageDuration.WithLabelValues(m.service, "retrieval").Observe(record.RetrievalTime.Seconds())
	m.qaStageDuration.WithLabelValues(m.service, "generation").Observe(record.GenerationTime.Seconds())
	m.qaStageDuration.WithLabelValues(m.service, "total").Observe(record.TotalTime.Seconds())

	m.qaRetrievedSegments.Observe(float64(record.RetrievedDocsCount))
	if record.FallbackActivated {
		m.qaFallbackTotal.Inc()
	}
	if record.UsedFilter {
		m.qaFilteredSearchTotal.Inc()
	}

	m.addTokens("classification", "in", record.ClassificationTokens)
	m.addTokens("generation", "in", record.GenerationInputTokens)
	m.addTokens("generation", "out", record.GenerationOutputTokens)
}

func (m *HTTPServerMetrics) addTokens(stage, direction string, n int) {
	if n <= 0 {
		return
	}
	m.qaTokensTotal.WithLabelValues(m.service, stage, direction).Add(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
