package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

// WorkerMetrics covers document segmentation and indexing.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	processTotal     *prometheus.CounterVec
	processDuration  *prometheus.HistogramVec
	processInFlight  prometheus.Gauge
	segmentsIndexed  *prometheus.CounterVec
	identifierErrors prometheus.Counter

	*ResilienceMetrics
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "document_process_in_flight",
			Help:        "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	segmentsIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "segments_indexed_total",
			Help:      "Indexed clause segments by insurance category.",
		},
		[]string{"service", "category"},
	)
	identifierErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "identifier_errors_total",
			Help:        "Documents rejected because the identifier names no known category.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, segmentsIndexed, identifierErrors)

	return &WorkerMetrics{
		registry:          registry,
		service:           service,
		processTotal:      processTotal,
		processDuration:   processDuration,
		processInFlight:   processInFlight,
		segmentsIndexed:   segmentsIndexed,
		identifierErrors:  identifierErrors,
		ResilienceMetrics: newResilienceMetrics(registry, service),
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(m.service, status).Inc()
	m.processDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveIndexed(category domain.Category, segments int) {
	if segments <= 0 {
		return
	}
	m.segmentsIndexed.WithLabelValues(m.service, string(category)).Add(float64(segments))
}

func (m *WorkerMetrics) ObserveIdentifierError() {
	m.identifierErrors.Inc()
}
