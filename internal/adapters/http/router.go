package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/insurance-clause-qa/internal/config"
	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/export"
)

const (
	maxQueryBodyBytes  = 1 << 20
	maxUploadBodyBytes = 64 << 20
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HTTPMetrics is the observability hook the router mounts when present.
type HTTPMetrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// HealthReporter exposes the outbound breaker states for /healthz.
type HealthReporter interface {
	BreakerStates() map[string]string
}

type Services struct {
	Ingestor    ports.DocumentIngestor
	Answerer    ports.QuestionAnswerer
	Classifier  ports.QuestionClassifier
	Documents   ports.DocumentReader
	Evaluations ports.EvaluationReader
	Metrics     HTTPMetrics
	Health      HealthReporter
}

type Router struct {
	cfg       config.Config
	svc       Services
	validator *requestValidator
}

func NewRouter(cfg config.Config, svc Services) *Router {
	validator, err := newRequestValidator()
	if err != nil {
		panic(fmt.Sprintf("embedded openapi document is invalid: %v", err))
	}
	return &Router{cfg: cfg, svc: svc, validator: validator}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.svc.Metrics != nil {
		mux.Handle("GET /metrics", rt.svc.Metrics.Handler())
	}
	mux.HandleFunc("POST /v1/qa/query", rt.askQuestion)
	mux.HandleFunc("POST /v1/classify", rt.classifyQuestion)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	mux.HandleFunc("GET /v1/evaluations", rt.listEvaluations)
	mux.HandleFunc("GET /v1/evaluations/stats", rt.evaluationStatistics)
	mux.HandleFunc("GET /v1/evaluations/export.xlsx", rt.exportEvaluationsXLSX)
	mux.HandleFunc("GET /v1/evaluations/export.json", rt.exportEvaluationsJSON)

	var handler http.Handler = rt.validator.middleware(mux)
	handler = apiKeyMiddleware(handler, rt.cfg.APIKey)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.BackpressureWait())
	if rt.svc.Metrics != nil {
		handler = rt.svc.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

// healthz answers 200 even with an open breaker; the status reads degraded.
func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	body := struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies,omitempty"`
	}{Status: "ok"}
	if rt.svc.Health != nil {
		body.Dependencies = rt.svc.Health.BreakerStates()
		for _, state := range body.Dependencies {
			if state != "closed" {
				body.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Answerer == nil {
		writeError(w, http.StatusNotImplemented, "question answering is not configured")
		return
	}
	var req domain.QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := rt.requestContext(r.Context())
	defer cancel()

	resp, err := rt.svc.Answerer.Answer(ctx, req)
	if err != nil {
		rt.writeDomainError(w, r, "answer question", err)
		return
	}
	annotateRequest(r.Context(),
		"category", string(resp.ResolvedCategory),
		"classification_source", string(resp.ClassificationSource),
		"fallback", resp.FallbackActivated,
		"segments", len(resp.Segments),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) classifyQuestion(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Classifier == nil {
		writeError(w, http.StatusNotImplemented, "classification is not configured")
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx, cancel := rt.requestContext(r.Context())
	defer cancel()
	result := rt.svc.Classifier.Classify(ctx, req.Question)
	annotateRequest(r.Context(), "category", string(result.Category), "classification_source", string(result.Source))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Ingestor == nil {
		writeError(w, http.StatusNotImplemented, "document ingestion is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodyBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.svc.Ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeDomainError(w, r, "upload document", err)
		return
	}
	annotateRequest(r.Context(), "document_id", doc.ID, "category", string(doc.Category))
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Documents == nil {
		writeError(w, http.StatusNotImplemented, "document registry is not configured")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.svc.Documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listEvaluations(w http.ResponseWriter, r *http.Request) {
	records, _, ok := rt.loadEvaluations(w, r, false)
	if !ok {
		return
	}
	if records == nil {
		records = []domain.EvaluationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (rt *Router) evaluationStatistics(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Evaluations == nil {
		writeError(w, http.StatusNotImplemented, "evaluation log is not configured")
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		rt.writeDomainError(w, r, "parse window", err)
		return
	}
	stats, err := rt.svc.Evaluations.Statistics(r.Context(), window)
	if err != nil {
		rt.writeDomainError(w, r, "evaluation statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportEvaluationsXLSX(w http.ResponseWriter, r *http.Request) {
	records, stats, ok := rt.loadEvaluations(w, r, true)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records, stats); err != nil {
		rt.writeDomainError(w, r, "export xlsx", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="evaluation_log.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) exportEvaluationsJSON(w http.ResponseWriter, r *http.Request) {
	records, stats, ok := rt.loadEvaluations(w, r, true)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, records, stats); err != nil {
		rt.writeDomainError(w, r, "export json", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="evaluation_log.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) loadEvaluations(w http.ResponseWriter, r *http.Request, withStats bool) ([]domain.EvaluationRecord, domain.EvaluationStatistics, bool) {
	var stats domain.EvaluationStatistics
	if rt.svc.Evaluations == nil {
		writeError(w, http.StatusNotImplemented, "evaluation log is not configured")
		return nil, stats, false
	}
	window, err := parseWindow(r)
	if err != nil {
		rt.writeDomainError(w, r, "parse window", err)
		return nil, stats, false
	}
	records, err := rt.svc.Evaluations.List(r.Context(), window)
	if err != nil {
		rt.writeDomainError(w, r, "list evaluations", err)
		return nil, stats, false
	}
	if withStats {
		stats = domain.ComputeStatistics(records)
	}
	return records, stats, true
}

func (rt *Router) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if rt.cfg.APIRequestTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, rt.cfg.APIRequestTimeout)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "operation", op, "code", code, "error", err)
	}
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: message, Code: code, RequestID: requestIDFromContext(r.Context())})
}

// parseWindow binds the optional from/to query parameters (RFC 3339 or date).
func parseWindow(r *http.Request) (domain.TimeRange, error) {
	var from, to *time.Time
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "from", query, &from); err != nil {
		return domain.TimeRange{}, domain.WrapError(domain.ErrInvalidInput, "parse from", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "to", query, &to); err != nil {
		return domain.TimeRange{}, domain.WrapError(domain.ErrInvalidInput, "parse to", err)
	}

	var window domain.TimeRange
	if from != nil {
		window.From = from.UTC()
	}
	if to != nil {
		window.To = to.UTC()
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return domain.TimeRange{}, domain.WrapError(domain.ErrInvalidInput, "parse window", errors.New("to precedes from"))
	}
	return window, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
