package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/insurance-clause-qa/internal/config"
	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

type ingestFake struct {
	err error
}

func (f ingestFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	category, err := domain.ParseCategoryFromIdentifier(filename)
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: "doc-1", Filename: filename, MimeType: mimeType, Category: category, Status: domain.StatusUploaded}, nil
}

type answererFake struct {
	err  error
	last domain.QueryRequest
}

func (f *answererFake) Answer(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.QueryResponse{
		Answer:             "- 보장 여부: 보장됩니다",
		Question:           req.Question,
		ClassifiedCategory: domain.CategoryVehicle,
		ResolvedCategory:   domain.CategoryVehicle,
		UsedFilter:         true,
	}, nil
}

type classifierFake struct{}

func (classifierFake) Classify(context.Context, string) domain.ClassificationResult {
	return domain.ClassificationResult{Category: domain.CategoryFire, Source: domain.SourceKeyword}
}

type documentsFake struct {
	err error
}

func (f documentsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Filename: "010_자동차보험_가공.xml", Status: domain.StatusReady, SegmentCount: 12}, nil
}

type evaluationsFake struct {
	records []domain.EvaluationRecord
	window  domain.TimeRange
}

func (f *evaluationsFake) List(_ context.Context, window domain.TimeRange) ([]domain.EvaluationRecord, error) {
	f.window = window
	return f.records, nil
}

func (f *evaluationsFake) Statistics(_ context.Context, window domain.TimeRange) (domain.EvaluationStatistics, error) {
	f.window = window
	return domain.ComputeStatistics(f.records), nil
}

func sampleEvaluations() []domain.EvaluationRecord {
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return []domain.EvaluationRecord{{
		ID:        "e-1",
		Timestamp: at,
		Question:  "음주운전 사고도 보상되나요?",
		Answer:    "- 보장 여부: 보장되지 않습니다",
		Metrics: &domain.MetricsRecord{
			TotalTime:   2 * time.Second,
			TotalTokens: 420,
			UsedFilter:  true,
		},
	}}
}

func newTestRouter(cfg config.Config, svc Services) http.Handler {
	return NewRouter(cfg, svc).Handler()
}
