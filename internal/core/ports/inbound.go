package ports

import (
	"context"
	"io"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// QuestionAnswerer is the query entrypoint consumed by HTTP, MCP and CLI surfaces.
type QuestionAnswerer interface {
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}

// QuestionClassifier resolves a question to exactly one category.
type QuestionClassifier interface {
	Classify(ctx context.Context, question string) domain.ClassificationResult
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// EvaluationReader serves the aggregate evaluation log.
type EvaluationReader interface {
	List(ctx context.Context, window domain.TimeRange) ([]domain.EvaluationRecord, error)
	Statistics(ctx context.Context, window domain.TimeRange) (domain.EvaluationStatistics, error)
}
