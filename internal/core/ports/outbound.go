package ports

import (
	"context"
	"io"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

// DocumentRepository persists and reads ingestion registry state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveSegmentCount(ctx context.Context, id string, count int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts the raw hierarchical text of a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Segmenter turns one raw document into hierarchy-tagged leaf segments.
type Segmenter interface {
	Segment(rawText, identifier string) ([]domain.Segment, error)
}

// Embedder builds vectors for segments and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes segments and performs ranked similarity search.
type VectorStore interface {
	Upsert(ctx context.Context, segments []domain.Segment, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredSegment, error)
}

// SegmentSearcher is the text-in similarity search the retrieval orchestrator consumes.
type SegmentSearcher interface {
	SearchText(ctx context.Context, question string, limit int, filter domain.SearchFilter) ([]domain.ScoredSegment, error)
}

// LanguageModel issues one synchronous completion.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnswerJudge scores a generated answer. Implementations never return errors;
// failures surface as zero scores with an explanation.
type AnswerJudge interface {
	EvaluateAnswer(ctx context.Context, question, answer, context string) domain.JudgeScores
	EvaluateRagas(ctx context.Context, question, answer, context string, segments []domain.ScoredSegment) domain.RagasScores
}

// EvaluationLog is the append-only evaluation record sink.
type EvaluationLog interface {
	Append(ctx context.Context, record domain.EvaluationRecord) error
	List(ctx context.Context, window domain.TimeRange) ([]domain.EvaluationRecord, error)
}

// HierarchyGraph mirrors the clause hierarchy of indexed segments.
type HierarchyGraph interface {
	UpsertHierarchy(ctx context.Context, segments []domain.Segment) error
}
