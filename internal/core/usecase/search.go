package usecase

import (
	"context"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// EmbeddingSearcher embeds the question and runs a vector search.
type EmbeddingSearcher struct {
	embedder ports.Embedder
	store    ports.VectorStore
}

func NewEmbeddingSearcher(embedder ports.Embedder, store ports.VectorStore) *EmbeddingSearcher {
	return &EmbeddingSearcher{embedder: embedder, store: store}
}

func (s *EmbeddingSearcher) SearchText(ctx context.Context, question string, limit int, filter domain.SearchFilter) ([]domain.ScoredSegment, error) {
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExternalService, "embed query", err)
	}
	results, err := s.store.Search(ctx, vector, limit, filter)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExternalService, "vector search", err)
	}
	return results, nil
}
