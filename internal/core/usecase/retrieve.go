package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// RetrievalOrchestrator runs a category-filtered search and falls back to one
// unfiltered search when the filter yields nothing. Result order is the searcher's.
type RetrievalOrchestrator struct {
	searcher ports.SegmentSearcher
}

func NewRetrievalOrchestrator(searcher ports.SegmentSearcher) *RetrievalOrchestrator {
	return &RetrievalOrchestrator{searcher: searcher}
}

func (o *RetrievalOrchestrator) Retrieve(ctx context.Context, question string, category domain.Category, topK int) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return domain.RetrievalResult{}, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("top_k must be positive"))
	}

	if category == "" {
		segments, err := o.search(ctx, question, topK, domain.SearchFilter{})
		if err != nil {
			return domain.RetrievalResult{}, err
		}
		return resultFrom(segments, category, false, false), nil
	}

	segments, err := o.search(ctx, question, topK, domain.SearchFilter{Category: category})
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	if len(segments) > 0 {
		return resultFrom(segments, category, true, false), nil
	}

	slog.Info("retrieval_fallback_activated", "category", category, "top_k", topK)
	segments, err = o.search(ctx, question, topK, domain.SearchFilter{})
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	return resultFrom(segments, category, false, true), nil
}

func (o *RetrievalOrchestrator) search(ctx context.Context, question string, topK int, filter domain.SearchFilter) ([]domain.ScoredSegment, error) {
	segments, err := o.searcher.SearchText(ctx, question, topK, filter)
	if err != nil {
		if domain.IsKind(err, domain.ErrExternalService) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrExternalService, "similarity search", err)
	}
	if len(segments) > topK {
		segments = segments[:topK]
	}
	return segments, nil
}

// resultFrom resolves the category from the top segment, or keeps the
// requested category when nothing was found.
func resultFrom(segments []domain.ScoredSegment, requested domain.Category, usedFilter, fallback bool) domain.RetrievalResult {
	result := domain.RetrievalResult{
		Segments:          segments,
		UsedFilter:        usedFilter,
		FallbackActivated: fallback,
		ResolvedCategory:  requested,
	}
	if top, ok := result.Top(); ok && top.Category != "" {
		result.ResolvedCategory = top.Category
	}
	return result
}
