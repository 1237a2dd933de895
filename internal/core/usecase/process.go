package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// ProcessDocumentUseCase turns a stored document into indexed segments.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	indexer   *SegmentIndexer
	extractor ports.TextExtractor
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	indexer *SegmentIndexer,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		indexer:   indexer,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveSegmentCount(ctx, documentID, count); err != nil {
		return fmt.Errorf("save segment count: %w", err)
	}
	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	return uc.indexer.Index(ctx, doc.Filename, text)
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}

// IndexObserver is notified about every indexed or rejected document.
type IndexObserver interface {
	ObserveIndexed(category domain.Category, segments int)
	ObserveIdentifierError()
}

// SegmentIndexer segments one document, embeds the leaves and stores them.
// The hierarchy graph is optional; its failures are logged, not returned.
type SegmentIndexer struct {
	segmenter ports.Segmenter
	embedder  ports.Embedder
	store     ports.VectorStore
	graph     ports.HierarchyGraph
	observer  IndexObserver
}

func NewSegmentIndexer(
	segmenter ports.Segmenter,
	embedder ports.Embedder,
	store ports.VectorStore,
	graph ports.HierarchyGraph,
	observer IndexObserver,
) *SegmentIndexer {
	return &SegmentIndexer{
		segmenter: segmenter,
		embedder:  embedder,
		store:     store,
		graph:     graph,
		observer:  observer,
	}
}

func (ix *SegmentIndexer) Index(ctx context.Context, identifier, text string) (int, error) {
	segments, err := ix.segmenter.Segment(text, identifier)
	if err != nil {
		if ix.observer != nil && domain.IsKind(err, domain.ErrIdentifierParse) {
			ix.observer.ObserveIdentifierError()
		}
		return 0, fmt.Errorf("segment document: %w", err)
	}

	contents := make([]string, 0, len(segments))
	for _, seg := range segments {
		contents = append(contents, seg.Content)
	}
	vectors, err := ix.embedder.Embed(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("embed segments: %w", err)
	}
	if len(vectors) != len(segments) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed segments",
			fmt.Errorf("vectors/segments mismatch: %d/%d", len(vectors), len(segments)),
		)
	}

	if err := ix.store.Upsert(ctx, segments, vectors); err != nil {
		return 0, fmt.Errorf("index segments in vector db: %w", err)
	}

	if ix.graph != nil {
		if err := ix.graph.UpsertHierarchy(ctx, segments); err != nil {
			slog.Warn("hierarchy_graph_upsert_failed", "identifier", identifier, "error", err)
		}
	}
	if ix.observer != nil {
		ix.observer.ObserveIndexed(segments[0].Category, len(segments))
	}
	return len(segments), nil
}
