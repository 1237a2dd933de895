package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// BatchOutcome is the per-document result of a batch ingest.
type BatchOutcome struct {
	Identifier string `json:"identifier"`
	Segments   int    `json:"segments"`
	Err        error  `json:"-"`
}

// BatchIngestUseCase indexes many documents with bounded parallelism. A failing
// document is reported in its outcome and never aborts the batch.
type BatchIngestUseCase struct {
	extractor ports.TextExtractor
	indexer   *SegmentIndexer
	workers   int
}

func NewBatchIngestUseCase(extractor ports.TextExtractor, indexer *SegmentIndexer, workers int) *BatchIngestUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &BatchIngestUseCase{extractor: extractor, indexer: indexer, workers: workers}
}

// IngestAll returns outcomes in input order.
func (uc *BatchIngestUseCase) IngestAll(ctx context.Context, docs []*domain.Document) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, doc := range docs {
		g.Go(func() error {
			outcomes[i] = uc.ingestOne(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (uc *BatchIngestUseCase) ingestOne(ctx context.Context, doc *domain.Document) BatchOutcome {
	outcome := BatchOutcome{Identifier: doc.Filename}
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		outcome.Err = fmt.Errorf("extract text: %w", err)
		slog.Warn("batch_ingest_failed", "identifier", doc.Filename, "error", outcome.Err)
		return outcome
	}

	count, err := uc.indexer.Index(ctx, doc.Filename, text)
	if err != nil {
		outcome.Err = err
		slog.Warn("batch_ingest_failed", "identifier", doc.Filename, "error", err)
		return outcome
	}
	outcome.Segments = count
	slog.Info("batch_ingest_indexed", "identifier", doc.Filename, "segments", count)
	return outcome
}
