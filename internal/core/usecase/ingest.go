package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// IngestDocumentUseCase accepts uploads for asynchronous segmentation. The
// worker side is ProcessDocumentUseCase.
type IngestDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	queue      ports.MessageQueue
	extensions map[string]struct{}
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// WithAllowedExtensions restricts uploads to the formats the worker can
// decode. Without it every extension is accepted.
func (uc *IngestDocumentUseCase) WithAllowedExtensions(exts ...string) *IngestDocumentUseCase {
	uc.extensions = make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		uc.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return uc
}

// Upload stores a clause document and schedules it for segmentation. The filename
// is the document identifier and must carry a category.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	identifier := filepath.Base(filename)
	category, err := domain.ParseCategoryFromIdentifier(identifier)
	if err != nil {
		slog.Warn("ingest_identifier_rejected", "identifier", identifier, "error", err)
		return nil, err
	}
	if err := uc.checkExtension(identifier); err != nil {
		return nil, err
	}

	content := bufio.NewReader(body)
	if _, err := content.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("%s is empty", identifier))
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(identifier))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, content); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    identifier,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Category:    category,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		// The row stays visible as failed so GET /v1/documents/{id} explains it.
		if statusErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); statusErr != nil {
			slog.Warn("ingest_status_update_failed", "document_id", doc.ID, "error", statusErr)
		}
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func (uc *IngestDocumentUseCase) checkExtension(identifier string) error {
	if uc.extensions == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(identifier))
	if _, ok := uc.extensions[ext]; ok {
		return nil
	}
	return domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("unsupported file type %q", ext))
}

// sanitizeFilename keeps letters of any script so Korean identifiers survive.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
