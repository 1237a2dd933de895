package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

type ingestRepoFake struct {
	created      *domain.Document
	err          error
	statusID     string
	status       domain.DocumentStatus
	statusReason string
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}
func (f *ingestRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, reason string) error {
	f.statusID, f.status, f.statusReason = id, status, reason
	return nil
}
func (f *ingestRepoFake) SaveSegmentCount(context.Context, string, int) error {
	return errors.New("not implemented")
}

type ingestStorageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *ingestStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *ingestStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type ingestQueueFake struct {
	documentID string
	err        error
}

func (f *ingestQueueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *ingestQueueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func TestIngestUploadSuccess(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &ingestStorageFake{}
	queue := &ingestQueueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "uploads/010_자동차보험_가공.xml", "application/xml", bytes.NewBufferString("<cn>제1편</cn>"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Category != domain.CategoryVehicle {
		t.Fatalf("category = %s", doc.Category)
	}
	if doc.Filename != "010_자동차보험_가공.xml" {
		t.Fatalf("filename = %s", doc.Filename)
	}
	if repo.created == nil || queue.documentID != doc.ID {
		t.Fatalf("expected create and publish for %s", doc.ID)
	}
	if !strings.HasSuffix(storage.savedKey, "_010_자동차보험_가공.xml") {
		t.Fatalf("storage key lost the identifier: %s", storage.savedKey)
	}
}

func TestIngestUploadRejectsMalformedIdentifier(t *testing.T) {
	storage := &ingestStorageFake{}
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, storage, &ingestQueueFake{})

	_, err := uc.Upload(context.Background(), "report 1.txt", "text/plain", bytes.NewBufferString("hello"))
	if !domain.IsKind(err, domain.ErrIdentifierParse) {
		t.Fatalf("expected identifier parse error, got %v", err)
	}
	if storage.savedKey != "" {
		t.Fatalf("storage must not be touched on rejected identifiers")
	}
}

func TestIngestUploadQueueErrorMarksDocumentFailed(t *testing.T) {
	repo := &ingestRepoFake{}
	uc := NewIngestDocumentUseCase(repo, &ingestStorageFake{}, &ingestQueueFake{err: errors.New("queue down")})

	_, err := uc.Upload(context.Background(), "003_화재보험_가공.xml", "application/xml", bytes.NewBufferString("x"))
	if err == nil || !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if repo.created == nil || repo.statusID != repo.created.ID {
		t.Fatalf("expected status update for the created document")
	}
	if repo.status != domain.StatusFailed || repo.statusReason != "queue down" {
		t.Fatalf("status = %s (%q)", repo.status, repo.statusReason)
	}
}

func TestIngestUploadRejectsEmptyBody(t *testing.T) {
	storage := &ingestStorageFake{}
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, storage, &ingestQueueFake{})

	_, err := uc.Upload(context.Background(), "004_질병보험_가공.xml", "application/xml", bytes.NewReader(nil))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if storage.savedKey != "" {
		t.Fatalf("empty uploads must not be stored")
	}
}

func TestIngestUploadRejectsUnsupportedExtension(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &ingestStorageFake{}, &ingestQueueFake{}).
		WithAllowedExtensions(".xml", ".PDF")

	_, err := uc.Upload(context.Background(), "005_상해보험_가공.docx", "application/octet-stream", bytes.NewBufferString("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Upload(context.Background(), "005_상해보험_가공.pdf", "application/pdf", bytes.NewBufferString("%PDF")); err != nil {
		t.Fatalf("extension match must be case-insensitive, got %v", err)
	}
}

func TestSanitizeFilenameKeepsHangul(t *testing.T) {
	if got := sanitizeFilename("a b/001_상해보험_가공 (1).xml"); got != "001_상해보험_가공__1_.xml" {
		t.Fatalf("sanitizeFilename() = %q", got)
	}
}
