package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/extractor/xmlclause"
)

// Decoder turns raw file bytes into clause text.
type Decoder interface {
	Decode(filename string, raw []byte) (string, error)
}

// Router picks a decoder by file extension and NFC-normalizes its output.
type Router struct {
	storage  ports.ObjectStorage
	decoders map[string]Decoder
}

func NewRouter(storage ports.ObjectStorage) *Router {
	return &Router{
		storage: storage,
		decoders: map[string]Decoder{
			".xml": xmlclause.Decoder{},
			".pdf": pdf.Decoder{},
			".txt": plaintext.Decoder{},
			".md":  plaintext.Decoder{},
		},
	}
}

// SupportedExtensions lists the extensions Extract can decode.
func (r *Router) SupportedExtensions() []string {
	out := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		out = append(out, ext)
	}
	return out
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	decoder, ok := r.decoders[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported file type %q", ext))
	}

	reader, err := r.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	text, err := decoder.Decode(doc.Filename, raw)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", err)
	}
	return norm.NFC.String(text), nil
}
