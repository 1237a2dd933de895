package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// CategoryClassifier maps a question to one category: model vote first, then the
// keyword precedence table, then the default category. It never fails.
type CategoryClassifier struct {
	llm ports.LanguageModel
}

func NewCategoryClassifier(llm ports.LanguageModel) *CategoryClassifier {
	return &CategoryClassifier{llm: llm}
}

func (c *CategoryClassifier) Classify(ctx context.Context, question string) domain.ClassificationResult {
	if strings.TrimSpace(question) == "" {
		return domain.ClassificationResult{Category: domain.DefaultCategory, Source: domain.SourceDefault}
	}

	candidate := c.modelCandidate(ctx, question)
	result := domain.ClassificationResult{Category: domain.DefaultCategory, Source: domain.SourceDefault, RawResponse: candidate}
	if category, ok := domain.ParseCategory(candidate); ok {
		result.Category, result.Source = category, domain.SourceModel
	} else if category, ok := domain.MatchKeywordCategory(question); ok {
		result.Category, result.Source = category, domain.SourceKeyword
	}
	slog.Debug("classification_resolved", "category", result.Category, "source", result.Source)
	return result
}

func (c *CategoryClassifier) modelCandidate(ctx context.Context, question string) string {
	if c.llm == nil {
		return ""
	}
	resp, err := c.llm.Complete(ctx, buildClassificationPrompt(question))
	if err != nil {
		slog.Warn("classification_model_failed", "error", err)
		return ""
	}
	return firstNonEmptyLine(resp)
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
