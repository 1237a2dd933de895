package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

type llmFake struct {
	classify    string
	classifyErr error
	answer      string
	answerErr   error
	prompts     []string
}

func (f *llmFake) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if strings.Contains(prompt, "[보험유형 목록]") {
		return f.classify, f.classifyErr
	}
	return f.answer, f.answerErr
}

type searchCall struct {
	filter domain.SearchFilter
	limit  int
}

type searcherFake struct {
	byCategory map[domain.Category][]domain.ScoredSegment
	unfiltered []domain.ScoredSegment
	err        error
	calls      []searchCall
}

func (f *searcherFake) SearchText(_ context.Context, _ string, limit int, filter domain.SearchFilter) ([]domain.ScoredSegment, error) {
	f.calls = append(f.calls, searchCall{filter: filter, limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	if filter.Restricted() {
		return f.byCategory[filter.Category], nil
	}
	return f.unfiltered, nil
}

type embedderFake struct {
	mu      sync.Mutex
	vectors [][]float32
	err     error
	calls   int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1}, f.err
}

type storeFake struct {
	mu       sync.Mutex
	upserted []domain.Segment
	err      error
}

func (f *storeFake) Upsert(_ context.Context, segments []domain.Segment, _ [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, segments...)
	return nil
}

func (f *storeFake) Search(context.Context, []float32, int, domain.SearchFilter) ([]domain.ScoredSegment, error) {
	return nil, nil
}

// segmenterFake emits one segment per non-empty line, tagged with the identifier's category.
type segmenterFake struct{}

func (segmenterFake) Segment(rawText, identifier string) ([]domain.Segment, error) {
	category, err := domain.ParseCategoryFromIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	var out []domain.Segment
	for _, line := range strings.Split(rawText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, domain.Segment{Content: line, Category: category, SourceRef: identifier})
		}
	}
	return out, nil
}

type graphFake struct {
	err   error
	calls int
}

func (f *graphFake) UpsertHierarchy(context.Context, []domain.Segment) error {
	f.calls++
	return f.err
}

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	cur := c.t
	c.t = c.t.Add(c.step)
	return cur
}

func scored(category domain.Category, content string, score float64, levels ...string) domain.ScoredSegment {
	seg := domain.Segment{Content: content, Category: category}
	for i, title := range levels {
		seg.SetLevel(i+1, domain.StringPtr(title))
	}
	return domain.ScoredSegment{Segment: seg, Score: score}
}
