package chunking

import (
	"errors"
	"regexp"
	"strings"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

type Segmenter struct {
	// MaxContentRunes splits overly long leaves into consecutive parts sharing
	// one hierarchy path. Zero disables splitting.
	MaxContentRunes int
	Overlap         int
}

func NewSegmenter(maxContentRunes, overlap int) *Segmenter {
	if maxContentRunes < 0 {
		maxContentRunes = 0
	}
	if overlap < 0 {
		overlap = 0
	}
	if maxContentRunes > 0 && overlap >= maxContentRunes {
		overlap = maxContentRunes / 4
	}
	return &Segmenter{
		MaxContentRunes: maxContentRunes,
		Overlap:         overlap,
	}
}

// Segment converts one raw document into ordered leaf segments. It fails only when
// the identifier carries no category or the document has no text at all.
func (s *Segmenter) Segment(rawText, identifier string) ([]domain.Segment, error) {
	category, err := domain.ParseCategoryFromIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	text := NormalizeText(rawText)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "segment document", errors.New("document has no text: "+identifier))
	}

	grammar := GrammarFor(category)
	var path [domain.HierarchyDepth]*string
	segments := make([]domain.Segment, 0, 32)

	emit := func(path [domain.HierarchyDepth]*string, content string) {
		for _, part := range s.splitLong(content) {
			seg := domain.Segment{
				Content:   part,
				Category:  category,
				SourceRef: identifier,
			}
			for depth, title := range path {
				seg.SetLevel(depth+1, title)
			}
			segments = append(segments, seg)
		}
	}
	descend(text, grammar.Levels, 0, path, emit)

	if len(segments) == 0 {
		segments = append(segments, domain.Segment{
			Content:   text,
			Category:  category,
			SourceRef: identifier,
		})
	}
	return segments, nil
}

// descend splits body on the marker at depth and recurses into every titled body.
// A level without markers leaves its title nil and hands the body to the next level,
// so a body that matches nothing further is emitted whole with deeper levels nil.
func descend(
	body string,
	levels []*regexp.Regexp,
	depth int,
	path [domain.HierarchyDepth]*string,
	emit func([domain.HierarchyDepth]*string, string),
) {
	if depth == len(levels) {
		if content := strings.TrimSpace(body); content != "" {
			emit(path, content)
		}
		return
	}

	for _, part := range splitWithPattern(body, levels[depth]) {
		next := path
		next[depth] = part.title
		descend(part.body, levels, depth+1, next, emit)
	}
}

func (s *Segmenter) splitLong(content string) []string {
	runes := []rune(content)
	if s.MaxContentRunes <= 0 || len(runes) <= s.MaxContentRunes {
		return []string{content}
	}

	step := s.MaxContentRunes - s.Overlap
	if step <= 0 {
		step = s.MaxContentRunes
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.MaxContentRunes
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[start:end]))
		if part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// NormalizeText trims every line and drops blank ones so markers sit at line starts.
func NormalizeText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
