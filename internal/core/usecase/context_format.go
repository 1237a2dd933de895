package usecase

import (
	"strings"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const (
	// ContextSeparator joins per-segment blocks.
	ContextSeparator = "\n\n---\n\n"
	// NoClausesMarker replaces an empty context so the prompt is never silently blank.
	NoClausesMarker = "no matching clauses found"
)

var levelLabels = [domain.HierarchyDepth]string{"[상위구조]", "[조]", "[하위구조]", "[세부조항]"}

// FormatContext renders segments, in order, as citation-ready blocks.
func FormatContext(segments []domain.ScoredSegment) string {
	if len(segments) == 0 {
		return NoClausesMarker
	}

	blocks := make([]string, 0, len(segments))
	for _, seg := range segments {
		blocks = append(blocks, formatBlock(seg.Segment))
	}
	return strings.Join(blocks, ContextSeparator)
}

func formatBlock(seg domain.Segment) string {
	var b strings.Builder
	if seg.Category != "" {
		b.WriteString("[보험종류] ")
		b.WriteString(string(seg.Category))
		b.WriteString("\n")
	}
	for i, level := range seg.Levels() {
		if level == nil || *level == "" {
			continue
		}
		b.WriteString(levelLabels[i])
		b.WriteString(" ")
		b.WriteString(*level)
		b.WriteString("\n")
	}
	b.WriteString("[조문 내용]\n")
	b.WriteString(seg.Content)
	return b.String()
}
