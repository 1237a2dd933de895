package domain

// SearchFilter restricts similarity search; a zero Category means the full corpus.
type SearchFilter struct {
	Category Category
}

func (f SearchFilter) Restricted() bool {
	return f.Category != ""
}

type ScoredSegment struct {
	Segment
	Score float64 `json:"score"`
}

type ClassificationSource string

const (
	SourceModel   ClassificationSource = "model"
	SourceKeyword ClassificationSource = "keyword"
	SourceDefault ClassificationSource = "default"
)

type ClassificationResult struct {
	Category Category             `json:"category"`
	Source   ClassificationSource `json:"source"`
	// RawResponse is the model's first non-empty line, kept for token accounting.
	RawResponse string `json:"-"`
}

type RetrievalResult struct {
	Segments          []ScoredSegment `json:"segments"`
	UsedFilter        bool            `json:"used_filter"`
	FallbackActivated bool            `json:"fallback_activated"`
	ResolvedCategory  Category        `json:"resolved_category,omitempty"`
}

// Top returns the highest-ranked segment, if any.
func (r RetrievalResult) Top() (ScoredSegment, bool) {
	if len(r.Segments) == 0 {
		return ScoredSegment{}, false
	}
	return r.Segments[0], true
}
