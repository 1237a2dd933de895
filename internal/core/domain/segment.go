package domain

import "time"

// HierarchyDepth is the deepest nesting any corpus grammar uses.
const HierarchyDepth = 4

// SourceDocument is one raw corpus document prior to segmentation.
type SourceDocument struct {
	Identifier string   `json:"identifier"`
	Category   Category `json:"category"`
	Text       string   `json:"text"`
}

// Segment is a leaf unit of retrievable clause text. Level fields are nil when the
// document did not reach that nesting depth.
type Segment struct {
	Content   string   `json:"content"`
	Category  Category `json:"category"`
	Level1    *string  `json:"level_1"`
	Level2    *string  `json:"level_2"`
	Level3    *string  `json:"level_3"`
	Level4    *string  `json:"level_4"`
	SourceRef string   `json:"source_ref"`
}

// Levels returns the four hierarchy titles in root-to-leaf order.
func (s Segment) Levels() [HierarchyDepth]*string {
	return [HierarchyDepth]*string{s.Level1, s.Level2, s.Level3, s.Level4}
}

// SetLevel assigns the title at a 1-based depth; out-of-range depths are ignored.
func (s *Segment) SetLevel(depth int, title *string) {
	switch depth {
	case 1:
		s.Level1 = title
	case 2:
		s.Level2 = title
	case 3:
		s.Level3 = title
	case 4:
		s.Level4 = title
	}
}

func StringPtr(v string) *string {
	return &v
}

// DerefString returns the pointed-to value or "" for nil.
func DerefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the ingestion registry entry for an uploaded source document.
type Document struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	MimeType     string         `json:"mime_type"`
	StoragePath  string         `json:"storage_path"`
	Category     Category       `json:"category"`
	SegmentCount int            `json:"segment_count"`
	Status       DocumentStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
