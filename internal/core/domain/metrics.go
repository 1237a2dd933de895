package domain

import (
	"encoding/json"
	"time"
)

// MetricsRecord captures one request's stage timings, token estimates and search outcome.
type MetricsRecord struct {
	ClassificationTime     time.Duration
	RetrievalTime          time.Duration
	GenerationTime         time.Duration
	TotalTime              time.Duration
	ClassificationTokens   int
	GenerationInputTokens  int
	GenerationOutputTokens int
	TotalTokens            int
	RetrievedDocsCount     int
	UsedFilter             bool
	FallbackActivated      bool
	ClassifiedCategory     Category
	ResolvedCategory       Category
	Timestamp              time.Time
}

// metricsWire is the log/API representation; durations are seconds.
type metricsWire struct {
	ClassificationTime     float64   `json:"classification_time"`
	RetrievalTime          float64   `json:"retrieval_time"`
	GenerationTime         float64   `json:"generation_time"`
	TotalTime              float64   `json:"total_time"`
	ClassificationTokens   int       `json:"classification_tokens"`
	GenerationInputTokens  int       `json:"generation_input_tokens"`
	GenerationOutputTokens int       `json:"generation_output_tokens"`
	TotalTokens            int       `json:"total_tokens"`
	RetrievedDocsCount     int       `json:"retrieved_docs_count"`
	UsedFilter             bool      `json:"used_filter"`
	FallbackActivated      bool      `json:"fallback_activated"`
	ClassifiedCategory     *Category `json:"classified_category"`
	ResolvedCategory       *Category `json:"resolved_category"`
	Timestamp              time.Time `json:"timestamp"`
}

func (m MetricsRecord) MarshalJSON() ([]byte, error) {
	wire := metricsWire{
		ClassificationTime:     m.ClassificationTime.Seconds(),
		RetrievalTime:          m.RetrievalTime.Seconds(),
		GenerationTime:         m.GenerationTime.Seconds(),
		TotalTime:              m.TotalTime.Seconds(),
		ClassificationTokens:   m.ClassificationTokens,
		GenerationInputTokens:  m.GenerationInputTokens,
		GenerationOutputTokens: m.GenerationOutputTokens,
		TotalTokens:            m.TotalTokens,
		RetrievedDocsCount:     m.RetrievedDocsCount,
		UsedFilter:             m.UsedFilter,
		FallbackActivated:      m.FallbackActivated,
		Timestamp:              m.Timestamp,
	}
	if m.ClassifiedCategory != "" {
		c := m.ClassifiedCategory
		wire.ClassifiedCategory = &c
	}
	if m.ResolvedCategory != "" {
		c := m.ResolvedCategory
		wire.ResolvedCategory = &c
	}
	return json.Marshal(wire)
}

func (m *MetricsRecord) UnmarshalJSON(data []byte) error {
	var wire metricsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = MetricsRecord{
		ClassificationTime:     secondsToDuration(wire.ClassificationTime),
		RetrievalTime:          secondsToDuration(wire.RetrievalTime),
		GenerationTime:         secondsToDuration(wire.GenerationTime),
		TotalTime:              secondsToDuration(wire.TotalTime),
		ClassificationTokens:   wire.ClassificationTokens,
		GenerationInputTokens:  wire.GenerationInputTokens,
		GenerationOutputTokens: wire.GenerationOutputTokens,
		TotalTokens:            wire.TotalTokens,
		RetrievedDocsCount:     wire.RetrievedDocsCount,
		UsedFilter:             wire.UsedFilter,
		FallbackActivated:      wire.FallbackActivated,
		Timestamp:              wire.Timestamp,
	}
	if wire.ClassifiedCategory != nil {
		m.ClassifiedCategory = *wire.ClassifiedCategory
	}
	if wire.ResolvedCategory != nil {
		m.ResolvedCategory = *wire.ResolvedCategory
	}
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
