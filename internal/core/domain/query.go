package domain

type QueryRequest struct {
	Question      string `json:"question"`
	EnableMetrics bool   `json:"enable_metrics"`
	TopK          int    `json:"top_k,omitempty"`
	Evaluate      bool   `json:"evaluate,omitempty"`
}

type QueryResponse struct {
	Answer               string               `json:"answer"`
	Question             string               `json:"question"`
	ClassifiedCategory   Category             `json:"classified_category"`
	ClassificationSource ClassificationSource `json:"classification_source"`
	ResolvedCategory     Category             `json:"resolved_category"`
	Level1               *string              `json:"level_1"`
	Level2               *string              `json:"level_2"`
	Level3               *string              `json:"level_3"`
	Level4               *string              `json:"level_4"`
	Context              string               `json:"context"`
	Segments             []ScoredSegment      `json:"segments"`
	UsedFilter           bool                 `json:"used_filter"`
	FallbackActivated    bool                 `json:"fallback_activated"`
	Metrics              *MetricsRecord       `json:"metrics,omitempty"`
	Evaluation           *EvaluationRecord    `json:"evaluation,omitempty"`
}
