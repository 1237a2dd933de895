package domain

import "time"

// JudgeScores holds 1-5 integer quality ratings from the LLM judge.
type JudgeScores struct {
	Relevance    int     `json:"relevance"`
	Accuracy     int     `json:"accuracy"`
	Helpfulness  int     `json:"helpfulness"`
	Completeness int     `json:"completeness"`
	Groundedness int     `json:"groundedness"`
	AverageScore float64 `json:"average_score"`
	Explanation  string  `json:"explanation"`
	Error        string  `json:"error,omitempty"`
}

// RagasScores holds 0-1 retrieval-grounding ratings.
type RagasScores struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
	AverageScore     float64 `json:"average_score"`
	Explanation      string  `json:"explanation"`
	Error            string  `json:"error,omitempty"`
}

type EvaluationRecord struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Question    string            `json:"question"`
	Answer      string            `json:"answer"`
	Metrics     *MetricsRecord    `json:"metrics"`
	JudgeScores *JudgeScores      `json:"judge_scores,omitempty"`
	RagasScores *RagasScores      `json:"ragas_scores,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TimeRange bounds a log scan; zero From/To mean unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

type EvaluationStatistics struct {
	TotalEvaluations    int     `json:"total_evaluations"`
	AvgResponseTime     float64 `json:"avg_response_time"`
	AvgTokenUsage       float64 `json:"avg_token_usage"`
	AvgRelevanceScore   float64 `json:"avg_relevance_score"`
	AvgAccuracyScore    float64 `json:"avg_accuracy_score"`
	AvgHelpfulnessScore float64 `json:"avg_helpfulness_score"`
	FilterSuccessRate   float64 `json:"filter_success_rate"`
	FallbackRate        float64 `json:"fallback_rate"`
}

// ComputeStatistics aggregates records already restricted to the wanted range.
func ComputeStatistics(records []EvaluationRecord) EvaluationStatistics {
	if len(records) == 0 {
		return EvaluationStatistics{}
	}

	var (
		totalTime, totalTokens             float64
		relevance, accuracy, helpfulness   float64
		judged, filterSuccess, fallbackHit int
	)
	for _, r := range records {
		if r.Metrics != nil {
			totalTime += r.Metrics.TotalTime.Seconds()
			totalTokens += float64(r.Metrics.TotalTokens)
			if r.Metrics.UsedFilter && !r.Metrics.FallbackActivated {
				filterSuccess++
			}
			if r.Metrics.FallbackActivated {
				fallbackHit++
			}
		}
		if r.JudgeScores != nil {
			judged++
			relevance += float64(r.JudgeScores.Relevance)
			accuracy += float64(r.JudgeScores.Accuracy)
			helpfulness += float64(r.JudgeScores.Helpfulness)
		}
	}

	n := float64(len(records))
	stats := EvaluationStatistics{
		TotalEvaluations:  len(records),
		AvgResponseTime:   totalTime / n,
		AvgTokenUsage:     totalTokens / n,
		FilterSuccessRate: float64(filterSuccess) / n,
		FallbackRate:      float64(fallbackHit) / n,
	}
	if judged > 0 {
		stats.AvgRelevanceScore = relevance / float64(judged)
		stats.AvgAccuracyScore = accuracy / float64(judged)
		stats.AvgHelpfulnessScore = helpfulness / float64(judged)
	}
	return stats
}
