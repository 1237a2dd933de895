package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

var flatJSONObject = regexp.MustCompile(`\{[^{}]*\}`)

// Judge scores answers with a language model. Failures never propagate: they
// come back as zero scores with the reason in Explanation and Error.
type Judge struct {
	llm ports.LanguageModel
}

func NewJudge(llm ports.LanguageModel) *Judge {
	return &Judge{llm: llm}
}

func (j *Judge) EvaluateAnswer(ctx context.Context, question, answer, clauseContext string) domain.JudgeScores {
	var wire struct {
		Relevance    float64 `json:"relevance"`
		Accuracy     float64 `json:"accuracy"`
		Helpfulness  float64 `json:"helpfulness"`
		Completeness float64 `json:"completeness"`
		Groundedness float64 `json:"groundedness"`
		Explanation  string  `json:"explanation"`
	}
	if err := j.completeJSON(ctx, buildJudgePrompt(question, answer, clauseContext), &wire); err != nil {
		slog.Warn("judge_evaluation_failed", "error", err)
		return domain.JudgeScores{Explanation: "평가 실패: " + err.Error(), Error: err.Error()}
	}

	scores := domain.JudgeScores{
		Relevance:    clampScore(wire.Relevance),
		Accuracy:     clampScore(wire.Accuracy),
		Helpfulness:  clampScore(wire.Helpfulness),
		Completeness: clampScore(wire.Completeness),
		Groundedness: clampScore(wire.Groundedness),
		Explanation:  wire.Explanation,
	}
	sum := scores.Relevance + scores.Accuracy + scores.Helpfulness + scores.Completeness + scores.Groundedness
	scores.AverageScore = float64(sum) / 5
	return scores
}

func (j *Judge) EvaluateRagas(ctx context.Context, question, answer, clauseContext string, segments []domain.ScoredSegment) domain.RagasScores {
	var wire struct {
		Faithfulness     float64 `json:"faithfulness"`
		AnswerRelevancy  float64 `json:"answer_relevancy"`
		ContextPrecision float64 `json:"context_precision"`
		ContextRecall    float64 `json:"context_recall"`
		Explanation      string  `json:"explanation"`
	}
	prompt := buildRagasPrompt(question, answer, ragasDocuments(clauseContext, segments))
	if err := j.completeJSON(ctx, prompt, &wire); err != nil {
		slog.Warn("ragas_evaluation_failed", "error", err)
		return domain.RagasScores{Explanation: "평가 실패: " + err.Error(), Error: err.Error()}
	}

	scores := domain.RagasScores{
		Faithfulness:     clampUnit(wire.Faithfulness),
		AnswerRelevancy:  clampUnit(wire.AnswerRelevancy),
		ContextPrecision: clampUnit(wire.ContextPrecision),
		ContextRecall:    clampUnit(wire.ContextRecall),
		Explanation:      wire.Explanation,
	}
	scores.AverageScore = (scores.Faithfulness + scores.AnswerRelevancy + scores.ContextPrecision + scores.ContextRecall) / 4
	return scores
}

func (j *Judge) completeJSON(ctx context.Context, prompt string, out any) error {
	if j.llm == nil {
		return errors.New("judge model is not configured")
	}
	raw, err := j.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	payload := flatJSONObject.FindString(raw)
	if payload == "" {
		payload = raw
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("parse judge json: %w", err)
	}
	return nil
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(5, v))))
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
