package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

const (
	DefaultTopK          = 10
	evaluationAnswerSize = 500
)

// QueryObserver receives one finalized metrics record per answered question.
type QueryObserver interface {
	ObserveQuery(record domain.MetricsRecord, source domain.ClassificationSource)
}

// QueryOptions carries optional collaborators of the query pipeline.
type QueryOptions struct {
	DefaultTopK int
	// AnswerMaxChars bounds the answer stored in evaluation records.
	AnswerMaxChars int
	Judge          ports.AnswerJudge
	EvalLog        ports.EvaluationLog
	Observer       QueryObserver
}

// QueryUseCase runs classify -> retrieve -> format -> generate for one question.
type QueryUseCase struct {
	classifier  ports.QuestionClassifier
	retriever   *RetrievalOrchestrator
	llm         ports.LanguageModel
	judge       ports.AnswerJudge
	evalLog     ports.EvaluationLog
	observer    QueryObserver
	defaultTopK int
	answerChars int
	now         func() time.Time
}

func NewQueryUseCase(
	classifier ports.QuestionClassifier,
	retriever *RetrievalOrchestrator,
	llm ports.LanguageModel,
	opts QueryOptions,
) *QueryUseCase {
	topK := opts.DefaultTopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	answerChars := opts.AnswerMaxChars
	if answerChars <= 0 {
		answerChars = evaluationAnswerSize
	}
	return &QueryUseCase{
		classifier:  classifier,
		retriever:   retriever,
		llm:         llm,
		judge:       opts.Judge,
		evalLog:     opts.EvalLog,
		observer:    opts.Observer,
		defaultTopK: topK,
		answerChars: answerChars,
		now:         time.Now,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("question is required"))
	}
	topK := req.TopK
	if topK <= 0 {
		topK = uc.defaultTopK
	}

	collector := newMetricsCollectorWithClock(uc.now)

	collector.Start(StageClassification)
	classification := uc.classifier.Classify(ctx, question)
	collector.Stop(StageClassification)
	collector.RecordClassificationTokens(question, classification.RawResponse)

	collector.Start(StageRetrieval)
	retrieval, err := uc.retriever.Retrieve(ctx, question, classification.Category, topK)
	collector.Stop(StageRetrieval)
	if err != nil {
		return nil, err
	}
	collector.RecordSearch(classification.Category, retrieval)

	clauseContext := FormatContext(retrieval.Segments)
	top, _ := retrieval.Top()
	prompt := buildAnswerPrompt(question, clauseContext, retrieval.ResolvedCategory, top.Segment)

	collector.Start(StageGeneration)
	answer, err := uc.llm.Complete(ctx, prompt)
	collector.Stop(StageGeneration)
	if err != nil {
		if !domain.IsKind(err, domain.ErrExternalService) {
			err = domain.WrapError(domain.ErrExternalService, "generate answer", err)
		}
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	collector.RecordGenerationTokens(prompt, answer)
	record := collector.Finalize()

	resp := &domain.QueryResponse{
		Answer:               answer,
		Question:             question,
		ClassifiedCategory:   classification.Category,
		ClassificationSource: classification.Source,
		ResolvedCategory:     retrieval.ResolvedCategory,
		Level1:               top.Level1,
		Level2:               top.Level2,
		Level3:               top.Level3,
		Level4:               top.Level4,
		Context:              clauseContext,
		Segments:             retrieval.Segments,
		UsedFilter:           retrieval.UsedFilter,
		FallbackActivated:    retrieval.FallbackActivated,
	}
	if req.EnableMetrics {
		resp.Metrics = &record
	}
	if uc.observer != nil {
		uc.observer.ObserveQuery(record, classification.Source)
	}

	slog.Info("question_answered",
		"classified_category", classification.Category,
		"classification_source", classification.Source,
		"resolved_category", retrieval.ResolvedCategory,
		"used_filter", retrieval.UsedFilter,
		"fallback_activated", retrieval.FallbackActivated,
		"retrieved", len(retrieval.Segments),
		"total_ms", record.TotalTime.Milliseconds(),
	)

	if req.Evaluate || (req.EnableMetrics && uc.evalLog != nil) {
		resp.Evaluation = uc.evaluate(ctx, req.Evaluate, resp, record, classification)
	}
	return resp, nil
}

// evaluate scores the answer when asked and appends to the evaluation log.
// Judge and log failures never fail the answer itself.
func (uc *QueryUseCase) evaluate(
	ctx context.Context,
	judge bool,
	resp *domain.QueryResponse,
	record domain.MetricsRecord,
	classification domain.ClassificationResult,
) *domain.EvaluationRecord {
	eval := domain.EvaluationRecord{
		ID:        uuid.NewString(),
		Timestamp: record.Timestamp,
		Question:  resp.Question,
		Answer:    truncateRunes(resp.Answer, uc.answerChars),
		Metrics:   &record,
		Metadata: map[string]string{
			"classification_source": string(classification.Source),
			"classified_category":   string(classification.Category),
			"resolved_category":     string(resp.ResolvedCategory),
		},
	}

	if judge && uc.judge != nil {
		scores := uc.judge.EvaluateAnswer(ctx, resp.Question, resp.Answer, resp.Context)
		eval.JudgeScores = &scores
		ragas := uc.judge.EvaluateRagas(ctx, resp.Question, resp.Answer, resp.Context, resp.Segments)
		eval.RagasScores = &ragas
	}

	if uc.evalLog != nil {
		if err := uc.evalLog.Append(ctx, eval); err != nil {
			slog.Warn("evaluation_log_append_failed", "evaluation_id", eval.ID, "error", err)
		}
	}
	return &eval
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
