package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

type judgeFake struct {
	calls int
}

func (f *judgeFake) EvaluateAnswer(context.Context, string, string, string) domain.JudgeScores {
	f.calls++
	return domain.JudgeScores{Relevance: 5, Accuracy: 4, Helpfulness: 4, Completeness: 3, Groundedness: 5, AverageScore: 4.2}
}

func (f *judgeFake) EvaluateRagas(context.Context, string, string, string, []domain.ScoredSegment) domain.RagasScores {
	return domain.RagasScores{Faithfulness: 1, AnswerRelevancy: 0.8, ContextPrecision: 0.6, ContextRecall: 0.6, AverageScore: 0.75}
}

type evalLogFake struct {
	records []domain.EvaluationRecord
	err     error
}

func (f *evalLogFake) Append(_ context.Context, record domain.EvaluationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *evalLogFake) List(context.Context, domain.TimeRange) ([]domain.EvaluationRecord, error) {
	return f.records, nil
}

type observerFake struct {
	records []domain.MetricsRecord
	sources []domain.ClassificationSource
}

func (f *observerFake) ObserveQuery(record domain.MetricsRecord, source domain.ClassificationSource) {
	f.records = append(f.records, record)
	f.sources = append(f.sources, source)
}

func newTestQueryUseCase(llm *llmFake, searcher *searcherFake, opts QueryOptions) *QueryUseCase {
	uc := NewQueryUseCase(NewCategoryClassifier(llm), NewRetrievalOrchestrator(searcher), llm, opts)
	clock := &stepClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), step: 5 * time.Millisecond}
	uc.now = clock.now
	return uc
}

func TestAnswerVehicleQuestionEndToEnd(t *testing.T) {
	llm := &llmFake{classify: "자동차보험", answer: "- 보장 여부: 보장됩니다"}
	searcher := &searcherFake{byCategory: map[domain.Category][]domain.ScoredSegment{
		domain.CategoryVehicle: {
			scored(domain.CategoryVehicle, "회사는 피보험자가 ... 보상합니다.", 0.82,
				"제1편 배상책임", "제1장 대인배상", "제1절 보상하는 손해", "제1조(보상하는 손해)"),
		},
	}}
	uc := newTestQueryUseCase(llm, searcher, QueryOptions{})

	resp, err := uc.Answer(context.Background(), domain.QueryRequest{
		Question:      "교통사고가 났는데 보험 보장받을 수 있어?",
		EnableMetrics: true,
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.ClassifiedCategory != domain.CategoryVehicle || resp.ClassificationSource != domain.SourceModel {
		t.Fatalf("classification %s/%s", resp.ClassifiedCategory, resp.ClassificationSource)
	}
	if !resp.UsedFilter || resp.FallbackActivated {
		t.Fatalf("flags used=%v fallback=%v", resp.UsedFilter, resp.FallbackActivated)
	}
	if resp.ResolvedCategory != domain.CategoryVehicle {
		t.Fatalf("resolved = %s", resp.ResolvedCategory)
	}
	if domain.DerefString(resp.Level1) != "제1편 배상책임" || domain.DerefString(resp.Level4) != "제1조(보상하는 손해)" {
		t.Fatalf("levels %q / %q", domain.DerefString(resp.Level1), domain.DerefString(resp.Level4))
	}
	if resp.Answer != "- 보장 여부: 보장됩니다" {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if searcher.calls[0].limit != DefaultTopK {
		t.Fatalf("limit = %d, want default %d", searcher.calls[0].limit, DefaultTopK)
	}

	m := resp.Metrics
	if m == nil {
		t.Fatalf("expected metrics")
	}
	if m.TotalTime != m.ClassificationTime+m.RetrievalTime+m.GenerationTime {
		t.Fatalf("total_time is not the stage sum: %+v", m)
	}
	if m.TotalTokens != m.ClassificationTokens+m.GenerationInputTokens+m.GenerationOutputTokens {
		t.Fatalf("total_tokens is not the sum: %+v", m)
	}
	if m.RetrievedDocsCount != 1 || !m.UsedFilter || m.FallbackActivated {
		t.Fatalf("search stats %+v", m)
	}

	answerPrompt := llm.prompts[len(llm.prompts)-1]
	if !strings.Contains(answerPrompt, "[조문 내용]\n회사는 피보험자가") {
		t.Fatalf("answer prompt does not carry the context: %q", answerPrompt)
	}
}

func TestAnswerFallbackResolvesToRetrievedCategory(t *testing.T) {
	llm := &llmFake{classify: "상해보험", answer: "답변"}
	searcher := &searcherFake{
		byCategory: map[domain.Category][]domain.ScoredSegment{},
		unfiltered: []domain.ScoredSegment{scored(domain.CategoryDisease, "질병 입원 조항", 0.5, "제1관 목적 및 용어의 정의")},
	}
	uc := newTestQueryUseCase(llm, searcher, QueryOptions{})

	resp, err := uc.Answer(context.Background(), domain.QueryRequest{Question: "넘어져서 입원했어요", EnableMetrics: true})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.ClassifiedCategory != domain.CategoryInjury {
		t.Fatalf("classified = %s", resp.ClassifiedCategory)
	}
	if resp.ResolvedCategory != domain.CategoryDisease {
		t.Fatalf("resolved = %s", resp.ResolvedCategory)
	}
	if resp.UsedFilter || !resp.FallbackActivated {
		t.Fatalf("flags used=%v fallback=%v", resp.UsedFilter, resp.FallbackActivated)
	}
	if resp.Metrics.ClassifiedCategory != domain.CategoryInjury || resp.Metrics.ResolvedCategory != domain.CategoryDisease {
		t.Fatalf("metrics categories %+v", resp.Metrics)
	}
	if len(searcher.calls) != 2 {
		t.Fatalf("expected filtered + fallback search, got %d", len(searcher.calls))
	}
	answerPrompt := llm.prompts[len(llm.prompts)-1]
	if !strings.Contains(answerPrompt, "[보험종류] 질병보험") || strings.Contains(answerPrompt, "[보험종류] 상해보험") {
		t.Fatalf("answer prompt must name the resolved category:\n%s", answerPrompt)
	}
}

func TestAnswerEmptyCorpusUsesMarker(t *testing.T) {
	llm := &llmFake{classify: "화재보험", answer: "약관에서 찾을 수 없습니다"}
	uc := newTestQueryUseCase(llm, &searcherFake{}, QueryOptions{})

	resp, err := uc.Answer(context.Background(), domain.QueryRequest{Question: "불이 났어요"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Context != NoClausesMarker {
		t.Fatalf("context = %q", resp.Context)
	}
	if resp.Level1 != nil || resp.ResolvedCategory != domain.CategoryFire {
		t.Fatalf("expected no top segment and the classified category, got %+v", resp)
	}
	if resp.Metrics != nil {
		t.Fatalf("metrics must be omitted when not requested")
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	uc := newTestQueryUseCase(&llmFake{}, &searcherFake{}, QueryOptions{})
	_, err := uc.Answer(context.Background(), domain.QueryRequest{Question: "  "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAnswerGenerationFailureIsExternal(t *testing.T) {
	llm := &llmFake{classify: "화재보험", answerErr: errors.New("model unavailable")}
	searcher := &searcherFake{byCategory: map[domain.Category][]domain.ScoredSegment{
		domain.CategoryFire: {scored(domain.CategoryFire, "x", 0.9)},
	}}
	uc := newTestQueryUseCase(llm, searcher, QueryOptions{})

	_, err := uc.Answer(context.Background(), domain.QueryRequest{Question: "화재"})
	if !domain.IsKind(err, domain.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestAnswerEvaluatesAndLogs(t *testing.T) {
	llm := &llmFake{classify: "화재보험", answer: strings.Repeat("가", 600)}
	searcher := &searcherFake{byCategory: map[domain.Category][]domain.ScoredSegment{
		domain.CategoryFire: {scored(domain.CategoryFire, "x", 0.9)},
	}}
	judge := &judgeFake{}
	evalLog := &evalLogFake{}
	observer := &observerFake{}
	uc := newTestQueryUseCase(llm, searcher, QueryOptions{Judge: judge, EvalLog: evalLog, Observer: observer})

	resp, err := uc.Answer(context.Background(), domain.QueryRequest{Question: "화재", Evaluate: true, TopK: 3})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if judge.calls != 1 {
		t.Fatalf("judge calls = %d", judge.calls)
	}
	if len(evalLog.records) != 1 {
		t.Fatalf("expected one logged record, got %d", len(evalLog.records))
	}
	logged := evalLog.records[0]
	if len([]rune(logged.Answer)) != evaluationAnswerSize {
		t.Fatalf("logged answer not truncated: %d runes", len([]rune(logged.Answer)))
	}
	if logged.JudgeScores == nil || logged.RagasScores == nil || logged.Metrics == nil {
		t.Fatalf("logged record incomplete: %+v", logged)
	}
	if resp.Evaluation == nil || resp.Evaluation.ID != logged.ID {
		t.Fatalf("response evaluation does not match log")
	}
	if len(observer.sources) != 1 || observer.sources[0] != domain.SourceModel {
		t.Fatalf("observer sources %+v", observer.sources)
	}
	if searcher.calls[0].limit != 3 {
		t.Fatalf("top_k not honoured: %d", searcher.calls[0].limit)
	}
}

func TestAnswerSurvivesEvaluationLogFailure(t *testing.T) {
	llm := &llmFake{classify: "화재보험", answer: "답변"}
	searcher := &searcherFake{byCategory: map[domain.Category][]domain.ScoredSegment{
		domain.CategoryFire: {scored(domain.CategoryFire, "x", 0.9)},
	}}
	uc := newTestQueryUseCase(llm, searcher, QueryOptions{EvalLog: &evalLogFake{err: errors.New("disk full")}})

	resp, err := uc.Answer(context.Background(), domain.QueryRequest{Question: "화재", EnableMetrics: true})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Answer != "답변" || resp.Evaluation == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Evaluation.JudgeScores != nil {
		t.Fatalf("judge must only run when evaluation is requested")
	}
}
