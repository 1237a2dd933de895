package usecase

import (
	"testing"
	"time"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"가나다", 2},
		{"abcd", 1},
		{"가나다abcd", 3},
		{"보험 abc", 2},
		{"abc", 0},
		{"ㄱㄴㄷ", 2},
		{"約款", 1},
	}
	for _, tc := range tests {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestCollectorStageTimesAndTotals(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: 10 * time.Millisecond}
	c := newMetricsCollectorWithClock(clock.now)

	c.Start(StageClassification)
	c.Stop(StageClassification)
	c.Start(StageRetrieval)
	c.Stop(StageRetrieval)
	c.Start(StageGeneration)
	c.Stop(StageGeneration)
	c.RecordClassificationTokens("가나다", "abcd")
	c.RecordGenerationTokens("가나다abcd", "abcd")
	c.RecordSearch(domain.CategoryInjury, domain.RetrievalResult{
		Segments:          []domain.ScoredSegment{scored(domain.CategoryDisease, "x", 1)},
		FallbackActivated: true,
		ResolvedCategory:  domain.CategoryDisease,
	})

	record := c.Finalize()
	if record.ClassificationTime != 10*time.Millisecond || record.RetrievalTime != 10*time.Millisecond || record.GenerationTime != 10*time.Millisecond {
		t.Fatalf("unexpected stage times %+v", record)
	}
	if record.TotalTime != record.ClassificationTime+record.RetrievalTime+record.GenerationTime {
		t.Fatalf("total_time %v is not the stage sum", record.TotalTime)
	}
	if record.ClassificationTokens != 3 || record.GenerationInputTokens != 3 || record.GenerationOutputTokens != 1 {
		t.Fatalf("unexpected tokens %+v", record)
	}
	if record.TotalTokens != 7 {
		t.Fatalf("total_tokens = %d, want 7", record.TotalTokens)
	}
	if record.RetrievedDocsCount != 1 || !record.FallbackActivated || record.UsedFilter {
		t.Fatalf("unexpected search stats %+v", record)
	}
	if record.ClassifiedCategory != domain.CategoryInjury || record.ResolvedCategory != domain.CategoryDisease {
		t.Fatalf("categories %s/%s", record.ClassifiedCategory, record.ResolvedCategory)
	}
	if record.Timestamp.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestCollectorStopWithoutStart(t *testing.T) {
	c := NewMetricsCollector()
	if got := c.Stop(StageGeneration); got != 0 {
		t.Fatalf("Stop() without Start = %v", got)
	}
	if rec := c.Finalize(); rec.GenerationTime != 0 || rec.TotalTime != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestCollectorAccumulatesRepeatedStage(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0), step: time.Second}
	c := newMetricsCollectorWithClock(clock.now)
	c.Start(StageRetrieval)
	c.Stop(StageRetrieval)
	c.Start(StageRetrieval)
	c.Stop(StageRetrieval)
	if rec := c.Finalize(); rec.RetrievalTime != 2*time.Second {
		t.Fatalf("retrieval_time = %v, want 2s", rec.RetrievalTime)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordClassificationTokens("가나다", "")
	c.Start(StageRetrieval)
	c.Reset()
	if c.Stop(StageRetrieval) != 0 {
		t.Fatalf("Reset must drop open stages")
	}
	if rec := c.Finalize(); rec.TotalTokens != 0 {
		t.Fatalf("Reset must zero tokens, got %d", rec.TotalTokens)
	}
}
