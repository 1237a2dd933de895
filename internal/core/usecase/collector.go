package usecase

import (
	"time"
	"unicode"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

type Stage string

const (
	StageClassification Stage = "classification"
	StageRetrieval      Stage = "retrieval"
	StageGeneration     Stage = "generation"
)

// MetricsCollector accumulates one request's stage timings and token estimates.
// A collector is owned by a single request and is not safe for concurrent use.
type MetricsCollector struct {
	now     func() time.Time
	started map[Stage]time.Time
	record  domain.MetricsRecord
}

func NewMetricsCollector() *MetricsCollector {
	return newMetricsCollectorWithClock(time.Now)
}

func newMetricsCollectorWithClock(now func() time.Time) *MetricsCollector {
	return &MetricsCollector{now: now, started: make(map[Stage]time.Time, 3)}
}

func (c *MetricsCollector) Start(stage Stage) {
	c.started[stage] = c.now()
}

// Stop adds the time since the matching Start to the stage total. Stopping a
// stage that was never started records nothing.
func (c *MetricsCollector) Stop(stage Stage) time.Duration {
	startedAt, ok := c.started[stage]
	if !ok {
		return 0
	}
	delete(c.started, stage)

	elapsed := c.now().Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	switch stage {
	case StageClassification:
		c.record.ClassificationTime += elapsed
	case StageRetrieval:
		c.record.RetrievalTime += elapsed
	case StageGeneration:
		c.record.GenerationTime += elapsed
	}
	return elapsed
}

func (c *MetricsCollector) RecordClassificationTokens(question, response string) {
	c.record.ClassificationTokens = EstimateTokens(question) + EstimateTokens(response)
}

func (c *MetricsCollector) RecordGenerationTokens(prompt, answer string) {
	c.record.GenerationInputTokens = EstimateTokens(prompt)
	c.record.GenerationOutputTokens = EstimateTokens(answer)
}

func (c *MetricsCollector) RecordSearch(classified domain.Category, result domain.RetrievalResult) {
	c.record.ClassifiedCategory = classified
	c.record.ResolvedCategory = result.ResolvedCategory
	c.record.RetrievedDocsCount = len(result.Segments)
	c.record.UsedFilter = result.UsedFilter
	c.record.FallbackActivated = result.FallbackActivated
}

// Finalize derives totals and stamps the record.
func (c *MetricsCollector) Finalize() domain.MetricsRecord {
	c.record.TotalTime = c.record.ClassificationTime + c.record.RetrievalTime + c.record.GenerationTime
	c.record.TotalTokens = c.record.ClassificationTokens + c.record.GenerationInputTokens + c.record.GenerationOutputTokens
	c.record.Timestamp = c.now().UTC()
	return c.record
}

func (c *MetricsCollector) Reset() {
	c.record = domain.MetricsRecord{}
	clear(c.started)
}

// EstimateTokens approximates token usage: dense-script runes (Hangul, Han)
// count 1/1.5 each, everything else 1/4. The sum is truncated. The dense
// bucket is the whole Hangul script, so bare jamo count like precomposed
// syllables, and Han ideographs in clause titles count too.
func EstimateTokens(text string) int {
	var dense, other int
	for _, r := range text {
		if unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Han, r) {
			dense++
		} else {
			other++
		}
	}
	return int(float64(dense)/1.5 + float64(other)/4)
}
