package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const (
	evaluationsSheet = "evaluations"
	statisticsSheet  = "statistics"
)

var evaluationHeader = []any{
	"id", "timestamp", "question", "answer",
	"classified_category", "resolved_category", "used_filter", "fallback_activated",
	"classification_time", "retrieval_time", "generation_time", "total_time",
	"total_tokens", "retrieved_docs_count",
	"relevance", "accuracy", "helpfulness", "completeness", "groundedness", "judge_average",
	"faithfulness", "answer_relevancy", "context_precision", "context_recall", "ragas_average",
}

// WriteXLSX renders the evaluation log as a workbook with one row per record
// and a statistics sheet.
func WriteXLSX(w io.Writer, records []domain.EvaluationRecord, stats domain.EvaluationStatistics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", evaluationsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(evaluationsSheet, "A1", &evaluationHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(evaluationsSheet, 1, 1, header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := evaluationRow(rec)
		if err := f.SetSheetRow(evaluationsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(evaluationsSheet, "C", "D", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.NewSheet(statisticsSheet); err != nil {
		return fmt.Errorf("create statistics sheet: %w", err)
	}
	for i, pair := range statisticsRows(stats) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(statisticsSheet, cell, &pair); err != nil {
			return fmt.Errorf("write statistics row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func evaluationRow(rec domain.EvaluationRecord) []any {
	row := []any{rec.ID, rec.Timestamp.UTC().Format(time.RFC3339), rec.Question, rec.Answer}

	m := rec.Metrics
	if m == nil {
		m = &domain.MetricsRecord{}
	}
	row = append(row,
		string(m.ClassifiedCategory), string(m.ResolvedCategory), m.UsedFilter, m.FallbackActivated,
		m.ClassificationTime.Seconds(), m.RetrievalTime.Seconds(), m.GenerationTime.Seconds(), m.TotalTime.Seconds(),
		m.TotalTokens, m.RetrievedDocsCount,
	)

	if j := rec.JudgeScores; j != nil {
		row = append(row, j.Relevance, j.Accuracy, j.Helpfulness, j.Completeness, j.Groundedness, j.AverageScore)
	} else {
		row = append(row, nil, nil, nil, nil, nil, nil)
	}
	if r := rec.RagasScores; r != nil {
		row = append(row, r.Faithfulness, r.AnswerRelevancy, r.ContextPrecision, r.ContextRecall, r.AverageScore)
	} else {
		row = append(row, nil, nil, nil, nil, nil)
	}
	return row
}

func statisticsRows(stats domain.EvaluationStatistics) [][]any {
	return [][]any{
		{"total_evaluations", stats.TotalEvaluations},
		{"avg_response_time", stats.AvgResponseTime},
		{"avg_token_usage", stats.AvgTokenUsage},
		{"avg_relevance_score", stats.AvgRelevanceScore},
		{"avg_accuracy_score", stats.AvgAccuracyScore},
		{"avg_helpfulness_score", stats.AvgHelpfulnessScore},
		{"filter_success_rate", stats.FilterSuccessRate},
		{"fallback_rate", stats.FallbackRate},
	}
}
