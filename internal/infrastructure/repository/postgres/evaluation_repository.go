package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

// EvaluationRepository is the Postgres-backed evaluation log.
type EvaluationRepository struct {
	db *sql.DB
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) Append(ctx context.Context, record domain.EvaluationRecord) error {
	metrics, err := nullableJSON(record.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	judge, err := nullableJSON(record.JudgeScores)
	if err != nil {
		return fmt.Errorf("marshal judge scores: %w", err)
	}
	ragas, err := nullableJSON(record.RagasScores)
	if err != nil {
		return fmt.Errorf("marshal ragas scores: %w", err)
	}
	metadata := record.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO evaluations (id, created_at, question, answer, metrics, judge_scores, ragas_scores, metadata)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, record.ID, record.Timestamp, record.Question, record.Answer, metrics, judge, ragas, metadataJSON)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) List(ctx context.Context, window domain.TimeRange) ([]domain.EvaluationRecord, error) {
	from, to := windowArgs(window)
	rows, err := r.db.QueryContext(ctx, `
SELECT id, created_at, question, answer, metrics, judge_scores, ragas_scores, metadata
FROM evaluations
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
ORDER BY created_at ASC
`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []domain.EvaluationRecord
	for rows.Next() {
		var (
			rec                          domain.EvaluationRecord
			metrics, judge, ragas, attrs []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Question, &rec.Answer, &metrics, &judge, &ragas, &attrs); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if len(metrics) > 0 {
			rec.Metrics = &domain.MetricsRecord{}
			if err := json.Unmarshal(metrics, rec.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics: %w", err)
			}
		}
		if len(judge) > 0 {
			rec.JudgeScores = &domain.JudgeScores{}
			if err := json.Unmarshal(judge, rec.JudgeScores); err != nil {
				return nil, fmt.Errorf("unmarshal judge scores: %w", err)
			}
		}
		if len(ragas) > 0 {
			rec.RagasScores = &domain.RagasScores{}
			if err := json.Unmarshal(ragas, rec.RagasScores); err != nil {
				return nil, fmt.Errorf("unmarshal ragas scores: %w", err)
			}
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return out, nil
}

// Statistics aggregates in SQL; judge averages cover judged rows only.
func (r *EvaluationRepository) Statistics(ctx context.Context, window domain.TimeRange) (domain.EvaluationStatistics, error) {
	from, to := windowArgs(window)
	row := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(AVG(COALESCE((metrics->>'total_time')::float8, 0)), 0),
	COALESCE(AVG(COALESCE((metrics->>'total_tokens')::float8, 0)), 0),
	COALESCE(AVG((judge_scores->>'relevance')::float8), 0),
	COALESCE(AVG((judge_scores->>'accuracy')::float8), 0),
	COALESCE(AVG((judge_scores->>'helpfulness')::float8), 0),
	COALESCE(AVG(CASE WHEN (metrics->>'used_filter')::boolean AND NOT (metrics->>'fallback_activated')::boolean THEN 1.0 ELSE 0.0 END), 0),
	COALESCE(AVG(CASE WHEN (metrics->>'fallback_activated')::boolean THEN 1.0 ELSE 0.0 END), 0)
FROM evaluations
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
`, from, to)

	var stats domain.EvaluationStatistics
	err := row.Scan(
		&stats.TotalEvaluations,
		&stats.AvgResponseTime,
		&stats.AvgTokenUsage,
		&stats.AvgRelevanceScore,
		&stats.AvgAccuracyScore,
		&stats.AvgHelpfulnessScore,
		&stats.FilterSuccessRate,
		&stats.FallbackRate,
	)
	if err != nil {
		return domain.EvaluationStatistics{}, fmt.Errorf("aggregate evaluations: %w", err)
	}
	return stats, nil
}

func windowArgs(window domain.TimeRange) (sql.NullTime, sql.NullTime) {
	return sql.NullTime{Time: window.From, Valid: !window.From.IsZero()},
		sql.NullTime{Time: window.To, Valid: !window.To.IsZero()}
}

// nullableJSON encodes v, or yields an untyped nil so the column stores NULL.
func nullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
