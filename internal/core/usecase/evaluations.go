package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

// statisticsSource is implemented by logs that can aggregate natively.
type statisticsSource interface {
	Statistics(ctx context.Context, window domain.TimeRange) (domain.EvaluationStatistics, error)
}

// EvaluationQueryUseCase serves the evaluation log read model.
type EvaluationQueryUseCase struct {
	log ports.EvaluationLog
}

func NewEvaluationQueryUseCase(log ports.EvaluationLog) *EvaluationQueryUseCase {
	return &EvaluationQueryUseCase{log: log}
}

func (uc *EvaluationQueryUseCase) List(ctx context.Context, window domain.TimeRange) ([]domain.EvaluationRecord, error) {
	records, err := uc.log.List(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return records, nil
}

func (uc *EvaluationQueryUseCase) Statistics(ctx context.Context, window domain.TimeRange) (domain.EvaluationStatistics, error) {
	if src, ok := uc.log.(statisticsSource); ok {
		stats, err := src.Statistics(ctx, window)
		if err != nil {
			return domain.EvaluationStatistics{}, fmt.Errorf("aggregate evaluations: %w", err)
		}
		return stats, nil
	}

	records, err := uc.List(ctx, window)
	if err != nil {
		return domain.EvaluationStatistics{}, err
	}
	return domain.ComputeStatistics(records), nil
}
