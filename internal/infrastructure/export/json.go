package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

// Report is the JSON export document.
type Report struct {
	Statistics  domain.EvaluationStatistics `json:"statistics"`
	Evaluations []domain.EvaluationRecord   `json:"evaluations"`
}

func WriteJSON(w io.Writer, records []domain.EvaluationRecord, stats domain.EvaluationStatistics) error {
	if records == nil {
		records = []domain.EvaluationRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Report{Statistics: stats, Evaluations: records}); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
