package httpadapter

import (
	"net/http"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

var statusByCode = map[string]int{
	"identifier_parse_error":  http.StatusBadRequest,
	"invalid_input":           http.StatusBadRequest,
	"unauthorized":            http.StatusUnauthorized,
	"document_not_found":      http.StatusNotFound,
	"temporarily_unavailable": http.StatusServiceUnavailable,
	"external_service_error":  http.StatusBadGateway,
}

// mapError returns the HTTP status and error code for a use-case failure.
func mapError(err error) (int, string) {
	code := domain.ErrorCode(err)
	if status, ok := statusByCode[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, code
}
