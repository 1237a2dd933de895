package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrIdentifierParse  = errors.New("identifier parse error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrExternalService  = errors.New("external service error")
)

// errorCodes is ordered by precedence: a failure wrapped as both temporary
// and external reports the more actionable temporary code.
var errorCodes = []struct {
	kind error
	code string
}{
	{ErrIdentifierParse, "identifier_parse_error"},
	{ErrInvalidInput, "invalid_input"},
	{ErrUnauthorized, "unauthorized"},
	{ErrDocumentNotFound, "document_not_found"},
	{ErrTemporary, "temporarily_unavailable"},
	{ErrExternalService, "external_service_error"},
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorCode is the stable machine-readable name of err's kind, "internal"
// for errors outside the taxonomy and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.kind) {
			return entry.code
		}
	}
	return "internal"
}
