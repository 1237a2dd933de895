package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const statusBodyLimit = 2048

// StatusError is a non-2xx answer from one of the JSON-over-HTTP collaborators
// (model server, vector index).
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if msg := strings.TrimSpace(e.Body); msg != "" {
		return fmt.Sprintf("%s %s status: %s: %s", e.Service, e.Operation, e.Status, msg)
	}
	return fmt.Sprintf("%s %s status: %s", e.Service, e.Operation, e.Status)
}

// NewStatusError keeps at most the first 2 KiB of the response body.
func NewStatusError(service, operation string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, statusBodyLimit))
	return &StatusError{
		Service:    service,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(raw),
	}
}

// HasStatus reports whether err wraps a StatusError with the given code.
func HasStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// RetryableHTTPStatus reports whether an upstream status is worth another attempt.
func RetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// ClassifyHTTP is the classifier for HTTP collaborators. A rejected request
// (4xx other than 408/429) neither retries nor counts against the breaker.
func ClassifyHTTP(err error) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{}
	case IsCircuitOpen(err):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		retryable := RetryableHTTPStatus(statusErr.StatusCode)
		return ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return defaultClassifier(err)
}

// Surface maps the final error of a guarded call onto the domain taxonomy.
// Retryable failures and open circuits become ErrTemporary, caller
// cancellation passes through untouched, everything else is ErrExternalService.
func Surface(classifier ErrorClassifier, operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrExternalService) {
		return err
	}
	if classifier == nil {
		classifier = defaultClassifier
	}
	if classifier(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.WrapError(domain.ErrExternalService, operation, err)
}

func defaultClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}
