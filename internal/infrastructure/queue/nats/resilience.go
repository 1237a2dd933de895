package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/resilience"
)

// connectivityErrors are the client errors that clear up once the connection
// is re-established; anything else (bad subject, oversized payload) will not.
var connectivityErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
	nats.ErrStaleConnection,
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	for _, target := range connectivityErrors {
		if errors.Is(err, target) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// surfacePublishError leaves the upload recorded but reports why scheduling
// failed: ErrTemporary while the broker is unreachable, ErrExternalService
// when it rejected the event.
func surfacePublishError(documentID string, err error) error {
	if err == nil {
		return nil
	}
	return resilience.Surface(classifyPublishError, "schedule segmentation of "+documentID, err)
}

// handlerOutcome labels a worker failure for the log: identifier and input
// errors will fail again on redelivery, the rest may not.
func handlerOutcome(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrIdentifierParse), domain.IsKind(err, domain.ErrInvalidInput):
		return "rejected"
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return "orphaned"
	case domain.IsKind(err, domain.ErrTemporary):
		return "transient"
	default:
		return "failed"
	}
}
