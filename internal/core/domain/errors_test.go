package domain

import (
	"errors"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("boom"), "internal"},
		{WrapError(ErrIdentifierParse, "parse", errors.New("no category")), "identifier_parse_error"},
		{WrapError(ErrDocumentNotFound, "get", errors.New("id 7")), "document_not_found"},
		{WrapError(ErrExternalService, "search", WrapError(ErrTemporary, "qdrant", errors.New("503"))), "temporarily_unavailable"},
		{WrapError(ErrExternalService, "generate", errors.New("404 model")), "external_service_error"},
	}
	for _, tc := range tests {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWrapErrorKeepsBothChains(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrTemporary, "embed question", cause)
	if !IsKind(err, ErrTemporary) || !errors.Is(err, cause) {
		t.Fatalf("wrapped error lost a chain: %v", err)
	}
	if WrapError(ErrTemporary, "noop", nil) != nil {
		t.Fatalf("nil cause must stay nil")
	}
}
