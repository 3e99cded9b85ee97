package domain

import (
	"errors"
	"net/http"
)

// ErrorCode classifies a chat failure for clients and for flow control.
type ErrorCode string

const (
	ErrUnsupportedVendor    ErrorCode = "unsupported_vendor"
	ErrUnsupportedModel     ErrorCode = "unsupported_model"
	ErrAPIKeyMissing        ErrorCode = "api_key_missing"
	ErrRateLimitExceeded    ErrorCode = "rate_limit_exceeded"
	ErrProviderAuthFailed   ErrorCode = "provider_authentication_failed"
	ErrProviderAPIError     ErrorCode = "provider_api_error"
	ErrProviderTimeout      ErrorCode = "provider_timeout"
	ErrConversationCreation ErrorCode = "conversation_creation_failed"
	ErrFileProcessing       ErrorCode = "file_processing_failed"
	ErrDecompositionFailed  ErrorCode = "decomposition_failed"
	ErrInvalidRatings       ErrorCode = "invalid_ratings"
)

// ChatError is the only error type that crosses package boundaries on the
// request path. Recoverable errors are absorbed by the orchestrator and the
// request continues without the failed enrichment; fatal ones terminate the
// request with Status.
type ChatError struct {
	Code        ErrorCode
	Message     string
	Status      int
	Recoverable bool
	Detail      string
}

func (e *ChatError) Error() string {
	return e.Message
}

// Fatal builds a request-terminating error with the given HTTP status.
func Fatal(code ErrorCode, status int, msg string) *ChatError {
	return &ChatError{Code: code, Message: msg, Status: status}
}

// Recoverable builds an error the orchestrator absorbs and logs.
func Recoverable(code ErrorCode, msg string) *ChatError {
	return &ChatError{Code: code, Message: msg, Status: http.StatusBadRequest, Recoverable: true}
}

// WithDetail attaches upstream detail. Detail is surfaced to clients only
// when debug mode is on.
func (e *ChatError) WithDetail(detail string) *ChatError {
	e.Detail = detail
	return e
}

// AsChatError unwraps err to a *ChatError when one is in the chain.
func AsChatError(err error) (*ChatError, bool) {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HTTPStatus maps an error to its response status. Unclassified errors are
// internal server errors.
func HTTPStatus(err error) int {
	if ce, ok := AsChatError(err); ok && ce.Status != 0 {
		return ce.Status
	}
	return http.StatusInternalServerError
}
