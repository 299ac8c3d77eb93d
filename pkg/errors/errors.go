package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind identifies which stage of a run produced an error
type Kind string

const (
	KindFetch      Kind = "fetch"
	KindExtraction Kind = "extraction"
	KindPersist    Kind = "persist"
	KindInput      Kind = "input"
)

// ErrorType represents the underlying cause of an error
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeClientError ErrorType = "client_error"
	ErrorTypeFilesystem  ErrorType = "filesystem"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error carries the kind, cause and location of a failure
type Error struct {
	Kind    Kind
	Type    ErrorType
	Message string
	Code    int

	// Page is set for fetch and extraction errors
	Page int
	// Format and Path are set for persist errors
	Format string
	Path   string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindFetch:
		if e.Code != 0 {
			return fmt.Sprintf("fetch page %d: %s (status %d): %s", e.Page, e.Type, e.Code, e.Message)
		}
		return fmt.Sprintf("fetch page %d: %s: %s", e.Page, e.Type, e.Message)
	case KindExtraction:
		return fmt.Sprintf("extract page %d: %s", e.Page, e.Message)
	case KindPersist:
		return fmt.Sprintf("persist %s to %s: %s", e.Format, e.Path, e.Message)
	case KindInput:
		return fmt.Sprintf("invalid input: %s", e.Message)
	default:
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewFetchError reports a failed page request
func NewFetchError(page int, errorType ErrorType, code int, err error) *Error {
	msg := http.StatusText(code)
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Kind:    KindFetch,
		Type:    errorType,
		Message: msg,
		Code:    code,
		Page:    page,
		Err:     err,
	}
}

// NewExtractionError reports a page whose markup could not be processed
func NewExtractionError(page int, err error) *Error {
	return &Error{
		Kind:    KindExtraction,
		Type:    ErrorTypeParsing,
		Message: err.Error(),
		Page:    page,
		Err:     err,
	}
}

// NewPersistError reports a failed write or replace of an output file.
// op names the step that failed, e.g. "write" or "replace".
func NewPersistError(format, path, op string, err error) *Error {
	return &Error{
		Kind:    KindPersist,
		Type:    ErrorTypeFilesystem,
		Message: fmt.Sprintf("%s: %v", op, err),
		Format:  format,
		Path:    path,
		Err:     err,
	}
}

// NewInputError reports operator input that failed validation
func NewInputError(input, reason string) *Error {
	return &Error{
		Kind:    KindInput,
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf("%q: %s", input, reason),
	}
}

// IsKind reports whether err or anything it wraps is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable checks if an error type is expected to clear up on its own
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeParsing:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return false
	default:
		return statusCode >= 500
	}
}

// TypeForStatus maps a non-2xx HTTP status code to an error type
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode >= 400:
		return ErrorTypeClientError
	default:
		return ErrorTypeUnknown
	}
}
