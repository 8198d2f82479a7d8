package xerrors

import (
	"errors"
	"fmt"
)

// Error is the structured error type for pathmend. It carries a stable
// code for matching, a category and severity for handling policy, and an
// optional cause chain.
type Error struct {
	// Code is the unique error code (e.g., "ERR_301_FETCH_TIMEOUT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Fetch, Parse, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is against a code sentinel.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail, returning the error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates an Error with the given code and message. Category,
// severity and the retryable flag are derived from the code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error, keeping its message.
// Returns nil for a nil err.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// FetchError creates a sitemap-retrieval error.
func FetchError(message string, cause error) *Error {
	return New(ErrCodeFetchUnavailable, message, cause)
}

// ParseError creates a sitemap-parse error.
func ParseError(message string, cause error) *Error {
	return New(ErrCodeSitemapMalformed, message, cause)
}

// StoreError creates a hallucination-log storage error.
func StoreError(message string, cause error) *Error {
	return New(ErrCodeStoreWrite, message, cause)
}

// IsRetryable reports whether err (anywhere in its chain) is a
// retryable Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetCode extracts the code from an Error in err's chain, empty
// otherwise.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
