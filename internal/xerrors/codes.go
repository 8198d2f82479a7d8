// Package xerrors provides structured error handling for pathmend.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors
//   - 3XX: Fetch errors (sitemap retrieval)
//   - 4XX: Parse and validation errors
//   - 5XX: Internal errors
package xerrors

// Category classifies errors for handling and logging.
type Category string

const (
	CategoryConfig   Category = "CONFIG"
	CategoryStorage  Category = "STORAGE"
	CategoryFetch    Category = "FETCH"
	CategoryParse    Category = "PARSE"
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can
	// continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeStoreOpen    = "ERR_201_STORE_OPEN"
	ErrCodeStoreWrite   = "ERR_202_STORE_WRITE"
	ErrCodeStoreCorrupt = "ERR_203_STORE_CORRUPT"

	// Fetch errors (300-399)
	ErrCodeFetchTimeout     = "ERR_301_FETCH_TIMEOUT"
	ErrCodeFetchUnavailable = "ERR_302_FETCH_UNAVAILABLE"
	ErrCodeFetchStatus      = "ERR_303_FETCH_STATUS"

	// Parse and validation errors (400-499)
	ErrCodeSitemapMalformed = "ERR_401_SITEMAP_MALFORMED"
	ErrCodeInvalidPath      = "ERR_402_INVALID_PATH"
	ErrCodeInvalidAlias     = "ERR_403_INVALID_ALIAS"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts the category from the numeric portion of a
// code like "ERR_301_FETCH_TIMEOUT".
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryFetch
	case '4':
		return CategoryParse
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if code == ErrCodeStoreCorrupt {
		return SeverityFatal
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether the code represents a transient
// condition worth retrying.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeFetchTimeout, ErrCodeFetchUnavailable:
		return true
	}
	return false
}
