package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesClassification(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeStoreWrite, CategoryStorage, SeverityError, false},
		{ErrCodeStoreCorrupt, CategoryStorage, SeverityFatal, false},
		{ErrCodeFetchTimeout, CategoryFetch, SeverityWarning, true},
		{ErrCodeFetchUnavailable, CategoryFetch, SeverityWarning, true},
		{ErrCodeSitemapMalformed, CategoryParse, SeverityError, false},
		{ErrCodeInternal, CategoryInternal, SeverityError, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.severity, e.Severity)
			assert.Equal(t, tt.retryable, e.Retryable)
		})
	}
}

func TestErrorString(t *testing.T) {
	e := New(ErrCodeFetchStatus, "sitemap returned 503", nil)
	assert.Equal(t, "[ERR_303_FETCH_STATUS] sitemap returned 503", e.Error())
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(ErrCodeFetchUnavailable, cause)

	require.NotNil(t, e)
	assert.Equal(t, "connection refused", e.Message)
	assert.ErrorIs(t, e, cause)

	// Wrapping with %w keeps the code reachable through the chain.
	outer := fmt.Errorf("ingest failed: %w", e)
	assert.Equal(t, ErrCodeFetchUnavailable, GetCode(outer))
	assert.True(t, IsRetryable(outer))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(ErrCodeFetchTimeout, "slow upstream", nil)
	b := New(ErrCodeFetchTimeout, "different message", nil)
	c := New(ErrCodeFetchStatus, "bad status", nil)

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestWithDetail(t *testing.T) {
	e := FetchError("fetch failed", nil).
		WithDetail("url", "https://example.com/sitemap.xml").
		WithDetail("attempt", "2")

	assert.Equal(t, "https://example.com/sitemap.xml", e.Details["url"])
	assert.Equal(t, "2", e.Details["attempt"])
}

func TestHelpersOnForeignErrors(t *testing.T) {
	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.Empty(t, GetCode(plain))
	assert.False(t, IsRetryable(nil))
}
