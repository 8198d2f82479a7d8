package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathmend/pathmend/internal/hallog"
	"github.com/pathmend/pathmend/internal/router"
)

func newTestServer(t *testing.T, routes ...string) (*Server, *hallog.MemorySink) {
	t.Helper()
	sink := hallog.NewMemorySink(0)
	resolver := router.New(router.DefaultConfig(), nil, sink, nil)
	resolver.LoadRoutes(routes)
	return New(Config{Host: "127.0.0.1", Port: 0}, resolver, nil), sink
}

func doJSON(t *testing.T, h http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResolveRedirect(t *testing.T) {
	s, _ := newTestServer(t, "/products/electronics/phones")

	rec := doJSON(t, s.Handler(), "GET", "/resolve?path=/products/electronics/phone", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var d router.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.True(t, d.ShouldRedirect)
	assert.Equal(t, "/products/electronics/phones", d.RedirectPath)
	assert.Greater(t, d.Match.Confidence, 0.7)
	assert.Equal(t, router.MethodSemantic, d.Match.Method)
}

func TestResolveExact(t *testing.T) {
	s, _ := newTestServer(t, "/shop")

	rec := doJSON(t, s.Handler(), "GET", "/resolve?path=/shop", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var d router.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.False(t, d.ShouldRedirect)
	assert.Nil(t, d.NotFound)
	assert.Equal(t, 1.0, d.Match.Confidence)
}

func TestResolveNotFoundReturns404WithPayload(t *testing.T) {
	s, _ := newTestServer(t, "/products/phones", "/shop")

	rec := doJSON(t, s.Handler(), "GET", "/resolve?path=/zzz/qqq", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var d router.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	require.NotNil(t, d.NotFound)
	assert.Equal(t, "NOT_FOUND", d.NotFound.Error)
	assert.Equal(t, "/zzz/qqq", d.NotFound.RequestedPath)
	assert.LessOrEqual(t, len(d.NotFound.Suggestions), 3)
	assert.NotEmpty(t, d.NotFound.AIHint)
}

func TestResolveRequiresPath(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), "GET", "/resolve", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveAgentHeaderReachesLog(t *testing.T) {
	s, sink := newTestServer(t, "/products/phones")

	doJSON(t, s.Handler(), "GET", "/resolve?path=/products/phone", "",
		map[string]string{"X-Agent-Type": "gpt-crawler"})

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "gpt-crawler", entries[0].AgentType)
}

func TestAliasLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "/docs/getting-started")
	h := s.Handler()

	// Add an alias for a known route.
	rec := doJSON(t, h, "POST", "/aliases", `{"from":"/documentation","to":"/docs/getting-started"}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The alias resolves.
	rec = doJSON(t, h, "GET", "/resolve?path=/documentation", "", nil)
	var d router.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, router.MethodAlias, d.Match.Method)

	// It shows up in the list.
	rec = doJSON(t, h, "GET", "/aliases", "", nil)
	var aliases map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aliases))
	assert.Equal(t, "/docs/getting-started", aliases["/documentation"])

	// And can be removed.
	rec = doJSON(t, h, "DELETE", "/aliases?from=/documentation", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, "GET", "/aliases", "", nil)
	aliases = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aliases))
	assert.Empty(t, aliases)
}

func TestAddAliasRejectsUnknownTarget(t *testing.T) {
	s, _ := newTestServer(t, "/shop")
	rec := doJSON(t, s.Handler(), "POST", "/aliases", `{"from":"/a","to":"/nonexistent"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddAliasValidation(t *testing.T) {
	s, _ := newTestServer(t, "/shop")
	h := s.Handler()

	rec := doJSON(t, h, "POST", "/aliases", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, "POST", "/aliases", `{"from":"","to":"/shop"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "/shop")
	h := s.Handler()

	doJSON(t, h, "GET", "/resolve?path=/shop", "", nil)
	doJSON(t, h, "GET", "/resolve?path=/zzz", "", nil)

	rec := doJSON(t, h, "GET", "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap router.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(2), snap.TotalRequests)
	assert.Equal(t, uint64(1), snap.ExactMatches)
	assert.Equal(t, uint64(1), snap.NotFound)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "/a", "/b")

	rec := doJSON(t, s.Handler(), "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["routes"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "/shop")
	h := s.Handler()

	doJSON(t, h, "GET", "/resolve?path=/shop", "", nil)

	rec := doJSON(t, h, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "pathmend_requests_total 1")
	assert.Contains(t, body, "pathmend_exact_matches_total 1")
	assert.Contains(t, body, "pathmend_latency_avg_ms")
}
