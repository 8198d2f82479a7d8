// Package router resolves hallucinated URLs to the closest valid route.
//
// A request walks a fixed decision sequence: exact match against the
// loaded route set, then the alias map, then a time-boxed fuzzy search,
// and finally a structured not-found response with suggestions. The
// latency budget is advisory: elapsed time is checked between steps and
// the strategy degrades (candidates are capped, search is skipped) rather
// than pre-empting work already in flight.
//
// A Router owns all of its mutable state. Concurrent Resolve calls are
// safe; LoadRoutes, SetIndex and alias administration are single-writer
// operations.
package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pathmend/pathmend/internal/hallog"
	"github.com/pathmend/pathmend/internal/similarity"
	"github.com/pathmend/pathmend/internal/sitemap"
	"github.com/pathmend/pathmend/internal/urltoken"
)

// Router orchestrates exact, alias and fuzzy resolution under a latency
// contract.
type Router struct {
	cfg     Config
	matcher *similarity.PathMatcher
	sink    hallog.Sink
	logger  *slog.Logger
	metrics *Metrics

	mu             sync.RWMutex
	index          *sitemap.RouteIndex
	aliases        map[string]string
	redirectCounts map[string]int // "(from)\x00(to)" -> fuzzy redirect count
}

// New creates a Router. A nil matcher gets a default-configured one, a
// nil sink gets a bounded memory sink, a nil logger discards.
func New(cfg Config, matcher *similarity.PathMatcher, sink hallog.Sink, logger *slog.Logger) *Router {
	if matcher == nil {
		matcher = similarity.NewPathMatcher(nil, similarity.MatcherConfig{})
	}
	if sink == nil {
		sink = hallog.NewMemorySink(0)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		cfg:            cfg.Normalize(),
		matcher:        matcher,
		sink:           sink,
		logger:         logger,
		metrics:        NewMetrics(),
		index:          sitemap.Build(nil, 0),
		aliases:        make(map[string]string),
		redirectCounts: make(map[string]int),
	}
}

// LoadRoutes replaces the valid-route set with a fresh snapshot built
// from paths. In-flight resolutions keep the snapshot they started with.
func (r *Router) LoadRoutes(paths []string) {
	r.SetIndex(sitemap.Build(paths, 0))
}

// SetIndex atomically swaps in a pre-built route index snapshot.
func (r *Router) SetIndex(idx *sitemap.RouteIndex) {
	if idx == nil {
		idx = sitemap.Build(nil, 0)
	}
	r.mu.Lock()
	r.index = idx
	r.mu.Unlock()
	r.logger.Info("route set swapped", "routes", idx.Len())
}

// Index returns the current route index snapshot.
func (r *Router) Index() *sitemap.RouteIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// AddAlias installs a manual alias from a wrong path to a valid route.
func (r *Router) AddAlias(from, to string) {
	from = urltoken.NormalizePath(from)
	to = urltoken.NormalizePath(to)
	r.mu.Lock()
	r.aliases[from] = to
	r.mu.Unlock()
	r.logger.Info("alias added", "from", from, "to", to)
}

// RemoveAlias deletes an alias. Removing a missing alias is a no-op.
func (r *Router) RemoveAlias(from string) {
	from = urltoken.NormalizePath(from)
	r.mu.Lock()
	delete(r.aliases, from)
	r.mu.Unlock()
}

// Aliases returns a copy of the alias map.
func (r *Router) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// Metrics returns the router's metrics tracker.
func (r *Router) Metrics() *Metrics { return r.metrics }

// Resolve runs the decision sequence for one requested path. agentType is
// an optional pre-classified tag carried into the hallucination log.
// Every input produces a well-formed Decision; there is no error return
// because there is no fatal outcome.
func (r *Router) Resolve(ctx context.Context, path, agentType string) Decision {
	start := time.Now()
	norm := urltoken.NormalizePath(path)

	r.mu.RLock()
	idx := r.index
	aliasTarget, hasAlias := r.aliases[norm]
	r.mu.RUnlock()

	// Step 1: the path exists as-is. Nothing to fix, nothing to log.
	if idx.Contains(norm) {
		latency := time.Since(start)
		r.metrics.record(outcomeExact, latency, false)
		return Decision{
			Match: RouteMatch{
				OriginalPath: norm,
				MatchedPath:  norm,
				Confidence:   1,
				Method:       MethodNone,
				LatencyMs:    durationMs(latency),
			},
			WithinBudget: true,
		}
	}

	// Step 2: a learned or manual alias answers in O(1).
	if hasAlias {
		latency := time.Since(start)
		r.metrics.record(outcomeAlias, latency, false)
		entry := r.emitLog(ctx, norm, aliasTarget, 1, agentType, hallog.OutcomeAliasUsed, latency)
		return Decision{
			ShouldRedirect: true,
			RedirectPath:   aliasTarget,
			Match: RouteMatch{
				OriginalPath: norm,
				MatchedPath:  aliasTarget,
				Confidence:   1,
				Method:       MethodAlias,
				LatencyMs:    durationMs(latency),
			},
			LogEntry:     entry,
			WithinBudget: true,
		}
	}

	// Step 3: check the budget before paying for similarity search.
	remaining := r.cfg.MaxLatency - time.Since(start)
	if remaining <= 0 {
		return r.notFound(ctx, start, norm, agentType, idx, true)
	}

	// Step 4: fuzzy search, with the candidate set capped when the
	// remaining budget is tight.
	candidates := r.candidates(idx, norm, remaining)
	best := r.matcher.BestMatch(norm, candidates)

	// Step 5: redirect when the best match clears the threshold.
	if best != nil && best.Confidence >= r.cfg.ConfidenceThreshold {
		r.learn(norm, best.Route)
		latency := time.Since(start)
		r.metrics.record(outcomeFuzzy, latency, false)
		entry := r.emitLog(ctx, norm, best.Route, best.Confidence, agentType, hallog.OutcomeRedirected, latency)
		r.logger.Debug("fuzzy redirect", "from", norm, "to", best.Route,
			"confidence", best.Confidence, "reasoning", best.Reasoning)
		return Decision{
			ShouldRedirect: true,
			RedirectPath:   best.Route,
			Match: RouteMatch{
				OriginalPath: norm,
				MatchedPath:  best.Route,
				Confidence:   best.Confidence,
				Method:       MethodSemantic,
				LatencyMs:    durationMs(latency),
			},
			LogEntry:     entry,
			WithinBudget: latency <= r.cfg.MaxLatency,
		}
	}

	// Step 6: nothing above threshold.
	return r.notFound(ctx, start, norm, agentType, idx, false)
}

// candidates returns the route list to score. The inverted index
// pre-filters to routes sharing at least one token with the query; when
// nothing overlaps the full set is scored so pure edit-distance matches
// can still surface. Under time pressure the pool is additionally
// pre-ranked by a cheap segment-overlap heuristic and capped, trading
// completeness for bounded worst-case cost.
func (r *Router) candidates(idx *sitemap.RouteIndex, query string, remaining time.Duration) []string {
	routes := idx.Candidates(urltoken.Tokenize(query))
	if len(routes) == 0 {
		routes = idx.Routes()
	}
	if remaining > pressureBudget || len(routes) <= pressureCandidateCap {
		return routes
	}

	querySegs := urltoken.Segments(query)
	type scored struct {
		route string
		score int
	}
	ranked := make([]scored, len(routes))
	for i, route := range routes {
		ranked[i] = scored{route: route, score: segmentOverlap(querySegs, urltoken.Segments(route))}
	}
	// Stable partial ordering: higher heuristic score first, insertion
	// order on ties.
	for i := 0; i < pressureCandidateCap; i++ {
		top := i
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].score > ranked[top].score {
				top = j
			}
		}
		if top != i {
			picked := ranked[top]
			copy(ranked[i+1:top+1], ranked[i:top])
			ranked[i] = picked
		}
	}

	out := make([]string, pressureCandidateCap)
	for i := 0; i < pressureCandidateCap; i++ {
		out[i] = ranked[i].route
	}
	return out
}

// segmentOverlap scores a candidate by shared path segments: a matching
// first segment is worth 10, every other shared segment 1.
func segmentOverlap(query, route []string) int {
	if len(query) == 0 || len(route) == 0 {
		return 0
	}
	score := 0
	if query[0] == route[0] {
		score += 10
	}
	routeSet := make(map[string]struct{}, len(route))
	for _, s := range route {
		routeSet[s] = struct{}{}
	}
	for _, s := range query[1:] {
		if _, ok := routeSet[s]; ok {
			score++
		}
	}
	return score
}

// learn counts a fuzzy redirect and promotes the pair to an alias once
// it has been chosen AliasThreshold times.
func (r *Router) learn(from, to string) {
	if !r.cfg.EnableLearning {
		return
	}
	key := from + "\x00" + to

	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirectCounts[key]++
	if r.redirectCounts[key] >= r.cfg.AliasThreshold {
		if _, exists := r.aliases[from]; !exists {
			r.aliases[from] = to
			r.logger.Info("alias learned", "from", from, "to", to,
				"after", r.redirectCounts[key])
		}
	}
}

// notFound builds the structured not-found decision. timedOut selects the
// quick suggestion heuristic; a fuzzy pass that overran the budget also
// degrades to quick suggestions.
func (r *Router) notFound(ctx context.Context, start time.Time, norm, agentType string, idx *sitemap.RouteIndex, timedOut bool) Decision {
	overBudget := timedOut || time.Since(start) > r.cfg.MaxLatency

	var suggestions []string
	if overBudget {
		suggestions = r.quickSuggestions(idx, norm)
	} else {
		for _, m := range r.matcher.Rank(norm, idx.Routes()) {
			suggestions = append(suggestions, m.Route)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
		if len(suggestions) == 0 {
			suggestions = r.quickSuggestions(idx, norm)
		}
	}

	latency := time.Since(start)
	r.metrics.record(outcomeNotFound, latency, overBudget)
	entry := r.emitLog(ctx, norm, "", 0, agentType, hallog.OutcomeNotFound, latency)

	return Decision{
		Match: RouteMatch{
			OriginalPath: norm,
			Confidence:   0,
			Method:       MethodNone,
			LatencyMs:    durationMs(latency),
		},
		LogEntry:     entry,
		WithinBudget: latency <= r.cfg.MaxLatency,
		NotFound: &NotFoundPayload{
			Error:         "NOT_FOUND",
			Code:          404,
			Message:       fmt.Sprintf("no route matches %q", norm),
			RequestedPath: norm,
			Suggestions:   suggestions,
			Timestamp:     time.Now().UTC(),
			AIHint:        "The requested path does not exist on this site. Retry with one of the suggested routes instead of guessing further.",
			TimedOut:      overBudget,
		},
	}
}

// quickSuggestions picks up to three routes containing the query's first
// segment as a substring. Cheap by construction: no similarity scoring.
// With no usable segment it falls back to the first routes in the set so
// the payload still carries something actionable.
func (r *Router) quickSuggestions(idx *sitemap.RouteIndex, norm string) []string {
	routes := idx.Routes()
	segs := urltoken.Segments(norm)

	var out []string
	if len(segs) > 0 {
		for _, route := range routes {
			if strings.Contains(route, segs[0]) {
				out = append(out, route)
				if len(out) == maxSuggestions {
					return out
				}
			}
		}
	}
	for _, route := range routes {
		if len(out) == maxSuggestions {
			break
		}
		if !containsString(out, route) {
			out = append(out, route)
		}
	}
	return out
}

// emitLog builds a log entry and hands it to the sink. Sink failures are
// logged and swallowed: persistence problems must never break resolution.
func (r *Router) emitLog(ctx context.Context, path, matched string, confidence float64, agentType string, outcome hallog.Outcome, latency time.Duration) *hallog.Entry {
	entry := hallog.NewEntry(path, matched, confidence, agentType, outcome, latency)
	if err := r.sink.Record(ctx, entry); err != nil {
		r.logger.Warn("hallucination log sink failed", "error", err)
	}
	return &entry
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
