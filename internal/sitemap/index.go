package sitemap

import (
	"net/url"
	"time"

	"github.com/pathmend/pathmend/internal/urltoken"
)

// DefaultIndexTTL is how long a built index is considered fresh.
const DefaultIndexTTL = 15 * time.Minute

// RouteIndex is an immutable snapshot of a site's routes with derived
// token structures. It is built once per ingestion cycle and swapped
// atomically by its consumer; it is never mutated after Build returns,
// so concurrent readers need no locking.
//
// Invariants: every route has a tokenMap entry, and every token of every
// entry is an inverted-index key pointing back at that route. Route order
// is insertion order, which downstream tie-breaks depend on.
type RouteIndex struct {
	routes   []string
	tokenMap map[string][]string
	inverted map[string][]string
	builtAt  time.Time
	ttl      time.Duration
}

// Build constructs a RouteIndex from raw paths. Paths are normalized
// (leading slash, no trailing slash except root) and de-duplicated,
// keeping first occurrence order. ttl <= 0 uses DefaultIndexTTL.
func Build(paths []string, ttl time.Duration) *RouteIndex {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}

	idx := &RouteIndex{
		tokenMap: make(map[string][]string, len(paths)),
		inverted: make(map[string][]string),
		builtAt:  time.Now(),
		ttl:      ttl,
	}

	// Tracks which routes a token already points at, so inverted lists
	// stay duplicate-free while preserving route insertion order.
	seen := make(map[string]map[string]struct{})

	for _, p := range paths {
		route := urltoken.NormalizePath(p)
		if _, dup := idx.tokenMap[route]; dup {
			continue
		}

		tokens := urltoken.Tokenize(route)
		idx.routes = append(idx.routes, route)
		idx.tokenMap[route] = tokens

		for _, tok := range tokens {
			routesFor, ok := seen[tok]
			if !ok {
				routesFor = make(map[string]struct{})
				seen[tok] = routesFor
			}
			if _, dup := routesFor[route]; dup {
				continue
			}
			routesFor[route] = struct{}{}
			idx.inverted[tok] = append(idx.inverted[tok], route)
		}
	}
	return idx
}

// FromEntries builds an index from fetched sitemap entries, reducing each
// absolute URL to its path. Entries whose Loc does not parse are skipped.
func FromEntries(entries []Entry, ttl time.Duration) *RouteIndex {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		u, err := url.Parse(e.Loc)
		if err != nil {
			continue
		}
		paths = append(paths, u.Path)
	}
	return Build(paths, ttl)
}

// Routes returns the indexed routes in insertion order. The returned
// slice is a copy; the index stays immutable.
func (idx *RouteIndex) Routes() []string {
	out := make([]string, len(idx.routes))
	copy(out, idx.routes)
	return out
}

// Tokens returns the token list of a route, or nil when unindexed.
func (idx *RouteIndex) Tokens(route string) []string {
	return idx.tokenMap[urltoken.NormalizePath(route)]
}

// Contains reports whether a route is in the index.
func (idx *RouteIndex) Contains(route string) bool {
	_, ok := idx.tokenMap[urltoken.NormalizePath(route)]
	return ok
}

// Lookup returns the routes containing a token, in route insertion order.
func (idx *RouteIndex) Lookup(token string) []string {
	return idx.inverted[token]
}

// Candidates returns the union of routes sharing any of the given tokens,
// in route insertion order. This is the cheap pre-filter used before full
// similarity scoring.
func (idx *RouteIndex) Candidates(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	want := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		want[t] = struct{}{}
	}

	var out []string
	for _, route := range idx.routes {
		for _, tok := range idx.tokenMap[route] {
			if _, ok := want[tok]; ok {
				out = append(out, route)
				break
			}
		}
	}
	return out
}

// Len returns the number of indexed routes.
func (idx *RouteIndex) Len() int { return len(idx.routes) }

// BuiltAt returns when the snapshot was built.
func (idx *RouteIndex) BuiltAt() time.Time { return idx.builtAt }

// Stale reports whether the snapshot has outlived its TTL. Staleness is
// explicit: nothing refreshes mid-request, callers decide when to rebuild.
func (idx *RouteIndex) Stale() bool {
	return time.Since(idx.builtAt) > idx.ttl
}
