package similarity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pathmend/pathmend/internal/synonyms"
	"github.com/pathmend/pathmend/internal/urltoken"
)

// Matcher defaults.
const (
	// DefaultMinConfidence is the floor below which a candidate is not
	// reported at all. The router applies its own, higher redirect
	// threshold on top.
	DefaultMinConfidence = 0.3

	// DefaultMaxEditDistance is the largest token edit distance that
	// still earns fuzzy credit.
	DefaultMaxEditDistance = 2

	// DefaultBatchChunkSize is how many queries one batch worker scores.
	DefaultBatchChunkSize = 16
)

// Match is one scored comparison between a query path and a candidate
// route. Ephemeral: produced per request, never persisted.
type Match struct {
	Route         string
	Confidence    float64
	MatchedTokens []string
	Reasoning     string
}

// MatcherConfig tunes a PathMatcher. Zero values fall back to defaults.
type MatcherConfig struct {
	MinConfidence   float64
	MaxEditDistance int
	// FuzzyCredit is the partial credit for near-miss tokens
	// (edit distance within MaxEditDistance). Defaults to the synonym
	// group weight so typos and synonyms count the same.
	FuzzyCredit float64
	// BatchChunkSize bounds per-goroutine work in BatchBestMatch.
	BatchChunkSize int
}

// PathMatcher compares URL paths token-by-token, granting full credit for
// exact token matches and partial credit for synonyms and near-misses.
type PathMatcher struct {
	dict *synonyms.Dictionary
	cfg  MatcherConfig
}

// NewPathMatcher creates a matcher around the given synonym dictionary.
// The dictionary is injected, not defaulted: the caller owns its mutation.
func NewPathMatcher(dict *synonyms.Dictionary, cfg MatcherConfig) *PathMatcher {
	if dict == nil {
		dict = synonyms.New()
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.MaxEditDistance <= 0 {
		cfg.MaxEditDistance = DefaultMaxEditDistance
	}
	if cfg.FuzzyCredit <= 0 {
		cfg.FuzzyCredit = synonyms.DefaultGroupWeight
	}
	if cfg.BatchChunkSize <= 0 {
		cfg.BatchChunkSize = DefaultBatchChunkSize
	}
	return &PathMatcher{dict: dict, cfg: cfg}
}

// PathSimilarity scores two paths in [0,1]. Each token in one path takes
// its best credit against any token of the other; the per-direction
// averages are then averaged, which keeps the score symmetric. Two empty
// paths score 1, one empty path scores 0.
func (m *PathMatcher) PathSimilarity(a, b string) float64 {
	ta := urltoken.Tokenize(a)
	tb := urltoken.Tokenize(b)

	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	return (m.directionalScore(ta, tb) + m.directionalScore(tb, ta)) / 2
}

// directionalScore averages, over tokens of from, the best credit earned
// against any token of to.
func (m *PathMatcher) directionalScore(from, to []string) float64 {
	var sum float64
	for _, t := range from {
		sum += m.bestTokenCredit(t, to)
	}
	return sum / float64(len(from))
}

// bestTokenCredit returns max(exact, synonym weight, fuzzy credit) of a
// token against a token list.
func (m *PathMatcher) bestTokenCredit(token string, against []string) float64 {
	var best float64
	for _, other := range against {
		if token == other {
			return 1
		}
		if w := m.dict.Weight(token, other); w > best {
			best = w
		}
		if best >= m.cfg.FuzzyCredit {
			continue
		}
		if m.withinEditBound(token, other) {
			best = m.cfg.FuzzyCredit
		}
	}
	return best
}

// withinEditBound grants fuzzy credit only when both the edit distance and
// the length difference stay inside MaxEditDistance. The length check is a
// cheap pre-filter and also stops short tokens from matching wildly
// different short tokens.
func (m *PathMatcher) withinEditBound(a, b string) bool {
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > m.cfg.MaxEditDistance {
		return false
	}
	return EditDistance(a, b) <= m.cfg.MaxEditDistance
}

// BestMatch scores every candidate against the query and returns the
// single best Match at or above MinConfidence, or nil when nothing
// qualifies. Ties keep the first-encountered candidate, so candidate
// iteration order is part of the contract.
func (m *PathMatcher) BestMatch(query string, candidates []string) *Match {
	var best *Match
	for _, candidate := range candidates {
		score := m.PathSimilarity(query, candidate)
		if score < m.cfg.MinConfidence {
			continue
		}
		if best == nil || score > best.Confidence {
			best = m.newMatch(query, candidate, score)
		}
	}
	return best
}

// Rank returns every candidate at or above MinConfidence, sorted by
// descending confidence. Equal confidence preserves candidate order.
func (m *PathMatcher) Rank(query string, candidates []string) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		score := m.PathSimilarity(query, candidate)
		if score < m.cfg.MinConfidence {
			continue
		}
		matches = append(matches, *m.newMatch(query, candidate, score))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// BatchBestMatch resolves independent queries concurrently in fixed-size
// chunks. Output order always equals input order; concurrency is an
// optimization, never a semantic.
func (m *PathMatcher) BatchBestMatch(ctx context.Context, queries []string, candidates []string) ([]*Match, error) {
	results := make([]*Match, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(queries); start += m.cfg.BatchChunkSize {
		end := start + m.cfg.BatchChunkSize
		if end > len(queries) {
			end = len(queries)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = m.BestMatch(queries[i], candidates)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// newMatch builds a Match with matched tokens and a human-readable
// reasoning string for logs and not-found payloads.
func (m *PathMatcher) newMatch(query, candidate string, score float64) *Match {
	queryTokens := urltoken.Tokenize(query)
	candTokens := urltoken.Tokenize(candidate)

	matched := make([]string, 0, len(queryTokens))
	unmatched := make([]string, 0, len(queryTokens))
	for _, t := range queryTokens {
		if m.bestTokenCredit(t, candTokens) > 0 {
			matched = append(matched, t)
		} else {
			unmatched = append(unmatched, t)
		}
	}

	reasoning := fmt.Sprintf("matched %d/%d tokens [%s]", len(matched), len(queryTokens), strings.Join(matched, " "))
	if len(unmatched) > 0 {
		reasoning += fmt.Sprintf(", unmatched [%s]", strings.Join(unmatched, " "))
	}
	reasoning += fmt.Sprintf(", confidence %.0f%%", score*100)

	return &Match{
		Route:         candidate,
		Confidence:    score,
		MatchedTokens: matched,
		Reasoning:     reasoning,
	}
}
