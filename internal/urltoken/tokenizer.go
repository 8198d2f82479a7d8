// Package urltoken splits URL paths into normalized tokens for matching.
// Tokens are lowercase, percent-decoded, and never contain separators.
package urltoken

import (
	"net/url"
	"sort"
	"strings"
)

// separators are the characters a path is split on. One or more adjacent
// separators count as a single split point.
func isSeparator(r rune) bool {
	return r == '/' || r == '-' || r == '_'
}

// Tokenize splits a path into ordered, lowercase tokens.
// Percent-encoding is decoded first; on decode failure the raw string is
// used as-is. Empty fragments are dropped, so "/", "" and "///" all
// tokenize to an empty (non-nil) slice.
//
// Token order follows path segment order. Callers that need order- and
// duplicate-insensitive comparison should use SemanticSet instead.
func Tokenize(path string) []string {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		decoded = path
	}

	trimmed := strings.TrimFunc(decoded, isSeparator)
	if trimmed == "" {
		return []string{}
	}

	fields := strings.FieldsFunc(trimmed, isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// SemanticSet returns the sorted, de-duplicated tokens of a path.
// Two paths with the same semantic set contain the same vocabulary
// regardless of segment order or repetition.
func SemanticSet(path string) []string {
	tokens := Tokenize(path)
	if len(tokens) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(tokens))
	set := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		set = append(set, t)
	}
	sort.Strings(set)
	return set
}

// JaccardOverlap computes |A∩B| / |A∪B| over the token sets of two paths.
// Both empty yields 1 (identical emptiness); exactly one empty yields 0.
func JaccardOverlap(pathA, pathB string) float64 {
	a := SemanticSet(pathA)
	b := SemanticSet(pathB)

	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inA := make(map[string]struct{}, len(a))
	for _, t := range a {
		inA[t] = struct{}{}
	}

	intersection := 0
	for _, t := range b {
		if _, ok := inA[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Segments splits a path on "/" only, preserving hyphenated segment names.
// Used by the router's cheap pre-rank heuristics, which care about whole
// path segments rather than individual words.
func Segments(path string) []string {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		decoded = path
	}

	parts := strings.Split(strings.Trim(decoded, "/"), "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		segs = append(segs, strings.ToLower(p))
	}
	return segs
}

// NormalizePath canonicalizes a route path: ensures a leading slash and
// strips any trailing slash except on the root itself.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
