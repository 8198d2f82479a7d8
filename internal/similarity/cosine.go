package similarity

import (
	"math"
	"strings"
	"unicode"
)

// CosineSimilarity computes the cosine of the term-frequency vectors of
// two strings. Terms are lowercase words split on whitespace and
// punctuation. Two empty vectors score 1; an empty vector against a
// non-empty one scores 0.
func CosineSimilarity(a, b string) float64 {
	va := termFrequencies(a)
	vb := termFrequencies(b)

	if len(va) == 0 && len(vb) == 0 {
		return 1
	}
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, fa := range va {
		normA += float64(fa) * float64(fa)
		if fb, ok := vb[term]; ok {
			dot += float64(fa) * float64(fb)
		}
	}
	for _, fb := range vb {
		normB += float64(fb) * float64(fb)
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termFrequencies(s string) map[string]int {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}
	return freq
}
