package similarity

// DefaultNGramSize is the gram length used when none is specified (bigrams).
const DefaultNGramSize = 2

// NGramDice computes the Sørensen–Dice coefficient over character bigrams.
func NGramDice(a, b string) float64 {
	return NGramDiceN(a, b, DefaultNGramSize)
}

// NGramDiceN computes 2·|A∩B| / (|A|+|B|) over character n-gram multisets.
// A string shorter than n degrades to a single gram (the whole string), so
// short inputs still compare rather than scoring zero on principle.
func NGramDiceN(a, b string, n int) float64 {
	if n < 1 {
		n = DefaultNGramSize
	}
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	gramsA := ngrams(a, n)
	gramsB := ngrams(b, n)

	counts := make(map[string]int, len(gramsA))
	for _, g := range gramsA {
		counts[g]++
	}

	shared := 0
	for _, g := range gramsB {
		if counts[g] > 0 {
			counts[g]--
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(gramsA)+len(gramsB))
}

func ngrams(s string, n int) []string {
	runes := []rune(s)
	if len(runes) < n {
		return []string{s}
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}
