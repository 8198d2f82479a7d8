package similarity

// DefaultPrefixScale is the standard Winkler prefix bonus factor.
const DefaultPrefixScale = 0.1

// maxPrefixLen caps the common prefix counted by the Winkler bonus.
const maxPrefixLen = 4

// Jaro computes the Jaro similarity of two strings: the average of the
// match ratios over both strings, adjusted for transpositions. Matches are
// counted within a window of ⌊max(len)/2⌋−1 positions.
func Jaro(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	window := maxInt(len(ra), len(rb))/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(ra))
	matchedB := make([]bool, len(rb))

	matches := 0
	for i := range ra {
		lo := maxInt(0, i-window)
		hi := minInt(len(rb)-1, i+window)
		for j := lo; j <= hi; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	// Count transpositions: matched characters out of relative order.
	transpositions := 0
	j := 0
	for i := range ra {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(ra)) + m/float64(len(rb)) + (m-t)/m) / 3
}

// JaroWinkler adds a common-prefix bonus to the Jaro score:
// jaro + prefixLen(≤4) × scale × (1−jaro). The result is always ≥ Jaro.
func JaroWinkler(a, b string) float64 {
	return JaroWinklerScaled(a, b, DefaultPrefixScale)
}

// JaroWinklerScaled is JaroWinkler with an explicit prefix scale,
// clamped to [0, 0.25] so the score cannot exceed 1.
func JaroWinklerScaled(a, b string, prefixScale float64) float64 {
	if prefixScale < 0 {
		prefixScale = 0
	}
	if prefixScale > 0.25 {
		prefixScale = 0.25
	}

	jaro := Jaro(a, b)

	prefix := 0
	ra := []rune(a)
	rb := []rune(b)
	for prefix < len(ra) && prefix < len(rb) && prefix < maxPrefixLen && ra[prefix] == rb[prefix] {
		prefix++
	}

	return jaro + float64(prefix)*prefixScale*(1-jaro)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
