package similarity

import "strings"

// Soundex computes the 4-character American Soundex code of a string:
// first letter kept, subsequent consonants mapped to digit classes,
// vowels/h/w skipped, adjacent repeats of the same class collapsed,
// padded with zeros or truncated to length 4. Empty input yields an
// empty code.
func Soundex(s string) string {
	s = strings.ToUpper(s)

	// Find the first letter; non-letters before it are ignored.
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	code := make([]byte, 0, 4)
	code = append(code, s[start])
	lastClass := soundexClass(s[start])

	for i := start + 1; i < len(s) && len(code) < 4; i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			lastClass = 0
			continue
		}
		class := soundexClass(c)
		switch {
		case class == 0:
			// Vowels and y reset the adjacency so a repeated class
			// separated by a vowel is coded twice (standard rule).
			if c != 'H' && c != 'W' {
				lastClass = 0
			}
		case class != lastClass:
			code = append(code, '0'+class)
			lastClass = class
		}
	}

	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// SoundexMatch reports whether two strings share a Soundex code,
// case-insensitively. Two empty inputs match (both code to ""); an empty
// input never matches a non-empty one.
func SoundexMatch(a, b string) bool {
	return Soundex(a) == Soundex(b)
}

// SoundexSimilarity exposes the phonetic match as a [0,1] score for the
// weighted combiner: 1 on matching codes, 0 otherwise.
func SoundexSimilarity(a, b string) float64 {
	if SoundexMatch(a, b) {
		return 1
	}
	return 0
}

// soundexClass returns the digit class for a consonant, 0 for vowels,
// h, w and y.
func soundexClass(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return 1
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return 2
	case 'D', 'T':
		return 3
	case 'L':
		return 4
	case 'M', 'N':
		return 5
	case 'R':
		return 6
	}
	return 0
}
