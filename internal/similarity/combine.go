package similarity

// Algorithm names used as keys in score/weight maps.
const (
	AlgoLevenshtein = "levenshtein"
	AlgoJaroWinkler = "jaro_winkler"
	AlgoNGram       = "ngram"
	AlgoSoundex     = "soundex"
	AlgoCosine      = "cosine"
)

// ScoreAll runs every algorithm on a pair of strings and returns the
// per-algorithm scores, keyed by the Algo* constants.
func ScoreAll(a, b string) map[string]float64 {
	return map[string]float64{
		AlgoLevenshtein: LevenshteinSimilarity(a, b),
		AlgoJaroWinkler: JaroWinkler(a, b),
		AlgoNGram:       NGramDice(a, b),
		AlgoSoundex:     SoundexSimilarity(a, b),
		AlgoCosine:      CosineSimilarity(a, b),
	}
}

// Combine computes the weighted average Σ(score·weight)/Σ(weight) over the
// algorithms present in both maps. Algorithms missing from either map
// contribute nothing; with no overlap at all the result is 0.
func Combine(scores, weights map[string]float64) float64 {
	var weightedSum, totalWeight float64
	for algo, score := range scores {
		w, ok := weights[algo]
		if !ok || w == 0 {
			continue
		}
		weightedSum += score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
