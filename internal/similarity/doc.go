// Package similarity scores how alike two strings or URL paths are.
//
// Five independent algorithms (Levenshtein, Jaro-Winkler, n-gram Dice,
// Soundex, token cosine) each produce a [0,1] score and satisfy identity,
// symmetry and boundedness. Combine folds per-algorithm scores into one
// weighted value.
//
// PathMatcher layers token-level path comparison on top: tokens earn full
// credit for exact matches, partial credit for synonym-group membership or
// small edit distances, and the two directional averages are averaged so the
// result stays symmetric.
package similarity
