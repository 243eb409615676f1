package query

import (
	"math"
	"sort"
)

// normEpsilon keeps the cosine denominator away from zero for degenerate
// vectors.
const normEpsilon = 1e-9

// cosineSimilarity computes dot(a,b) / (|a|*|b| + eps). Slices must share a
// length; callers guarantee that via the index dimension check.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + normEpsilon)
}

// rerankByCosine scores each candidate against the query by cosine
// similarity and reorders the matches descending. Only the candidate set is
// reordered; no new candidates are admitted.
func rerankByCosine(query []float32, matches []Match) {
	for i := range matches {
		matches[i].Score = cosineSimilarity(query, matches[i].vector)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}
