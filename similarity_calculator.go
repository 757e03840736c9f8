package rulematcher

import "math"

// SimilarityCalculator computes the raw similarity signals used by the
// scorer: vector cosine, character-bigram Dice, and word-overlap statistics.
type SimilarityCalculator interface {
	// CosineSimilarity computes cosine similarity between two vectors.
	// Returns 0.0 for invalid inputs (empty, nil, mismatched dimensions,
	// or zero vectors).
	CosineSimilarity(v1, v2 []float64) float64

	// BatchSimilarity computes similarities between one vector and many.
	// Returns empty slice for invalid query, and 0.0 for invalid candidates.
	BatchSimilarity(query []float64, candidates [][]float64) []float64

	// DiceCoefficient computes character-bigram Dice similarity between two
	// strings in [0, 1]. Catches typos and surface variation the vector
	// signal misses.
	DiceCoefficient(a, b string) float64

	// Overlap computes shared distinct token count and the fraction of the
	// query's distinct tokens present in the candidate's token set.
	Overlap(queryTokens []string, candidateSet map[string]Empty) (shared int, ratio float64)
}

// similarityCalculator implements the SimilarityCalculator interface
type similarityCalculator struct{}

// NewSimilarityCalculator creates a new SimilarityCalculator instance
func NewSimilarityCalculator() SimilarityCalculator {
	return &similarityCalculator{}
}

// isZeroVector checks if a vector is a zero vector (all elements are zero)
func isZeroVector(v []float64) bool {
	for _, val := range v {
		if val != 0.0 {
			return false
		}
	}
	return true
}

// isValidVector checks if a vector is valid (not nil, not empty, not zero)
func isValidVector(v []float64) bool {
	if len(v) == 0 {
		return false
	}
	return !isZeroVector(v)
}

// CosineSimilarity computes cosine similarity between two vectors
// Formula: cos(θ) = (v1 · v2) / (||v1|| * ||v2||)
func (*similarityCalculator) CosineSimilarity(v1, v2 []float64) float64 {
	if !isValidVector(v1) || !isValidVector(v2) || len(v1) != len(v2) {
		return 0.0
	}

	var dotProduct, norm1, norm2 float64

	// Compute dot product and norms in a single pass for efficiency
	for i := range v1 {
		dotProduct += v1[i] * v2[i]
		norm1 += v1[i] * v1[i]
		norm2 += v2[i] * v2[i]
	}

	if norm1 == 0.0 || norm2 == 0.0 {
		return 0.0
	}

	similarity := dotProduct / (math.Sqrt(norm1) * math.Sqrt(norm2))

	// Clamp result to [-1, 1] to handle floating point precision issues
	if similarity > 1.0 {
		similarity = 1.0
	} else if similarity < -1.0 {
		similarity = -1.0
	}

	return similarity
}

// BatchSimilarity computes similarities between one query vector and
// multiple candidate vectors, precomputing the query norm once
func (*similarityCalculator) BatchSimilarity(query []float64, candidates [][]float64) []float64 {
	if len(query) == 0 || len(candidates) == 0 {
		return []float64{}
	}

	results := make([]float64, len(candidates))

	var queryNorm float64
	for i := range query {
		queryNorm += query[i] * query[i]
	}
	if queryNorm == 0.0 {
		return results // All zeros
	}
	querySqrtNorm := math.Sqrt(queryNorm)

	for idx, candidate := range candidates {
		if len(candidate) == 0 || len(candidate) != len(query) {
			results[idx] = 0.0
			continue
		}

		var dotProduct, candidateNorm float64
		for i := range query {
			dotProduct += query[i] * candidate[i]
			candidateNorm += candidate[i] * candidate[i]
		}

		if candidateNorm == 0.0 {
			results[idx] = 0.0
			continue
		}

		similarity := dotProduct / (querySqrtNorm * math.Sqrt(candidateNorm))
		if similarity > 1.0 {
			similarity = 1.0
		} else if similarity < -1.0 {
			similarity = -1.0
		}

		results[idx] = similarity
	}

	return results
}

// DiceCoefficient computes 2*|bigrams(a) ∩ bigrams(b)| / (|bigrams(a)| + |bigrams(b)|)
// over character bigrams. Identical strings score 1.0; strings shorter than
// two runes score 1.0 only on exact equality, else 0.0.
func (*similarityCalculator) DiceCoefficient(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0.0
		}
		return 1.0
	}

	bigramsA := characterBigrams(a)
	bigramsB := characterBigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0.0
	}

	totalA := 0
	for _, count := range bigramsA {
		totalA += count
	}
	totalB := 0
	for _, count := range bigramsB {
		totalB += count
	}

	shared := 0
	for bigram, countA := range bigramsA {
		countB, ok := bigramsB[bigram]
		if !ok {
			continue
		}
		if countA < countB {
			shared += countA
		} else {
			shared += countB
		}
	}

	return 2.0 * float64(shared) / float64(totalA+totalB)
}

// Overlap computes the word-overlap statistics: the number of the query's
// distinct tokens present in the candidate set, and that count as a fraction
// of the query's distinct tokens
func (*similarityCalculator) Overlap(
	queryTokens []string,
	candidateSet map[string]Empty,
) (int, float64) {
	if len(queryTokens) == 0 || len(candidateSet) == 0 {
		return 0, 0.0
	}

	distinct := make(map[string]Empty, len(queryTokens))
	for _, token := range queryTokens {
		distinct[token] = Empty{}
	}

	shared := 0
	for token := range distinct {
		if _, ok := candidateSet[token]; ok {
			shared++
		}
	}

	return shared, float64(shared) / float64(len(distinct))
}

func characterBigrams(s string) map[string]int {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}

	bigrams := make(map[string]int, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		bigrams[string(runes[i:i+2])]++
	}
	return bigrams
}
