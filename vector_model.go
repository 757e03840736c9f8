package rulematcher

import (
	"math"
	"sort"
)

// tfidfModel is a term-weighting vector model fitted once over the
// normalized question phrasings of one rule-set snapshot. Queries are only
// transformed into the existing space; re-fitting per query was the
// dominant latency cost in the naive design and is exactly what the
// snapshot cache eliminates.
//
// Immutable after Fit; safe for unsynchronized concurrent reads.
type tfidfModel struct {
	vocabulary map[string]int
	idf        []float64
	dimension  int
}

// newTFIDFModel fits a model over tokenized documents. Returns nil when the
// corpus yields no vocabulary (the caller treats that as an empty model).
func newTFIDFModel(documents [][]string) *tfidfModel {
	if len(documents) == 0 {
		return nil
	}

	// Document frequency per term
	df := make(map[string]int)
	for _, tokens := range documents {
		seen := make(map[string]Empty, len(tokens))
		for _, token := range tokens {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = Empty{}
			df[token]++
		}
	}

	if len(df) == 0 {
		return nil
	}

	// Stable vocabulary ordering keeps transforms deterministic across
	// identical snapshots
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	model := &tfidfModel{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		dimension:  len(terms),
	}

	totalDocs := float64(len(documents))
	for i, term := range terms {
		model.vocabulary[term] = i
		// Smoothed IDF
		model.idf[i] = math.Log((1+totalDocs)/(1+float64(df[term]))) + 1.0
	}

	return model
}

// Dimension returns the vector dimension (vocabulary size)
func (m *tfidfModel) Dimension() int {
	return m.dimension
}

// VocabularySize returns the number of distinct terms in the model
func (m *tfidfModel) VocabularySize() int {
	return len(m.vocabulary)
}

// Transform maps a token sequence into the fitted space as an L2-normalized
// TF-IDF vector. Out-of-vocabulary tokens contribute nothing; an all-OOV
// input yields the zero vector, which cosine similarity treats as
// no-similarity.
func (m *tfidfModel) Transform(tokens []string) []float64 {
	vector := make([]float64, m.dimension)
	if len(tokens) == 0 {
		return vector
	}

	counts := make(map[int]int, len(tokens))
	total := 0
	for _, token := range tokens {
		idx, ok := m.vocabulary[token]
		if !ok {
			continue
		}
		counts[idx]++
		total++
	}

	if total == 0 {
		return vector
	}

	var norm float64
	for idx, count := range counts {
		weight := (float64(count) / float64(total)) * m.idf[idx]
		vector[idx] = weight
		norm += weight * weight
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			vector[idx] /= norm
		}
	}

	return vector
}
