package rulematcher

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

// SpellCorrector replaces out-of-vocabulary query tokens with the nearest
// vocabulary word within a small edit-distance budget. The vocabulary is
// derived from the rule corpus, so corrections always move a query toward
// words the scorer can actually match.
//
// Immutable after construction; safe for concurrent use. The engine builds
// a fresh corrector on every reload and swaps it into the normalizer.
type SpellCorrector struct {
	vocabulary  map[string]Empty
	wordList    []string
	maxDistance int
}

// NewSpellCorrector builds a corrector over the given vocabulary words.
// maxDistance is the edit-distance budget; values below 1 fall back to the
// default.
func NewSpellCorrector(words []string, maxDistance int) *SpellCorrector {
	if maxDistance < 1 {
		maxDistance = DefaultSpellMaxEditDistance
	}

	vocabulary := make(map[string]Empty, len(words))
	for _, word := range words {
		vocabulary[word] = Empty{}
	}

	wordList := make([]string, 0, len(vocabulary))
	for word := range vocabulary {
		wordList = append(wordList, word)
	}
	// Deterministic candidate order regardless of map iteration
	sort.Strings(wordList)

	return &SpellCorrector{
		vocabulary:  vocabulary,
		wordList:    wordList,
		maxDistance: maxDistance,
	}
}

// VocabularySize returns the number of distinct vocabulary words
func (sc *SpellCorrector) VocabularySize() int {
	return len(sc.vocabulary)
}

// Correct returns the nearest vocabulary word for an OOV token, or the
// token itself when it is known, too short, or has no close neighbor.
// Deterministic: identical input always yields an identical result, and
// corrected tokens are vocabulary words, so Correct(Correct(t)) == Correct(t).
func (sc *SpellCorrector) Correct(token string) string {
	if len(token) <= 2 {
		return token
	}
	if _, known := sc.vocabulary[token]; known {
		return token
	}

	// Subsequence matching shortlists most insert/delete typos cheaply;
	// transpositions fail the subsequence test, so an exhaustive scan
	// backs it up.
	if best, ok := sc.nearest(sc.shortlist(token), token); ok {
		return best
	}
	if best, ok := sc.nearest(sc.wordList, token); ok {
		return best
	}

	return token
}

func (sc *SpellCorrector) shortlist(token string) []string {
	matches := fuzzy.Find(token, sc.wordList)
	if len(matches) == 0 {
		return nil
	}

	candidates := make([]string, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, match.Str)
	}
	return candidates
}

// nearest picks the candidate with the smallest edit distance within the
// budget, breaking ties lexicographically for determinism
func (sc *SpellCorrector) nearest(candidates []string, token string) (string, bool) {
	best := ""
	bestDistance := sc.maxDistance + 1

	for _, candidate := range candidates {
		// Length difference is a lower bound on edit distance
		if lengthDelta(candidate, token) > sc.maxDistance {
			continue
		}
		distance := levenshtein(token, candidate)
		if distance > sc.maxDistance {
			continue
		}
		if distance < bestDistance ||
			(distance == bestDistance && best != "" && candidate < best) {
			best = candidate
			bestDistance = distance
		}
	}

	if bestDistance > sc.maxDistance {
		return "", false
	}
	return best, true
}

func lengthDelta(a, b string) int {
	if len(a) > len(b) {
		return len(a) - len(b)
	}
	return len(b) - len(a)
}

// levenshtein computes the edit distance between two strings using the
// space-optimized two-row dynamic programming form
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Keep a as the shorter string so the rows stay small
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1]
			} else {
				curr[i] = 1 + min3(prev[i-1], prev[i], curr[i-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}

func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
