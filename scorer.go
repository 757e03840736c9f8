package rulematcher

import (
	"sort"
	"strings"
	"unicode"
)

// ruleScore is one scored rule, carrying enough provenance for the
// engine's deterministic tie-breaking.
type ruleScore struct {
	rule    *Rule
	version int64
	score   float64
	signals SignalBreakdown
}

// scorer blends the three similarity signals into a composite score per
// rule. The composite is the maximum of the vector cosine and the
// word-overlap ratio, plus the additive boost when the gate passes; Dice
// similarity is carried separately as the tie-breaker and the secondary
// typo acceptance path.
type scorer struct {
	calculator SimilarityCalculator

	// Boost gate: BOTH limits must hold. The strict conjunction suppresses
	// false positives where short generic queries matched unrelated rules
	// on one or two incidental shared tokens.
	boostMinShared int
	boostMinRatio  float64
	boostBonus     float64
}

func newScorer(config *Config) *scorer {
	return &scorer{
		calculator:     NewSimilarityCalculator(),
		boostMinShared: config.BoostMinSharedTokens,
		boostMinRatio:  config.BoostMinOverlapRatio,
		boostBonus:     config.BoostBonus,
	}
}

// score ranks every rule of a snapshot against the query, best first.
// A rule with several question phrasings scores as its best phrasing.
// Never re-fits the model: the query is only transformed into the
// snapshot's existing vector space.
func (s *scorer) score(queryTokens []string, rawQuery string, snap *snapshot) []ruleScore {
	if snap.empty() || snap.model == nil || len(queryTokens) == 0 {
		return nil
	}

	queryVector := snap.model.Transform(queryTokens)
	cosines := s.calculator.BatchSimilarity(queryVector, snap.vectors)
	queryPhrase := comparisonForm(rawQuery)

	best := make(map[int]ruleScore, len(snap.rules))

	for i, row := range snap.rows {
		cosine := 0.0
		if i < len(cosines) {
			cosine = cosines[i]
		}
		if cosine < 0 {
			// Negative cosine carries no signal for term-weight vectors
			cosine = 0
		}

		dice := s.calculator.DiceCoefficient(queryPhrase, row.phrase)
		shared, ratio := s.calculator.Overlap(queryTokens, row.tokenSet)
		boosted := shared >= s.boostMinShared && ratio >= s.boostMinRatio

		composite := cosine
		if ratio > composite {
			composite = ratio
		}
		if boosted {
			composite += s.boostBonus
		}

		candidate := ruleScore{
			rule:    &snap.rules[row.ruleIdx],
			version: snap.version,
			score:   composite,
			signals: SignalBreakdown{
				Cosine:       cosine,
				Dice:         dice,
				OverlapRatio: ratio,
				SharedTokens: shared,
				Boosted:      boosted,
			},
		}

		current, seen := best[row.ruleIdx]
		if !seen || betterScore(candidate, current) {
			best[row.ruleIdx] = candidate
		}
	}

	ranked := make([]ruleScore, 0, len(best))
	for _, candidate := range best {
		ranked = append(ranked, candidate)
	}
	sortRuleScores(ranked)

	return ranked
}

// betterScore orders two candidates: composite first, Dice as tie-breaker,
// then most recently reloaded snapshot, then rule id for stability.
func betterScore(a, b ruleScore) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.signals.Dice != b.signals.Dice {
		return a.signals.Dice > b.signals.Dice
	}
	if a.version != b.version {
		return a.version > b.version
	}
	return a.rule.ID < b.rule.ID
}

func sortRuleScores(ranked []ruleScore) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return betterScore(ranked[i], ranked[j])
	})
}

// comparisonForm lowercases text and strips edge whitespace and punctuation.
// Both sides of the Dice comparison go through it, so a trailing question
// mark on a stored phrasing or a query adds no noise bigrams.
func comparisonForm(text string) string {
	return strings.ToLower(strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
}
