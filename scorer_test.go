package rulematcher

import (
	"math"
	"testing"
)

// buildSnapshot runs rules through a bare tokenizer (no optional passes)
// so token sets in scoring tests are exactly the question words.
func buildSnapshot(t *testing.T, category Intent, rules []Rule) *snapshot {
	t.Helper()

	index := NewRuleIndex(
		NewStaticRuleSource(rules), NewTextNormalizer(NormalizerOptions{}), nil)
	if err := index.Reload(category); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	snap, err := index.Snapshot(category)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	return snap
}

func TestScore_BoostGate(t *testing.T) {
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:        "faq-greek",
			Category:  IntentFAQ,
			Questions: []string{"alpha beta gamma delta epsilon"},
			Answer:    Answer{Text: "greek"},
		},
	})
	s := newScorer(DefaultConfig())

	tests := []struct {
		name           string
		query          string
		expectedShared int
		expectedRatio  float64
		boosted        bool
	}{
		{
			// 3 shared of 5 distinct query tokens sits exactly on the
			// 60% boundary, which counts as passing
			name:           "both limits met",
			query:          "alpha beta gamma zebra yonder",
			expectedShared: 3,
			expectedRatio:  3.0 / 5.0,
			boosted:        true,
		},
		{
			name:           "enough shared tokens but ratio below limit",
			query:          "alpha beta gamma zebra yonder quince",
			expectedShared: 3,
			expectedRatio:  3.0 / 6.0,
			boosted:        false,
		},
		{
			name:           "perfect ratio but too few shared tokens",
			query:          "alpha beta",
			expectedShared: 2,
			expectedRatio:  1.0,
			boosted:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := s.score(NewTextNormalizer(NormalizerOptions{}).Normalize(tt.query), tt.query, snap)
			if len(ranked) != 1 {
				t.Fatalf("Expected 1 scored rule, got %d", len(ranked))
			}

			top := ranked[0]
			if top.signals.SharedTokens != tt.expectedShared {
				t.Errorf("SharedTokens = %d, expected %d",
					top.signals.SharedTokens, tt.expectedShared)
			}
			if math.Abs(top.signals.OverlapRatio-tt.expectedRatio) > 1e-9 {
				t.Errorf("OverlapRatio = %v, expected %v",
					top.signals.OverlapRatio, tt.expectedRatio)
			}
			if top.signals.Boosted != tt.boosted {
				t.Errorf("Boosted = %v, expected %v", top.signals.Boosted, tt.boosted)
			}

			base := top.signals.Cosine
			if top.signals.OverlapRatio > base {
				base = top.signals.OverlapRatio
			}
			expectedScore := base
			if tt.boosted {
				expectedScore += DefaultBoostBonus
			}
			if math.Abs(top.score-expectedScore) > 1e-9 {
				t.Errorf("score = %v, expected %v", top.score, expectedScore)
			}
		})
	}
}

func TestScore_BestPhrasingWins(t *testing.T) {
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:       "faq-library-hours",
			Category: IntentFAQ,
			Questions: []string{
				"when does the library open",
				"library opening hours",
			},
			Answer: Answer{Text: "8 am"},
		},
	})
	s := newScorer(DefaultConfig())

	query := "library opening hours"
	ranked := s.score([]string{"library", "opening", "hours"}, query, snap)
	if len(ranked) != 1 {
		t.Fatalf("Expected 1 scored rule, got %d", len(ranked))
	}

	top := ranked[0]
	if math.Abs(top.signals.Dice-1.0) > 1e-9 {
		t.Errorf("Dice = %v, expected 1.0 for the exact phrasing", top.signals.Dice)
	}
	if math.Abs(top.signals.OverlapRatio-1.0) > 1e-9 {
		t.Errorf("OverlapRatio = %v, expected 1.0", top.signals.OverlapRatio)
	}
	// 3 shared tokens with full overlap passes the boost gate
	if !top.signals.Boosted {
		t.Error("Expected boosted score for the exact phrasing")
	}
}

func TestScore_DiceIgnoresEdgePunctuation(t *testing.T) {
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:        "faq-library-hours",
			Category:  IntentFAQ,
			Questions: []string{"Library opening hours?"},
			Answer:    Answer{Text: "8 am"},
		},
	})
	s := newScorer(DefaultConfig())

	ranked := s.score([]string{"library", "opening", "hours"}, "library opening hours!", snap)
	if len(ranked) != 1 {
		t.Fatalf("Expected 1 scored rule, got %d", len(ranked))
	}

	if dice := ranked[0].signals.Dice; math.Abs(dice-1.0) > 1e-9 {
		t.Errorf("Dice = %v, expected 1.0 with edge punctuation stripped", dice)
	}
}

func TestComparisonForm(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Library opening hours?", "library opening hours"},
		{"  tuition fee!  ", "tuition fee"},
		{"¿where is the office?", "where is the office"},
		{"check-in desk", "check-in desk"}, // interior punctuation kept
		{"???", ""},
	}

	for _, tt := range tests {
		if got := comparisonForm(tt.input); got != tt.expected {
			t.Errorf("comparisonForm(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestScore_TieBreakByRuleID(t *testing.T) {
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:        "zz-dup",
			Category:  IntentFAQ,
			Questions: []string{"alpha beta"},
			Answer:    Answer{Text: "z"},
		},
		{
			ID:        "aa-dup",
			Category:  IntentFAQ,
			Questions: []string{"alpha beta"},
			Answer:    Answer{Text: "a"},
		},
	})
	s := newScorer(DefaultConfig())

	for i := 0; i < 20; i++ {
		ranked := s.score([]string{"alpha", "beta"}, "alpha beta", snap)
		if len(ranked) != 2 {
			t.Fatalf("Expected 2 scored rules, got %d", len(ranked))
		}
		if ranked[0].rule.ID != "aa-dup" {
			t.Fatalf("Tie broke to %q, expected %q", ranked[0].rule.ID, "aa-dup")
		}
	}
}

func TestScore_DiceBreaksScoreTies(t *testing.T) {
	// Both rules share the same token set, so cosine and overlap agree;
	// only the raw-text Dice signal separates them.
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:        "faq-spaced",
			Category:  IntentFAQ,
			Questions: []string{"beta alpha"},
			Answer:    Answer{Text: "reordered"},
		},
		{
			ID:        "faq-exact",
			Category:  IntentFAQ,
			Questions: []string{"alpha beta"},
			Answer:    Answer{Text: "exact"},
		},
	})
	s := newScorer(DefaultConfig())

	ranked := s.score([]string{"alpha", "beta"}, "alpha beta", snap)
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 scored rules, got %d", len(ranked))
	}
	if ranked[0].rule.ID != "faq-exact" {
		t.Errorf("Top rule = %q, expected %q via Dice tie-break",
			ranked[0].rule.ID, "faq-exact")
	}
}

func TestScore_EmptyInputs(t *testing.T) {
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:        "faq-greek",
			Category:  IntentFAQ,
			Questions: []string{"alpha beta gamma"},
			Answer:    Answer{Text: "greek"},
		},
	})
	s := newScorer(DefaultConfig())

	if ranked := s.score(nil, "", snap); ranked != nil {
		t.Errorf("Expected nil for empty query tokens, got %v", ranked)
	}
	if ranked := s.score([]string{"alpha"}, "alpha", nil); ranked != nil {
		t.Errorf("Expected nil for nil snapshot, got %v", ranked)
	}
	if ranked := s.score([]string{"alpha"}, "alpha", &snapshot{}); ranked != nil {
		t.Errorf("Expected nil for empty snapshot, got %v", ranked)
	}
}

func TestScore_OOVQueryScoresZero(t *testing.T) {
	snap := buildSnapshot(t, IntentFAQ, []Rule{
		{
			ID:        "faq-greek",
			Category:  IntentFAQ,
			Questions: []string{"alpha beta gamma"},
			Answer:    Answer{Text: "greek"},
		},
	})
	s := newScorer(DefaultConfig())

	ranked := s.score([]string{"unrelated", "words"}, "unrelated words", snap)
	if len(ranked) != 1 {
		t.Fatalf("Expected 1 scored rule, got %d", len(ranked))
	}
	if ranked[0].score != 0 {
		t.Errorf("score = %v, expected 0 for fully out-of-vocabulary query",
			ranked[0].score)
	}
}
