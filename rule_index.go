package rulematcher

import (
	"fmt"
	"sync/atomic"
	"time"
)

// snapshotRow is one question phrasing of one rule, paired with row index i
// of the snapshot's vector matrix. phrase is the phrasing's Dice comparison
// form, computed once here instead of per query.
type snapshotRow struct {
	ruleIdx  int
	phrase   string
	tokens   []string
	tokenSet map[string]Empty
}

// snapshot is the immutable, versioned in-memory view of one category:
// its rules plus the vector model and matrix derived from exactly those
// rules. Never mutated after construction; reloads build a replacement and
// swap the pointer, so concurrent scorers always observe a model whose
// vocabulary agrees with its matrix.
type snapshot struct {
	category Intent
	version  int64
	builtAt  time.Time
	rules    []Rule
	rows     []snapshotRow
	model    *tfidfModel
	vectors  [][]float64
}

func (s *snapshot) empty() bool {
	return s == nil || len(s.rules) == 0
}

// RuleIndex holds one snapshot per category and rebuilds them on demand
// from the external RuleSource. Reads are lock-free; publication is a
// single atomic pointer swap per category.
type RuleIndex struct {
	source     RuleSource
	normalizer Normalizer
	logger     Logger

	versions  atomic.Int64
	snapshots map[Intent]*atomic.Pointer[snapshot]
}

// NewRuleIndex creates an index over the given rule source. Snapshots are
// not built until Reload / ReloadAll.
func NewRuleIndex(source RuleSource, normalizer Normalizer, logger Logger) *RuleIndex {
	if logger == nil {
		logger = DiscardLogger{}
	}

	snapshots := make(map[Intent]*atomic.Pointer[snapshot], len(AllIntents()))
	for _, intent := range AllIntents() {
		snapshots[intent] = &atomic.Pointer[snapshot]{}
	}

	return &RuleIndex{
		source:     source,
		normalizer: normalizer,
		logger:     logger,
		snapshots:  snapshots,
	}
}

// Reload rebuilds the snapshot for one category and publishes it
// atomically. A failed rebuild leaves the previous snapshot in place, so
// in-flight scoring is never corrupted.
func (ri *RuleIndex) Reload(category Intent) error {
	slot, ok := ri.snapshots[category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	if ri.source == nil {
		return ErrNoRuleSource
	}

	rules, err := ri.source.RulesByCategory(category)
	if err != nil {
		return fmt.Errorf("loading rules for %s: %w", category, err)
	}

	startTime := time.Now()
	built, err := ri.build(category, rules)
	if err != nil {
		ri.logger.Errorf("Snapshot rebuild failed, category: %s, rules: %d, error: %v",
			category, len(rules), err)
		return err
	}

	slot.Store(built)

	vocabularySize := 0
	if built.model != nil {
		vocabularySize = built.model.VocabularySize()
	}
	ri.logger.Infof(
		"Snapshot rebuilt, category: %s, version: %d, rules: %d, questions: %d, "+
			"vocabulary_size: %d, duration_ms: %d",
		category, built.version, len(built.rules), len(built.rows),
		vocabularySize, time.Since(startTime).Milliseconds())

	return nil
}

// ReloadAll rebuilds every category snapshot
func (ri *RuleIndex) ReloadAll() error {
	for _, intent := range AllIntents() {
		if err := ri.Reload(intent); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the current snapshot for a category. Safe for concurrent
// use; the returned snapshot is immutable.
func (ri *RuleIndex) Snapshot(category Intent) (*snapshot, error) {
	slot, ok := ri.snapshots[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	current := slot.Load()
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotBuilt, category)
	}

	return current, nil
}

// Vocabulary returns the union of all question tokens across the current
// snapshots. Feeds the spell corrector so corrections always target words
// the scorer can match.
func (ri *RuleIndex) Vocabulary() []string {
	seen := make(map[string]Empty)
	var words []string

	for _, intent := range AllIntents() {
		current := ri.snapshots[intent].Load()
		if current == nil {
			continue
		}
		for _, row := range current.rows {
			for _, token := range row.tokens {
				if _, ok := seen[token]; ok {
					continue
				}
				seen[token] = Empty{}
				words = append(words, token)
			}
		}
	}

	return words
}

// build constructs a fresh snapshot from a rule list. A category whose
// rules exist but yield no usable question tokens produces a corrupt model
// and is rejected outright rather than silently defaulted.
func (ri *RuleIndex) build(category Intent, rules []Rule) (*snapshot, error) {
	built := &snapshot{
		category: category,
		version:  ri.versions.Add(1),
		builtAt:  time.Now(),
		rules:    rules,
	}

	if len(rules) == 0 {
		return built, nil
	}

	var questions []string
	var rowOwners []int
	for ruleIdx, rule := range rules {
		for _, question := range rule.Questions {
			questions = append(questions, question)
			rowOwners = append(rowOwners, ruleIdx)
		}
	}

	tokenized := ri.normalizer.NormalizeBatch(questions)

	var documents [][]string
	for i, tokens := range tokenized {
		if len(tokens) == 0 {
			// Question vanished under normalization; it cannot be matched
			ri.logger.Warnf("Question has no usable tokens, category: %s, rule_id: %s, question: %q",
				category, rules[rowOwners[i]].ID, questions[i])
			continue
		}

		tokenSet := make(map[string]Empty, len(tokens))
		for _, token := range tokens {
			tokenSet[token] = Empty{}
		}

		built.rows = append(built.rows, snapshotRow{
			ruleIdx:  rowOwners[i],
			phrase:   comparisonForm(questions[i]),
			tokens:   tokens,
			tokenSet: tokenSet,
		})
		documents = append(documents, tokens)
	}

	if len(built.rows) == 0 {
		return nil, fmt.Errorf("%w: category %s has %d rules but no usable question tokens",
			ErrCorruptSnapshot, category, len(rules))
	}

	built.model = newTFIDFModel(documents)
	if built.model == nil {
		return nil, fmt.Errorf("%w: category %s produced an empty vector model",
			ErrCorruptSnapshot, category)
	}

	built.vectors = make([][]float64, len(built.rows))
	for i, row := range built.rows {
		built.vectors[i] = built.model.Transform(row.tokens)
	}

	return built, nil
}
