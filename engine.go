package rulematcher

import (
	"fmt"
	"sync"
	"time"
)

// spellCorrectable is satisfied by normalizers that accept a swappable
// spell corrector and expose their synonym canonicals for its vocabulary.
type spellCorrectable interface {
	SetSpellCorrector(corrector *SpellCorrector)
	SynonymCanonicals() []string
}

// Engine is the decision engine: it classifies the query's intent, scopes
// candidates to the intent's category, scores them against the cached
// snapshot vectors, and accepts the winner only above the intent's
// threshold. Safe for concurrent use; each query runs synchronously with no
// internal blocking I/O.
type Engine struct {
	config     *Config
	normalizer Normalizer
	classifier IntentClassifier
	index      *RuleIndex
	scorer     *scorer
	logger     Logger

	stats       *EngineStats
	fallbackIdx int
	mtx         sync.Mutex
}

var _ Responder = (*Engine)(nil)

// NewEngine builds an engine over the given rule source, loads the lexicon,
// builds every category snapshot, and primes the spell corrector.
func NewEngine(source RuleSource, config *Config, logger Logger) (*Engine, error) {
	if source == nil {
		return nil, ErrNoRuleSource
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = DiscardLogger{}
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	opts := NormalizerOptions{
		SpellCorrection:  config.EnableSpellCorrection,
		Stemming:         config.EnableStemming,
		SynonymExpansion: config.EnableSynonyms,
		StopWordFilter:   config.EnableStopWords,
	}

	normalizer, err := NewTextNormalizerWithLexicon(
		opts, config.StopWordsPath, config.SynonymsPath)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}

	engine := &Engine{
		config:     config,
		normalizer: normalizer,
		classifier: NewIntentClassifier(),
		index:      NewRuleIndex(source, normalizer, logger),
		scorer:     newScorer(config),
		logger:     logger,
		stats: &EngineStats{
			LastUpdated: time.Now(),
		},
	}

	if err := engine.index.ReloadAll(); err != nil {
		return nil, err
	}
	engine.refreshSpellCorrector()

	logger.Infof("Engine initialized, categories: %d, vocabulary_size: %d, "+
		"spell_correction: %v, stemming: %v, synonyms: %v",
		len(AllIntents()), len(engine.index.Vocabulary()),
		config.EnableSpellCorrection, config.EnableStemming, config.EnableSynonyms)

	return engine, nil
}

// Reload rebuilds one category snapshot and refreshes the spell-correction
// vocabulary. Called by the administrative collaborator whenever the
// underlying rule set changes.
func (e *Engine) Reload(category Intent) error {
	if err := e.index.Reload(category); err != nil {
		return err
	}
	e.refreshSpellCorrector()
	return nil
}

func (e *Engine) refreshSpellCorrector() {
	if !e.config.EnableSpellCorrection {
		return
	}
	target, ok := e.normalizer.(spellCorrectable)
	if !ok {
		return
	}
	// Synonym canonicals join the corpus vocabulary so a canonical appended
	// by expansion is a fixed point of correction on later passes
	words := append(e.index.Vocabulary(), target.SynonymCanonicals()...)
	corrector := NewSpellCorrector(words, e.config.SpellMaxEditDistance)
	target.SetSpellCorrector(corrector)
	e.logger.Debugf("Spell corrector refreshed, vocabulary_size: %d",
		corrector.VocabularySize())
}

// GetResponse answers one query. A returned error is always an operator
// fault (missing threshold, unbuilt or corrupt snapshot); a no-match is a
// normal negative result carried in the Response.
func (e *Engine) GetResponse(query string, ctx Context) (Response, Context, error) {
	startTime := time.Now()

	tokens := e.normalizer.Normalize(query)
	if len(tokens) == 0 {
		// Empty or unnormalizable input resolves as a deterministic
		// no-match, never an error. Classifying the empty token list keeps
		// the reported intent on the conversation's last intent.
		e.logger.Debugf("Query has no usable tokens, query_length: %d", len(query))
		response, updated := e.reject(e.classifier.Classify(tokens, ctx), ctx, SignalBreakdown{}, 0)
		e.updateStats(time.Since(startTime), false)
		return response, updated, nil
	}

	intent := e.classifier.Classify(tokens, ctx)

	threshold, ok := e.config.Thresholds[intent]
	if !ok {
		// Defensive: Validate guarantees an entry per intent, so reaching
		// this means the configuration was mutated after construction
		return Response{}, ctx, fmt.Errorf("%w: %s", ErrMissingThreshold, intent)
	}

	candidates, err := e.collectCandidates(query, tokens, intent, ctx)
	if err != nil {
		return Response{}, ctx, err
	}

	if len(candidates) == 0 {
		e.logger.Infof("No candidates in scope, intent: %s, tokens: %d", intent, len(tokens))
		response, updated := e.reject(intent, ctx, SignalBreakdown{}, 0)
		e.updateStats(time.Since(startTime), false)
		return response, updated, nil
	}

	top := candidates[0]
	accepted := top.score >= threshold ||
		top.signals.Dice >= e.config.FuzzyAcceptThreshold

	e.logger.Infof(
		"Query scored, intent: %s, threshold: %.2f, top_rule: %s, score: %.4f, "+
			"cosine: %.4f, dice: %.4f, overlap_ratio: %.2f, shared_tokens: %d, "+
			"boosted: %v, accepted: %v, duration_ms: %d",
		intent, threshold, top.rule.ID, top.score,
		top.signals.Cosine, top.signals.Dice, top.signals.OverlapRatio,
		top.signals.SharedTokens, top.signals.Boosted, accepted,
		time.Since(startTime).Milliseconds())

	if !accepted {
		response, updated := e.reject(intent, ctx, top.signals, top.score)
		e.updateStats(time.Since(startTime), false)
		return response, updated, nil
	}

	updated := ctx
	updated.LastIntent = intent
	updated.LastRuleID = top.rule.ID
	updated.LastTurnMissed = false
	updated.Turns++

	response := Response{
		Matched: true,
		Answer:  top.rule.Answer,
		RuleID:  top.rule.ID,
		Intent:  intent,
		Score:   top.score,
		Signals: top.signals,
	}

	e.updateStats(time.Since(startTime), true)
	return response, updated, nil
}

// collectCandidates scores every rule in the query's candidate scope and
// returns them ranked best-first.
func (e *Engine) collectCandidates(
	query string,
	tokens []string,
	intent Intent,
	ctx Context,
) ([]ruleScore, error) {
	var merged []ruleScore

	for _, category := range e.candidateScope(intent, ctx) {
		snap, err := e.index.Snapshot(category)
		if err != nil {
			return nil, err
		}
		if snap.empty() {
			// Zero rules: nothing to score in this category
			continue
		}
		if snap.model == nil {
			return nil, fmt.Errorf("%w: %s", ErrCorruptSnapshot, category)
		}
		merged = append(merged, e.scorer.score(tokens, query, snap)...)
	}

	sortRuleScores(merged)
	return merged, nil
}

// secondaryCategory widens the candidate scope when the primary category
// cannot serve the query, tolerating intent misclassification between
// neighboring categories.
var secondaryCategory = map[Intent]Intent{
	IntentLocation:   IntentVisual,
	IntentVisual:     IntentLocation,
	IntentEnrollment: IntentFAQ,
	IntentPerson:     IntentFAQ,
	IntentFAQ:        IntentEnrollment,
}

// candidateScope selects the categories to score. The scope depends only on
// the classified intent, category emptiness, and whether the previous turn
// missed. It never depends on the threshold value, so raising a threshold
// cannot change which rule ranks on top.
func (e *Engine) candidateScope(intent Intent, ctx Context) []Intent {
	if intent == IntentGeneral {
		return AllIntents()
	}

	scope := []Intent{intent}

	secondary, ok := secondaryCategory[intent]
	if !ok {
		return scope
	}

	primarySnap, err := e.index.Snapshot(intent)
	primaryEmpty := err == nil && primarySnap.empty()

	if primaryEmpty || ctx.LastTurnMissed {
		scope = append(scope, secondary)
	}

	return scope
}

// reject produces the polite fallback response. The context keeps its
// last-intent so one weak turn cannot derail later disambiguation, but the
// miss itself is recorded to broaden scope on the following turn.
func (e *Engine) reject(
	intent Intent,
	ctx Context,
	signals SignalBreakdown,
	score float64,
) (Response, Context) {
	updated := ctx
	updated.LastTurnMissed = true
	updated.Turns++

	response := Response{
		Matched:  false,
		Intent:   intent,
		Score:    score,
		Signals:  signals,
		Fallback: e.nextFallback(),
	}

	return response, updated
}

// nextFallback rotates through the configured fallback responses
func (e *Engine) nextFallback() string {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	text := e.config.FallbackResponses[e.fallbackIdx]
	e.fallbackIdx = (e.fallbackIdx + 1) % len(e.config.FallbackResponses)
	return text
}

// GetStats returns performance and usage statistics
func (e *Engine) GetStats() EngineStats {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	// Return a copy to prevent external modification
	return EngineStats{
		TotalQueries:   e.stats.TotalQueries,
		Matched:        e.stats.Matched,
		Fallbacks:      e.stats.Fallbacks,
		AverageLatency: e.stats.AverageLatency,
		LastUpdated:    e.stats.LastUpdated,
	}
}

// updateStats updates the internal statistics
func (e *Engine) updateStats(latency time.Duration, matched bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.stats.TotalQueries++
	if matched {
		e.stats.Matched++
	} else {
		e.stats.Fallbacks++
	}

	// Update average latency using incremental average formula
	// new_avg = old_avg + (new_value - old_avg) / count
	if e.stats.TotalQueries == 1 {
		e.stats.AverageLatency = latency
	} else {
		delta := latency - e.stats.AverageLatency
		e.stats.AverageLatency += delta / time.Duration(e.stats.TotalQueries)
	}
	e.stats.LastUpdated = time.Now()

	if e.stats.TotalQueries%100 == 0 {
		// Log every 100 requests for monitoring
		e.logger.Infof("Performance statistics, total_queries: %d, matched: %d, "+
			"fallbacks: %d, average_latency_ms: %d",
			e.stats.TotalQueries, e.stats.Matched, e.stats.Fallbacks,
			e.stats.AverageLatency.Milliseconds())
	}
}
