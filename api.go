package rulematcher

import "time"

// Intent is the coarse category a query is believed to belong to.
// It scopes candidate rules and selects the acceptance threshold.
type Intent string

const (
	IntentFAQ        Intent = "faq"
	IntentLocation   Intent = "location"
	IntentVisual     Intent = "visual"
	IntentPerson     Intent = "person"
	IntentEnrollment Intent = "enrollment"
	IntentGeneral    Intent = "general"
)

// AllIntents returns every enumerated intent. Each one must have a
// threshold entry in the configuration.
func AllIntents() []Intent {
	return []Intent{
		IntentFAQ,
		IntentLocation,
		IntentVisual,
		IntentPerson,
		IntentEnrollment,
		IntentGeneral,
	}
}

// Answer is the payload returned when a rule matches. Text is always set;
// MediaURL and Address are optional structured references (an image pointer
// for visual rules, a building/room for location rules).
type Answer struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Rule is a stored question/answer entry tagged with a category.
// Rules are owned and mutated by the external administrative collaborator;
// the engine only observes them through versioned snapshots.
type Rule struct {
	ID        string            `json:"id"`
	Category  Intent            `json:"category"`
	Questions []string          `json:"questions"`
	Answer    Answer            `json:"answer"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Context is the short-term conversational state for one session. It is a
// small value object passed into and returned from every call; the engine
// keeps no hidden per-session state.
type Context struct {
	// LastIntent is the intent of the most recent accepted match.
	// Used by the classifier as a continuity fallback on ambiguous turns.
	LastIntent Intent `json:"last_intent,omitempty"`

	// LastRuleID is the id of the most recently matched rule.
	LastRuleID string `json:"last_rule_id,omitempty"`

	// LastTurnMissed records that the immediately preceding turn failed to
	// match. The engine broadens candidate scope on the following turn.
	LastTurnMissed bool `json:"last_turn_missed,omitempty"`

	// Turns counts queries seen in this session.
	Turns int `json:"turns,omitempty"`
}

// SignalBreakdown reports the individual similarity signals that produced
// a candidate's composite score. All signals are in [0, 1].
type SignalBreakdown struct {
	Cosine       float64 `json:"cosine"`
	Dice         float64 `json:"dice"`
	OverlapRatio float64 `json:"overlap_ratio"`
	SharedTokens int     `json:"shared_tokens"`
	Boosted      bool    `json:"boosted"`
}

// Candidate is one scored rule produced by the scorer, ordered best-first.
type Candidate struct {
	RuleID  string          `json:"rule_id"`
	Score   float64         `json:"score"`
	Signals SignalBreakdown `json:"signals"`
}

// Response is the result of one query. When Matched is false, Fallback
// carries the polite no-match text and Answer is the zero value.
type Response struct {
	Matched  bool            `json:"matched"`
	Answer   Answer          `json:"answer,omitempty"`
	RuleID   string          `json:"rule_id,omitempty"`
	Intent   Intent          `json:"intent"`
	Score    float64         `json:"score"`
	Signals  SignalBreakdown `json:"signals"`
	Fallback string          `json:"fallback,omitempty"`
}

// RuleSource is the external administrative collaborator that owns rule
// persistence. The engine pulls a fresh rule list from it on every Reload.
type RuleSource interface {
	// RulesByCategory returns all rules for one category.
	// An empty slice is a valid result (the category simply has no rules).
	RulesByCategory(category Intent) ([]Rule, error)
}

// Normalizer produces a canonical token sequence from raw input.
// Implementations must be deterministic and idempotent: normalizing the
// join of an already-normalized sequence is a no-op.
type Normalizer interface {
	// Normalize lowercases, strips punctuation, and applies the configured
	// optional passes (spell correction, stemming, synonym expansion).
	Normalize(text string) []string

	// NormalizeBatch processes multiple texts with corpus options
	// (no spell correction, no synonym expansion). Used when building
	// rule snapshots.
	NormalizeBatch(texts []string) [][]string
}

// IntentClassifier maps a normalized query to an intent using an ordered
// keyword rule list. Must be a pure function of tokens + context.
type IntentClassifier interface {
	Classify(tokens []string, ctx Context) Intent
}

// Responder is the chat-facing surface of the engine.
type Responder interface {
	// GetResponse answers one query and returns the updated context.
	// A returned error is always a configuration fault, never a no-match.
	GetResponse(query string, ctx Context) (Response, Context, error)

	// Reload rebuilds the cached snapshot for one category. Invoked by the
	// administrative collaborator whenever the rule set changes.
	Reload(category Intent) error

	// GetStats returns performance and usage statistics.
	GetStats() EngineStats
}

// EngineStats provides performance and usage statistics.
type EngineStats struct {
	TotalQueries   int64         `json:"total_queries"`
	Matched        int64         `json:"matched"`
	Fallbacks      int64         `json:"fallbacks"`
	AverageLatency time.Duration `json:"average_latency"`
	LastUpdated    time.Time     `json:"last_updated"`
}

// Logger interface for configurable logging
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}
