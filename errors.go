package rulematcher

import "errors"

// Error types for the rule matching engine. Configuration errors are fatal
// and operator-visible; a no-match is a normal negative result and is never
// reported through these.
var (
	// ErrInvalidConfiguration indicates configuration parameters are invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMissingThreshold indicates an enumerated intent has no threshold
	// entry. Every intent must have one; this is never silently defaulted.
	ErrMissingThreshold = errors.New("intent has no threshold entry")

	// ErrUnknownCategory indicates a category outside the enumerated intents
	ErrUnknownCategory = errors.New("unknown rule category")

	// ErrNoRuleSource indicates the engine was built without a rule source
	ErrNoRuleSource = errors.New("no rule source configured")

	// ErrCorruptSnapshot indicates a category snapshot has rules but an
	// empty or inconsistent vector model
	ErrCorruptSnapshot = errors.New("corrupt category snapshot")

	// ErrSnapshotNotBuilt indicates a category was queried before its
	// snapshot was built or reloaded
	ErrSnapshotNotBuilt = errors.New("category snapshot not built")

	// ErrInvalidLexiconFormat indicates a stop-word or synonym file line
	// could not be parsed
	ErrInvalidLexiconFormat = errors.New("invalid lexicon file format")
)
