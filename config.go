package rulematcher

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Default tuning constants. The historical values were retuned empirically
// (thresholds raised from the 0.5-0.7 band, the boost gate tightened from
// 2 shared tokens / 50% overlap); they are exposed here as named
// configuration so deployments can validate them against their own
// labeled query sets instead of inheriting them blindly.
const (
	DefaultBoostMinSharedTokens = 3
	DefaultBoostMinOverlapRatio = 0.60
	DefaultBoostBonus           = 0.15

	DefaultFuzzyAcceptThreshold = 0.80

	DefaultSpellMaxEditDistance = 2

	DefaultSessionTTL      = time.Hour
	DefaultSessionJanitor  = 10 * time.Minute
	DefaultEnableSpell     = true
	DefaultEnableStemming  = true
	DefaultEnableSynonyms  = true
	DefaultEnableStopWords = true
)

// DefaultThresholds returns the per-intent acceptance thresholds.
// Every enumerated intent has an entry; Validate enforces this.
func DefaultThresholds() map[Intent]float64 {
	return map[Intent]float64{
		IntentLocation:   0.70,
		IntentVisual:     0.72,
		IntentEnrollment: 0.75,
		IntentPerson:     0.75,
		IntentFAQ:        0.80,
		IntentGeneral:    0.85,
	}
}

// Config holds configuration parameters for the rule matching engine
type Config struct {
	// Thresholds maps each intent to its minimum composite score for
	// acceptance. Missing entries are a fatal configuration error, not a
	// silent default.
	Thresholds map[Intent]float64 `mapstructure:"-"`

	// Boost gate: the additive bonus is applied only when BOTH limits hold.
	BoostMinSharedTokens int     `mapstructure:"boost_min_shared_tokens"`
	BoostMinOverlapRatio float64 `mapstructure:"boost_min_overlap_ratio"`
	BoostBonus           float64 `mapstructure:"boost_bonus"`

	// FuzzyAcceptThreshold is the minimum Dice similarity for the secondary
	// typo acceptance path.
	FuzzyAcceptThreshold float64 `mapstructure:"fuzzy_accept_threshold"`

	// Normalizer toggles. Spell correction is the dominant per-query cost
	// and can be disabled when the latency budget requires it.
	EnableSpellCorrection bool `mapstructure:"enable_spell_correction"`
	EnableStemming        bool `mapstructure:"enable_stemming"`
	EnableSynonyms        bool `mapstructure:"enable_synonyms"`
	EnableStopWords       bool `mapstructure:"enable_stop_words"`

	SpellMaxEditDistance int `mapstructure:"spell_max_edit_distance"`

	// Optional lexicon files (one entry per line, # comments allowed).
	StopWordsPath string `mapstructure:"stop_words_path"`
	SynonymsPath  string `mapstructure:"synonyms_path"`

	// Session store tuning.
	SessionTTL             time.Duration `mapstructure:"session_ttl"`
	SessionCleanupInterval time.Duration `mapstructure:"session_cleanup_interval"`

	// FallbackResponses rotate across consecutive no-match turns.
	FallbackResponses []string `mapstructure:"fallback_responses"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Thresholds:             DefaultThresholds(),
		BoostMinSharedTokens:   DefaultBoostMinSharedTokens,
		BoostMinOverlapRatio:   DefaultBoostMinOverlapRatio,
		BoostBonus:             DefaultBoostBonus,
		FuzzyAcceptThreshold:   DefaultFuzzyAcceptThreshold,
		EnableSpellCorrection:  DefaultEnableSpell,
		EnableStemming:         DefaultEnableStemming,
		EnableSynonyms:         DefaultEnableSynonyms,
		EnableStopWords:        DefaultEnableStopWords,
		SpellMaxEditDistance:   DefaultSpellMaxEditDistance,
		SessionTTL:             DefaultSessionTTL,
		SessionCleanupInterval: DefaultSessionJanitor,
		FallbackResponses:      defaultFallbackResponses(),
	}
}

func defaultFallbackResponses() []string {
	return []string{
		"I'm sorry, I didn't quite get that. Could you please rephrase?",
		"Hmm, I'm not sure I understand. Can you try asking differently?",
		"Apologies, I couldn't find an answer. Could you ask something else?",
	}
}

// LoadFromYAML loads configuration from a YAML file
func LoadFromYAML(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := v.UnmarshalKey("rule_matcher", config); err != nil {
		return nil, err
	}

	// Thresholds arrive as a generic map; coerce values so YAML authors
	// may write either numbers or quoted numbers.
	if raw := v.GetStringMap("rule_matcher.thresholds"); len(raw) > 0 {
		thresholds := make(map[Intent]float64, len(raw))
		for key, value := range raw {
			score, err := cast.ToFloat64E(value)
			if err != nil {
				return nil, fmt.Errorf("%w: threshold %q: %v",
					ErrInvalidConfiguration, key, err)
			}
			thresholds[Intent(key)] = score
		}
		config.Thresholds = thresholds
	}

	// Validate the loaded configuration
	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func Validate(config *Config) error {
	if config == nil {
		return ErrInvalidConfiguration
	}

	// Every enumerated intent must carry a threshold in (0, 1).
	for _, intent := range AllIntents() {
		threshold, ok := config.Thresholds[intent]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingThreshold, intent)
		}
		if threshold <= 0 || threshold >= 1 {
			return fmt.Errorf("%w: threshold for %s out of (0,1): %v",
				ErrInvalidConfiguration, intent, threshold)
		}
	}
	for intent := range config.Thresholds {
		if !isKnownIntent(intent) {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, intent)
		}
	}

	if config.BoostMinSharedTokens < 0 {
		return ErrInvalidConfiguration
	}

	if config.BoostMinOverlapRatio < 0 || config.BoostMinOverlapRatio > 1 {
		return ErrInvalidConfiguration
	}

	if config.BoostBonus < 0 || config.BoostBonus > 0.5 {
		return ErrInvalidConfiguration
	}

	if config.FuzzyAcceptThreshold <= 0 || config.FuzzyAcceptThreshold >= 1 {
		return ErrInvalidConfiguration
	}

	if config.SpellMaxEditDistance <= 0 {
		return ErrInvalidConfiguration
	}

	if config.SessionTTL <= 0 || config.SessionCleanupInterval <= 0 {
		return ErrInvalidConfiguration
	}

	if len(config.FallbackResponses) == 0 {
		return ErrInvalidConfiguration
	}

	// Verify lexicon files exist when configured
	for _, path := range []string{config.StopWordsPath, config.SynonymsPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: lexicon file %s", ErrInvalidConfiguration, path)
			}
			return err
		}
	}

	return nil
}

func isKnownIntent(intent Intent) bool {
	for _, known := range AllIntents() {
		if intent == known {
			return true
		}
	}
	return false
}
