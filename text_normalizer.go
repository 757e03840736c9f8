package rulematcher

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

// NormalizerOptions selects the optional normalization passes. Lowercasing
// and punctuation stripping always run; the rest are toggleable. Spell
// correction is the dominant per-query cost.
type NormalizerOptions struct {
	SpellCorrection  bool
	Stemming         bool
	SynonymExpansion bool
	StopWordFilter   bool
}

// textNormalizer implements the Normalizer interface. The token pipeline is
// tokenize -> stop-word filter -> stem -> spell-correct -> synonym expand.
// Stemming runs before correction, and the corrector's vocabulary must hold
// the stemmed corpus forms plus the synonym canonicals (the engine builds it
// that way), so every pass is a projection and the whole pipeline is
// idempotent: normalizing already-normalized text is a no-op.
type textNormalizer struct {
	seg gse.Segmenter

	stopWords map[string]Empty
	synonyms  map[string]string
	opts      NormalizerOptions

	corrector *SpellCorrector

	tokenizer *regexp.Regexp
	mtx       sync.RWMutex
}

// Tokens keep embedded hyphens ("e-mail", "check-in") like the original
// question corpus does.
var wordPattern = regexp.MustCompile(`[\w-]+`)

// NewTextNormalizer creates a Normalizer with the default lexicon
func NewTextNormalizer(opts NormalizerOptions) Normalizer {
	normalizer := &textNormalizer{
		stopWords: defaultStopWords(),
		synonyms:  defaultSynonyms(),
		opts:      opts,
		tokenizer: wordPattern,
	}

	// Initialize GSE Segmenter
	_ = normalizer.seg.LoadDict()

	return normalizer
}

// NewTextNormalizerWithLexicon creates a Normalizer with stop words and
// synonyms loaded from files. Empty paths fall back to the defaults.
func NewTextNormalizerWithLexicon(
	opts NormalizerOptions,
	stopWordsPath, synonymsPath string,
) (Normalizer, error) {
	stopWords := defaultStopWords()
	synonyms := defaultSynonyms()

	if stopWordsPath != "" {
		custom, err := loadStopWordsFromFile(stopWordsPath)
		if err != nil {
			return nil, err
		}
		// Merge with defaults
		for word := range custom {
			stopWords[word] = Empty{}
		}
	}

	if synonymsPath != "" {
		custom, err := loadSynonymsFromFile(synonymsPath)
		if err != nil {
			return nil, err
		}
		for variant, canonical := range custom {
			synonyms[variant] = canonical
		}
	}

	normalizer := &textNormalizer{
		stopWords: stopWords,
		synonyms:  synonyms,
		opts:      opts,
		tokenizer: wordPattern,
	}

	_ = normalizer.seg.LoadDict()

	return normalizer, nil
}

// SetSpellCorrector swaps the active spell corrector. The engine calls this
// after every reload so the correction vocabulary tracks the rule corpus.
func (tn *textNormalizer) SetSpellCorrector(corrector *SpellCorrector) {
	tn.mtx.Lock()
	defer tn.mtx.Unlock()
	tn.corrector = corrector
}

// SynonymCanonicals returns the distinct canonical terms of the synonym
// table. They must be part of the spell-correction vocabulary: a canonical
// appended by expansion re-enters the corrector on renormalization, and an
// out-of-vocabulary canonical with a close corpus neighbor would be
// rewritten there, breaking idempotence.
func (tn *textNormalizer) SynonymCanonicals() []string {
	seen := make(map[string]Empty, len(tn.synonyms))
	var canonicals []string
	for _, canonical := range tn.synonyms {
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = Empty{}
		canonicals = append(canonicals, canonical)
	}
	return canonicals
}

// Normalize produces the canonical token sequence for a query
func (tn *textNormalizer) Normalize(text string) []string {
	tn.mtx.RLock()
	defer tn.mtx.RUnlock()

	return tn.normalizeInternal(text, tn.opts)
}

// NormalizeBatch processes rule corpus texts. Spell correction and synonym
// expansion are disabled here: the corpus is assumed well-spelled and
// expansion must never alter the vector-space training corpus.
func (tn *textNormalizer) NormalizeBatch(texts []string) [][]string {
	tn.mtx.RLock()
	defer tn.mtx.RUnlock()

	corpusOpts := tn.opts
	corpusOpts.SpellCorrection = false
	corpusOpts.SynonymExpansion = false

	results := make([][]string, len(texts))
	for i, text := range texts {
		results[i] = tn.normalizeInternal(text, corpusOpts)
	}

	return results
}

// normalizeInternal is the shared pipeline, called with the lock held
func (tn *textNormalizer) normalizeInternal(text string, opts NormalizerOptions) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	tokens := tn.tokenize(text)

	if opts.StopWordFilter {
		tokens = tn.filterStopWords(tokens)
	}

	if opts.Stemming {
		for i, token := range tokens {
			tokens[i] = stemToken(token)
		}
	}

	if opts.SpellCorrection && tn.corrector != nil {
		for i, token := range tokens {
			tokens[i] = tn.corrector.Correct(token)
		}
	}

	if opts.SynonymExpansion {
		tokens = tn.expandSynonyms(tokens)
	}

	return tokens
}

// tokenize lowercases and splits raw text into word tokens. Han text goes
// through the GSE segmenter, Latin text through the word regexp; mixed text
// is segmented first and Latin segments re-tokenized.
func (tn *textNormalizer) tokenize(text string) []string {
	if containsHan(text) {
		return tn.tokenizeMixed(text)
	}
	return tn.tokenizeLatin(text)
}

func (tn *textNormalizer) tokenizeLatin(text string) []string {
	matches := tn.tokenizer.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(matches))

	for _, match := range matches {
		token := strings.Trim(match, "-_")
		if len([]rune(token)) > 1 {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

func (tn *textNormalizer) tokenizeMixed(text string) []string {
	var tokens []string

	segments := tn.seg.Segment([]byte(text))
	for _, segment := range segments {
		token := strings.TrimSpace(segment.Token().Text())
		if token == "" || isPunctuation(token) {
			continue
		}

		if containsHan(token) {
			tokens = append(tokens, token)
			continue
		}

		// Latin segment: re-tokenize and lowercase
		tokens = append(tokens, tn.tokenizeLatin(token)...)
	}

	return tokens
}

func (tn *textNormalizer) filterStopWords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if _, isStop := tn.stopWords[token]; isStop {
			continue
		}
		filtered = append(filtered, token)
	}

	return filtered
}

// expandSynonyms appends the canonical term for every variant token.
// The canonical token is added only when absent, which keeps expansion
// idempotent.
func (tn *textNormalizer) expandSynonyms(tokens []string) []string {
	present := make(map[string]Empty, len(tokens))
	for _, token := range tokens {
		present[token] = Empty{}
	}

	expanded := make([]string, 0, len(tokens))
	for _, token := range tokens {
		expanded = append(expanded, token)

		canonical, ok := tn.synonyms[token]
		if !ok {
			continue
		}
		if _, exists := present[canonical]; exists {
			continue
		}
		expanded = append(expanded, canonical)
		present[canonical] = Empty{}
	}

	return expanded
}

// stemToken reduces inflectional suffixes of Latin tokens to a canonical
// form. Rules are applied to a fixed point so the stemmer is idempotent;
// the output need not be a dictionary word, only stable.
func stemToken(token string) string {
	if !isASCIIWord(token) {
		return token
	}

	for range token {
		next := stemOnce(token)
		if next == token {
			return token
		}
		token = next
	}

	return token
}

func stemOnce(token string) string {
	switch {
	case len(token) > 4 && strings.HasSuffix(token, "ies"):
		return token[:len(token)-3] + "y"
	case len(token) > 4 && strings.HasSuffix(token, "sses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"),
		strings.HasSuffix(token, "us"),
		strings.HasSuffix(token, "is"):
		return token
	case len(token) > 3 && strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	case len(token) > 5 && strings.HasSuffix(token, "ing"):
		return undouble(token[:len(token)-3])
	case len(token) > 4 && strings.HasSuffix(token, "ed"):
		return undouble(token[:len(token)-2])
	}
	return token
}

// undouble collapses a trailing doubled consonant ("runn" -> "run"),
// leaving "ll" and "ss" alone
func undouble(token string) string {
	n := len(token)
	if n < 3 {
		return token
	}
	last := token[n-1]
	if last != token[n-2] || last == 'l' || last == 's' || isVowel(last) {
		return token
	}
	return token[:n-1]
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isASCIIWord(token string) bool {
	for i := 0; i < len(token); i++ {
		if token[i] < 'a' || token[i] > 'z' {
			return false
		}
	}
	return len(token) > 0
}

// containsHan checks if text contains Chinese characters
func containsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Scripts["Han"], r) {
			return true
		}
	}
	return false
}

// isPunctuation checks if a token is purely punctuation
func isPunctuation(token string) bool {
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
