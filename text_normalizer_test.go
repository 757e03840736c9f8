package rulematcher

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func allPasses() NormalizerOptions {
	return NormalizerOptions{
		SpellCorrection:  true,
		Stemming:         true,
		SynonymExpansion: true,
		StopWordFilter:   true,
	}
}

func TestNormalize_BasicPipeline(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "lowercase and punctuation",
			input:    "Where is the LIBRARY?!",
			expected: []string{"where", "library"},
		},
		{
			name:     "interrogatives survive stop filtering",
			input:    "what do you do, and how?",
			expected: []string{"what", "how"},
		},
		{
			name:  "synonym canonical appended after variant",
			input: "Where is the Enrollment Office?",
			// enrollment expands to admission; where stays for the classifier
			expected: []string{"where", "enrollment", "admission", "office"},
		},
		{
			name:     "canonical not duplicated when already present",
			input:    "tuition fee",
			expected: []string{"tuition", "fee"},
		},
		{
			name:     "single letters dropped",
			input:    "a b c library",
			expected: []string{"library"},
		},
		{
			name:     "hyphenated token kept whole",
			input:    "check-in desk",
			expected: []string{"check-in", "desk"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "whitespace only",
			input:    "   \t\n  ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizer.Normalize(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Normalize(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())

	inputs := []string{
		"Where is the Enrollment Office?",
		"How much is the tuition fee?",
		"Who is the dean of the College of Engineering?",
		"show me a picture of the campus map",
		"running classes studies admissions",
	}

	for _, input := range inputs {
		once := normalizer.Normalize(input)
		twice := normalizer.Normalize(strings.Join(once, " "))
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Normalize not idempotent for %q: first %v, second %v",
				input, once, twice)
		}
	}
}

func TestNormalize_IdempotentWithSparseCorrectorVocabulary(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())
	tn := normalizer.(*textNormalizer)

	// The corpus holds only an inflected neighbor of the canonical
	// ("teache" is one edit from "teacher"). With the canonicals folded in,
	// an appended canonical survives renormalization unchanged.
	vocabulary := append([]string{"who", "teache", "math"}, tn.SynonymCanonicals()...)
	tn.SetSpellCorrector(NewSpellCorrector(vocabulary, 2))

	once := normalizer.Normalize("math professor")
	expected := []string{"math", "professor", "teacher"}
	if !reflect.DeepEqual(once, expected) {
		t.Fatalf("Normalize() = %v, expected %v", once, expected)
	}

	twice := normalizer.Normalize(strings.Join(once, " "))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Normalize not idempotent: first %v, second %v", once, twice)
	}
}

func TestSynonymCanonicals(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())
	tn := normalizer.(*textNormalizer)

	seen := make(map[string]int)
	for _, canonical := range tn.SynonymCanonicals() {
		seen[canonical]++
	}

	for _, expected := range []string{"admission", "fee", "teacher", "toilet", "picture"} {
		if seen[expected] != 1 {
			t.Errorf("SynonymCanonicals() contains %q %d times, expected exactly once",
				expected, seen[expected])
		}
	}
}

func TestNormalize_HanText(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())

	tokens := normalizer.Normalize("图书馆在哪里")
	if len(tokens) == 0 {
		t.Fatal("Expected tokens for Han input, got none")
	}
	for _, token := range tokens {
		if !containsHan(token) {
			t.Errorf("Unexpected non-Han token %q in segmented output", token)
		}
	}
}

func TestNormalize_SpellCorrection(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())

	tn, ok := normalizer.(*textNormalizer)
	if !ok {
		t.Fatal("Expected *textNormalizer")
	}

	// Corpus-derived vocabulary of already-stemmed forms
	tn.SetSpellCorrector(NewSpellCorrector(
		[]string{"tuition", "fee", "library", "admission", "office"}, 2))

	result := normalizer.Normalize("tuiton fee")
	expected := []string{"tuition", "fee"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Normalize(%q) = %v, expected %v", "tuiton fee", result, expected)
	}
}

func TestNormalizeBatch_CorpusPasses(t *testing.T) {
	normalizer := NewTextNormalizer(allPasses())

	tn := normalizer.(*textNormalizer)
	tn.SetSpellCorrector(NewSpellCorrector([]string{"tuition", "fee"}, 2))

	results := normalizer.NormalizeBatch([]string{
		"tuiton fee",        // no spell correction on corpus text
		"enrollment office", // no synonym expansion either
		"the library",       // stop words still filtered
	})

	expected := [][]string{
		{"tuiton", "fee"},
		{"enrollment", "office"},
		{"library"},
	}

	if !reflect.DeepEqual(results, expected) {
		t.Errorf("NormalizeBatch() = %v, expected %v", results, expected)
	}
}

func TestStemToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"admissions", "admission"},
		{"studies", "study"},
		{"classes", "class"},
		{"running", "run"},
		{"located", "locat"},
		{"fees", "fee"},
		{"class", "class"},   // trailing ss kept
		{"campus", "campus"}, // trailing us kept
		{"this", "this"},     // trailing is kept
		{"bus", "bus"},
		{"where", "where"},
		{"map", "map"},
		{"图书馆", "图书馆"}, // non-ASCII passes through
	}

	for _, tt := range tests {
		if got := stemToken(tt.token); got != tt.expected {
			t.Errorf("stemToken(%q) = %q, expected %q", tt.token, got, tt.expected)
		}
	}
}

func TestStemToken_FixedPoint(t *testing.T) {
	tokens := []string{
		"stringing", // strips to a non-word stem, must stay stable
		"dressings",
		"addressed",
		"crossings",
	}

	for _, token := range tokens {
		once := stemToken(token)
		twice := stemToken(once)
		if once != twice {
			t.Errorf("stemToken(%q) = %q but restemming gives %q", token, once, twice)
		}
	}
}

func TestNewTextNormalizerWithLexicon(t *testing.T) {
	dir := t.TempDir()

	stopPath := filepath.Join(dir, "stopwords.txt")
	if err := os.WriteFile(stopPath, []byte("# custom stop words\nfoo\nbar\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	synPath := filepath.Join(dir, "synonyms.txt")
	if err := os.WriteFile(synPath, []byte("# variant canonical\ncanteen cafeteria\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	normalizer, err := NewTextNormalizerWithLexicon(allPasses(), stopPath, synPath)
	if err != nil {
		t.Fatalf("NewTextNormalizerWithLexicon() error: %v", err)
	}

	result := normalizer.Normalize("foo bar canteen")
	expected := []string{"canteen", "cafeteria"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Normalize() = %v, expected %v", result, expected)
	}

	// Defaults remain merged in
	result = normalizer.Normalize("the enrollment")
	expected = []string{"enrollment", "admission"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Normalize() = %v, expected %v", result, expected)
	}
}

func TestNewTextNormalizerWithLexicon_BadSynonymLine(t *testing.T) {
	dir := t.TempDir()

	synPath := filepath.Join(dir, "synonyms.txt")
	if err := os.WriteFile(synPath, []byte("canteen cafeteria extra\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewTextNormalizerWithLexicon(allPasses(), "", synPath)
	if err == nil {
		t.Fatal("Expected error for malformed synonym line")
	}
}
