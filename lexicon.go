package rulematcher

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type Empty struct{}

// defaultStopWords returns the default English stop-word set.
// Interrogatives (where/what/how/who/when/why) are deliberately absent:
// the intent classifier keys on them, so normalization must keep them.
func defaultStopWords() map[string]Empty {
	stopWords := []string{
		"a", "an", "and", "are", "as", "at", "be", "been", "but", "by",
		"can", "could", "did", "do", "does", "for", "from", "had", "has",
		"have", "i", "if", "in", "into", "is", "it", "its", "me", "my",
		"of", "on", "or", "please", "so", "some", "than", "that", "the",
		"their", "them", "then", "these", "they", "this", "to", "up",
		"was", "were", "will", "with", "would", "you", "your",
	}

	stopWordsMap := make(map[string]Empty)
	for _, word := range stopWords {
		stopWordsMap[word] = Empty{}
	}

	return stopWordsMap
}

// defaultSynonyms maps variant tokens to their canonical term. Expansion
// appends the canonical token alongside the variant so lexical overlap
// widens without altering the vector-space training corpus.
func defaultSynonyms() map[string]string {
	return map[string]string{
		"enrollment": "admission",
		"enrolment":  "admission",
		"enroll":     "admission",
		"enrol":      "admission",
		"register":   "admission",
		"admissions": "admission",
		"tuition":    "fee",
		"cost":       "fee",
		"price":      "fee",
		"professor":  "teacher",
		"instructor": "teacher",
		"lecturer":   "teacher",
		"restroom":   "toilet",
		"washroom":   "toilet",
		"photo":      "picture",
		"image":      "picture",
	}
}

// loadStopWordsFromFile loads stop words from a text file (one word per line)
func loadStopWordsFromFile(path string) (map[string]Empty, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stopWords := make(map[string]Empty)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") { // Skip empty lines and comments
			stopWords[strings.ToLower(word)] = Empty{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return stopWords, nil
}

// loadSynonymsFromFile loads a synonym table from a text file. Each line is
// "variant canonical"; empty lines and # comments are skipped.
func loadSynonymsFromFile(path string) (map[string]string, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer file.Close()

	synonyms := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: line %d: want \"variant canonical\", got %q",
				ErrInvalidLexiconFormat, lineNumber, line)
		}

		synonyms[strings.ToLower(parts[0])] = strings.ToLower(parts[1])
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return synonyms, nil
}
