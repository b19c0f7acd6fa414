package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer turns free text (food names, CLI input) into lowercase search
// keywords.
type Tokenizer struct {
	stopwords map[string]struct{}
	minLen    int
}

// NewTokenizer creates a Tokenizer that drops stopwords and words shorter
// than two runes.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		minLen:    2,
	}
}

// Keywords derives a keyword set from a display name, e.g.
// "Peanut Butter Sandwich" -> [peanut butter sandwich].
func (t *Tokenizer) Keywords(text string) []string {
	words := splitWords(text)
	keywords := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < t.minLen {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

// Normalize lowercases and trims keywords, dropping empties and duplicates
// while keeping first-seen order. Stopwords are kept: callers chose them.
func Normalize(keywords []string) []string {
	if keywords == nil {
		return nil
	}
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// SplitList splits user input on whitespace and commas.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns filler words common in food names.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "of", "with", "the", "in", "on", "or",
		"for", "to", "from", "style", "serving", "piece", "slice",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
