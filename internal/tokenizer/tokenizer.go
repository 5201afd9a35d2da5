package tokenizer

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
)

// nonWordRegex matches every character that is neither a word character nor whitespace.
var nonWordRegex = regexp.MustCompile(`[^\w\s]`)

// MinTokenLength is the shortest token either tokenizer keeps.
const MinTokenLength = 3

// Tokenize converts text into an ordered slice of tokens.
// It lowercases the text, replaces punctuation with spaces, splits on whitespace
// and drops tokens shorter than MinTokenLength. Duplicates are preserved.
func Tokenize(text string) []string {
	lowerText := strings.ToLower(text)
	cleaned := nonWordRegex.ReplaceAllString(lowerText, " ")

	tokens := make([]string, 0) // Initialize as empty slice, not nil
	for _, s := range strings.Fields(cleaned) {
		if len(s) >= MinTokenLength {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// GenerateSubstringNGrams returns every substring of length n, left to right.
// For "crawl" and n=3 it produces: "cra", "raw", "awl".
func GenerateSubstringNGrams(token string, n int) []string {
	if n <= 0 || len(token) < n {
		return make([]string, 0)
	}

	ngrams := make([]string, 0, len(token)-n+1)
	for i := 0; i+n <= len(token); i++ {
		ngrams = append(ngrams, token[i:i+n])
	}
	return ngrams
}

// GeneratePrefixes returns the prefixes of token from length minLen up to the full token.
// For "crawl4ai" and minLen=4 it produces: "craw", "crawl", "crawl4", "crawl4a", "crawl4ai".
func GeneratePrefixes(token string, minLen int) []string {
	if len(token) < minLen {
		return make([]string, 0)
	}

	prefixes := make([]string, 0, len(token)-minLen+1)
	for i := minLen; i <= len(token); i++ {
		prefixes = append(prefixes, token[:i])
	}
	return prefixes
}

// TokenizeFuzzy tokenizes text and expands the result for partial matching.
// Each token contributes its 3-grams (length >= 4), its 4-grams (length >= 5) and its
// prefixes of length >= 4. The result is deduplicated; base tokens come first, in order.
func TokenizeFuzzy(text string) []string {
	tokens := Tokenize(text)

	result := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	add := func(token string) {
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		result = append(result, token)
	}

	for _, token := range tokens {
		add(token)
	}

	for _, token := range tokens {
		if len(token) >= 4 {
			for _, gram := range GenerateSubstringNGrams(token, 3) {
				add(gram)
			}
		}
		if len(token) >= 5 {
			for _, gram := range GenerateSubstringNGrams(token, 4) {
				add(gram)
			}
		}
		for _, prefix := range GeneratePrefixes(token, 4) {
			add(prefix)
		}
	}

	return result
}

// ClusterTokenizer is the clustering-side tokenizer: Tokenize plus stop-word removal
// and, optionally, English stemming.
type ClusterTokenizer struct {
	stopWords map[string]bool
	stem      bool
}

// NewClusterTokenizer creates a clustering tokenizer with the default stop-word list.
func NewClusterTokenizer(stem bool) *ClusterTokenizer {
	return &ClusterTokenizer{
		stopWords: defaultStopWords(),
		stem:      stem,
	}
}

// Tokenize returns the ordered tokens of text with stop words removed.
func (t *ClusterTokenizer) Tokenize(text string) []string {
	lowerText := strings.ToLower(text)
	cleaned := nonWordRegex.ReplaceAllString(lowerText, " ")

	tokens := make([]string, 0)
	for _, word := range strings.Fields(cleaned) {
		if t.stopWords[word] {
			continue
		}
		if len(word) < MinTokenLength {
			continue
		}
		if t.stem {
			word = stemWord(word)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// IsStopWord reports whether word is removed by the clustering tokenizer.
func (t *ClusterTokenizer) IsStopWord(word string) bool {
	return t.stopWords[strings.ToLower(word)]
}

func stemWord(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || len(stemmed) < MinTokenLength {
		return word
	}
	return stemmed
}

func defaultStopWords() map[string]bool {
	words := []string{
		// Articles and conjunctions
		"the", "a", "an", "and", "or", "but",

		// Prepositions
		"in", "on", "at", "to", "for", "of", "with", "by",
		"from", "up", "about", "into", "through", "during", "before", "after", "above", "below",

		// Auxiliary verbs
		"is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did",
		"will", "would", "could", "should", "may", "might", "must", "shall", "can",
	}

	stopWords := make(map[string]bool, len(words))
	for _, word := range words {
		stopWords[word] = true
	}
	return stopWords
}
