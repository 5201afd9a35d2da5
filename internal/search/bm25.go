package search

import (
	"math"
	"strings"

	"github.com/gcbaptista/bookmark-engine/internal/document"
	"github.com/gcbaptista/bookmark-engine/internal/tokenizer"
	"github.com/gcbaptista/bookmark-engine/model"
)

// Default BM25 parameters
const (
	DefaultK1 = 1.5  // Controls term frequency saturation
	DefaultB  = 0.75 // Controls how much effect document length has
)

// Fuzzy match weights, picked by the last word of a document that contains the token
const (
	exactMatchWeight  = 1.0
	prefixMatchWeight = 0.8
	suffixMatchWeight = 0.6
	infixMatchWeight  = 0.4

	// fuzzyTermFrequency is what one fuzzy word match adds to tf
	fuzzyTermFrequency = 0.5
)

// indexedDoc is the derived view of one corpus item.
type indexedDoc struct {
	item   model.Item
	tokens map[string]struct{} // fuzzy-expanded, deduplicated
	length int
	words  []string // whitespace-split lowercased document text
}

func newIndexedDoc(item model.Item) indexedDoc {
	text := strings.ToLower(document.SearchText(item))
	expanded := tokenizer.TokenizeFuzzy(text)

	tokens := make(map[string]struct{}, len(expanded))
	for _, token := range expanded {
		tokens[token] = struct{}{}
	}

	return indexedDoc{
		item:   item,
		tokens: tokens,
		length: len(expanded),
		words:  strings.Fields(text),
	}
}

// containsToken reports an exact token match or a substring match inside any word.
func (d *indexedDoc) containsToken(token string) bool {
	if _, ok := d.tokens[token]; ok {
		return true
	}
	if len(token) < tokenizer.MinTokenLength {
		return false
	}
	for _, word := range d.words {
		if strings.Contains(word, token) {
			return true
		}
	}
	return false
}

// termFrequency returns the tf and match weight of token in the document.
func (d *indexedDoc) termFrequency(token string) (tf float64, weight float64) {
	weight = exactMatchWeight
	if _, ok := d.tokens[token]; ok {
		return 1, exactMatchWeight
	}
	if len(token) < tokenizer.MinTokenLength {
		return 0, weight
	}

	for _, word := range d.words {
		if !strings.Contains(word, token) {
			continue
		}
		tf += fuzzyTermFrequency
		switch {
		case strings.HasPrefix(word, token):
			weight = prefixMatchWeight
		case strings.HasSuffix(word, token):
			weight = suffixMatchWeight
		default:
			weight = infixMatchWeight
		}
	}
	return tf, weight
}

// BM25Calculator handles BM25 score calculations over a fixed corpus snapshot.
type BM25Calculator struct {
	k1        float64
	b         float64
	docs      []indexedDoc
	avgDocLen float64
	idfCache  map[string]float64
}

// NewBM25Calculator tokenizes items once and computes the average document length.
// Items are scored in the order given.
func NewBM25Calculator(items []model.Item, k1, b float64) *BM25Calculator {
	docs := make([]indexedDoc, len(items))
	total := 0
	for i, item := range items {
		docs[i] = newIndexedDoc(item)
		total += docs[i].length
	}

	avgDocLen := 1.0
	if total > 0 {
		avgDocLen = float64(total) / float64(len(docs))
	}

	return &BM25Calculator{
		k1:        k1,
		b:         b,
		docs:      docs,
		avgDocLen: avgDocLen,
		idfCache:  make(map[string]float64),
	}
}

// AverageDocumentLength returns the mean fuzzy-token count over the corpus.
// It is 1 when the corpus has no tokens at all.
func (calc *BM25Calculator) AverageDocumentLength() float64 {
	return calc.avgDocLen
}

// documentFrequency returns the number of documents that contain token exactly or fuzzily.
func (calc *BM25Calculator) documentFrequency(token string) int {
	df := 0
	for i := range calc.docs {
		if calc.docs[i].containsToken(token) {
			df++
		}
	}
	return df
}

// IDF = ln(1 + (N - df + 0.5) / (df + 0.5)), or 0 when no document matches.
func (calc *BM25Calculator) IDF(token string) float64 {
	if idf, ok := calc.idfCache[token]; ok {
		return idf
	}

	idf := 0.0
	n := len(calc.docs)
	df := calc.documentFrequency(token)
	if df > 0 && n > 0 {
		idf = math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
	}
	calc.idfCache[token] = idf
	return idf
}

// Score sums the BM25 contribution of every query token for the document at index.
// BM25 = IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * (|d| / avgdl))) * matchWeight
func (calc *BM25Calculator) Score(index int, queryTokens []string) float64 {
	doc := &calc.docs[index]
	score := 0.0

	for _, token := range queryTokens {
		tf, weight := doc.termFrequency(token)
		if tf <= 0 {
			continue
		}
		idf := calc.IDF(token)
		if idf <= 0 {
			continue
		}

		numerator := tf * (calc.k1 + 1)
		denominator := tf + calc.k1*(1-calc.b+calc.b*(float64(doc.length)/calc.avgDocLen))
		score += idf * (numerator / denominator) * weight
	}
	return score
}

// Len returns the corpus size.
func (calc *BM25Calculator) Len() int {
	return len(calc.docs)
}

// Item returns the corpus item at index.
func (calc *BM25Calculator) Item(index int) model.Item {
	return calc.docs[index].item
}
