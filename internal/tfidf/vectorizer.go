// Package tfidf keeps the clustering corpus statistics and turns documents into
// TF-IDF sparse vectors. Its corpus is independent from the search ranker's.
package tfidf

import (
	"fmt"
	"math"

	"github.com/gcbaptista/bookmark-engine/internal/vector"
)

// Weighting selects the IDF formula applied once the corpus holds two or more documents.
type Weighting string

const (
	// WeightingStandard computes tf * ln(N/df); terms present in every document get weight 0.
	WeightingStandard Weighting = "standard"
	// WeightingSmooth computes tf * (ln((1+N)/(1+df)) + 1), keeping shared terms positive.
	WeightingSmooth Weighting = "smooth"
)

// Valid reports whether w names a known weighting.
func (w Weighting) Valid() bool {
	return w == WeightingStandard || w == WeightingSmooth
}

// Document is one entry of the append-only corpus.
type Document struct {
	Tokens   []string
	TermFreq Counts
}

// Vectorizer holds the document list, per-term document frequencies and vocabulary.
// It is not safe for concurrent use.
type Vectorizer struct {
	weighting  Weighting
	documents  []Document
	termCounts Counts
	vocabulary map[string]struct{}
}

// NewVectorizer creates an empty vectorizer. An unknown weighting falls back to standard.
func NewVectorizer(weighting Weighting) *Vectorizer {
	if !weighting.Valid() {
		weighting = WeightingStandard
	}
	return &Vectorizer{
		weighting:  weighting,
		termCounts: make(Counts),
		vocabulary: make(map[string]struct{}),
	}
}

// Weighting returns the configured IDF weighting.
func (v *Vectorizer) Weighting() Weighting {
	return v.weighting
}

// AddTokens appends a tokenized document to the corpus and returns its index.
// Document frequencies count each distinct term of the document once.
func (v *Vectorizer) AddTokens(tokens []string) int {
	termFreq := make(Counts, len(tokens))
	for _, token := range tokens {
		termFreq[token]++
	}

	for term := range termFreq {
		v.termCounts[term]++
		v.vocabulary[term] = struct{}{}
	}

	stored := make([]string, len(tokens))
	copy(stored, tokens)
	v.documents = append(v.documents, Document{Tokens: stored, TermFreq: termFreq})
	return len(v.documents) - 1
}

// Vector returns the sparse vector of the document at index.
// With a single document the vector is tf / max tf; otherwise TF-IDF with
// non-positive weights pruned.
func (v *Vectorizer) Vector(index int) (vector.Sparse, error) {
	if index < 0 || index >= len(v.documents) {
		return nil, fmt.Errorf("document index %d out of range [0, %d)", index, len(v.documents))
	}

	doc := v.documents[index]
	vec := vector.New()
	n := len(v.documents)

	if n == 1 {
		maxTf := 0
		for _, tf := range doc.TermFreq {
			if tf > maxTf {
				maxTf = tf
			}
		}
		if maxTf == 0 {
			return vec, nil
		}
		for term, tf := range doc.TermFreq {
			vec.Set(term, float64(tf)/float64(maxTf))
		}
		return vec, nil
	}

	for term, tf := range doc.TermFreq {
		vec.Set(term, float64(tf)*v.idf(term, n))
	}
	return vec, nil
}

func (v *Vectorizer) idf(term string, n int) float64 {
	df := v.termCounts[term]
	if df == 0 {
		return 0
	}
	switch v.weighting {
	case WeightingSmooth:
		return math.Log(float64(1+n)/float64(1+df)) + 1
	default:
		return math.Log(float64(n) / float64(df))
	}
}

// DocumentCount returns the number of documents ever added.
func (v *Vectorizer) DocumentCount() int {
	return len(v.documents)
}

// VocabularySize returns the number of distinct terms seen.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}

// DocumentFrequency returns how many documents contain term.
func (v *Vectorizer) DocumentFrequency(term string) int {
	return v.termCounts[term]
}

// Reset clears every document and statistic.
func (v *Vectorizer) Reset() {
	v.documents = nil
	v.termCounts = make(Counts)
	v.vocabulary = make(map[string]struct{})
}
