package tfidf

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gcbaptista/bookmark-engine/internal/errors"
)

// StateKey is the persistence key holding the vectorizer state.
const StateKey = "clustering-tfidf"

// Counts maps a term to an integer count. It serializes as ordered [term, count] pairs.
type Counts map[string]int

// MarshalJSON encodes the counts as [term, count] pairs sorted by term.
func (c Counts) MarshalJSON() ([]byte, error) {
	terms := make([]string, 0, len(c))
	for term := range c {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	pairs := make([][2]interface{}, 0, len(terms))
	for _, term := range terms {
		pairs = append(pairs, [2]interface{}{term, c[term]})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes the pair form produced by MarshalJSON.
func (c *Counts) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("failed to decode term counts: %w", err)
	}

	decoded := make(Counts, len(pairs))
	for i, pair := range pairs {
		var term string
		var count int
		if err := json.Unmarshal(pair[0], &term); err != nil {
			return fmt.Errorf("failed to decode term at position %d: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &count); err != nil {
			return fmt.Errorf("failed to decode count for term '%s': %w", term, err)
		}
		decoded[term] = count
	}
	*c = decoded
	return nil
}

// DocumentState is the serialized form of a Document.
type DocumentState struct {
	Tokens   []string `json:"tokens"`
	TermFreq Counts   `json:"term_freq"`
}

// State is the serializable vectorizer state.
type State struct {
	Documents  []DocumentState `json:"documents"`
	TermCounts Counts          `json:"term_counts"`
	Vocabulary []string        `json:"vocabulary"`
}

// State returns a snapshot of the vectorizer that shares no memory with it.
func (v *Vectorizer) State() State {
	docs := make([]DocumentState, len(v.documents))
	for i, doc := range v.documents {
		tokens := make([]string, len(doc.Tokens))
		copy(tokens, doc.Tokens)
		docs[i] = DocumentState{Tokens: tokens, TermFreq: copyCounts(doc.TermFreq)}
	}

	vocabulary := make([]string, 0, len(v.vocabulary))
	for term := range v.vocabulary {
		vocabulary = append(vocabulary, term)
	}
	sort.Strings(vocabulary)

	return State{
		Documents:  docs,
		TermCounts: copyCounts(v.termCounts),
		Vocabulary: vocabulary,
	}
}

// Restore replaces the vectorizer contents with state. A document without a
// term-frequency table has it rebuilt from its tokens. A term count that is
// negative or larger than the document count is reported as ErrStateCorrupt and
// leaves the vectorizer unchanged.
func (v *Vectorizer) Restore(state State) error {
	for term, count := range state.TermCounts {
		if count < 0 || count > len(state.Documents) {
			return errors.NewStateCorruptError(StateKey,
				fmt.Sprintf("term '%s' has document frequency %d with %d documents", term, count, len(state.Documents)))
		}
	}

	docs := make([]Document, len(state.Documents))
	for i, ds := range state.Documents {
		tokens := make([]string, len(ds.Tokens))
		copy(tokens, ds.Tokens)

		termFreq := copyCounts(ds.TermFreq)
		if len(termFreq) == 0 {
			for _, token := range tokens {
				termFreq[token]++
			}
		}
		docs[i] = Document{Tokens: tokens, TermFreq: termFreq}
	}

	vocabulary := make(map[string]struct{}, len(state.Vocabulary))
	for _, term := range state.Vocabulary {
		vocabulary[term] = struct{}{}
	}
	for term := range state.TermCounts {
		vocabulary[term] = struct{}{}
	}

	v.documents = docs
	v.termCounts = copyCounts(state.TermCounts)
	v.vocabulary = vocabulary
	return nil
}

func copyCounts(c Counts) Counts {
	out := make(Counts, len(c))
	for term, count := range c {
		out[term] = count
	}
	return out
}
