// Package vector implements the sparse term-weight vectors used by the clustering engine.
package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Sparse maps a term to its weight. Absent terms are zero; entries are never
// explicitly zero or negative, Set prunes them instead.
type Sparse map[string]float64

// New returns an empty sparse vector.
func New() Sparse {
	return make(Sparse)
}

// Set stores weight for term, removing the entry when weight is not positive.
func (v Sparse) Set(term string, weight float64) {
	if weight <= 0 || math.IsNaN(weight) {
		delete(v, term)
		return
	}
	v[term] = weight
}

// Get returns the weight of term, zero when absent.
func (v Sparse) Get(term string) float64 {
	return v[term]
}

// Len returns the number of non-zero entries.
func (v Sparse) Len() int {
	return len(v)
}

// Clone returns an independent copy.
func (v Sparse) Clone() Sparse {
	c := make(Sparse, len(v))
	for term, weight := range v {
		c[term] = weight
	}
	return c
}

// Terms returns the vector's terms in ascending order.
func (v Sparse) Terms() []string {
	terms := make([]string, 0, len(v))
	for term := range v {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Norm returns the L2 norm. Terms are summed in sorted order so the result does
// not depend on map iteration.
func (v Sparse) Norm() float64 {
	sum := 0.0
	for _, term := range v.Terms() {
		w := v[term]
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of v and other.
func (v Sparse) Dot(other Sparse) float64 {
	small, large := v, other
	if len(large) < len(small) {
		small, large = large, small
	}

	sum := 0.0
	for _, term := range small.Terms() {
		if w, ok := large[term]; ok {
			sum += small[term] * w
		}
	}
	return sum
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|), or 0 when either norm is 0.
// With non-negative weights the result lies in [0, 1].
func CosineSimilarity(a, b Sparse) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	magnitude := a.Norm() * b.Norm()
	if magnitude == 0 {
		return 0
	}
	sim := a.Dot(b) / magnitude
	if sim > 1 {
		return 1
	}
	if sim < 0 {
		return 0
	}
	return sim
}

// Mean returns the elementwise arithmetic mean of vectors. Vectors are summed in
// the order given; an empty input yields an empty vector.
func Mean(vectors []Sparse) Sparse {
	centroid := New()
	if len(vectors) == 0 {
		return centroid
	}

	sums := make(map[string]float64)
	for _, vec := range vectors {
		for _, term := range vec.Terms() {
			sums[term] += vec[term]
		}
	}

	count := float64(len(vectors))
	for term, sum := range sums {
		centroid.Set(term, sum/count)
	}
	return centroid
}

// Entry is one (term, weight) pair of the serialized form.
type Entry struct {
	Term   string
	Weight float64
}

// Entries returns the vector as pairs sorted by term.
func (v Sparse) Entries() []Entry {
	entries := make([]Entry, 0, len(v))
	for _, term := range v.Terms() {
		entries = append(entries, Entry{Term: term, Weight: v[term]})
	}
	return entries
}

// FromEntries builds a vector from pairs, pruning non-positive weights.
// A repeated term keeps its last weight.
func FromEntries(entries []Entry) Sparse {
	v := make(Sparse, len(entries))
	for _, e := range entries {
		v.Set(e.Term, e.Weight)
	}
	return v
}

// MarshalJSON encodes the vector as an ordered list of [term, weight] pairs.
func (v Sparse) MarshalJSON() ([]byte, error) {
	pairs := make([][2]interface{}, 0, len(v))
	for _, e := range v.Entries() {
		pairs = append(pairs, [2]interface{}{e.Term, e.Weight})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes the [term, weight] pair form produced by MarshalJSON.
func (v *Sparse) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("failed to decode sparse vector: %w", err)
	}

	decoded := make(Sparse, len(pairs))
	for i, pair := range pairs {
		var term string
		var weight float64
		if err := json.Unmarshal(pair[0], &term); err != nil {
			return fmt.Errorf("failed to decode term at position %d: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &weight); err != nil {
			return fmt.Errorf("failed to decode weight for term '%s': %w", term, err)
		}
		decoded.Set(term, weight)
	}
	*v = decoded
	return nil
}
