package vector

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestSet_PrunesNonPositive(t *testing.T) {
	v := New()
	v.Set("rust", 1.5)
	v.Set("go", 0)
	v.Set("zig", -2)
	assert.Equal(t, 1, v.Len())

	v.Set("rust", 0)
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 0.0, v.Get("rust"))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Sparse
		want float64
	}{
		{"identical", Sparse{"a": 1, "b": 2}, Sparse{"a": 1, "b": 2}, 1},
		{"scaled copy", Sparse{"a": 1, "b": 2}, Sparse{"a": 3, "b": 6}, 1},
		{"orthogonal", Sparse{"a": 1}, Sparse{"b": 1}, 0},
		{"half overlap", Sparse{"a": 1, "c": 1}, Sparse{"b": 1, "c": 1}, 0.5},
		{"empty a", Sparse{}, Sparse{"a": 1}, 0},
		{"nil b", Sparse{"a": 1}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	vectors := []Sparse{
		{"rust": 1, "book": 0.3},
		{"rust": 0.2, "cargo": 4, "crates": 1e-6},
		{"cookie": 2.5, "recipe": 2.5},
		{"a": 1e9, "b": 1e-9},
	}

	for _, a := range vectors {
		assert.InDelta(t, 1.0, CosineSimilarity(a, a), tolerance)
		for _, b := range vectors {
			sim := CosineSimilarity(a, b)
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
			assert.InDelta(t, sim, CosineSimilarity(b, a), tolerance)
		}
	}
}

func TestMean(t *testing.T) {
	vectors := []Sparse{
		{"a": 1, "b": 2},
		{"a": 3},
		{"c": 3},
	}

	centroid := Mean(vectors)
	require.Equal(t, 3, centroid.Len())
	assert.InDelta(t, 4.0/3.0, centroid.Get("a"), tolerance)
	assert.InDelta(t, 2.0/3.0, centroid.Get("b"), tolerance)
	assert.InDelta(t, 1.0, centroid.Get("c"), tolerance)

	assert.Equal(t, 0, Mean(nil).Len())
}

func TestMean_DoesNotAliasInputs(t *testing.T) {
	only := Sparse{"a": 2}
	centroid := Mean([]Sparse{only})
	centroid.Set("a", 10)
	assert.Equal(t, 2.0, only.Get("a"))
}

func TestNormAndDot(t *testing.T) {
	a := Sparse{"x": 3, "y": 4}
	b := Sparse{"x": 1, "z": 7}
	assert.InDelta(t, 5.0, a.Norm(), tolerance)
	assert.InDelta(t, 3.0, a.Dot(b), tolerance)
	assert.InDelta(t, 3.0, b.Dot(a), tolerance)
}

func TestJSONRoundTrip_OrderedPairs(t *testing.T) {
	v := Sparse{"zeta": 0.5, "alpha": 2}

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `[["alpha",2],["zeta",0.5]]`, string(data))

	var decoded Sparse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, v, decoded)
}

func TestUnmarshalJSON_PrunesAndRejectsBadPairs(t *testing.T) {
	var v Sparse
	require.NoError(t, json.Unmarshal([]byte(`[["a",1],["b",0]]`), &v))
	assert.Equal(t, Sparse{"a": 1}, v)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`[[1,"a"]]`), &v))
}

func TestEntriesAndFromEntries(t *testing.T) {
	v := Sparse{"b": 1, "a": 2}
	entries := v.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Term)
	assert.Equal(t, "b", entries[1].Term)

	rebuilt := FromEntries(append(entries, Entry{Term: "c", Weight: math.NaN()}))
	assert.Equal(t, v, rebuilt)
}
