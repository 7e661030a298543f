package textvec

import (
	"math"
	"sort"
)

// Vector is a sparse vector with strictly increasing Indices.
type Vector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// NewVector builds a Vector from an index->value map, dropping zeros.
func NewVector(m map[int]float64) Vector {
	idx := make([]int, 0, len(m))
	for i, v := range m {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = m[i]
	}
	return Vector{Indices: idx, Values: vals}
}

// NNZ is the number of stored entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// Norm is the Euclidean length.
func (v Vector) Norm() float64 {
	var s float64
	for _, x := range v.Values {
		s += x * x
	}
	return math.Sqrt(s)
}

// Dot returns the inner product with a dense weight slice.
func (v Vector) Dot(w []float64) float64 {
	var s float64
	for k, i := range v.Indices {
		if i < len(w) {
			s += v.Values[k] * w[i]
		}
	}
	return s
}

// Dense expands v to a slice of length dim.
func (v Vector) Dense(dim int) []float64 {
	out := make([]float64, dim)
	for k, i := range v.Indices {
		if i < dim {
			out[i] = v.Values[k]
		}
	}
	return out
}

// At returns the value at index i.
func (v Vector) At(i int) float64 {
	k := sort.SearchInts(v.Indices, i)
	if k < len(v.Indices) && v.Indices[k] == i {
		return v.Values[k]
	}
	return 0
}
