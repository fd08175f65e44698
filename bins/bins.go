// Package bins discretizes continuous features into per-feature quantile bins
// so the split search can compare 8-bit integers instead of floats. Edges are
// kept in the original feature scale; the tree builder reads thresholds from
// them, never from the raw values.
package bins

import (
	"math"
	"slices"
	"sort"
)

// MaxBins is the per-feature bin limit; indices fit in a byte.
const MaxBins = 256

// edgeStride is the width of one feature's row in the edge table.
const edgeStride = MaxBins + 1

// Matrix is a binned view of a feature-major (S × F) tensor. Bins holds one
// byte per value with the same layout as the source (stride S); Edges is a
// flat F × (MaxBins+1) table of non-decreasing bin boundaries.
type Matrix struct {
	Bins  []uint8
	Edges []float32
	NBins []int
	S, F  int
}

// Discretize bins every feature column of the feature-major tensor X
// (S samples, F features, stride S).
//
// Per feature: the distinct sorted values u[0..k) place edges at
// index-quantiles u[⌊b·k/n⌋] with n = min(k, MaxBins) bins, and a terminal
// guard edge u[k−1] + 1e-5 so every observed value falls strictly below it.
// A value's bin is upper_bound(edges, v) − 1.
func Discretize(X []float32, s, f int) *Matrix {
	m := &Matrix{
		Bins:  make([]uint8, s*f),
		Edges: make([]float32, f*edgeStride),
		NBins: make([]int, f),
		S:     s,
		F:     f,
	}

	distinct := make([]float32, s)

	for feat := 0; feat < f; feat++ {
		col := X[feat*s : (feat+1)*s]

		distinct = distinct[:s]
		copy(distinct, col)
		slices.Sort(distinct)
		distinct = slices.Compact(distinct)

		k := len(distinct)
		n := k
		if n > MaxBins {
			n = MaxBins
		}
		m.NBins[feat] = n

		edges := m.Edges[feat*edgeStride : feat*edgeStride+n+1]
		for b := 0; b < n; b++ {
			edges[b] = distinct[b*k/n]
		}
		// guard edge: every observed value must fall strictly below it; at
		// magnitudes where 1e-5 is under half an ulp the addition rounds
		// away, so step to the next representable float instead
		guard := distinct[k-1] + 1e-5
		if guard <= distinct[k-1] {
			guard = math.Nextafter32(distinct[k-1], float32(math.Inf(1)))
		}
		edges[n] = guard

		binned := m.Bins[feat*s : (feat+1)*s]
		for i, v := range col {
			binned[i] = uint8(upperBound(edges, v) - 1)
		}
	}

	return m
}

// upperBound returns the index of the first edge strictly greater than v.
func upperBound(edges []float32, v float32) int {
	return sort.Search(len(edges), func(i int) bool { return edges[i] > v })
}

// Bin returns the bin index of sample i, feature f.
func (m *Matrix) Bin(i, f int) uint8 {
	return m.Bins[f*m.S+i]
}

// Column returns the binned column of feature f, one byte per sample.
func (m *Matrix) Column(f int) []uint8 {
	return m.Bins[f*m.S : (f+1)*m.S]
}

// Edge returns edge b of feature f in the original feature scale.
func (m *Matrix) Edge(f, b int) float32 {
	return m.Edges[f*edgeStride+b]
}

// Take builds the bin matrix of a bootstrapped dataset: row i of the result
// is row idx[i] of m. The edge table is shared, not copied; the result must be
// treated as read-only alongside m.
func (m *Matrix) Take(idx []int) *Matrix {
	s := len(idx)
	t := &Matrix{
		Bins:  make([]uint8, s*m.F),
		Edges: m.Edges,
		NBins: m.NBins,
		S:     s,
		F:     m.F,
	}

	for f := 0; f < m.F; f++ {
		src := m.Column(f)
		dst := t.Bins[f*s : (f+1)*s]
		for i, id := range idx {
			dst[i] = src[id]
		}
	}

	return t
}
