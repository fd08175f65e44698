package tree

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/epsilon-ml/rf/bins"
	"github.com/epsilon-ml/rf/metrics"
)

// frame phases; each node on the stack cycles EXPAND -> AFTER_LEFT ->
// AFTER_RIGHT so the builder learns the left subtree's last slot before
// placing the right subtree.
const (
	phaseExpand = iota
	phaseAfterLeft
	phaseAfterRight
)

type frame struct {
	samples  []int
	depth    int
	cursor   int
	phase    int
	splitPos int // boundary between left and right partition in samples
	lRoot    int
	rRoot    int
}

// Build grows the tree on a binned dataset: xb is the (S × F) bin matrix with
// its edge table, y the labels in [0, nClasses). Nodes are written in preorder
// starting at slot 0; the return value is the last slot used.
//
// The builder is iterative. Recursion depth would be bounded by the tree depth
// anyway, but the explicit stack keeps every piece of per-node scratch in one
// reusable splitter and mirrors the three-phase slot accounting below.
func (t *Tree) Build(xb *bins.Matrix, y []int32, nClasses, startDepth int, rng *rand.Rand) (int, error) {
	count := t.Count()
	sp := newSplitter(xb, y, nClasses, rng)

	samples := make([]int, xb.S)
	for i := range samples {
		samples[i] = i
	}

	var s stack
	s.Push(&frame{samples: samples, depth: startDepth, cursor: 0, phase: phaseExpand})

	index := 0 // highest slot written by the most recently finished subtree

	for !s.Empty() {
		w := s.Top()

		switch w.phase {
		case phaseExpand:
			n := len(w.samples)
			hist := sp.histogram(w.samples)

			if w.depth >= t.MaxDepth || oneClass(hist) {
				t.Label[w.cursor] = metrics.Majority(hist)
				index = w.cursor
				s.Pop()
				continue
			}

			best := sp.bestSplit(w.samples, hist)

			// no positive-gain split, or no room for two children
			if best.gain == 0 || w.cursor+2 >= count {
				t.Label[w.cursor] = metrics.Majority(hist)
				index = w.cursor
				s.Pop()
				continue
			}

			t.Feature[w.cursor] = int32(best.feature)
			t.Threshold[w.cursor] = best.threshold

			// adopt the order sorted by the winning feature; the two
			// partitions are disjoint subslices of the frame's samples
			copy(w.samples, sp.bestSorted[:n])

			w.splitPos = best.pos
			w.lRoot = w.cursor + 1
			w.phase = phaseAfterLeft
			s.Push(&frame{
				samples: w.samples[:best.pos],
				depth:   w.depth + 1,
				cursor:  w.lRoot,
				phase:   phaseExpand,
			})

		case phaseAfterLeft:
			t.Left[w.cursor] = int32(w.lRoot)

			w.rRoot = index + 1
			if w.rRoot >= count {
				return index, fmt.Errorf("%w: slot %d of %d", ErrCapacity, w.rRoot, count)
			}

			w.phase = phaseAfterRight
			s.Push(&frame{
				samples: w.samples[w.splitPos:],
				depth:   w.depth + 1,
				cursor:  w.rRoot,
				phase:   phaseExpand,
			})

		case phaseAfterRight:
			t.Right[w.cursor] = int32(w.rRoot)
			s.Pop()
		}
	}

	return index, nil
}

func oneClass(hist []int) bool {
	seen := 0
	for _, count := range hist {
		if count > 0 {
			seen++
		}
	}
	return seen == 1
}

type split struct {
	gain      float64
	threshold float32
	feature   int
	pos       int // left = sorted[:pos], right = sorted[pos:]
}

// splitter holds the per-tree scratch for split search: the feature
// permutation for subsampling, class-count histograms, and the sort buffers.
// One splitter serves every node of a single build; nothing here is shared
// across trees.
type splitter struct {
	xb          *bins.Matrix
	y           []int32
	maxFeatures int
	features    []int
	hist        []int
	histL       []int
	histR       []int
	counts      []int
	sorted      []int
	bestSorted  []int
	rng         *rand.Rand
}

func newSplitter(xb *bins.Matrix, y []int32, nClasses int, rng *rand.Rand) *splitter {
	m := int(math.Sqrt(float64(xb.F)))
	if m < 1 {
		m = 1
	}

	sp := &splitter{
		xb:          xb,
		y:           y,
		maxFeatures: m,
		features:    make([]int, xb.F),
		hist:        make([]int, nClasses),
		histL:       make([]int, nClasses),
		histR:       make([]int, nClasses),
		counts:      make([]int, bins.MaxBins),
		sorted:      make([]int, xb.S),
		bestSorted:  make([]int, xb.S),
		rng:         rng,
	}

	for i := range sp.features {
		sp.features[i] = i
	}

	return sp
}

// histogram counts the classes of the node's samples into reused scratch.
func (s *splitter) histogram(samples []int) []int {
	for i := range s.hist {
		s.hist[i] = 0
	}
	for _, id := range samples {
		s.hist[s.y[id]]++
	}
	return s.hist
}

// bestSplit sweeps ⌊√F⌋ randomly drawn features for the highest Gini gain.
// For each candidate feature the samples are counting-sorted by bin index and
// the left/right class counts are maintained incrementally, so every
// threshold between two distinct adjacent bins is evaluated in O(C).
// Improvements are strict, first seen wins. On return bestSorted holds the
// node's samples ordered by the winning feature.
func (s *splitter) bestSplit(samples []int, hist []int) split {
	n := len(samples)
	parent := metrics.Gini(hist)

	var best split

	// draw maxFeatures distinct features, Fisher-Yates prefix,
	// Algorithm P, Knuth, The Art of Computer Programming Vol. 2
	for j := 0; j < s.maxFeatures; j++ {
		k := j + s.rng.Intn(len(s.features)-j)
		s.features[j], s.features[k] = s.features[k], s.features[j]
		feature := s.features[j]

		col := s.xb.Column(feature)
		sortByBin(s.sorted[:n], samples, col, s.counts)

		for i := range s.histL {
			s.histL[i] = 0
		}
		copy(s.histR, hist)

		for i := 0; i < n-1; i++ {
			c := s.y[s.sorted[i]]
			s.histL[c]++
			s.histR[c]--

			b := col[s.sorted[i+1]]
			if col[s.sorted[i]] == b {
				continue // cannot split inside a bin
			}

			nL := i + 1
			nR := n - nL
			gain := parent -
				float64(nL)/float64(n)*metrics.Gini(s.histL) -
				float64(nR)/float64(n)*metrics.Gini(s.histR)

			if gain > best.gain {
				best = split{
					gain:      gain,
					threshold: s.xb.Edge(feature, int(b)),
					feature:   feature,
					pos:       nL,
				}
				copy(s.bestSorted[:n], s.sorted[:n])
			}
		}
	}

	return best
}

// lifo stack for unexpanded nodes
type stack []*frame

func (s stack) Empty() bool    { return len(s) == 0 }
func (s stack) Top() *frame    { return s[len(s)-1] }
func (s *stack) Push(f *frame) { *s = append(*s, f) }
func (s *stack) Pop()          { *s = (*s)[:len(*s)-1] }
