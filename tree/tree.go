// Package tree implements a CART-style classification tree over quantile-binned
// features. Nodes live in five flat parallel arrays instead of a linked
// structure: children are slot indices, -1 marks a leaf, and a tree of depth D
// reserves 2^(D+1)-1 slots up front. The builder in build.go fills the arrays
// iteratively with an explicit frame stack; prediction walks the arrays with
// the raw (unbinned) feature values.
package tree

import "errors"

// ErrCapacity reports an attempt to write past the tree's slot count. The
// preorder slot layout cannot overflow a correctly sized tree, so hitting this
// signals a builder bug rather than bad input.
var ErrCapacity = errors.New("tree: node capacity exceeded")

// Tree is a flat decision tree. A node is a leaf iff both child slots are -1;
// Label is meaningful only at leaves, Feature and Threshold only at internal
// nodes. Thresholds are in the original feature scale.
type Tree struct {
	Feature   []int32
	Threshold []float32
	Left      []int32
	Right     []int32
	Label     []int32
	MaxDepth  int
}

// New returns an empty tree with capacity for a full tree of depth maxDepth,
// 2^(maxDepth+1) - 1 slots.
func New(maxDepth int) *Tree {
	count := 1<<(maxDepth+1) - 1

	t := &Tree{
		Feature:   make([]int32, count),
		Threshold: make([]float32, count),
		Left:      make([]int32, count),
		Right:     make([]int32, count),
		Label:     make([]int32, count),
		MaxDepth:  maxDepth,
	}

	for i := 0; i < count; i++ {
		t.Left[i] = -1
		t.Right[i] = -1
	}

	return t
}

// Count returns the number of node slots.
func (t *Tree) Count() int {
	return len(t.Label)
}

// Predict routes sample from the root to a leaf and returns the leaf's class.
// The comparison is strict less-than, matching the upper-bound rule used to
// assign bins during training.
func (t *Tree) Predict(sample []float32) int32 {
	slot := int32(0)

	for t.Left[slot] != -1 || t.Right[slot] != -1 {
		if sample[t.Feature[slot]] < t.Threshold[slot] {
			slot = t.Left[slot]
		} else {
			slot = t.Right[slot]
		}
	}

	return t.Label[slot]
}
