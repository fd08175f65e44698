// Package forest implements a random-forest classifier over quantile-binned
// features, as described in Breiman, L. "Random forests." Machine Learning
// 45.1 (2001). Trees are trained data-parallel on bootstrap samples and
// predictions are aggregated by majority vote.
package forest

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/epsilon-ml/rf/bins"
	"github.com/epsilon-ml/rf/metrics"
	"github.com/epsilon-ml/rf/tree"
)

var (
	// ErrInvalidShape reports mismatched or empty tensor dimensions.
	ErrInvalidShape = errors.New("forest: invalid shape")
	// ErrInvalidLabel reports a label outside [0, C).
	ErrInvalidLabel = errors.New("forest: label out of range")
	// ErrNonFinite reports a NaN or Inf feature value.
	ErrNonFinite = errors.New("forest: non-finite value")
)

// maxTreeDepth bounds the per-tree slot count; child indices are int32 and a
// tree of depth D reserves 2^(D+1)-1 slots.
const maxTreeDepth = 25

// Classifier is a random forest. Configure with NewClassifier, train with
// Fit; the exported fields are the trained model state and round-trip
// through Save/Load.
type Classifier struct {
	NTrees    int
	MaxDepth  int
	NClasses  int
	NFeatures int
	Trees     []*tree.Tree

	seed     uint64
	nWorkers int
	log      zerolog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// NumTrees sets the number of trees in the forest.
func NumTrees(n int) Option {
	return func(c *Classifier) { c.NTrees = n }
}

// MaxDepth limits the depth of every tree; each tree reserves
// 2^(n+1)-1 node slots.
func MaxDepth(n int) Option {
	return func(c *Classifier) { c.MaxDepth = n }
}

// NumWorkers sets how many trees are built concurrently. The fitted model
// does not depend on the worker count.
func NumWorkers(n int) Option {
	return func(c *Classifier) { c.nWorkers = n }
}

// Seed fixes the rng stream the forest derives per-tree rngs from. Two fits
// with the same seed and inputs produce identical trees.
func Seed(s uint64) Option {
	return func(c *Classifier) { c.seed = s }
}

// Logger attaches a zerolog logger to the fit; the default discards.
func Logger(l zerolog.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// NewClassifier returns a configured classifier. With no options the result
// is equivalent to
//
//	clf := NewClassifier(NumTrees(10), MaxDepth(10), NumWorkers(1), Seed(0))
func NewClassifier(options ...Option) *Classifier {
	c := &Classifier{
		NTrees:   10,
		MaxDepth: 10,
		nWorkers: 1,
		log:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Fit trains the forest on the feature-major tensor X (s samples, f features,
// stride s) and labels y in [0, C) with C = max(y)+1. The tensor is
// discretized once and shared read-only across tree builds; each tree draws
// its own bootstrap sample and rng stream, so the result is identical for any
// worker count.
func (c *Classifier) Fit(X []float32, y []int32, s, f int) error {
	if s <= 0 || f <= 0 || len(X) != s*f {
		return fmt.Errorf("%w: %d values for %d samples x %d features", ErrInvalidShape, len(X), s, f)
	}
	if len(y) != s {
		return fmt.Errorf("%w: %d labels for %d samples", ErrInvalidShape, len(y), s)
	}
	if c.NTrees < 1 || c.MaxDepth < 0 || c.MaxDepth > maxTreeDepth {
		return fmt.Errorf("%w: %d trees of depth %d", ErrInvalidShape, c.NTrees, c.MaxDepth)
	}
	if err := checkFinite(X); err != nil {
		return err
	}

	maxLabel := int32(0)
	for i, label := range y {
		if label < 0 {
			return fmt.Errorf("%w: y[%d] = %d", ErrInvalidLabel, i, label)
		}
		if label > maxLabel {
			maxLabel = label
		}
	}

	c.NClasses = int(maxLabel) + 1
	c.NFeatures = f
	c.Trees = make([]*tree.Tree, c.NTrees)

	start := time.Now()
	xb := bins.Discretize(X, s, f)
	c.log.Debug().Dur("elapsed", time.Since(start)).Int("features", f).Msg("discretized training tensor")

	nWorkers := c.nWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}
	if nWorkers > c.NTrees {
		nWorkers = c.NTrees
	}

	in := make(chan int)
	out := make(chan error)

	for w := 0; w < nWorkers; w++ {
		go func() {
			for t := range in {
				out <- c.fitTree(t, xb, y)
			}
		}()
	}

	go func() {
		for t := 0; t < c.NTrees; t++ {
			in <- t
		}
		close(in)
	}()

	var firstErr error
	for i := 0; i < c.NTrees; i++ {
		if err := <-out; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		c.Trees = nil
		return firstErr
	}

	c.log.Info().
		Int("trees", c.NTrees).
		Int("samples", s).
		Int("classes", c.NClasses).
		Dur("elapsed", time.Since(start)).
		Msg("forest fit")

	return nil
}

// fitTree trains tree t on its own bootstrap sample. Every worker writes only
// its own slot of c.Trees; the bin matrix and labels are shared read-only.
func (c *Classifier) fitTree(t int, xb *bins.Matrix, y []int32) error {
	start := time.Now()
	rng := rand.New(rand.NewSource(treeSeed(c.seed, t)))

	boot := metrics.Bootstrap(xb.S, rng)
	yBoot := make([]int32, len(boot))
	for i, id := range boot {
		yBoot[i] = y[id]
	}

	tr := tree.New(c.MaxDepth)
	last, err := tr.Build(xb.Take(boot), yBoot, c.NClasses, 0, rng)
	if err != nil {
		return err
	}

	c.Trees[t] = tr
	c.log.Debug().Int("tree", t).Int("last_slot", last).Dur("elapsed", time.Since(start)).Msg("tree fit")
	return nil
}

// treeSeed derives tree t's rng stream from the forest seed, splitmix64
// finalizer over a Weyl sequence. Streams are fixed per tree index, so
// scheduling order cannot leak into the model.
func treeSeed(seed uint64, t int) int64 {
	z := seed + uint64(t+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// Predict returns the majority-vote class for a single sample of NFeatures
// values. Ties resolve to the lowest class index.
func (c *Classifier) Predict(sample []float32) (int32, error) {
	if c.NClasses == 0 || len(c.Trees) == 0 {
		return 0, fmt.Errorf("%w: model not fitted", ErrInvalidShape)
	}
	if len(sample) != c.NFeatures {
		return 0, fmt.Errorf("%w: sample has %d features, model has %d", ErrInvalidShape, len(sample), c.NFeatures)
	}
	if err := checkFinite(sample); err != nil {
		return 0, err
	}

	votes := make([]int, c.NClasses)
	for _, t := range c.Trees {
		votes[t.Predict(sample)]++
	}

	return metrics.Majority(votes), nil
}

// PredictBatch classifies m samples stored sample-major (m × NFeatures).
func (c *Classifier) PredictBatch(X []float32, m int) ([]int32, error) {
	if m < 0 || len(X) != m*c.NFeatures {
		return nil, fmt.Errorf("%w: %d values for %d samples x %d features", ErrInvalidShape, len(X), m, c.NFeatures)
	}

	pred := make([]int32, m)
	for i := 0; i < m; i++ {
		p, err := c.Predict(X[i*c.NFeatures : (i+1)*c.NFeatures])
		if err != nil {
			return nil, err
		}
		pred[i] = p
	}

	return pred, nil
}

// Save serializes the model using encoding/gob to an io.Writer.
func (c *Classifier) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(c)
}

// Load deserializes the model using encoding/gob from an io.Reader.
func (c *Classifier) Load(r io.Reader) error {
	d := gob.NewDecoder(r)
	return d.Decode(c)
}

func checkFinite(X []float32) error {
	for i, v := range X {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: X[%d] = %f", ErrNonFinite, i, v)
		}
	}
	return nil
}
