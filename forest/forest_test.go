package forest

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/epsilon-ml/rf/dataset"
	"github.com/epsilon-ml/rf/tree"
)

func TestMediaFitPredict(t *testing.T) {
	const n = 3000
	X, y := dataset.GenerateMedia(n, 1)

	clf := NewClassifier(NumTrees(16), MaxDepth(8), Seed(1))
	if err := clf.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		t.Fatal(err)
	}

	pred, err := clf.PredictBatch(dataset.Transpose(X, dataset.MediaFeatures, n), n)
	if err != nil {
		t.Fatal(err)
	}

	correct := 0.0
	for i := range y {
		if pred[i] == y[i] {
			correct++
		}
	}
	if acc := correct / n; acc < 0.85 {
		t.Errorf("expected training accuracy of at least 0.85, got %f", acc)
	}
}

func TestFitDeterminism(t *testing.T) {
	const n = 600
	X, y := dataset.GenerateMedia(n, 3)

	a := NewClassifier(NumTrees(8), MaxDepth(6), Seed(7))
	b := NewClassifier(NumTrees(8), MaxDepth(6), Seed(7))

	if err := a.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		t.Fatal(err)
	}

	for i := range a.Trees {
		if !reflect.DeepEqual(a.Trees[i], b.Trees[i]) {
			t.Fatalf("tree %d differs between two fits with the same seed", i)
		}
	}
}

func TestWorkerReproducibility(t *testing.T) {
	const n = 1500
	X, y := dataset.GenerateMedia(n, 1)

	serial := NewClassifier(NumTrees(16), MaxDepth(6), Seed(1), NumWorkers(1))
	parallel := NewClassifier(NumTrees(16), MaxDepth(6), Seed(1), NumWorkers(4))

	if err := serial.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		t.Fatal(err)
	}
	if err := parallel.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		t.Fatal(err)
	}

	for i := range serial.Trees {
		if !reflect.DeepEqual(serial.Trees[i], parallel.Trees[i]) {
			t.Fatalf("tree %d differs between 1 and 4 workers", i)
		}
	}

	// held-out predictions match exactly
	const m = 100
	Xt, _ := dataset.GenerateMedia(m, 99)
	Xrows := dataset.Transpose(Xt, dataset.MediaFeatures, m)

	pa, err := serial.PredictBatch(Xrows, m)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := parallel.PredictBatch(Xrows, m)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("prediction %d differs: %d vs %d", i, pa[i], pb[i])
		}
	}
}

// leafTree builds a single-slot tree that always predicts label.
func leafTree(label int32) *tree.Tree {
	t := tree.New(0)
	t.Label[0] = label
	return t
}

func TestEnsembleMajority(t *testing.T) {
	clf := NewClassifier()
	clf.NClasses = 3
	clf.NFeatures = 1
	clf.Trees = []*tree.Tree{leafTree(1), leafTree(1), leafTree(2)}

	got, err := clf.Predict([]float32{0})
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("expected majority vote 1, got %d", got)
	}
}

func TestVoteTieLowestClass(t *testing.T) {
	clf := NewClassifier()
	clf.NClasses = 3
	clf.NFeatures = 1
	clf.Trees = []*tree.Tree{leafTree(2), leafTree(0)}

	got, err := clf.Predict([]float32{0})
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("expected tie to resolve to class 0, got %d", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	const n = 600
	X, y := dataset.GenerateMedia(n, 2)

	clf := NewClassifier(NumTrees(8), MaxDepth(6), Seed(5))
	if err := clf.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := clf.Save(&buf); err != nil {
		t.Fatal(err)
	}

	clf2 := NewClassifier()
	if err := clf2.Load(&buf); err != nil {
		t.Fatal(err)
	}

	Xrows := dataset.Transpose(X, dataset.MediaFeatures, n)
	pa, err := clf.PredictBatch(Xrows, n)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := clf2.PredictBatch(Xrows, n)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("prediction %d changed after round-trip: %d vs %d", i, pa[i], pb[i])
		}
	}
}

func TestFitInvalidShape(t *testing.T) {
	clf := NewClassifier()

	if err := clf.Fit([]float32{1, 2, 3}, []int32{0, 1}, 2, 2); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape for short tensor, got %v", err)
	}
	if err := clf.Fit([]float32{1, 2, 3, 4}, []int32{0}, 2, 2); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape for label mismatch, got %v", err)
	}
	if err := clf.Fit(nil, nil, 0, 0); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape for empty input, got %v", err)
	}
}

func TestFitInvalidLabel(t *testing.T) {
	clf := NewClassifier()

	err := clf.Fit([]float32{1, 2, 3, 4}, []int32{0, -1}, 2, 2)
	if !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestFitNonFinite(t *testing.T) {
	clf := NewClassifier()

	X := []float32{1, float32(math.NaN()), 3, 4}
	if err := clf.Fit(X, []int32{0, 1}, 2, 2); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite for NaN, got %v", err)
	}

	X = []float32{1, 2, float32(math.Inf(1)), 4}
	if err := clf.Fit(X, []int32{0, 1}, 2, 2); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite for Inf, got %v", err)
	}
}

func TestPredictValidation(t *testing.T) {
	clf := NewClassifier()
	clf.NClasses = 2
	clf.NFeatures = 2
	clf.Trees = []*tree.Tree{leafTree(0)}

	if _, err := clf.Predict([]float32{1}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape for short sample, got %v", err)
	}
	if _, err := clf.Predict([]float32{1, float32(math.NaN())}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
	if _, err := clf.PredictBatch([]float32{1, 2, 3}, 2); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape for batch shape, got %v", err)
	}
}

func BenchmarkMediaFit(b *testing.B) {
	const n = 2000
	X, y := dataset.GenerateMedia(n, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clf := NewClassifier(NumTrees(10), MaxDepth(8), Seed(1), NumWorkers(4))
		if err := clf.Fit(X, y, n, dataset.MediaFeatures); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMediaPredict(b *testing.B) {
	const n = 2000
	X, y := dataset.GenerateMedia(n, 1)

	clf := NewClassifier(NumTrees(10), MaxDepth(8), Seed(1))
	if err := clf.Fit(X, y, n, dataset.MediaFeatures); err != nil {
		b.Fatal(err)
	}
	Xrows := dataset.Transpose(X, dataset.MediaFeatures, n)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := clf.PredictBatch(Xrows, n); err != nil {
			b.Fatal(err)
		}
	}
}
