package tree

import (
	"math/rand"
	"testing"

	"github.com/epsilon-ml/rf/bins"
)

func TestSortByBin(t *testing.T) {
	col := []uint8{3, 0, 2, 0, 1, 3}
	src := []int{0, 1, 2, 3, 4, 5}
	dst := make([]int, len(src))
	counts := make([]int, bins.MaxBins)

	sortByBin(dst, src, col, counts)

	want := []int{1, 3, 4, 2, 0, 5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}

func TestSortByBinStable(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	col := make([]uint8, 200)
	for i := range col {
		col[i] = uint8(rng.Intn(4)) // plenty of ties
	}
	src := rng.Perm(200)

	dst := make([]int, len(src))
	counts := make([]int, bins.MaxBins)
	sortByBin(dst, src, col, counts)

	for i := 1; i < len(dst); i++ {
		a, b := dst[i-1], dst[i]
		if col[a] > col[b] {
			t.Fatalf("not sorted at %d: bin %d before %d", i, col[a], col[b])
		}
		if col[a] == col[b] {
			// stability: equal bins keep their src order
			var pa, pb int
			for j, id := range src {
				if id == a {
					pa = j
				}
				if id == b {
					pb = j
				}
			}
			if pa > pb {
				t.Fatalf("tie order broken for samples %d, %d", a, b)
			}
		}
	}
}
