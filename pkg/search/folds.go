package search

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Folds splits n rows into k held-out index sets from a seeded permutation,
// assigning shuffled rows round-robin. k is clamped to [2, n]. Fewer than
// two rows cannot be cross-validated and yield nil.
func Folds(n, k int, seed int64) [][]int {
	if n < 2 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 2 {
		k = 2
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i, row := range perm {
		folds[i%k] = append(folds[i%k], row)
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

// split is one materialised train/test partition.
type split struct {
	trainX *mat.Dense
	trainY []float64
	testX  *mat.Dense
	testY  []float64
}

func splits(X *mat.Dense, y []float64, folds [][]int) []split {
	n := len(y)
	out := make([]split, len(folds))
	for f, test := range folds {
		held := make([]bool, n)
		for _, i := range test {
			held[i] = true
		}
		train := make([]int, 0, n-len(test))
		for i := 0; i < n; i++ {
			if !held[i] {
				train = append(train, i)
			}
		}
		out[f].trainX, out[f].trainY = subset(X, y, train)
		out[f].testX, out[f].testY = subset(X, y, test)
	}
	return out
}

func subset(X *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	ys := make([]float64, len(idx))
	for i, r := range idx {
		out.SetRow(i, X.RawRowView(r))
		ys[i] = y[r]
	}
	return out, ys
}
