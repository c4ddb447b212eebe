package model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// rowsOf returns X as row slices. Rows of a *mat.Dense share its storage.
func rowsOf(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	if d, ok := X.(*mat.Dense); ok {
		for i := 0; i < r; i++ {
			out[i] = d.RawRowView(i)
		}
		return out
	}
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		mat.Row(row, i, X)
		out[i] = row
	}
	return out
}

func checkFit(family string, X mat.Matrix, y []float64) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.Newf(errors.ErrorTypeData, "%s: empty feature matrix", family)
	}
	if len(y) != r {
		return 0, 0, errors.Newf(errors.ErrorTypeData, "%s: %d rows but %d targets", family, r, len(y))
	}
	return r, c, nil
}

// Scaler standardises columns to zero mean and unit variance. Constant
// columns keep scale 1.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func fitScaler(rows [][]float64, cols int) Scaler {
	s := Scaler{Mean: make([]float64, cols), Scale: make([]float64, cols)}
	n := float64(len(rows))
	for _, row := range rows {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		sd := math.Sqrt(s.Scale[j] / n)
		if sd < 1e-12 {
			sd = 1
		}
		s.Scale[j] = sd
	}
	return s
}

func (s Scaler) apply(row []float64, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(row))
	}
	for j, v := range row {
		dst[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return dst
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
