package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// KNNParams are the k-nearest-neighbours hyperparameters.
type KNNParams struct {
	K float64 `mapstructure:"k"`
}

// KNN memorises standardised training rows and votes (classifier) or
// averages (regressor) over the k closest by Euclidean distance.
type KNN struct {
	Params  KNNParams   `json:"params"`
	Kind    Kind        `json:"kind"`
	Classes int         `json:"classes,omitempty"`
	Scaler  Scaler      `json:"scaler"`
	Rows    [][]float64 `json:"rows"`
	Targets []float64   `json:"targets"`
}

func knnDescriptor() Descriptor {
	d := Descriptor{
		Name:  "knn",
		Kinds: []Kind{KindClassifier, KindRegressor},
		Space: Space{{Name: "k", Values: []float64{3, 5, 9}, Integer: true, Min: 1}},
		Complexity: func(p Params) float64 {
			return complexity(tierNeighbors, 1/p["k"])
		},
	}
	d.New = func(task Task, p Params) (Model, error) {
		if err := requireKind(d.Name, d, task); err != nil {
			return nil, err
		}
		m := &KNN{Params: KNNParams{K: 5}, Kind: task.Kind, Classes: task.NumClasses}
		if err := decodeParams(d.Name, p, &m.Params); err != nil {
			return nil, err
		}
		if err := validateParams(d.Name, d.Space, p); err != nil {
			return nil, err
		}
		return m, nil
	}
	return d
}

// Fit stores the standardised training set.
func (m *KNN) Fit(X mat.Matrix, y []float64) error {
	_, c, err := checkFit("knn", X, y)
	if err != nil {
		return err
	}
	raw := rowsOf(X)
	m.Scaler = fitScaler(raw, c)
	m.Rows = make([][]float64, len(raw))
	for i, row := range raw {
		m.Rows[i] = m.Scaler.apply(row, nil)
	}
	m.Targets = append([]float64(nil), y...)
	return nil
}

type neighbour struct {
	index int
	dist  float64
}

// nearest returns the indices of the k closest training rows. Equal
// distances keep training order.
func (m *KNN) nearest(row []float64) []int {
	ns := make([]neighbour, len(m.Rows))
	for i, t := range m.Rows {
		d := 0.0
		for j, v := range t {
			diff := v - row[j]
			d += diff * diff
		}
		ns[i] = neighbour{index: i, dist: d}
	}
	sort.SliceStable(ns, func(a, b int) bool { return ns[a].dist < ns[b].dist })
	k := int(m.Params.K)
	if k > len(ns) {
		k = len(ns)
	}
	out := make([]int, k)
	for i := range out {
		out[i] = ns[i].index
	}
	return out
}

// PredictProba returns neighbour vote shares per class.
func (m *KNN) PredictProba(X mat.Matrix) *mat.Dense {
	rows := rowsOf(X)
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(rows), m.Classes, nil)
	scaled := make([]float64, len(m.Scaler.Mean))
	for i, row := range rows {
		idx := m.nearest(m.Scaler.apply(row, scaled))
		dst := out.RawRowView(i)
		for _, n := range idx {
			dst[int(m.Targets[n])]++
		}
		for j := range dst {
			dst[j] /= float64(len(idx))
		}
	}
	return out
}

// Predict returns the majority class (ties to the lowest index) or the
// neighbour mean.
func (m *KNN) Predict(X mat.Matrix) []float64 {
	if m.Kind == KindClassifier {
		return predictFromProba(m.PredictProba(X))
	}
	rows := rowsOf(X)
	out := make([]float64, len(rows))
	scaled := make([]float64, len(m.Scaler.Mean))
	for i, row := range rows {
		idx := m.nearest(m.Scaler.apply(row, scaled))
		s := 0.0
		for _, n := range idx {
			s += m.Targets[n]
		}
		out[i] = s / float64(len(idx))
	}
	return out
}
