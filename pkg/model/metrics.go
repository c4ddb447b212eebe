package model

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// Scorer scores a fitted model on held-out data. Higher is better.
type Scorer struct {
	Name  string
	Kind  Kind
	Score func(m Model, X mat.Matrix, y []float64) float64
}

var scorers = map[string]Scorer{
	"accuracy": {Name: "accuracy", Kind: KindClassifier, Score: func(m Model, X mat.Matrix, y []float64) float64 {
		return Accuracy(y, m.Predict(X))
	}},
	"neg_brier": {Name: "neg_brier", Kind: KindClassifier, Score: func(m Model, X mat.Matrix, y []float64) float64 {
		p, ok := m.(Prober)
		if !ok {
			return math.NaN()
		}
		return -Brier(y, p.PredictProba(X))
	}},
	"neg_rmse": {Name: "neg_rmse", Kind: KindRegressor, Score: func(m Model, X mat.Matrix, y []float64) float64 {
		return -RMSE(y, m.Predict(X))
	}},
	"neg_mae": {Name: "neg_mae", Kind: KindRegressor, Score: func(m Model, X mat.Matrix, y []float64) float64 {
		return -MAE(y, m.Predict(X))
	}},
	"r2": {Name: "r2", Kind: KindRegressor, Score: func(m Model, X mat.Matrix, y []float64) float64 {
		return R2(y, m.Predict(X))
	}},
}

// ScorerFor resolves a scoring name for kind. An empty name selects
// accuracy for classifiers and neg_rmse for regressors.
func ScorerFor(kind Kind, name string) (Scorer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		if kind == KindClassifier {
			name = "accuracy"
		} else {
			name = "neg_rmse"
		}
	}
	s, ok := scorers[name]
	if !ok {
		return Scorer{}, errors.Newf(errors.ErrorTypeConfig, "unknown scoring %q", name).WithDetail("scoring", name)
	}
	if s.Kind != kind {
		return Scorer{}, errors.Newf(errors.ErrorTypeConfig, "scoring %q does not apply to %s problems", name, kind).
			WithDetail("scoring", name)
	}
	return s, nil
}

// Accuracy is the share of exact matches.
func Accuracy(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	hit := 0
	for i := range y {
		if y[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(y))
}

// Brier is the mean squared distance between the predicted distribution
// and the one-hot truth.
func Brier(y []float64, proba *mat.Dense) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i, label := range y {
		for j, p := range proba.RawRowView(i) {
			t := 0.0
			if j == int(label) {
				t = 1
			}
			s += (p - t) * (p - t)
		}
	}
	return s / float64(len(y))
}

// MSE is the mean squared error.
func MSE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i := range y {
		d := y[i] - pred[i]
		s += d * d
	}
	return s / float64(len(y))
}

// RMSE is the root mean squared error.
func RMSE(y, pred []float64) float64 {
	return math.Sqrt(MSE(y, pred))
}

// MAE is the mean absolute error.
func MAE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i := range y {
		s += math.Abs(y[i] - pred[i])
	}
	return s / float64(len(y))
}

// R2 is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise.
func R2(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	var ssRes, ssTot float64
	for i := range y {
		ssRes += (y[i] - pred[i]) * (y[i] - pred[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
