package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// RidgeParams are the ridge hyperparameters.
type RidgeParams struct {
	Alpha float64 `mapstructure:"alpha"`
}

// Ridge is L2-regularised least squares with an unpenalised intercept.
type Ridge struct {
	Params    RidgeParams `json:"params"`
	Weights   []float64   `json:"weights"`
	Intercept float64     `json:"intercept"`
}

func ridgeDescriptor() Descriptor {
	d := Descriptor{
		Name:  "ridge",
		Kinds: []Kind{KindRegressor},
		Space: Space{{Name: "alpha", Values: []float64{0.1, 1, 10}, Min: 0, MinExclusive: true}},
		Complexity: func(p Params) float64 {
			return complexity(tierLinear, 1/p["alpha"])
		},
	}
	d.New = func(task Task, p Params) (Model, error) {
		if err := requireKind(d.Name, d, task); err != nil {
			return nil, err
		}
		m := &Ridge{Params: RidgeParams{Alpha: 1}}
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

// Fit solves (XcᵀXc + αI)w = Xcᵀyc on centred data.
func (m *Ridge) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit("ridge", X, y)
	if err != nil {
		return err
	}

	xMean := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		s := 0.0
		for _, v := range col {
			s += v
		}
		xMean[j] = s / float64(r)
	}
	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(r)

	xc := mat.NewDense(r, c, nil)
	xc.Apply(func(i, j int, v float64) float64 { return v - xMean[j] }, X)
	yc := mat.NewVecDense(r, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.Params.Alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return errors.New(errors.ErrorTypeData, "ridge: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "ridge: solve failed")
	}

	m.Weights = make([]float64, c)
	m.Intercept = yMean
	for j := 0; j < c; j++ {
		m.Weights[j] = w.AtVec(j)
		m.Intercept -= m.Weights[j] * xMean[j]
	}
	return nil
}

// Predict returns Xw + b.
func (m *Ridge) Predict(X mat.Matrix) []float64 {
	rows := rowsOf(X)
	out := make([]float64, len(rows))
	for i, row := range rows {
		s := m.Intercept
		for j, v := range row {
			s += m.Weights[j] * v
		}
		out[i] = s
	}
	return out
}
