package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	logisticIterations   = 300
	logisticLearningRate = 0.5
)

// LogisticParams are the logistic regression hyperparameters.
type LogisticParams struct {
	C float64 `mapstructure:"c"`
}

// Logistic is multinomial softmax regression on standardised features.
type Logistic struct {
	Params     LogisticParams `json:"params"`
	Classes    int            `json:"classes"`
	Scaler     Scaler         `json:"scaler"`
	Weights    [][]float64    `json:"weights"`
	Intercepts []float64      `json:"intercepts"`
}

func logisticDescriptor() Descriptor {
	d := Descriptor{
		Name:  "logistic",
		Kinds: []Kind{KindClassifier},
		Space: Space{{Name: "c", Values: []float64{0.1, 1, 10}, Min: 0, MinExclusive: true}},
		Complexity: func(p Params) float64 {
			return complexity(tierLinear, p["c"])
		},
	}
	d.New = func(task Task, p Params) (Model, error) {
		if err := requireKind(d.Name, d, task); err != nil {
			return nil, err
		}
		m := &Logistic{Params: LogisticParams{C: 1}, Classes: task.NumClasses}
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

// Fit runs full-batch gradient descent on the L2-penalised cross-entropy.
func (m *Logistic) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit("logistic", X, y)
	if err != nil {
		return err
	}
	k := m.Classes
	raw := rowsOf(X)
	m.Scaler = fitScaler(raw, c)
	rows := make([][]float64, r)
	for i, row := range raw {
		rows[i] = m.Scaler.apply(row, nil)
	}

	m.Weights = make([][]float64, k)
	for j := range m.Weights {
		m.Weights[j] = make([]float64, c)
	}
	m.Intercepts = make([]float64, k)

	lambda := 1 / m.Params.C
	n := float64(r)
	gradW := make([][]float64, k)
	for j := range gradW {
		gradW[j] = make([]float64, c)
	}
	gradB := make([]float64, k)
	probs := make([]float64, k)

	for iter := 0; iter < logisticIterations; iter++ {
		for j := range gradW {
			for f := range gradW[j] {
				gradW[j][f] = 0
			}
			gradB[j] = 0
		}
		for i, row := range rows {
			m.softmax(row, probs)
			label := int(y[i])
			for j := 0; j < k; j++ {
				g := probs[j]
				if j == label {
					g--
				}
				gradB[j] += g
				for f, v := range row {
					gradW[j][f] += g * v
				}
			}
		}
		for j := 0; j < k; j++ {
			for f := 0; f < c; f++ {
				g := gradW[j][f]/n + lambda*m.Weights[j][f]/n
				m.Weights[j][f] -= logisticLearningRate * g
			}
			m.Intercepts[j] -= logisticLearningRate * gradB[j] / n
		}
	}
	return nil
}

func (m *Logistic) softmax(row []float64, dst []float64) {
	maxLogit := math.Inf(-1)
	for j := range dst {
		z := m.Intercepts[j]
		for f, v := range row {
			z += m.Weights[j][f] * v
		}
		dst[j] = z
		if z > maxLogit {
			maxLogit = z
		}
	}
	sum := 0.0
	for j, z := range dst {
		dst[j] = math.Exp(z - maxLogit)
		sum += dst[j]
	}
	for j := range dst {
		dst[j] /= sum
	}
}

// PredictProba returns class probabilities.
func (m *Logistic) PredictProba(X mat.Matrix) *mat.Dense {
	rows := rowsOf(X)
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(rows), m.Classes, nil)
	scaled := make([]float64, len(m.Scaler.Mean))
	for i, row := range rows {
		m.softmax(m.Scaler.apply(row, scaled), out.RawRowView(i))
	}
	return out
}

// Predict returns the most probable class index.
func (m *Logistic) Predict(X mat.Matrix) []float64 {
	return predictFromProba(m.PredictProba(X))
}

func predictFromProba(p *mat.Dense) []float64 {
	if p.IsEmpty() {
		return nil
	}
	r, _ := p.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = float64(argmax(p.RawRowView(i)))
	}
	return out
}
