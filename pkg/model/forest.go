package model

import (
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// ForestParams are the random forest hyperparameters.
type ForestParams struct {
	NEstimators float64 `mapstructure:"n_estimators"`
	MaxDepth    float64 `mapstructure:"max_depth"`
}

// Forest is a bagged ensemble of CART trees. Tree i is grown on a
// bootstrap sample drawn with seed Seed+i.
type Forest struct {
	Params  ForestParams `json:"params"`
	Kind    Kind         `json:"kind"`
	Classes int          `json:"classes,omitempty"`
	Seed    int64        `json:"seed"`
	Trees   []*Node      `json:"trees"`
}

func forestDescriptor() Descriptor {
	d := Descriptor{
		Name:  "random_forest",
		Kinds: []Kind{KindClassifier, KindRegressor},
		Space: Space{
			{Name: "n_estimators", Values: []float64{25, 75}, Integer: true, Min: 1},
			{Name: "max_depth", Values: []float64{6, 0}, Integer: true, Min: 1, ZeroMeansUnbounded: true},
		},
		Complexity: func(p Params) float64 {
			depth := p["max_depth"]
			if depth == 0 {
				depth = 64
			}
			return complexity(tierEnsemble, p["n_estimators"]*depth)
		},
	}
	d.New = func(task Task, p Params) (Model, error) {
		if err := requireKind(d.Name, d, task); err != nil {
			return nil, err
		}
		m := &Forest{
			Params:  ForestParams{NEstimators: 25},
			Kind:    task.Kind,
			Classes: task.NumClasses,
			Seed:    task.Seed,
		}
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

// Fit grows the trees concurrently. Each tree owns its random source, so the
// result does not depend on scheduling.
func (m *Forest) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkFit("random_forest", X, y)
	if err != nil {
		return err
	}
	rows := rowsOf(X)

	maxFeatures := int(math.Sqrt(float64(c)))
	if m.Kind == KindRegressor {
		maxFeatures = c / 3
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	trees := make([]*Node, int(m.Params.NEstimators))
	var g errgroup.Group
	for t := range trees {
		t := t
		g.Go(func() error {
			rng := rand.New(rand.NewSource(m.Seed + int64(t)))
			sample := make([]int, r)
			for i := range sample {
				sample[i] = rng.Intn(r)
			}
			b := treeBuilder{
				kind:        m.Kind,
				classes:     m.Classes,
				maxDepth:    int(m.Params.MaxDepth),
				minLeaf:     1,
				features:    c,
				maxFeatures: maxFeatures,
				rng:         rng,
			}
			trees[t] = b.build(rows, y, sample, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.Trees = trees
	return nil
}

// PredictProba averages the tree leaf distributions.
func (m *Forest) PredictProba(X mat.Matrix) *mat.Dense {
	rows := rowsOf(X)
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(rows), m.Classes, nil)
	for i, row := range rows {
		dst := out.RawRowView(i)
		for _, t := range m.Trees {
			for j, p := range t.find(row).Dist {
				dst[j] += p
			}
		}
		for j := range dst {
			dst[j] /= float64(len(m.Trees))
		}
	}
	return out
}

// Predict returns the averaged class vote or value.
func (m *Forest) Predict(X mat.Matrix) []float64 {
	if m.Kind == KindClassifier {
		return predictFromProba(m.PredictProba(X))
	}
	rows := rowsOf(X)
	out := make([]float64, len(rows))
	for i, row := range rows {
		s := 0.0
		for _, t := range m.Trees {
			s += t.find(row).Value
		}
		out[i] = s / float64(len(m.Trees))
	}
	return out
}

// Members returns each tree's prediction: the leaf value for regressors and
// the majority class index for classifiers.
func (m *Forest) Members(X mat.Matrix) *mat.Dense {
	rows := rowsOf(X)
	if len(rows) == 0 || len(m.Trees) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(rows), len(m.Trees), nil)
	for i, row := range rows {
		dst := out.RawRowView(i)
		for j, t := range m.Trees {
			leaf := t.find(row)
			if m.Kind == KindClassifier {
				dst[j] = float64(argmax(leaf.Dist))
			} else {
				dst[j] = leaf.Value
			}
		}
	}
	return out
}
