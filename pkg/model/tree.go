package model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// TreeParams are the CART hyperparameters. MaxDepth 0 means unbounded.
type TreeParams struct {
	MaxDepth       float64 `mapstructure:"max_depth"`
	MinSamplesLeaf float64 `mapstructure:"min_samples_leaf"`
}

// Node is one CART node. Leaves carry Value (regression) or Dist (class
// distribution); internal nodes route rows with X[Feature] <= Threshold left.
type Node struct {
	Leaf      bool      `json:"leaf,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Dist      []float64 `json:"dist,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *Node     `json:"left,omitempty"`
	Right     *Node     `json:"right,omitempty"`
}

func (n *Node) find(row []float64) *Node {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

func (n *Node) depth() int {
	if n == nil || n.Leaf {
		return 0
	}
	l, r := n.Left.depth(), n.Right.depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// Tree is a CART decision tree.
type Tree struct {
	Params  TreeParams `json:"params"`
	Kind    Kind       `json:"kind"`
	Classes int        `json:"classes,omitempty"`
	Root    *Node      `json:"root"`
}

func treeDescriptor() Descriptor {
	d := Descriptor{
		Name:  "decision_tree",
		Kinds: []Kind{KindClassifier, KindRegressor},
		Space: Space{
			{Name: "max_depth", Values: []float64{3, 6, 0}, Integer: true, Min: 1, ZeroMeansUnbounded: true},
			{Name: "min_samples_leaf", Values: []float64{1, 5}, Integer: true, Min: 1},
		},
		Complexity: func(p Params) float64 {
			return complexity(tierTree, treeComplexity(p))
		},
	}
	d.New = func(task Task, p Params) (Model, error) {
		if err := requireKind(d.Name, d, task); err != nil {
			return nil, err
		}
		m := &Tree{Params: TreeParams{MinSamplesLeaf: 1}, Kind: task.Kind, Classes: task.NumClasses}
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

// treeComplexity grows with depth and shrinks with leaf size. An unbounded
// tree is the most complex.
func treeComplexity(p Params) float64 {
	depth := p["max_depth"]
	if depth == 0 {
		depth = 64
	}
	leaf := p["min_samples_leaf"]
	if leaf < 1 {
		leaf = 1
	}
	return depth / leaf
}

// Fit grows the tree on all features.
func (m *Tree) Fit(X mat.Matrix, y []float64) error {
	_, c, err := checkFit("decision_tree", X, y)
	if err != nil {
		return err
	}
	b := treeBuilder{
		kind:     m.Kind,
		classes:  m.Classes,
		maxDepth: int(m.Params.MaxDepth),
		minLeaf:  int(m.Params.MinSamplesLeaf),
		features: c,
	}
	rows := rowsOf(X)
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	m.Root = b.build(rows, y, idx, 0)
	return nil
}

// Depth reports the fitted depth.
func (m *Tree) Depth() int {
	return m.Root.depth()
}

// PredictProba returns the leaf class distributions.
func (m *Tree) PredictProba(X mat.Matrix) *mat.Dense {
	rows := rowsOf(X)
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(rows), m.Classes, nil)
	for i, row := range rows {
		copy(out.RawRowView(i), m.Root.find(row).Dist)
	}
	return out
}

// Predict returns the leaf class or value.
func (m *Tree) Predict(X mat.Matrix) []float64 {
	if m.Kind == KindClassifier {
		return predictFromProba(m.PredictProba(X))
	}
	rows := rowsOf(X)
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = m.Root.find(row).Value
	}
	return out
}

// treeBuilder grows CART trees. With rng set, each split considers
// maxFeatures randomly chosen features.
type treeBuilder struct {
	kind        Kind
	classes     int
	maxDepth    int
	minLeaf     int
	features    int
	maxFeatures int
	rng         *rand.Rand
}

func (b *treeBuilder) leaf(y []float64, idx []int) *Node {
	n := &Node{Leaf: true}
	if b.kind == KindClassifier {
		n.Dist = make([]float64, b.classes)
		for _, i := range idx {
			n.Dist[int(y[i])]++
		}
		for j := range n.Dist {
			n.Dist[j] /= float64(len(idx))
		}
		return n
	}
	s := 0.0
	for _, i := range idx {
		s += y[i]
	}
	n.Value = s / float64(len(idx))
	return n
}

// impurity is gini for classification and total squared error for
// regression, both computed from running sums.
type impurity struct {
	classifier bool
	counts     []float64
	n          float64
	sum, sumSq float64
}

func (s *impurity) add(v float64, sign float64) {
	s.n += sign
	if s.classifier {
		s.counts[int(v)] += sign
		return
	}
	s.sum += sign * v
	s.sumSq += sign * v * v
}

// weighted returns n * impurity so that children can be summed directly.
func (s *impurity) weighted() float64 {
	if s.n <= 0 {
		return 0
	}
	if s.classifier {
		g := 1.0
		for _, c := range s.counts {
			p := c / s.n
			g -= p * p
		}
		return s.n * g
	}
	return s.sumSq - s.sum*s.sum/s.n
}

func (b *treeBuilder) newImpurity() *impurity {
	s := &impurity{classifier: b.kind == KindClassifier}
	if s.classifier {
		s.counts = make([]float64, b.classes)
	}
	return s
}

func (b *treeBuilder) candidates() []int {
	if b.rng == nil || b.maxFeatures <= 0 || b.maxFeatures >= b.features {
		out := make([]int, b.features)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return b.rng.Perm(b.features)[:b.maxFeatures]
}

func (b *treeBuilder) build(rows [][]float64, y []float64, idx []int, depth int) *Node {
	if len(idx) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return b.leaf(y, idx)
	}

	parent := b.newImpurity()
	for _, i := range idx {
		parent.add(y[i], 1)
	}
	base := parent.weighted()
	if base <= 1e-12 {
		return b.leaf(y, idx)
	}

	bestGain, bestFeature, bestThreshold := 0.0, -1, 0.0
	order := make([]int, len(idx))
	for _, f := range b.candidates() {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return rows[order[a]][f] < rows[order[c]][f] })

		left, right := b.newImpurity(), b.newImpurity()
		for _, i := range order {
			right.add(y[i], 1)
		}
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			left.add(y[i], 1)
			right.add(y[i], -1)
			cur, next := rows[i][f], rows[order[pos+1]][f]
			if cur == next || pos+1 < b.minLeaf || len(order)-pos-1 < b.minLeaf {
				continue
			}
			gain := base - left.weighted() - right.weighted()
			if gain > bestGain+1e-12 {
				bestGain, bestFeature, bestThreshold = gain, f, (cur+next)/2
			}
		}
	}
	if bestFeature < 0 {
		return b.leaf(y, idx)
	}

	var l, r []int
	for _, i := range idx {
		if rows[i][bestFeature] <= bestThreshold {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	if len(l) == 0 || len(r) == 0 || math.IsNaN(bestThreshold) {
		return b.leaf(y, idx)
	}
	return &Node{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      b.build(rows, y, l, depth+1),
		Right:     b.build(rows, y, r, depth+1),
	}
}
