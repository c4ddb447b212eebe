// Package model provides the model families searched by brainless.
//
// Each family is described by a Descriptor: the problem kinds it supports,
// its hyperparameter grid, a complexity measure used to break score ties,
// and a factory. Models are opaque fit/predict capabilities over a gonum
// feature matrix. Classifier targets are class indices carried as float64.
package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// Kind is the problem kind.
type Kind string

const (
	// KindClassifier predicts one of a fixed set of labels
	KindClassifier Kind = "classifier"
	// KindRegressor predicts a real number
	KindRegressor Kind = "regressor"
)

// ParseKind validates a problem kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindClassifier, KindRegressor:
		return k, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown problem kind %q: expected classifier or regressor", s).
			WithDetail("kind", s)
	}
}

// Task is what a factory needs to know about the problem.
type Task struct {
	Kind       Kind  `json:"kind"`
	NumClasses int   `json:"num_classes,omitempty"`
	Seed       int64 `json:"seed"`
}

// Model is a fit/predict capability. Predict returns class indices for
// classifiers and values for regressors.
type Model interface {
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) []float64
}

// Prober is implemented by every classifier. Each row of the result is a
// probability distribution over Task.NumClasses classes.
type Prober interface {
	PredictProba(X mat.Matrix) *mat.Dense
}

// Ensemble is implemented by models that combine member predictions. Members
// returns one column per member.
type Ensemble interface {
	Members(X mat.Matrix) *mat.Dense
}

// Params are hyperparameter values keyed by name.
type Params map[string]float64

// String renders params sorted by name.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, ",")
}

// Clone returns a copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Dimension is one hyperparameter axis.
type Dimension struct {
	Name   string
	Values []float64
	// Integer requires integral values.
	Integer bool
	// Min is the smallest allowed value; MinExclusive makes it strict.
	Min          float64
	MinExclusive bool
	// ZeroMeansUnbounded allows 0 regardless of Min.
	ZeroMeansUnbounded bool
}

func (d Dimension) validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite", d.Name)
	}
	if d.ZeroMeansUnbounded && v == 0 {
		return nil
	}
	if d.Integer && v != math.Trunc(v) {
		return fmt.Errorf("%s must be an integer, got %g", d.Name, v)
	}
	if d.MinExclusive && v <= d.Min {
		return fmt.Errorf("%s must be greater than %g, got %g", d.Name, d.Min, v)
	}
	if !d.MinExclusive && v < d.Min {
		return fmt.Errorf("%s must be at least %g, got %g", d.Name, d.Min, v)
	}
	return nil
}

// Space is an ordered hyperparameter grid.
type Space []Dimension

// Grid expands the space into every combination. The first dimension
// varies slowest, so enumeration order is stable.
func (s Space) Grid() []Params {
	grid := []Params{{}}
	for _, d := range s {
		next := make([]Params, 0, len(grid)*len(d.Values))
		for _, p := range grid {
			for _, v := range d.Values {
				q := p.Clone()
				q[d.Name] = v
				next = append(next, q)
			}
		}
		grid = next
	}
	return grid
}

// Override returns a copy of the space with the grids in values replaced.
// Unknown names, empty lists and out-of-range values are config errors.
func (s Space) Override(family string, values map[string][]float64) (Space, error) {
	out := make(Space, len(s))
	copy(out, s)
	index := make(map[string]int, len(s))
	for i, d := range s {
		index[d.Name] = i
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		i, ok := index[name]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, "family %q has no hyperparameter %q", family, name).
				WithDetail("family", family).
				WithDetail("parameter", name)
		}
		vs := values[name]
		if len(vs) == 0 {
			return nil, errors.Newf(errors.ErrorTypeConfig, "override for %s.%s is empty", family, name).
				WithDetail("family", family).
				WithDetail("parameter", name)
		}
		for _, v := range vs {
			if err := s[i].validate(v); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid override for family "+family).
					WithDetail("family", family).
					WithDetail("parameter", name)
			}
		}
		d := out[i]
		d.Values = append([]float64(nil), vs...)
		out[i] = d
	}
	return out, nil
}

// Descriptor describes a model family.
type Descriptor struct {
	Name  string
	Kinds []Kind
	Space Space
	// Complexity orders otherwise equally scored candidates; lower wins. Values
	// of different families share one scale, see complexity.
	Complexity func(Params) float64
	New        func(task Task, p Params) (Model, error)
}

// Complexity tiers, simplest first. A candidate of a lower tier is simpler
// than any candidate of a higher one.
const (
	tierLinear = iota
	tierNeighbors
	tierTree
	tierEnsemble
)

// complexity places a family's own measure x >= 0 on the shared scale
// [tier, tier+1), keeping the order of x within the tier.
func complexity(tier int, x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		x = 0
	}
	if math.IsInf(x, 1) {
		return float64(tier) + 1 - 1e-12
	}
	return float64(tier) + x/(1+x)
}

// Supports reports whether the family handles kind.
func (d Descriptor) Supports(kind Kind) bool {
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Families returns the model families in declaration order.
func Families() []Descriptor {
	return []Descriptor{
		ridgeDescriptor(),
		logisticDescriptor(),
		knnDescriptor(),
		treeDescriptor(),
		forestDescriptor(),
	}
}

// Lookup returns the family called name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Families() {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Eligible returns the families supporting kind, in declaration order.
func Eligible(kind Kind) []Descriptor {
	var out []Descriptor
	for _, d := range Families() {
		if d.Supports(kind) {
			out = append(out, d)
		}
	}
	return out
}

// decodeParams fills a family's parameter struct, rejecting unknown names.
func decodeParams(family string, p Params, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to build parameter decoder")
	}
	if err := dec.Decode(map[string]float64(p)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid hyperparameters for family "+family).
			WithDetail("family", family).
			WithDetail("params", p.String())
	}
	return nil
}

// validateParams checks every value against the family space.
func validateParams(family string, s Space, p Params) error {
	for _, d := range s {
		v, ok := p[d.Name]
		if !ok {
			continue
		}
		if err := d.validate(v); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid hyperparameters for family "+family).
				WithDetail("family", family)
		}
	}
	return nil
}

func requireKind(family string, d Descriptor, task Task) error {
	if !d.Supports(task.Kind) {
		return errors.Newf(errors.ErrorTypeConfig, "family %q does not support %s problems", family, task.Kind)
	}
	if task.Kind == KindClassifier && task.NumClasses < 1 {
		return errors.Newf(errors.ErrorTypeConfig, "classifier task for family %q has no classes", family)
	}
	return nil
}
