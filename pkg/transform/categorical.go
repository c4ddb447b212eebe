package transform

import (
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

// UnknownCategory names the reserved slot for values unseen at fit time.
const UnknownCategory = "__unknown__"

// Categorical one-hot encodes observed values and reserves a final slot for
// values never seen during fit.
type Categorical struct {
	column string
}

// CategoricalState is the fitted state of a categorical column. Categories
// are canonical keys in first-seen order.
type CategoricalState struct {
	Categories []string `json:"categories"`
}

// Column implements Transformer.
func (c *Categorical) Column() string { return c.column }

// Role implements Transformer.
func (c *Categorical) Role() schema.Role { return schema.RoleCategorical }

// Fit learns the distinct values in first-seen order.
func (c *Categorical) Fit(values []Value) (Fitted, error) {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, v := range values {
		if !v.Present {
			continue
		}
		key := record.ToKey(v.V)
		if !seen[key] {
			seen[key] = true
			categories = append(categories, key)
		}
	}
	if len(categories) == 0 {
		return nil, emptyColumn(c.column, schema.RoleCategorical)
	}
	return newFittedCategorical(c.column, categories), nil
}

// FittedCategorical is a fitted categorical column.
type FittedCategorical struct {
	column     string
	categories []string
	index      map[string]int
}

func newFittedCategorical(column string, categories []string) *FittedCategorical {
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}
	cp := make([]string, len(categories))
	copy(cp, categories)
	return &FittedCategorical{column: column, categories: cp, index: index}
}

// Categories returns the learned categories in slot order.
func (f *FittedCategorical) Categories() []string {
	out := make([]string, len(f.categories))
	copy(out, f.categories)
	return out
}

// Index returns the slot of a value and whether it was seen at fit time.
func (f *FittedCategorical) Index(v interface{}) (int, bool) {
	i, ok := f.index[record.ToKey(v)]
	return i, ok
}

func (f *FittedCategorical) Column() string    { return f.column }
func (f *FittedCategorical) Role() schema.Role { return schema.RoleCategorical }

// Width is the number of categories plus the unknown slot.
func (f *FittedCategorical) Width() int { return len(f.categories) + 1 }

// FeatureNames returns col=value for each category and col=__unknown__.
func (f *FittedCategorical) FeatureNames() []string {
	names := make([]string, 0, f.Width())
	for _, c := range f.categories {
		names = append(names, f.column+"="+c)
	}
	return append(names, f.column+"="+UnknownCategory)
}

// Transform sets one slot: the category's, or the unknown slot for unseen
// values. A missing value leaves every slot zero.
func (f *FittedCategorical) Transform(v Value, dst []float64) {
	for i := range dst[:f.Width()] {
		dst[i] = 0
	}
	if !v.Present {
		return
	}
	if i, ok := f.index[record.ToKey(v.V)]; ok {
		dst[i] = 1
		return
	}
	dst[len(f.categories)] = 1
}

// State implements Fitted.
func (f *FittedCategorical) State() State {
	return State{Column: f.column, Role: schema.RoleCategorical, Categorical: &CategoricalState{Categories: f.Categories()}}
}
