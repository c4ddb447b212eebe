package transform

import (
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

// Numeric passes numbers through and imputes missing or non-numeric values
// with the training mean.
type Numeric struct {
	column string
}

// NumericState is the fitted state of a numeric column.
type NumericState struct {
	Mean float64 `json:"mean"`
}

// Column implements Transformer.
func (n *Numeric) Column() string { return n.column }

// Role implements Transformer.
func (n *Numeric) Role() schema.Role { return schema.RoleNumeric }

// Fit records the mean of the valid values.
func (n *Numeric) Fit(values []Value) (Fitted, error) {
	sum, count := 0.0, 0
	for _, v := range values {
		if !v.Present {
			continue
		}
		if f, ok := record.ToFloat(v.V); ok {
			sum += f
			count++
		}
	}
	if count == 0 {
		return nil, emptyColumn(n.column, schema.RoleNumeric)
	}
	return &FittedNumeric{column: n.column, mean: sum / float64(count)}, nil
}

// FittedNumeric is a fitted numeric column.
type FittedNumeric struct {
	column string
	mean   float64
}

// Mean returns the imputation value.
func (f *FittedNumeric) Mean() float64 { return f.mean }

func (f *FittedNumeric) Column() string         { return f.column }
func (f *FittedNumeric) Role() schema.Role      { return schema.RoleNumeric }
func (f *FittedNumeric) Width() int             { return 1 }
func (f *FittedNumeric) FeatureNames() []string { return []string{f.column} }

// Transform writes the value, or the mean when it is missing or invalid.
func (f *FittedNumeric) Transform(v Value, dst []float64) {
	if v.Present {
		if x, ok := record.ToFloat(v.V); ok {
			dst[0] = x
			return
		}
	}
	dst[0] = f.mean
}

// State implements Fitted.
func (f *FittedNumeric) State() State {
	return State{Column: f.column, Role: schema.RoleNumeric, Numeric: &NumericState{Mean: f.mean}}
}
