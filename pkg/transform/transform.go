// Package transform implements the per-role column transformers.
//
// A Transformer is selected once from a column's role and fit on that
// column's training values; the resulting Fitted state is immutable and maps
// any value (including a missing one) to a fixed-width slice of features.
// Row-level anomalies never produce errors: missing numerics take the
// training mean, unseen categories take the unknown slot and non-text takes
// the empty string. The only fit-time failure is a column with no usable
// values.
package transform

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

// Value is one cell of a sparse column. Present is false when the attribute
// was absent from the record or held nil.
type Value struct {
	V       interface{}
	Present bool
}

// Missing is the value of an absent attribute.
var Missing = Value{}

// ValueOf looks up name in r.
func ValueOf(r record.Record, name string) Value {
	v, ok := r.Lookup(name)
	return Value{V: v, Present: ok}
}

// Column extracts the values of name from rows in order.
func Column(rows []record.Record, name string) []Value {
	out := make([]Value, len(rows))
	for i, r := range rows {
		out[i] = ValueOf(r, name)
	}
	return out
}

// Transformer learns per-column state from training values.
type Transformer interface {
	Column() string
	Role() schema.Role
	Fit(values []Value) (Fitted, error)
}

// Fitted is frozen per-column state. Transform writes exactly Width values
// into dst and must not retain or mutate anything else.
type Fitted interface {
	Column() string
	Role() schema.Role
	Width() int
	FeatureNames() []string
	Transform(v Value, dst []float64)
	State() State
}

// SentimentScorer scores free text, typically in [-1, 1].
type SentimentScorer interface {
	Score(text string) float64
}

// Options configures transformer construction.
type Options struct {
	MaxVocabulary        int
	MinDocumentFrequency int
	StopWords            bool
	Sentiment            SentimentScorer
	Logger               *zap.Logger
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		MaxVocabulary:        1000,
		MinDocumentFrequency: 1,
		StopWords:            true,
		Sentiment:            DefaultSentiment(),
		Logger:               zap.NewNop(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxVocabulary <= 0 {
		o.MaxVocabulary = def.MaxVocabulary
	}
	if o.MinDocumentFrequency <= 0 {
		o.MinDocumentFrequency = def.MinDocumentFrequency
	}
	if o.Sentiment == nil {
		o.Sentiment = def.Sentiment
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}

// New selects the transformer for a feature column.
func New(col schema.Column, opts Options) (Transformer, error) {
	opts = opts.withDefaults()
	switch col.Role {
	case schema.RoleNumeric:
		return &Numeric{column: col.Name}, nil
	case schema.RoleCategorical:
		return &Categorical{column: col.Name}, nil
	case schema.RoleNLP:
		return &NLP{column: col.Name, opts: opts}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeSchema, "column %q with role %q produces no features", col.Name, col.Role).
			WithDetail("attribute", col.Name)
	}
}

// State is the serialisable form of a Fitted transformer. Exactly one of the
// role-specific fields is set.
type State struct {
	Column      string            `json:"column"`
	Role        schema.Role       `json:"role"`
	Numeric     *NumericState     `json:"numeric,omitempty"`
	Categorical *CategoricalState `json:"categorical,omitempty"`
	NLP         *NLPState         `json:"nlp,omitempty"`
}

// FromState restores a Fitted transformer. NLP state is paired with the
// sentiment scorer from opts, since scorers are code rather than data.
func FromState(s State, opts Options) (Fitted, error) {
	opts = opts.withDefaults()
	switch {
	case s.Role == schema.RoleNumeric && s.Numeric != nil:
		return &FittedNumeric{column: s.Column, mean: s.Numeric.Mean}, nil
	case s.Role == schema.RoleCategorical && s.Categorical != nil:
		return newFittedCategorical(s.Column, s.Categorical.Categories), nil
	case s.Role == schema.RoleNLP && s.NLP != nil:
		return newFittedNLP(s.Column, *s.NLP, opts.Sentiment)
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "transformer state for column %q is incomplete", s.Column).
			WithDetail("role", string(s.Role))
	}
}

func emptyColumn(column string, role schema.Role) error {
	return errors.Newf(errors.ErrorTypeEmptyColumn, "column %q has no usable values", column).
		WithDetail("column", column).
		WithDetail("role", string(role))
}
