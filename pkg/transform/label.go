package transform

import (
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// LabelEncoder maps classifier output values to class indices in first-seen
// order and back to the original values.
type LabelEncoder struct {
	keys   []string
	labels []interface{}
	index  map[string]int
}

// LabelState is the serialisable form of a LabelEncoder.
type LabelState struct {
	Labels []interface{} `json:"labels"`
}

// FitLabels learns the classes of values. Missing values are skipped.
func FitLabels(values []interface{}) (*LabelEncoder, error) {
	enc := &LabelEncoder{index: make(map[string]int)}
	for _, v := range values {
		if v == nil {
			continue
		}
		enc.add(v)
	}
	if len(enc.labels) == 0 {
		return nil, errors.New(errors.ErrorTypeEmptyColumn, "output column has no usable values")
	}
	return enc, nil
}

// LabelsFromState restores an encoder.
func LabelsFromState(s LabelState) (*LabelEncoder, error) {
	return FitLabels(s.Labels)
}

func (e *LabelEncoder) add(v interface{}) {
	key := record.ToKey(v)
	if _, ok := e.index[key]; ok {
		return
	}
	e.index[key] = len(e.keys)
	e.keys = append(e.keys, key)
	e.labels = append(e.labels, v)
}

// Classes returns the number of classes.
func (e *LabelEncoder) Classes() int { return len(e.labels) }

// Encode returns the class index of v.
func (e *LabelEncoder) Encode(v interface{}) (int, bool) {
	i, ok := e.index[record.ToKey(v)]
	return i, ok
}

// Decode returns the original label of class i.
func (e *LabelEncoder) Decode(i int) interface{} {
	if i < 0 || i >= len(e.labels) {
		return nil
	}
	return e.labels[i]
}

// Keys returns the canonical label keys in class order.
func (e *LabelEncoder) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// State returns the serialisable form.
func (e *LabelEncoder) State() LabelState {
	return LabelState{Labels: append([]interface{}(nil), e.labels...)}
}
