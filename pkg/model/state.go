package model

import (
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/json"
)

// State is the serialisable form of a fitted model.
type State struct {
	Family  string          `json:"family"`
	Params  Params          `json:"params"`
	Task    Task            `json:"task"`
	Payload json.RawMessage `json:"payload"`
}

// Snapshot captures a fitted model built by family.
func Snapshot(family string, task Task, p Params, m Model) (State, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return State{}, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode model "+family)
	}
	return State{Family: family, Params: p.Clone(), Task: task, Payload: raw}, nil
}

// Restore rebuilds a fitted model from its state.
func Restore(s State) (Model, error) {
	d, ok := Lookup(s.Family)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown model family %q", s.Family).
			WithDetail("family", s.Family)
	}
	m, err := d.New(s.Task, s.Params)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(s.Payload, m); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode model "+s.Family)
	}
	return m, nil
}
