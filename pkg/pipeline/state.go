package pipeline

import (
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/schema"
	"github.com/ajitpratap0/brainless/pkg/transform"
)

// State is the serialisable form of a fitted pipeline.
type State struct {
	Columns      []schema.Column   `json:"columns"`
	Transformers []transform.State `json:"transformers"`
}

// State exports the fitted state.
func (p *Pipeline) State() (State, error) {
	st, err := p.state()
	if err != nil {
		return State{}, err
	}
	out := State{
		Columns:      st.schema.Columns(),
		Transformers: make([]transform.State, len(st.columns)),
	}
	for i, c := range st.columns {
		out.Transformers[i] = c.State()
	}
	return out, nil
}

// FromState rebuilds a fitted pipeline. The result transforms records
// exactly as the exporting pipeline did.
func FromState(s State, opts Options) (*Pipeline, error) {
	sch, err := schema.FromColumns(s.Columns)
	if err != nil {
		return nil, err
	}
	p := New(sch, opts)

	columns := make([]transform.Fitted, len(s.Transformers))
	for i, ts := range s.Transformers {
		if _, ok := sch.Column(ts.Column); !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "transformer for unknown column %q", ts.Column)
		}
		f, err := transform.FromState(ts, p.opts.Transform)
		if err != nil {
			return nil, err
		}
		columns[i] = f
	}

	st, err := freeze(sch, columns)
	if err != nil {
		return nil, err
	}
	p.fitted.Store(st)
	return p, nil
}
