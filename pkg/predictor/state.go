package predictor

import (
	"time"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/model"
	"github.com/ajitpratap0/brainless/pkg/pipeline"
	"github.com/ajitpratap0/brainless/pkg/transform"
)

// StateVersion is bumped when State changes incompatibly.
const StateVersion = 1

// Summary describes a trained predictor.
type Summary struct {
	Kind       model.Kind    `json:"kind"`
	Family     string        `json:"family"`
	Params     model.Params  `json:"params"`
	Score      float64       `json:"score"`
	Scoring    string        `json:"scoring"`
	Folds      int           `json:"folds"`
	Candidates int           `json:"candidates"`
	Evaluated  int           `json:"evaluated"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Features   []string      `json:"features"`
	Classes    []string      `json:"classes,omitempty"`
	Rows       int           `json:"rows"`
	TrainedAt  time.Time     `json:"trained_at"`
	Duration   time.Duration `json:"duration"`
	// Intervals reports whether PredictIntervals is available
	Intervals bool `json:"intervals"`
}

// State is the serialisable form of a trained predictor.
type State struct {
	Version  int                   `json:"version"`
	Kind     model.Kind            `json:"kind"`
	Pipeline pipeline.State        `json:"pipeline"`
	Model    model.State           `json:"model"`
	Labels   *transform.LabelState `json:"labels,omitempty"`
	Summary  Summary               `json:"summary"`
	// Intervals is the separate interval ensemble, when one was fit
	Intervals *model.State `json:"intervals,omitempty"`
}

// Snapshot exports the trained state.
func (p *Predictor) Snapshot() (*State, error) {
	t, err := p.current()
	if err != nil {
		return nil, err
	}
	ps, err := t.pipeline.State()
	if err != nil {
		return nil, err
	}
	ms, err := model.Snapshot(t.summary.Family, t.task, t.summary.Params, t.model)
	if err != nil {
		return nil, err
	}
	st := &State{
		Version:  StateVersion,
		Kind:     p.kind,
		Pipeline: ps,
		Model:    ms,
		Summary:  t.summary,
	}
	if t.labels != nil {
		ls := t.labels.State()
		st.Labels = &ls
	}
	if t.intervals != nil {
		is, err := model.Snapshot(intervalFamily, t.task, intervalParams, t.intervals)
		if err != nil {
			return nil, err
		}
		st.Intervals = &is
	}
	return st, nil
}

// FromSnapshot rebuilds a trained predictor. Classifier labels come back in
// their decoded form, so integer labels read from JSON are float64.
func FromSnapshot(st *State, opts ...Option) (*Predictor, error) {
	if st == nil {
		return nil, errors.New(errors.ErrorTypeData, "snapshot is empty")
	}
	if st.Version != StateVersion {
		return nil, errors.Newf(errors.ErrorTypeData, "unsupported snapshot version %d", st.Version).
			WithDetail("version", st.Version)
	}
	p, err := New(string(st.Kind), opts...)
	if err != nil {
		return nil, err
	}
	pipe, err := pipeline.FromState(st.Pipeline, p.pipelineOptions())
	if err != nil {
		return nil, err
	}
	m, err := model.Restore(st.Model)
	if err != nil {
		return nil, err
	}
	t := &trained{
		pipeline: pipe,
		model:    m,
		task:     st.Model.Task,
		summary:  st.Summary,
	}
	if p.kind == model.KindClassifier {
		if st.Labels == nil {
			return nil, errors.New(errors.ErrorTypeData, "classifier snapshot has no labels")
		}
		if t.labels, err = transform.LabelsFromState(*st.Labels); err != nil {
			return nil, err
		}
	}
	if st.Intervals != nil {
		if t.intervals, err = model.Restore(*st.Intervals); err != nil {
			return nil, err
		}
	}
	p.trained = t
	return p, nil
}
