package pipeline

import (
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/logger"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
	"github.com/ajitpratap0/brainless/pkg/transform"
)

// Options configures a Pipeline.
type Options struct {
	Transform transform.Options
	Logger    *zap.Logger
}

// Pipeline turns records into fixed-width feature vectors. It is built from
// a schema, fit exactly once, and read-only afterwards.
type Pipeline struct {
	declared *schema.Schema
	opts     Options
	logger   *zap.Logger

	fitted atomic.Pointer[fittedState]
}

// fittedState is everything Fit freezes. It is never mutated once stored.
type fittedState struct {
	schema  *schema.Schema
	columns []transform.Fitted
	offsets []int
	width   int
	names   []string
}

// New creates an unfitted pipeline for s.
func New(s *schema.Schema, opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	if opts.Transform.Logger == nil {
		opts.Transform.Logger = log
	}
	return &Pipeline{
		declared: s,
		opts:     opts,
		logger:   log.With(zap.String("component", "pipeline")),
	}
}

// Fit resolves implicit columns against rows and fits one transformer per
// feature column in schema order. A declared column without usable values
// fails the fit; an implicit one is dropped with a warning. Fitting an
// already-fitted pipeline is rejected.
func (p *Pipeline) Fit(rows []record.Record) error {
	if p.fitted.Load() != nil {
		return errors.New(errors.ErrorTypeConflict, "pipeline is already fitted; build a new pipeline to refit")
	}

	resolved := p.declared.Resolve(rows)
	var dropped []string
	columns := make([]transform.Fitted, 0, len(resolved.Features()))

	for _, col := range resolved.Features() {
		tr, err := transform.New(col, p.opts.Transform)
		if err != nil {
			return err
		}
		f, err := tr.Fit(transform.Column(rows, col.Name))
		if err != nil {
			if col.Implicit && errors.IsEmptyColumn(err) {
				p.logger.Warn("dropping implicit column without numeric values",
					zap.String("column", col.Name))
				dropped = append(dropped, col.Name)
				continue
			}
			return err
		}
		columns = append(columns, f)
	}

	if len(dropped) > 0 {
		resolved = resolved.Without(dropped...)
	}
	state, err := freeze(resolved, columns)
	if err != nil {
		return err
	}

	if !p.fitted.CompareAndSwap(nil, state) {
		return errors.New(errors.ErrorTypeConflict, "pipeline is already fitted; build a new pipeline to refit")
	}
	p.logger.Debug("pipeline fitted",
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)),
		zap.Int("width", state.width))
	return nil
}

func freeze(s *schema.Schema, columns []transform.Fitted) (*fittedState, error) {
	if len(columns) == 0 {
		return nil, errors.New(errors.ErrorTypeSchema, "no feature columns: declare at least one non-output attribute with usable values")
	}
	state := &fittedState{
		schema:  s,
		columns: columns,
		offsets: make([]int, len(columns)),
	}
	for i, c := range columns {
		state.offsets[i] = state.width
		state.width += c.Width()
		state.names = append(state.names, c.FeatureNames()...)
	}
	return state, nil
}

func (p *Pipeline) state() (*fittedState, error) {
	st := p.fitted.Load()
	if st == nil {
		return nil, errors.New(errors.ErrorTypePipelineNotFitted, "pipeline must be fitted before transforming records")
	}
	return st, nil
}

// IsFitted reports whether Fit has succeeded.
func (p *Pipeline) IsFitted() bool { return p.fitted.Load() != nil }

// Transform maps one record to its feature vector.
func (p *Pipeline) Transform(rec record.Record) ([]float64, error) {
	st, err := p.state()
	if err != nil {
		return nil, err
	}
	dst := make([]float64, st.width)
	st.transformInto(rec, dst)
	return dst, nil
}

// TransformAll maps records to a feature matrix with one row per record.
// No records yields an empty matrix.
func (p *Pipeline) TransformAll(recs []record.Record) (*mat.Dense, error) {
	st, err := p.state()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return &mat.Dense{}, nil
	}
	data := make([]float64, len(recs)*st.width)
	for i, rec := range recs {
		st.transformInto(rec, data[i*st.width:(i+1)*st.width])
	}
	return mat.NewDense(len(recs), st.width, data), nil
}

func (st *fittedState) transformInto(rec record.Record, dst []float64) {
	for i, c := range st.columns {
		off := st.offsets[i]
		c.Transform(transform.ValueOf(rec, c.Column()), dst[off:off+c.Width()])
	}
}

// Width returns the total feature width, or 0 before Fit.
func (p *Pipeline) Width() int {
	if st := p.fitted.Load(); st != nil {
		return st.width
	}
	return 0
}

// FeatureNames returns one name per feature slot, or nil before Fit.
func (p *Pipeline) FeatureNames() []string {
	st := p.fitted.Load()
	if st == nil {
		return nil
	}
	return append([]string(nil), st.names...)
}

// Schema returns the resolved schema after Fit, or the declared one before.
func (p *Pipeline) Schema() *schema.Schema {
	if st := p.fitted.Load(); st != nil {
		return st.schema
	}
	return p.declared
}

// Transformers returns the fitted column transformers in pipeline order.
func (p *Pipeline) Transformers() []transform.Fitted {
	st := p.fitted.Load()
	if st == nil {
		return nil
	}
	return append([]transform.Fitted(nil), st.columns...)
}

// FeatureReport compares the attributes seen at training time with those of
// a batch of prediction records.
type FeatureReport struct {
	// MissingFromPrediction lists training attributes absent from every record
	MissingFromPrediction []string `json:"missing_from_prediction"`
	// UnknownToTraining lists record attributes the pipeline never saw
	UnknownToTraining []string `json:"unknown_to_training"`
}

// OK reports whether both lists are empty.
func (r FeatureReport) OK() bool {
	return len(r.MissingFromPrediction) == 0 && len(r.UnknownToTraining) == 0
}

// Verify reports attribute drift between training and recs. The output
// attribute is ignored on both sides.
func (p *Pipeline) Verify(recs []record.Record) (FeatureReport, error) {
	st, err := p.state()
	if err != nil {
		return FeatureReport{}, err
	}
	output := st.schema.Output()

	seen := make(map[string]bool)
	for _, r := range recs {
		for k := range r {
			seen[k] = true
		}
	}

	report := FeatureReport{MissingFromPrediction: []string{}, UnknownToTraining: []string{}}
	for _, c := range st.schema.Columns() {
		if c.Name == output || c.Role == schema.RoleIgnore {
			continue
		}
		if !seen[c.Name] {
			report.MissingFromPrediction = append(report.MissingFromPrediction, c.Name)
		}
	}
	for k := range seen {
		if k == output {
			continue
		}
		if _, ok := st.schema.Column(k); !ok {
			report.UnknownToTraining = append(report.UnknownToTraining, k)
		}
	}
	sort.Strings(report.UnknownToTraining)
	return report, nil
}
