// Package predictor is the train and predict facade over the feature
// pipeline and the model search.
package predictor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/logger"
	"github.com/ajitpratap0/brainless/pkg/model"
	"github.com/ajitpratap0/brainless/pkg/pipeline"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
	"github.com/ajitpratap0/brainless/pkg/search"
	"github.com/ajitpratap0/brainless/pkg/transform"
)

const tracerName = "github.com/ajitpratap0/brainless/pkg/predictor"

// Predictor trains a feature pipeline and model from loosely typed records
// and predicts on new ones.
type Predictor struct {
	kind      model.Kind
	cfg       *config.Config
	logger    *zap.Logger
	observers []search.Observer
	sentiment transform.SentimentScorer
	tracer    trace.Tracer

	mu      sync.RWMutex
	trained *trained
}

// trained is the immutable result of one successful Train.
type trained struct {
	pipeline *pipeline.Pipeline
	model    model.Model
	task     model.Task
	labels   *transform.LabelEncoder
	summary  Summary
	// intervals is a separate ensemble for PredictIntervals, if one was fit
	intervals model.Model
}

// New creates a predictor for kind, which must be "classifier" or
// "regressor".
func New(kind string, opts ...Option) (*Predictor, error) {
	k, err := model.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	p := &Predictor{
		kind: k,
		cfg:  config.NewConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if p.logger == nil {
		p.logger = logger.For("predictor", zap.String("kind", string(k)))
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	return p, nil
}

// Kind returns the problem kind.
func (p *Predictor) Kind() model.Kind { return p.kind }

// Train fits a new pipeline and model. data[0] is the schema header mapping
// attribute names to roles, data[1:] are the rows. Rows without an output
// value are dropped; a regressor also drops non-numeric outputs. On success
// the previous state is replaced; on failure it is kept.
func (p *Predictor) Train(ctx context.Context, data []record.Record) error {
	ctx, span := p.tracer.Start(ctx, "predictor.train", trace.WithAttributes(
		attribute.String("kind", string(p.kind)),
		attribute.Int("records", len(data)),
	))
	defer span.End()

	t, err := p.train(ctx, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("training failed", zap.Error(err))
		return err
	}

	p.mu.Lock()
	p.trained = t
	p.mu.Unlock()

	span.SetAttributes(
		attribute.String("family", t.summary.Family),
		attribute.Float64("score", t.summary.Score),
	)
	p.logger.Info("training completed",
		zap.String("family", t.summary.Family),
		zap.String("params", t.summary.Params.String()),
		zap.Float64("score", t.summary.Score),
		zap.Int("rows", t.summary.Rows),
		zap.Int("features", len(t.summary.Features)))
	return nil
}

func (p *Predictor) train(ctx context.Context, data []record.Record) (*trained, error) {
	start := time.Now()
	header, rows, err := record.Split(data)
	if err != nil {
		return nil, err
	}
	sch, err := schema.Parse(header)
	if err != nil {
		return nil, err
	}

	rows, outputs := p.usableRows(sch.Output(), rows)
	if len(rows) == 0 {
		return nil, errors.Newf(errors.ErrorTypeEmptyColumn, "output column %q has no usable values", sch.Output()).
			WithDetail("attribute", sch.Output()).
			WithDetail("role", string(schema.RoleOutput))
	}
	if dropped := len(data) - 1 - len(rows); dropped > 0 {
		p.logger.Warn("dropped rows without a usable output", zap.Int("dropped", dropped))
	}

	sch = sch.Resolve(rows)
	if p.cfg.Features.InferRoles {
		opts := schema.DefaultInferenceOptions()
		opts.MaxCategoricalCardinality = p.cfg.Features.MaxCategoricalCardinality
		sch = sch.WithRoles(schema.Infer(rows, opts))
		p.logger.Debug("roles inferred", zap.Stringer("schema", sch))
	}

	pipe := pipeline.New(sch, p.pipelineOptions())
	if err := pipe.Fit(rows); err != nil {
		return nil, err
	}
	X, err := pipe.TransformAll(rows)
	if err != nil {
		return nil, err
	}

	task := model.Task{Kind: p.kind}
	var (
		y      []float64
		labels *transform.LabelEncoder
	)
	if p.kind == model.KindClassifier {
		labels, err = transform.FitLabels(outputs)
		if err != nil {
			return nil, err
		}
		task.NumClasses = labels.Classes()
		y = make([]float64, len(outputs))
		for i, v := range outputs {
			c, _ := labels.Encode(v)
			y[i] = float64(c)
		}
	} else {
		y = make([]float64, len(outputs))
		for i, v := range outputs {
			y[i], _ = record.ToFloat(v)
		}
	}

	res, err := search.Run(ctx, X, y, task, search.Options{
		Config:    p.cfg.Search,
		Logger:    p.logger,
		Observers: append([]search.Observer{search.NewLogObserver(p.logger)}, p.observers...),
		Tracer:    p.tracer,
	})
	if err != nil {
		return nil, err
	}

	t := &trained{
		pipeline:  pipe,
		model:     res.Model,
		task:      res.Task,
		labels:    labels,
		intervals: p.fitIntervals(res.Model, res.Task, X, y),
	}
	t.summary = Summary{
		Kind:       p.kind,
		Family:     res.Best.Family,
		Params:     res.Best.Params,
		Score:      res.Best.Score,
		Scoring:    res.Summary.Scoring,
		Folds:      res.Summary.Folds,
		Candidates: res.Summary.Candidates,
		Evaluated:  res.Summary.Evaluated,
		Failed:     res.Summary.Failed,
		Skipped:    res.Summary.Skipped,
		Features:   pipe.FeatureNames(),
		Rows:       len(rows),
		TrainedAt:  time.Now().UTC(),
		Duration:   time.Since(start),
	}
	if labels != nil {
		t.summary.Classes = labels.Keys()
	}
	t.summary.Intervals = t.ensemble() != nil
	return t, nil
}

// usableRows keeps rows with a usable output and returns them with their
// output values.
func (p *Predictor) usableRows(output string, rows []record.Record) ([]record.Record, []interface{}) {
	kept := make([]record.Record, 0, len(rows))
	outputs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		v, ok := r.Lookup(output)
		if !ok {
			continue
		}
		if p.kind == model.KindRegressor {
			if _, ok := record.ToFloat(v); !ok {
				continue
			}
		}
		kept = append(kept, r)
		outputs = append(outputs, v)
	}
	return kept, outputs
}

func (p *Predictor) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Transform: transform.Options{
			MaxVocabulary:        p.cfg.Features.MaxVocabulary,
			MinDocumentFrequency: p.cfg.Features.MinDocumentFrequency,
			StopWords:            p.cfg.Features.StopWords,
			Sentiment:            p.sentiment,
			Logger:               p.logger,
		},
		Logger: p.logger,
	}
}

func (p *Predictor) current() (*trained, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.trained == nil {
		return nil, errors.New(errors.ErrorTypeNotTrained, "predictor has not been trained")
	}
	return p.trained, nil
}

// IsTrained reports whether Train has succeeded at least once.
func (p *Predictor) IsTrained() bool {
	_, err := p.current()
	return err == nil
}

// Predict returns one prediction per row in input order: original label
// values for a classifier, float64 for a regressor.
func (p *Predictor) Predict(rows []record.Record) ([]interface{}, error) {
	t, err := p.current()
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	X, err := t.pipeline.TransformAll(rows)
	if err != nil {
		return nil, err
	}
	for i, v := range t.model.Predict(X) {
		if t.labels != nil {
			out[i] = t.labels.Decode(int(v))
		} else {
			out[i] = v
		}
	}
	return out, nil
}

// PredictProba returns class probabilities keyed by the canonical label
// form. Only classifiers support it.
func (p *Predictor) PredictProba(rows []record.Record) ([]map[string]float64, error) {
	t, err := p.current()
	if err != nil {
		return nil, err
	}
	prober, ok := t.model.(model.Prober)
	if t.labels == nil || !ok {
		return nil, errors.New(errors.ErrorTypeValidation, "class probabilities require a classifier")
	}
	out := make([]map[string]float64, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	X, err := t.pipeline.TransformAll(rows)
	if err != nil {
		return nil, err
	}
	proba := prober.PredictProba(X)
	keys := t.labels.Keys()
	for i := range rows {
		m := make(map[string]float64, len(keys))
		for j, v := range proba.RawRowView(i) {
			m[keys[j]] = v
		}
		out[i] = m
	}
	return out, nil
}

// Score evaluates the trained model on labelled rows with the configured
// scoring. Rows without a usable output are skipped; labels unseen in
// training count as misses.
func (p *Predictor) Score(rows []record.Record) (float64, error) {
	t, err := p.current()
	if err != nil {
		return 0, err
	}
	output := t.pipeline.Schema().Output()
	rows, outputs := p.usableRows(output, rows)
	if len(rows) == 0 {
		return 0, errors.Newf(errors.ErrorTypeEmptyColumn, "no rows with a usable %q value to score", output).
			WithDetail("attribute", output)
	}
	X, err := t.pipeline.TransformAll(rows)
	if err != nil {
		return 0, err
	}
	y := make([]float64, len(outputs))
	for i, v := range outputs {
		if t.labels != nil {
			c, ok := t.labels.Encode(v)
			if !ok {
				c = -1
			}
			y[i] = float64(c)
		} else {
			y[i], _ = record.ToFloat(v)
		}
	}
	scorer, err := model.ScorerFor(p.kind, t.summary.Scoring)
	if err != nil {
		return 0, err
	}
	return scorer.Score(t.model, X, y), nil
}

// Transform runs rows through the fitted pipeline only.
func (p *Predictor) Transform(rows []record.Record) (*mat.Dense, error) {
	t, err := p.current()
	if err != nil {
		return nil, err
	}
	return t.pipeline.TransformAll(rows)
}

// VerifyFeatures compares the attributes of rows with the training columns.
func (p *Predictor) VerifyFeatures(rows []record.Record) (pipeline.FeatureReport, error) {
	t, err := p.current()
	if err != nil {
		return pipeline.FeatureReport{}, err
	}
	return t.pipeline.Verify(rows)
}

// Summary describes the trained model.
func (p *Predictor) Summary() (Summary, error) {
	t, err := p.current()
	if err != nil {
		return Summary{}, err
	}
	return t.summary, nil
}
