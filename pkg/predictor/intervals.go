package predictor

import (
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/model"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// DefaultQuantiles are used by PredictIntervals when none are given.
var DefaultQuantiles = []float64{0.05, 0.95}

// intervalFamily and intervalParams describe the ensemble fit for intervals
// when the selected regressor is not an ensemble itself.
const intervalFamily = "random_forest"

var intervalParams = model.Params{"n_estimators": 75, "max_depth": 0}

// Interval is one row's prediction with the requested quantiles of the
// ensemble members' predictions, keyed by the quantile ("0.05").
type Interval struct {
	Prediction float64            `json:"prediction"`
	Bounds     map[string]float64 `json:"bounds"`
}

// fitIntervals returns a separate ensemble for intervals, or nil when the
// winner already is one or intervals were not requested. A failed fit only
// disables intervals.
func (p *Predictor) fitIntervals(winner model.Model, task model.Task, X *mat.Dense, y []float64) model.Model {
	if task.Kind != model.KindRegressor || !p.cfg.Search.Intervals {
		return nil
	}
	if _, ok := winner.(model.Ensemble); ok {
		return nil
	}
	d, ok := model.Lookup(intervalFamily)
	if !ok {
		return nil
	}
	m, err := d.New(task, intervalParams)
	if err == nil {
		err = m.Fit(X, y)
	}
	if err != nil {
		p.logger.Warn("interval ensemble not fitted; prediction intervals disabled", zap.Error(err))
		return nil
	}
	return m
}

// ensemble returns the model that provides intervals, if any.
func (t *trained) ensemble() model.Ensemble {
	if t.intervals != nil {
		if e, ok := t.intervals.(model.Ensemble); ok {
			return e
		}
	}
	if t.labels == nil {
		if e, ok := t.model.(model.Ensemble); ok {
			return e
		}
	}
	return nil
}

// PredictIntervals returns each row's prediction with quantiles of the
// ensemble members' predictions. Only regressors support it, and only when
// the selected model is a random forest or search.intervals was enabled at
// training time. Quantiles must lie in [0, 1]; none means DefaultQuantiles.
func (p *Predictor) PredictIntervals(rows []record.Record, quantiles []float64) ([]Interval, error) {
	t, err := p.current()
	if err != nil {
		return nil, err
	}
	if t.labels != nil {
		return nil, errors.New(errors.ErrorTypeValidation, "prediction intervals require a regressor")
	}
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}
	for _, q := range quantiles {
		if math.IsNaN(q) || q < 0 || q > 1 {
			return nil, errors.New(errors.ErrorTypeValidation, "quantiles must lie in [0, 1]").
				WithDetail("quantile", q)
		}
	}
	ens := t.ensemble()
	if ens == nil {
		return nil, errors.New(errors.ErrorTypeValidation,
			"predictor was not trained to predict intervals; enable search.intervals")
	}

	out := make([]Interval, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	X, err := t.pipeline.TransformAll(rows)
	if err != nil {
		return nil, err
	}
	base := t.model.Predict(X)
	members := ens.Members(X)
	keys := make([]string, len(quantiles))
	for j, q := range quantiles {
		keys[j] = strconv.FormatFloat(q, 'f', -1, 64)
	}
	for i := range rows {
		sorted := append([]float64(nil), members.RawRowView(i)...)
		sort.Float64s(sorted)
		bounds := make(map[string]float64, len(quantiles))
		for j, q := range quantiles {
			bounds[keys[j]] = quantile(sorted, q)
		}
		out[i] = Interval{Prediction: base[i], Bounds: bounds}
	}
	return out, nil
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
