package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/model"
)

func searchConfig() config.SearchConfig {
	cfg := config.NewConfig().Search
	cfg.Workers = 4
	return cfg
}

// clusters returns n rows in two separated groups labelled 0 and 1.
func clusters(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 0.0
		if i%2 == 1 {
			base = 10
			y[i] = 1
		}
		X.Set(i, 0, base+float64(i%5)*0.1)
		X.Set(i, 1, base-float64(i%3)*0.1)
	}
	return X, y
}

type recorder struct {
	results []CandidateResult
	summary *Summary
}

func (r *recorder) CandidateEvaluated(c CandidateResult) { r.results = append(r.results, c) }
func (r *recorder) SearchCompleted(s Summary)            { r.summary = &s }

// constModel predicts a fixed value and fails or panics on demand.
type constModel struct {
	value float64
	fail  bool
	panic bool
}

func (m *constModel) Fit(X mat.Matrix, y []float64) error {
	if m.panic {
		panic("boom")
	}
	if m.fail {
		return errors.New(errors.ErrorTypeData, "cannot fit")
	}
	return nil
}

func (m *constModel) Predict(X mat.Matrix) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = m.value
	}
	return out
}

func constFamily(name string, build func(p model.Params) *constModel) model.Descriptor {
	return model.Descriptor{
		Name:       name,
		Kinds:      []model.Kind{model.KindRegressor},
		Space:      model.Space{{Name: "v", Values: []float64{1, 2}}},
		Complexity: func(p model.Params) float64 { return p["v"] },
		New: func(task model.Task, p model.Params) (model.Model, error) {
			return build(p), nil
		},
	}
}

func TestFolds(t *testing.T) {
	folds := Folds(10, 3, 7)
	require.Len(t, folds, 3)
	seen := map[int]bool{}
	for _, f := range folds {
		assert.GreaterOrEqual(t, len(f), 3)
		for _, i := range f {
			assert.False(t, seen[i])
			seen[i] = true
		}
	}
	assert.Len(t, seen, 10)

	assert.Equal(t, folds, Folds(10, 3, 7), "same seed, same folds")
	assert.NotEqual(t, folds, Folds(10, 3, 8))

	assert.Len(t, Folds(3, 5, 1), 3, "clamped to the number of rows")
	assert.Len(t, Folds(4, 1, 1), 2, "at least two folds")
	assert.Nil(t, Folds(1, 5, 1))
}

func TestCandidatesDeclarationOrder(t *testing.T) {
	cands, err := Candidates(model.KindClassifier, searchConfig())
	require.NoError(t, err)
	// logistic 3 + knn 3 + tree 6 + forest 4
	require.Len(t, cands, 16)
	assert.Equal(t, "logistic", cands[0].Family)
	assert.Equal(t, "random_forest", cands[15].Family)
	for i, c := range cands {
		assert.Equal(t, i, c.Index)
	}
}

func TestCandidatesRestrictAndOverride(t *testing.T) {
	cfg := searchConfig()
	cfg.Families = []string{"knn", "Ridge"}
	cfg.Overrides = map[string]map[string][]float64{"knn": {"k": {1}}}
	cands, err := Candidates(model.KindRegressor, cfg)
	require.NoError(t, err)
	require.Len(t, cands, 4)
	assert.Equal(t, "ridge", cands[0].Family)
	assert.Equal(t, model.Params{"k": 1}, cands[3].Params)

	tests := []struct {
		name   string
		mutate func(*config.SearchConfig)
	}{
		{"unknown family", func(c *config.SearchConfig) { c.Families = []string{"svm"} }},
		{"unknown override family", func(c *config.SearchConfig) {
			c.Overrides = map[string]map[string][]float64{"svm": {"c": {1}}}
		}},
		{"unknown parameter", func(c *config.SearchConfig) {
			c.Overrides = map[string]map[string][]float64{"knn": {"neighbours": {1}}}
		}},
		{"invalid value", func(c *config.SearchConfig) {
			c.Overrides = map[string]map[string][]float64{"ridge": {"alpha": {-1}}}
		}},
		{"no eligible family", func(c *config.SearchConfig) { c.Families = []string{"logistic"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := searchConfig()
			tt.mutate(&cfg)
			_, err := Candidates(model.KindRegressor, cfg)
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
		})
	}
}

func TestCandidatesSampling(t *testing.T) {
	cfg := searchConfig()
	cfg.MaxCandidates = 5
	a, err := Candidates(model.KindClassifier, cfg)
	require.NoError(t, err)
	b, err := Candidates(model.KindClassifier, cfg)
	require.NoError(t, err)
	require.Len(t, a, 5)
	assert.Equal(t, a, b)
	for i := 1; i < len(a); i++ {
		assert.Less(t, a[i-1].Index, a[i].Index)
	}
}

func TestRank(t *testing.T) {
	results := []CandidateResult{
		{Candidate: Candidate{Index: 0, Complexity: 5}, Status: StatusOK, Score: 0.9},
		{Candidate: Candidate{Index: 1, Complexity: 1}, Status: StatusOK, Score: 0.9},
		{Candidate: Candidate{Index: 2, Complexity: 1}, Status: StatusOK, Score: 0.9},
		{Candidate: Candidate{Index: 3, Complexity: 0}, Status: StatusFailed},
		{Candidate: Candidate{Index: 4, Complexity: 0}, Status: StatusOK, Score: 0.5},
	}
	ranked := Rank(results)
	var order []int
	for _, r := range ranked {
		order = append(order, r.Index)
	}
	assert.Equal(t, []int{1, 2, 0, 4}, order)
}

func TestRunSelectsAndIsDeterministic(t *testing.T) {
	X, y := clusters(20)
	task := model.Task{Kind: model.KindClassifier, NumClasses: 2}
	rec := &recorder{}

	first, err := Run(context.Background(), X, y, task, Options{Config: searchConfig(), Observers: []Observer{rec}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, first.Best.Score)
	assert.Equal(t, y, first.Model.Predict(X))
	assert.Len(t, rec.results, first.Summary.Candidates)
	require.NotNil(t, rec.summary)
	assert.Equal(t, first.Best.Index, rec.summary.Best.Index)
	assert.Equal(t, 5, first.Summary.Folds)

	for i := 0; i < 3; i++ {
		again, err := Run(context.Background(), X, y, task, Options{Config: searchConfig()})
		require.NoError(t, err)
		assert.Equal(t, first.Best.Family, again.Best.Family)
		assert.Equal(t, first.Best.Params, again.Best.Params)
	}
}

func TestRunSingleRowScoresZero(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{3})
	res, err := Run(context.Background(), X, []float64{7}, model.Task{Kind: model.KindRegressor}, Options{Config: searchConfig()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.Folds)
	for _, r := range res.Results {
		assert.Equal(t, StatusOK, r.Status)
		assert.Equal(t, 0.0, r.Score)
	}
	assert.Equal(t, []float64{7}, res.Model.Predict(X))
}

func TestRunRecoversFailures(t *testing.T) {
	X, _ := clusters(10)
	y := make([]float64, 10)
	for i := range y {
		y[i] = 2
	}
	catalogue := []model.Descriptor{
		constFamily("panics", func(model.Params) *constModel { return &constModel{panic: true} }),
		constFamily("fails", func(model.Params) *constModel { return &constModel{fail: true} }),
		constFamily("works", func(p model.Params) *constModel { return &constModel{value: p["v"]} }),
	}
	core, logs := observer.New(zap.DebugLevel)
	rec := &recorder{}

	res, err := Run(context.Background(), X, y, model.Task{Kind: model.KindRegressor}, Options{
		Config:    searchConfig(),
		Catalogue: catalogue,
		Observers: []Observer{rec, NewLogObserver(zap.New(core))},
	})
	require.NoError(t, err)
	assert.Equal(t, "works", res.Best.Family)
	assert.Equal(t, model.Params{"v": 2}, res.Best.Params)
	assert.Equal(t, 4, res.Summary.Failed)
	assert.Equal(t, 2, res.Summary.Evaluated)
	assert.Equal(t, 4, logs.FilterMessage("candidate failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("model selected").Len())

	_, err = Run(context.Background(), X, y, model.Task{Kind: model.KindRegressor}, Options{
		Config:    searchConfig(),
		Catalogue: catalogue[:2],
	})
	require.Error(t, err)
	assert.True(t, errors.IsNoViableModel(err))
}

func TestRunTieBreaksOnComplexity(t *testing.T) {
	X, _ := clusters(10)
	y := make([]float64, 10)
	catalogue := []model.Descriptor{
		constFamily("zero", func(model.Params) *constModel { return &constModel{} }),
	}
	res, err := Run(context.Background(), X, y, model.Task{Kind: model.KindRegressor}, Options{
		Config:    searchConfig(),
		Catalogue: catalogue,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Params{"v": 1}, res.Best.Params, "equal scores go to the lower complexity")
}

func TestRunBudget(t *testing.T) {
	X, y := clusters(20)
	cfg := searchConfig()
	cfg.Workers = 1
	cfg.Budget = time.Nanosecond

	res, err := Run(context.Background(), X, y, model.Task{Kind: model.KindClassifier, NumClasses: 2}, Options{Config: cfg})
	require.NoError(t, err)
	assert.True(t, res.Summary.BudgetExceeded)
	assert.Equal(t, 0, res.Best.Index, "the first candidate always runs")
	assert.Greater(t, res.Summary.Skipped, 0)
}

func TestRunTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	X, y := clusters(10)
	cfg := searchConfig()
	cfg.Families = []string{"knn"}

	_, err := Run(context.Background(), X, y, model.Task{Kind: model.KindClassifier, NumClasses: 2}, Options{
		Config: cfg,
		Tracer: tp.Tracer("test"),
	})
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range sr.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["search.run"])
	assert.Equal(t, 3, names["search.candidate"])
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := Run(context.Background(), &mat.Dense{}, nil, model.Task{Kind: model.KindRegressor}, Options{Config: searchConfig()})
	assert.Error(t, err)

	cfg := searchConfig()
	cfg.Scoring = "accuracy"
	X, y := clusters(4)
	_, err = Run(context.Background(), X, y, model.Task{Kind: model.KindRegressor}, Options{Config: cfg})
	assert.True(t, errors.IsConfigError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, X, y, model.Task{Kind: model.KindClassifier, NumClasses: 2}, Options{Config: searchConfig()})
	assert.Error(t, err)
}
