package predictor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/model"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/search"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Search.Workers = 2
	return cfg
}

func newPredictor(t *testing.T, kind string, opts ...Option) *Predictor {
	t.Helper()
	p, err := New(kind, append([]Option{WithConfig(testConfig()), WithLogger(zap.NewNop())}, opts...)...)
	require.NoError(t, err)
	return p
}

func fruitData() []record.Record {
	return []record.Record{
		{"name": "output", "is_red": "categorical", "description": "nlp"},
		{"name": "apple", "is_red": true, "description": "sweet and crunchy"},
		{"name": "banana", "is_red": false, "description": "long and soft"},
		{"name": "cherry", "is_red": true},
	}
}

// houseData is a regression set where price grows with size.
func houseData(n int) []record.Record {
	data := []record.Record{{"price": "output", "area": "categorical"}}
	for i := 0; i < n; i++ {
		area := "north"
		if i%3 == 0 {
			area = "south"
		}
		data = append(data, record.Record{
			"size":  50 + i*5,
			"area":  area,
			"price": 1000 + float64(i*5)*20,
		})
	}
	return data
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New("clusterer")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	cfg := config.NewConfig()
	cfg.Search.Folds = 1
	_, err = New("classifier", WithConfig(cfg))
	assert.True(t, errors.IsConfigError(err))
}

func TestFruitScenario(t *testing.T) {
	p := newPredictor(t, "classifier")
	require.NoError(t, p.Train(context.Background(), fruitData()))

	preds, err := p.Predict([]record.Record{{"is_red": true}})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Contains(t, []interface{}{"apple", "banana", "cherry"}, preds[0])

	preds, err = p.Predict(fruitData()[1:])
	require.NoError(t, err)
	assert.Len(t, preds, 3)

	proba, err := p.PredictProba([]record.Record{{"is_red": true}})
	require.NoError(t, err)
	sum := 0.0
	for _, v := range proba[0] {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, proba[0], 3)
}

func TestInvalidRoleLeavesNoState(t *testing.T) {
	p := newPredictor(t, "classifier")
	data := fruitData()
	data[0] = record.Record{"name": "output", "is_red": "foo"}

	err := p.Train(context.Background(), data)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "is_red", e.Detail("attribute"))
	assert.False(t, p.IsTrained())

	_, err = p.Predict([]record.Record{{"is_red": true}})
	assert.True(t, errors.IsNotTrained(err))
}

func TestFailedTrainKeepsPreviousState(t *testing.T) {
	p := newPredictor(t, "classifier")
	require.NoError(t, p.Train(context.Background(), fruitData()))
	before, err := p.Summary()
	require.NoError(t, err)

	err = p.Train(context.Background(), []record.Record{{"name": "output"}, {"colour": "red"}})
	require.Error(t, err)
	assert.True(t, errors.IsEmptyColumn(err))

	after, err := p.Summary()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTrainErrors(t *testing.T) {
	p := newPredictor(t, "regressor")

	assert.True(t, errors.IsSchemaError(p.Train(context.Background(), nil)))
	assert.True(t, errors.IsSchemaError(p.Train(context.Background(), []record.Record{{"a": "output", "b": "output"}})))

	// Non-numeric outputs are dropped for a regressor.
	err := p.Train(context.Background(), []record.Record{{"y": "output"}, {"y": "high", "x": 1}})
	assert.True(t, errors.IsEmptyColumn(err))
}

func TestRegressor(t *testing.T) {
	p := newPredictor(t, "regressor")
	require.NoError(t, p.Train(context.Background(), houseData(30)))

	preds, err := p.Predict([]record.Record{{"size": 100, "area": "north"}, {}})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	v, ok := preds[0].(float64)
	require.True(t, ok)
	assert.InDelta(t, 2000, v, 200)

	score, err := p.Score(houseData(30)[1:])
	require.NoError(t, err)
	assert.Less(t, score, 0.0, "neg_rmse")
	assert.Greater(t, score, -200.0)

	_, err = p.PredictProba([]record.Record{{}})
	assert.Error(t, err)

	summary, err := p.Summary()
	require.NoError(t, err)
	assert.Equal(t, model.KindRegressor, summary.Kind)
	assert.Equal(t, 30, summary.Rows)
	assert.Contains(t, summary.Features, "size")
	assert.Contains(t, summary.Features, "area=__unknown__")
}

func TestTrainPredictInOrder(t *testing.T) {
	data := []record.Record{{"label": "output"}}
	for i := 0; i < 20; i++ {
		label := "low"
		if i >= 10 {
			label = "high"
		}
		data = append(data, record.Record{"x": i, "label": label})
	}
	p := newPredictor(t, "classifier")
	require.NoError(t, p.Train(context.Background(), data))

	preds, err := p.Predict(data[1:])
	require.NoError(t, err)
	require.Len(t, preds, 20)
	assert.Equal(t, "low", preds[0])
	assert.Equal(t, "high", preds[19])

	score, err := p.Score(data[1:])
	require.NoError(t, err)
	assert.Greater(t, score, 0.8)
}

func TestSeededSelectionIsDeterministic(t *testing.T) {
	var first Summary
	for i := 0; i < 3; i++ {
		p := newPredictor(t, "regressor")
		require.NoError(t, p.Train(context.Background(), houseData(25)))
		s, err := p.Summary()
		require.NoError(t, err)
		if i == 0 {
			first = s
			continue
		}
		assert.Equal(t, first.Family, s.Family)
		assert.Equal(t, first.Params, s.Params)
		assert.Equal(t, first.Score, s.Score)
	}
}

func TestTransformAndVerify(t *testing.T) {
	p := newPredictor(t, "classifier")
	_, err := p.Transform(nil)
	assert.True(t, errors.IsNotTrained(err))

	require.NoError(t, p.Train(context.Background(), fruitData()))
	X, err := p.Transform([]record.Record{{"is_red": true}, {"is_red": "purple"}})
	require.NoError(t, err)
	r, c := X.Dims()
	assert.Equal(t, 2, r)
	summary, _ := p.Summary()
	assert.Equal(t, len(summary.Features), c)

	report, err := p.VerifyFeatures([]record.Record{{"is_red": true, "shape": "round"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"description"}, report.MissingFromPrediction)
	assert.Equal(t, []string{"shape"}, report.UnknownToTraining)
}

func TestInferRoles(t *testing.T) {
	cfg := testConfig()
	cfg.Features.InferRoles = true
	p, err := New("classifier", WithConfig(cfg), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	data := []record.Record{{"label": "output"}}
	for i := 0; i < 12; i++ {
		colour := "red"
		label := "a"
		if i%2 == 1 {
			colour, label = "blue", "b"
		}
		data = append(data, record.Record{"colour": colour, "label": label})
	}
	require.NoError(t, p.Train(context.Background(), data))
	summary, err := p.Summary()
	require.NoError(t, err)
	assert.Contains(t, summary.Features, "colour=red")

	preds, err := p.Predict([]record.Record{{"colour": "blue"}})
	require.NoError(t, err)
	assert.Equal(t, "b", preds[0])
}

type countingObserver struct {
	mu         sync.Mutex
	candidates int
	completed  int
}

func (o *countingObserver) CandidateEvaluated(search.CandidateResult) {
	o.mu.Lock()
	o.candidates++
	o.mu.Unlock()
}

func (o *countingObserver) SearchCompleted(search.Summary) {
	o.mu.Lock()
	o.completed++
	o.mu.Unlock()
}

func TestObserversAndConcurrentPredict(t *testing.T) {
	obs := &countingObserver{}
	p := newPredictor(t, "regressor", WithObservers(obs))
	require.NoError(t, p.Train(context.Background(), houseData(20)))
	assert.Equal(t, 1, obs.completed)
	assert.Equal(t, 16, obs.candidates)

	want, err := p.Predict([]record.Record{{"size": 70}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Predict([]record.Record{{"size": 70}})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestSnapshotRoundTrip(t *testing.T) {
	p := newPredictor(t, "classifier")
	require.NoError(t, p.Train(context.Background(), fruitData()))

	st, err := p.Snapshot()
	require.NoError(t, err)
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored, err := FromSnapshot(&decoded, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	rows := []record.Record{{"is_red": true}, {"is_red": false, "description": "soft"}, {}}
	a, err := p.Predict(rows)
	require.NoError(t, err)
	b, err := restored.Predict(rows)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s1, _ := p.Summary()
	s2, _ := restored.Summary()
	assert.Equal(t, s1.Family, s2.Family)

	_, err = FromSnapshot(&State{Version: 99})
	assert.Error(t, err)

	_, err = New("classifier", WithLogger(zap.NewNop()))
	require.NoError(t, err)
	empty := newPredictor(t, "classifier")
	_, err = empty.Snapshot()
	assert.True(t, errors.IsNotTrained(err))
}
