package snapshot

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/compression"
	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/predictor"
	"github.com/ajitpratap0/brainless/pkg/record"
)

func trainedPredictor(t *testing.T) *predictor.Predictor {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Search.Workers = 2
	cfg.Search.Families = []string{"logistic", "decision_tree"}
	p, err := predictor.New("classifier", predictor.WithConfig(cfg), predictor.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	data := []record.Record{{"label": "output", "colour": "categorical", "notes": "nlp"}}
	for i := 0; i < 12; i++ {
		row := record.Record{"size": i, "colour": "red", "notes": "small round fruit", "label": "small"}
		if i >= 6 {
			row = record.Record{"size": i * 3, "colour": "green", "notes": "large heavy melon", "label": "large"}
		}
		data = append(data, row)
	}
	require.NoError(t, p.Train(context.Background(), data))
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := trainedPredictor(t)
	rows := []record.Record{
		{"size": 2, "colour": "red", "notes": "round"},
		{"size": 30, "colour": "green", "notes": "heavy melon"},
	}
	want, err := p.Predict(rows)
	require.NoError(t, err)

	for _, algo := range compression.Algorithms() {
		t.Run(string(algo), func(t *testing.T) {
			var buf bytes.Buffer
			env, err := Save(&buf, p, Options{Compression: algo, Name: "fruit"})
			require.NoError(t, err)
			assert.Equal(t, Format, env.Format)
			assert.Equal(t, algo, env.Compression)
			assert.Equal(t, "classifier", env.Kind)
			assert.NotEmpty(t, env.ID)

			restored, got, err := Load(&buf, predictor.WithLogger(zap.NewNop()))
			require.NoError(t, err)
			assert.Equal(t, env.ID, got.ID)
			assert.Equal(t, "fruit", got.Name)

			preds, err := restored.Predict(rows)
			require.NoError(t, err)
			assert.Equal(t, want, preds)

			before, err := p.Summary()
			require.NoError(t, err)
			after, err := restored.Summary()
			require.NoError(t, err)
			assert.Equal(t, before.Family, after.Family)
			assert.Equal(t, before.Features, after.Features)
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, compression.Zstd, opts.Compression)
	assert.Equal(t, compression.Default, opts.Level)
	assert.Equal(t, "brainless", opts.Name)

	cfg.Snapshot.Compression = "rar"
	_, err = OptionsFromConfig(cfg)
	assert.True(t, errors.IsConfigError(err))
}

func TestSaveUntrained(t *testing.T) {
	p, err := predictor.New("regressor")
	require.NoError(t, err)
	_, err = Save(&bytes.Buffer{}, p, Options{})
	assert.True(t, errors.IsNotTrained(err))
}

func TestReadRejectsForeignInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "hello"},
		{"wrong format", `{"format":"other","version":1}`},
		{"future version", `{"format":"brainless.snapshot","version":99}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeData))
		})
	}
}

func TestEnvelopeDetectsTampering(t *testing.T) {
	p := trainedPredictor(t)
	st, err := p.Snapshot()
	require.NoError(t, err)

	env, err := Encode(st, Options{Compression: compression.None})
	require.NoError(t, err)
	env.Size++
	_, err = env.State()
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	env, err = Encode(st, Options{Compression: compression.Gzip})
	require.NoError(t, err)
	env.Payload = env.Payload[:len(env.Payload)/2]
	_, err = env.State()
	assert.Error(t, err)
}

func TestEnvelopeRejectsOversizedPayload(t *testing.T) {
	p := trainedPredictor(t)
	st, err := p.Snapshot()
	require.NoError(t, err)

	for _, size := range []int{-1, int(compression.DefaultMaxDecompressedSize) + 1} {
		env, err := Encode(st, Options{Compression: compression.Zstd})
		require.NoError(t, err)
		env.Size = size
		_, err = env.State()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	}
}

func TestCodecPoolsAreShared(t *testing.T) {
	a, err := codec(compression.Config{Algorithm: compression.LZ4, Level: compression.Best})
	require.NoError(t, err)
	b, err := codec(compression.Config{Algorithm: compression.LZ4, Level: compression.Best})
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = codec(compression.Config{Algorithm: "rar"})
	assert.True(t, errors.IsConfigError(err))
}

func TestConcurrentEncode(t *testing.T) {
	p := trainedPredictor(t)
	st, err := p.Snapshot()
	require.NoError(t, err)

	var wg sync.WaitGroup
	envs := make([]*Envelope, 8)
	errs := make([]error, 8)
	for i := range envs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			envs[i], errs[i] = Encode(st, Options{Compression: compression.Zstd})
		}(i)
	}
	wg.Wait()

	for i, env := range envs {
		require.NoError(t, errs[i])
		decoded, err := env.State()
		require.NoError(t, err)
		assert.Equal(t, st.Summary.Family, decoded.Summary.Family)
	}
}
