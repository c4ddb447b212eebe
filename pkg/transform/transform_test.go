package transform

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

func vals(vs ...interface{}) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Value{V: v, Present: v != nil}
	}
	return out
}

func transformOne(f Fitted, v Value) []float64 {
	dst := make([]float64, f.Width())
	f.Transform(v, dst)
	return dst
}

func TestNumericImputesMean(t *testing.T) {
	tr, err := New(schema.Column{Name: "rooms", Role: schema.RoleNumeric}, Options{})
	require.NoError(t, err)

	f, err := tr.Fit(vals(1, "3", nil, "n/a", true, math.NaN()))
	require.NoError(t, err)

	// valid: 1, 3, true(1)
	assert.InDelta(t, 5.0/3.0, f.(*FittedNumeric).Mean(), 1e-12)
	assert.Equal(t, []float64{7}, transformOne(f, Value{V: 7, Present: true}))
	assert.Equal(t, []float64{f.(*FittedNumeric).Mean()}, transformOne(f, Missing))
	assert.Equal(t, []float64{f.(*FittedNumeric).Mean()}, transformOne(f, Value{V: "junk", Present: true}))
	assert.Equal(t, []string{"rooms"}, f.FeatureNames())
}

func TestEmptyColumns(t *testing.T) {
	roles := []schema.Role{schema.RoleNumeric, schema.RoleCategorical, schema.RoleNLP}
	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			tr, err := New(schema.Column{Name: "c", Role: role}, Options{})
			require.NoError(t, err)
			_, err = tr.Fit(vals(nil, nil))
			require.Error(t, err)
			assert.True(t, errors.IsEmptyColumn(err))
		})
	}

	tr, _ := New(schema.Column{Name: "c", Role: schema.RoleNumeric}, Options{})
	_, err := tr.Fit(vals("a", "b"))
	assert.True(t, errors.IsEmptyColumn(err), "no numeric values at all")
}

func TestNewRejectsNonFeatureRoles(t *testing.T) {
	_, err := New(schema.Column{Name: "y", Role: schema.RoleOutput}, Options{})
	assert.True(t, errors.IsSchemaError(err))
}

func TestCategoricalRoundTrip(t *testing.T) {
	tr, _ := New(schema.Column{Name: "color", Role: schema.RoleCategorical}, Options{})
	f, err := tr.Fit(vals("red", "blue", nil, "red", 1, 1.0))
	require.NoError(t, err)

	cat := f.(*FittedCategorical)
	assert.Equal(t, []string{"red", "blue", "1"}, cat.Categories())
	assert.Equal(t, 4, f.Width())
	assert.Equal(t, []string{"color=red", "color=blue", "color=1", "color=__unknown__"}, f.FeatureNames())

	assert.Equal(t, []float64{1, 0, 0, 0}, transformOne(f, Value{V: "red", Present: true}))
	assert.Equal(t, []float64{0, 1, 0, 0}, transformOne(f, Value{V: "blue", Present: true}))
	assert.Equal(t, []float64{0, 0, 1, 0}, transformOne(f, Value{V: int64(1), Present: true}))
	assert.Equal(t, []float64{0, 0, 0, 1}, transformOne(f, Value{V: "green", Present: true}), "unseen goes to the unknown slot")
	assert.Equal(t, []float64{0, 0, 0, 0}, transformOne(f, Missing), "missing is all zeros")

	// Index is stable across repeated transforms.
	i, ok := cat.Index("blue")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestNLPFeatures(t *testing.T) {
	tr, _ := New(schema.Column{Name: "desc", Role: schema.RoleNLP}, Options{StopWords: true})
	f, err := tr.Fit(vals("Red apple, sweet!", "green apple", nil, 42))
	require.NoError(t, err)

	nlp := f.(*FittedNLP)
	assert.Equal(t, []string{"apple", "green", "red", "sweet"}, nlp.Vocabulary())
	assert.Equal(t, 8, f.Width())
	assert.Equal(t, []string{
		"nlp_desc_apple", "nlp_desc_green", "nlp_desc_red", "nlp_desc_sweet",
		"nlp_desc__length", "nlp_desc__punctuation", "nlp_desc__uppercase", "nlp_desc__sentiment",
	}, f.FeatureNames())

	out := transformOne(f, Value{V: "The RED apple!", Present: true})
	// apple and red present, L2-normalised
	tfidf := out[:4]
	sq := 0.0
	for _, w := range tfidf {
		sq += w * w
	}
	assert.InDelta(t, 1.0, sq, 1e-12)
	assert.Greater(t, tfidf[2], tfidf[0], "red is rarer than apple so it weighs more")
	assert.Equal(t, 0.0, tfidf[1])
	assert.Equal(t, 14.0, out[4])
	assert.Equal(t, 1.0, out[5])
	assert.Equal(t, 4.0, out[6])

	empty := transformOne(f, Missing)
	assert.Equal(t, make([]float64, 8), empty)
	assert.Equal(t, empty, transformOne(f, Value{V: 3.5, Present: true}), "non-text is empty text")
}

func TestNLPVocabularyBound(t *testing.T) {
	tr, _ := New(schema.Column{Name: "d", Role: schema.RoleNLP}, Options{MaxVocabulary: 2})
	f, err := tr.Fit(vals("zeta alpha beta", "alpha beta", "alpha gamma"))
	require.NoError(t, err)
	// df: alpha 3, beta 2, gamma 1, zeta 1
	assert.Equal(t, []string{"alpha", "beta"}, f.(*FittedNLP).Vocabulary())

	tr, _ = New(schema.Column{Name: "d", Role: schema.RoleNLP}, Options{MaxVocabulary: 3})
	f, err = tr.Fit(vals("zeta alpha beta", "alpha beta", "alpha gamma"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, f.(*FittedNLP).Vocabulary(), "ties broken by term")

	tr, _ = New(schema.Column{Name: "d", Role: schema.RoleNLP}, Options{MinDocumentFrequency: 2})
	f, err = tr.Fit(vals("zeta alpha beta", "alpha beta", "alpha gamma"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, f.(*FittedNLP).Vocabulary())
}

type constScorer float64

func (c constScorer) Score(string) float64 { return float64(c) }

func TestNLPUsesSentimentScorer(t *testing.T) {
	tr, _ := New(schema.Column{Name: "d", Role: schema.RoleNLP}, Options{Sentiment: constScorer(0.25)})
	f, err := tr.Fit(vals("hello world"))
	require.NoError(t, err)
	out := transformOne(f, Value{V: "hello", Present: true})
	assert.Equal(t, 0.25, out[len(out)-1])
}

func TestTokenizer(t *testing.T) {
	tok := NewTokenizer(true)
	assert.Equal(t, []string{"fine", "café", "42"}, tok.Tokenize("The \ufb01ne Café\u201442"))
	assert.Equal(t, []string{"strasse", "strasse"}, tok.Tokenize("Straße STRASSE"))
	assert.Nil(t, tok.Tokenize(""))

	keep := NewTokenizer(false)
	assert.Equal(t, []string{"the", "end"}, keep.Tokenize("The end."))
}

func TestStateRoundTrip(t *testing.T) {
	cols := []struct {
		role   schema.Role
		values []Value
		input  Value
	}{
		{schema.RoleNumeric, vals(1, 2, 3), Missing},
		{schema.RoleCategorical, vals("a", "b"), Value{V: "b", Present: true}},
		{schema.RoleNLP, vals("good morning", "bad night"), Value{V: "good night", Present: true}},
	}

	for _, c := range cols {
		t.Run(string(c.role), func(t *testing.T) {
			tr, _ := New(schema.Column{Name: "c", Role: c.role}, Options{})
			f, err := tr.Fit(c.values)
			require.NoError(t, err)

			raw, err := json.Marshal(f.State())
			require.NoError(t, err)
			var st State
			require.NoError(t, json.Unmarshal(raw, &st))

			restored, err := FromState(st, Options{})
			require.NoError(t, err)
			assert.Equal(t, f.FeatureNames(), restored.FeatureNames())
			assert.Equal(t, transformOne(f, c.input), transformOne(restored, c.input))
		})
	}

	_, err := FromState(State{Column: "x", Role: schema.RoleNLP}, Options{})
	assert.Error(t, err)
}

func TestLabelEncoder(t *testing.T) {
	enc, err := FitLabels([]interface{}{"cat", "dog", nil, "cat", 3})
	require.NoError(t, err)
	assert.Equal(t, 3, enc.Classes())

	i, ok := enc.Encode("dog")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	i, ok = enc.Encode(3.0)
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "cat", enc.Decode(0))
	assert.Nil(t, enc.Decode(9))

	_, err = FitLabels([]interface{}{nil})
	assert.True(t, errors.IsEmptyColumn(err))
}
