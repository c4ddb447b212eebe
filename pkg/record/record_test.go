package record

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		want  float64
		valid bool
	}{
		{"float64", 2.5, 2.5, true},
		{"int", 3, 3, true},
		{"int64", int64(-4), -4, true},
		{"uint8", uint8(7), 7, true},
		{"numeric string", " 1.25 ", 1.25, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"json number", json.Number("12"), 12, true},
		{"nil", nil, 0, false},
		{"word", "red", 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"nan string", "NaN", 0, false},
		{"slice", []int{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToKeyCanonicalForms(t *testing.T) {
	assert.Equal(t, "1", ToKey(1))
	assert.Equal(t, "1", ToKey(int64(1)))
	assert.Equal(t, "1", ToKey(1.0))
	assert.Equal(t, "1", ToKey(json.Number("1.0")))
	assert.Equal(t, "1.5", ToKey(1.5))
	assert.Equal(t, "true", ToKey(true))
	assert.Equal(t, "red", ToKey("red"))
	assert.Equal(t, "", ToKey(nil))
	assert.Equal(t, "[a b]", ToKey([]string{"a", "b"}))
}

func TestLookup(t *testing.T) {
	r := Record{"a": 1, "b": nil}

	v, ok := r.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Lookup("b")
	assert.False(t, ok, "nil counts as missing")

	_, ok = r.Lookup("c")
	assert.False(t, ok)
}

func TestSplit(t *testing.T) {
	header, rows, err := Split([]Record{{"y": "output"}, {"y": 1}, {"y": 2}})
	require.NoError(t, err)
	assert.Equal(t, Record{"y": "output"}, header)
	assert.Len(t, rows, 2)

	_, _, err = Split(nil)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestAttributes(t *testing.T) {
	rows := []Record{{"b": 1, "a": 2}, {"c": 3}, {}}
	assert.Equal(t, []string{"a", "b", "c"}, Attributes(rows))
}

func TestToText(t *testing.T) {
	s, ok := ToText("hello")
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = ToText(12)
	assert.False(t, ok)
}
