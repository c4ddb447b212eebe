package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObjects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"array", `[{"a": 1}, {"a": 2}, {"b": "x"}]`, 3},
		{"json lines", "{\"a\": 1}\n{\"a\": 2}\n", 2},
		{"leading whitespace array", "\n  [ {\"a\": 1} ]", 1},
		{"empty", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := DecodeObjects(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, objs, tt.want)
		})
	}
}

func TestDecodeObjectsMalformed(t *testing.T) {
	_, err := DecodeObjects(strings.NewReader(`[{"a": 1},`))
	assert.Error(t, err)
}

func TestStreamingEncoder(t *testing.T) {
	var lines bytes.Buffer
	enc, err := NewStreamingEncoder(&lines, false)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	require.NoError(t, enc.Encode(2))
	require.NoError(t, enc.Close())
	assert.Equal(t, "{\"a\":1}\n2\n", lines.String())

	var arr bytes.Buffer
	enc, err = NewStreamingEncoder(&arr, true)
	require.NoError(t, err)
	require.NoError(t, enc.Encode("x"))
	require.NoError(t, enc.Encode("<y>"))
	require.NoError(t, enc.Close())

	var decoded []string
	require.NoError(t, Unmarshal(arr.Bytes(), &decoded))
	assert.Equal(t, []string{"x", "<y>"}, decoded)
}

func TestMarshalToBuffer(t *testing.T) {
	buf, err := MarshalToBuffer(map[string]float64{"pi": 3.14159})
	require.NoError(t, err)
	defer PutBuffer(buf)
	assert.JSONEq(t, `{"pi": 3.14159}`, buf.String())
}
