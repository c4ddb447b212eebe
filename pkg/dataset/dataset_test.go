package dataset

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/testutil"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, "", name, content)
}

func TestJSONTrainingCarriesHeader(t *testing.T) {
	path := writeFile(t, "fruit.json", `[
		{"name": "output", "is_red": "categorical"},
		{"name": "apple", "is_red": true},
		{"name": "banana", "is_red": false}
	]`)

	data, err := Training(context.Background(), config.SourceConfig{Type: "json", Path: path})
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Equal(t, "output", data[0]["name"])
	assert.Equal(t, "apple", data[1]["name"])
}

func TestJSONLinesWithRoles(t *testing.T) {
	path := writeFile(t, "houses.jsonl", "{\"size\": 50, \"price\": 1000}\n{\"size\": 70, \"price\": 1400}\n{\"size\": 90}\n")
	cfg := config.SourceConfig{
		Type:  "JSON",
		Path:  path,
		Roles: map[string]string{"price": "output"},
		Limit: 2,
	}

	data, err := Training(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Equal(t, record.Record{"price": "output"}, data[0])
	assert.Equal(t, 70.0, data[2]["size"])

	rows, err := Rows(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCSV(t *testing.T) {
	path := writeFile(t, "fruit.csv", "name; weight ;is_red;notes\n# skipped\napple; 150;true;crunchy\nbanana;NA;false;\ncherry;5\n")
	cfg := config.SourceConfig{
		Type: "csv",
		Path: path,
		CSV: config.CSVSourceConfig{
			Delimiter:  ";",
			Comment:    "#",
			NullValues: []string{"NA"},
			TrimSpaces: true,
			InferTypes: true,
		},
	}

	rows, err := Rows(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, record.Record{"name": "apple", "weight": int64(150), "is_red": true, "notes": "crunchy"}, rows[0])
	assert.Equal(t, record.Record{"name": "banana", "is_red": false}, rows[1])
	assert.Equal(t, record.Record{"name": "cherry", "weight": int64(5)}, rows[2])

	cfg.CSV.InferTypes = false
	rows, err = Rows(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "150", rows[0]["weight"])
}

func TestCSVNeedsRolesForTraining(t *testing.T) {
	path := writeFile(t, "rows.csv", "a,b\n1,2\n")
	_, err := Training(context.Background(), config.SourceConfig{Type: "csv", Path: path})
	assert.True(t, errors.IsConfigError(err))

	data, err := Training(context.Background(), config.SourceConfig{Type: "csv", Path: path, Roles: map[string]string{"b": "output"}})
	require.NoError(t, err)
	assert.Len(t, data, 2)
}

func TestCSVRejectsLongDelimiter(t *testing.T) {
	_, err := GetRegistry().Open(config.SourceConfig{Type: "csv", Path: "x.csv", CSV: config.CSVSourceConfig{Delimiter: "::"}})
	assert.True(t, errors.IsConfigError(err))
}

func TestAvro(t *testing.T) {
	codec, err := goavro.NewCodec(`{
		"type": "record", "name": "fruit",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "weight", "type": ["null", "double"]},
			{"name": "notes", "type": ["null", "string"]}
		]
	}`)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fruit.avro")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: f, Codec: codec})
	require.NoError(t, err)
	require.NoError(t, w.Append([]map[string]interface{}{
		{"name": "apple", "weight": goavro.Union("double", 150.0), "notes": goavro.Union("string", "crunchy")},
		{"name": "banana", "weight": nil, "notes": nil},
	}))
	require.NoError(t, f.Close())

	rows, err := Rows(context.Background(), config.SourceConfig{Type: "avro", Path: path})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, record.Record{"name": "apple", "weight": 150.0, "notes": "crunchy"}, rows[0])
	assert.Equal(t, record.Record{"name": "banana"}, rows[1])
}

func TestMissingFile(t *testing.T) {
	_, err := Rows(context.Background(), config.SourceConfig{Type: "json", Path: filepath.Join(t.TempDir(), "absent.json")})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestSourceConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SourceConfig
	}{
		{"unknown type", config.SourceConfig{Type: "excel"}},
		{"json without path", config.SourceConfig{Type: "json"}},
		{"postgres without query", config.SourceConfig{Type: "postgres", DSN: "postgres://u@localhost/db"}},
		{"postgres bad dsn", config.SourceConfig{Type: "postgres", DSN: "postgres://user@localhost:notaport/db", Query: "select 1"}},
		{"mysql bad dsn", config.SourceConfig{Type: "mysql", DSN: "no-slash", Query: "select 1"}},
		{"snowflake without dsn", config.SourceConfig{Type: "snowflake", Query: "select 1"}},
		{"mongodb without collection", config.SourceConfig{Type: "mongodb", DSN: "mongodb://localhost", Database: "d"}},
		{"mongodb bad filter", config.SourceConfig{Type: "mongodb", DSN: "mongodb://localhost", Database: "d", Collection: "c", Filter: "{"}},
		{"bigquery without project", config.SourceConfig{Type: "bigquery", Query: "select 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetRegistry().Open(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
		})
	}
}

func TestDatabaseSourcesConstructOffline(t *testing.T) {
	for _, cfg := range []config.SourceConfig{
		{Type: "postgres", DSN: "postgres://user@localhost:5432/db", Query: "select 1"},
		{Type: "mysql", DSN: "user:pass@tcp(localhost:3306)/db", Query: "select 1"},
		{Type: "mongodb", DSN: "mongodb://localhost:27017", Database: "d", Collection: "c", Filter: `{"kind": "fruit"}`},
		{Type: "bigquery", Project: "p", Query: "select 1"},
	} {
		src, err := GetRegistry().Open(cfg)
		require.NoError(t, err, cfg.Type)
		require.NoError(t, src.Close(), cfg.Type)
	}
}

type staticSource []record.Record

func (s staticSource) Read(context.Context) ([]record.Record, error) { return s, nil }
func (s staticSource) Close() error                                  { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("static", func(config.SourceConfig, *zap.Logger) (Source, error) {
		return staticSource{{"a": 1}}, nil
	}))
	assert.True(t, errors.IsConfigError(r.Register("static", nil)))
	assert.Equal(t, []string{"static"}, r.Names())

	rows, err := r.Rows(context.Background(), config.SourceConfig{Type: "static"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.Equal(t, []string{"avro", "bigquery", "csv", "json", "mongodb", "mysql", "postgres", "snowflake"}, Names())
}

func TestNormalize(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Nil(t, normalize(nil))
	assert.Equal(t, "abc", normalize([]byte("abc")))
	assert.Equal(t, int64(1700000000), normalize(at))
	assert.Equal(t, 0.5, normalize(big.NewRat(1, 2)))
	assert.Equal(t, "x", normalize(map[string]interface{}{"string": "x"}))
	assert.Equal(t, "a b", normalize([]interface{}{"a", 3, "b"}))
	assert.Equal(t, 3.5, sqlValue([]byte("3.5"), "DECIMAL"))
	assert.Equal(t, "3.5", sqlValue([]byte("3.5"), "VARCHAR"))
}
