package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/json"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func writeTrainingFile(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, "train.json", testutil.SizesJSON(20))
}

func TestTrainPredictInspect(t *testing.T) {
	dir := t.TempDir()
	data := writeTrainingFile(t, dir)
	model := filepath.Join(dir, "models", "sizes.snap")
	metricsFile := filepath.Join(dir, "metrics.prom")

	out, err := run(t, "train", "--kind", "classifier", "--data", data, "--out", model,
		"--compression", "lz4", "--metrics-file", metricsFile)
	require.NoError(t, err)

	var result trainResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "classifier", string(result.Summary.Kind))
	assert.Greater(t, result.Summary.Score, 0.9)
	assert.FileExists(t, model)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "brainless_search_candidates_total")

	rows := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(rows, []byte("{\"colour\": \"red\", \"size\": 3}\n{\"colour\": \"green\", \"size\": 111}\n"), 0o600))
	out, err = run(t, "predict", "--model", model, "--data", rows, "--proba")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var first, second prediction
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "small", first.Prediction)
	assert.Equal(t, "large", second.Prediction)
	assert.Equal(t, 1, second.Row)
	assert.Contains(t, first.Probabilities, "small")

	out, err = run(t, "inspect", "--model", model)
	require.NoError(t, err)
	assert.Contains(t, out, `"compression": "lz4"`)
	assert.Contains(t, out, `"format": "brainless.snapshot"`)

	out, err = run(t, "inspect", "--model", "file://"+model, "--full")
	require.NoError(t, err)
	assert.Contains(t, out, `"summary"`)
}

func TestTrainRequiresKind(t *testing.T) {
	_, err := run(t, "train", "--data", "x.json")
	assert.True(t, errors.IsConfigError(err))

	_, err = run(t, "train", "--kind", "clusterer", "--data", "x.json")
	assert.True(t, errors.IsConfigError(err))
}

func TestTrainWithRolesFromFlagsAndConfig(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "houses.csv")
	var b strings.Builder
	b.WriteString("size,area,price\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "%d,%s,%d\n", 50+i*5, []string{"north", "south"}[i%2], 1000+i*100)
	}
	require.NoError(t, os.WriteFile(csvPath, []byte(b.String()), 0o600))

	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
search:
  folds: 3
  families: [ridge, knn]
source:
  csv:
    infer_types: true
`), 0o600))

	out, err := run(t, "train", "--config", cfgPath, "--kind", "regressor", "--source", "csv",
		"--data", csvPath, "--roles", "price=output,area=categorical")
	require.NoError(t, err)
	var result trainResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, []string{"ridge", "knn"}, result.Summary.Family)
	assert.Equal(t, 3, result.Summary.Folds)
}

func TestPredictIntervals(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString(`[{"price": "output"}`)
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `,{"size": %d, "price": %d}`, 50+i*5, 1000+i*100)
	}
	b.WriteString("]")
	data := testutil.WriteFile(t, dir, "houses.json", b.String())
	cfgPath := testutil.WriteFile(t, dir, "run.yaml", `
search:
  families: [ridge]
  intervals: true
`)
	model := filepath.Join(dir, "house.snap")
	_, err := run(t, "train", "--config", cfgPath, "--kind", "regressor", "--data", data, "--out", model)
	require.NoError(t, err)

	rows := testutil.WriteFile(t, dir, "rows.jsonl", "{\"size\": 100}\n")
	out, err := run(t, "predict", "--model", model, "--data", rows, "--intervals", "0.1,0.9")
	require.NoError(t, err)
	var line prediction
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &line))
	require.Len(t, line.Interval, 2)
	assert.LessOrEqual(t, line.Interval["0.1"], line.Interval["0.9"])

	_, err = run(t, "predict", "--model", model, "--data", rows, "--intervals", "wide")
	assert.True(t, errors.IsConfigError(err))
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	data := writeTrainingFile(t, dir)

	out, err := run(t, "describe", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "SUGGESTED ROLE")
	assert.Contains(t, out, "--roles ")
	assert.Contains(t, out, "colour=categorical")

	out, err = run(t, "describe", "--data", data, "--json")
	require.NoError(t, err)
	var report []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report, 3)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Brainless v"+version)
}

func TestEnvBinding(t *testing.T) {
	t.Setenv("BRAINLESS_KIND", "regressor")
	_, err := run(t, "train")
	require.Error(t, err)
	// The kind came from the environment, so the failure is about the data.
	assert.False(t, strings.Contains(err.Error(), "--kind is required"))
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles([]string{"price=output", " area = categorical"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"price": "output", "area": "categorical"}, roles)

	_, err = parseRoles([]string{"price"})
	assert.True(t, errors.IsConfigError(err))
}

func TestDropHeader(t *testing.T) {
	header := record.Record{"name": "output", "is_red": "categorical"}
	row := record.Record{"name": "apple", "is_red": true}
	assert.Equal(t, []record.Record{row}, dropHeader([]record.Record{header, row}))
	assert.Equal(t, []record.Record{row}, dropHeader([]record.Record{row}))
	assert.Empty(t, dropHeader(nil))

	// Role-like values without an output are data, not a header.
	notHeader := record.Record{"colour": "categorical"}
	assert.Len(t, dropHeader([]record.Record{notHeader}), 1)
}
