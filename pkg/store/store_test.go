package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/testutil"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr bool
	}{
		{uri: "models/fruit.json", want: Location{Scheme: "file", Key: "models/fruit.json"}},
		{uri: "file:///tmp/m.json", want: Location{Scheme: "file", Key: "/tmp/m.json"}},
		{uri: "s3://bucket/runs/m.json", want: Location{Scheme: "s3", Bucket: "bucket", Key: "runs/m.json"}},
		{uri: "GS://bucket/m.json", want: Location{Scheme: "gs", Bucket: "bucket", Key: "m.json"}},
		{uri: "", wantErr: true},
		{uri: "s3://bucket", wantErr: true},
		{uri: "s3:///key", wantErr: true},
		{uri: "file://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseLocation(tt.uri)
			if tt.wantErr {
				assert.True(t, errors.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "s3://b/k/m.json", Location{Scheme: "s3", Bucket: "b", Key: "k/m.json"}.String())
	assert.Equal(t, "/tmp/m.json", Location{Scheme: "file", Key: "/tmp/m.json"}.String())
}

func TestFileWriteRead(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := filepath.Join(t.TempDir(), "nested", "dir", "model.json")
	opts := Options{Logger: testutil.TestLogger(t)}

	require.NoError(t, Write(ctx, path, strings.NewReader(`{"v":1}`), opts))
	require.NoError(t, Write(ctx, "file://"+path, strings.NewReader(`{"v":2}`), opts))

	rc, err := Read(ctx, path, opts)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, `{"v":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileReadMissing(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "absent.json"), Options{Logger: testutil.TestLogger(t)})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestFileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Write(ctx, filepath.Join(t.TempDir(), "m.json"), strings.NewReader("x"), Options{Logger: testutil.TestLogger(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

type memStore struct {
	objects map[string]string
	closed  int
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = string(b)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := m.objects[key]
	if !ok {
		return nil, notFound(key, os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func (m *memStore) Close() error {
	m.closed++
	return nil
}

func TestRegistry(t *testing.T) {
	ctx := testutil.TestContext(t)
	mem := &memStore{objects: map[string]string{}}
	r := NewRegistry()
	require.NoError(t, r.Register("mem", func(_ context.Context, loc Location, _ Options) (Store, error) {
		assert.Equal(t, "b", loc.Bucket)
		return mem, nil
	}))
	assert.True(t, errors.IsConfigError(r.Register("mem", nil)))
	assert.Equal(t, []string{"mem"}, r.Schemes())

	require.NoError(t, r.Write(ctx, "mem://b/x", strings.NewReader("hello"), Options{Logger: testutil.TestLogger(t)}))
	rc, err := r.Read(ctx, "mem://b/x", Options{})
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, 2, mem.closed)

	_, err = r.Read(ctx, "mem://b/y", Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.Equal(t, 3, mem.closed)

	_, _, err = r.Open(ctx, "ftp://host/x", Options{})
	assert.True(t, errors.IsConfigError(err))
}

func TestGlobalSchemes(t *testing.T) {
	assert.Equal(t, []string{"file", "gs", "s3"}, GetRegistry().Schemes())
}
