package store

import (
	"context"
	stderrors "errors"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// gcsStore transfers objects to and from one Cloud Storage bucket.
type gcsStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	logger *zap.Logger
}

func newGCSStore(ctx context.Context, loc Location, opts Options) (Store, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}
	return &gcsStore{
		client: client,
		bucket: client.Bucket(loc.Bucket),
		name:   loc.Bucket,
		logger: opts.logger().With(zap.String("bucket", loc.Bucket)),
	}, nil
}

func (s *gcsStore) Put(ctx context.Context, key string, r io.Reader) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = "application/json"

	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS").
			WithDetail("bucket", s.name).
			WithDetail("object", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to finalize GCS object").
			WithDetail("bucket", s.name).
			WithDetail("object", key)
	}
	s.logger.Debug("uploaded to GCS", zap.String("object", key), zap.Int64("bytes", n))
	return nil
}

func (s *gcsStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if stderrors.Is(err, storage.ErrObjectNotExist) || stderrors.Is(err, storage.ErrBucketNotExist) {
		return nil, notFound(Location{Scheme: "gs", Bucket: s.name, Key: key}.String(), err)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read from GCS").
			WithDetail("bucket", s.name).
			WithDetail("object", key)
	}
	return r, nil
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}
