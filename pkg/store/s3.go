package store

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// s3Store transfers objects with the S3 upload and download managers.
type s3Store struct {
	bucket     string
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	logger     *zap.Logger
}

func newS3Store(ctx context.Context, loc Location, opts Options) (Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Store{
		bucket: loc.Bucket,
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			if opts.PartSize > 0 {
				u.PartSize = opts.PartSize
			}
			if opts.Concurrency > 0 {
				u.Concurrency = opts.Concurrency
			}
		}),
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			if opts.PartSize > 0 {
				d.PartSize = opts.PartSize
			}
			if opts.Concurrency > 0 {
				d.Concurrency = opts.Concurrency
			}
		}),
		logger: opts.logger().With(zap.String("bucket", loc.Bucket)),
	}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, r io.Reader) error {
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}
	s.logger.Debug("uploaded to S3", zap.String("key", key), zap.String("location", result.Location))
	return nil
}

func (s *s3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	buf := manager.NewWriteAtBuffer(nil)
	n, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		var absent *types.NotFound
		if stderrors.As(err, &missing) || stderrors.As(err, &absent) {
			return nil, notFound(Location{Scheme: "s3", Bucket: s.bucket, Key: key}.String(), err)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to download from S3").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}
	s.logger.Debug("downloaded from S3", zap.String("key", key), zap.Int64("bytes", n))
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func (s *s3Store) Close() error { return nil }
