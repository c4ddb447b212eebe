// Package store reads and writes snapshot objects addressed by URI.
//
// Supported locations:
//   - a bare path or file:///path: the local filesystem
//   - s3://bucket/key: Amazon S3 through the aws-sdk-go-v2 transfer manager
//   - gs://bucket/object: Google Cloud Storage
//
// Backends register a Factory by scheme, so Open dispatches on the URI.
package store

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/logger"
)

// Store moves whole objects in and out of a backend.
type Store interface {
	// Put writes r to key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader) error
	// Get opens key for reading. A missing object is a file error.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Close releases backend clients.
	Close() error
}

// Location is a parsed store URI.
type Location struct {
	Scheme string
	// Bucket is empty for the file scheme
	Bucket string
	Key    string
}

// String renders the location back into URI form.
func (l Location) String() string {
	if l.Scheme == "file" {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// Options carries backend settings. Each backend reads only its fields.
type Options struct {
	// Region is the AWS region; empty uses the SDK default chain
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO
	Endpoint string
	// PartSize is the S3 multipart size in bytes (0 = SDK default)
	PartSize int64
	// Concurrency bounds S3 multipart transfers (0 = SDK default)
	Concurrency int
	// CredentialsFile is a GCP service-account key
	CredentialsFile string
	Logger          *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.For("store")
}

// ParseLocation parses a store URI. Anything without a scheme is a path.
func ParseLocation(uri string) (Location, error) {
	if uri == "" {
		return Location{}, errors.New(errors.ErrorTypeConfig, "store location is empty")
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: "file", Key: filepath.Clean(uri)}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid store location").
			WithDetail("location", uri)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		path := u.Path
		if u.Host != "" {
			path = filepath.Join(u.Host, u.Path)
		}
		if path == "" {
			return Location{}, errors.New(errors.ErrorTypeConfig, "file location has no path").
				WithDetail("location", uri)
		}
		return Location{Scheme: "file", Key: filepath.Clean(path)}, nil
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, errors.New(errors.ErrorTypeConfig, "location needs a bucket and a key").
			WithDetail("location", uri)
	}
	return Location{Scheme: scheme, Bucket: u.Host, Key: key}, nil
}

// Factory creates a store for a location's bucket.
type Factory func(ctx context.Context, loc Location, opts Options) (Store, error)

// Registry maps URI schemes to store factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// Global registry instance
var globalRegistry = NewRegistry()

func init() {
	_ = globalRegistry.Register("file", newFileStore)
	_ = globalRegistry.Register("s3", newS3Store)
	_ = globalRegistry.Register("gs", newGCSStore)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for scheme.
func (r *Registry) Register(scheme string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[scheme]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "store scheme %s already registered", scheme)
	}
	r.factories[scheme] = factory
	return nil
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for s := range r.factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open parses uri and creates the store that serves it. The returned
// location's Key addresses the object within that store.
func (r *Registry) Open(ctx context.Context, uri string, opts Options) (Store, Location, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, Location{}, err
	}

	r.mu.RLock()
	factory, exists := r.factories[loc.Scheme]
	r.mu.RUnlock()
	if !exists {
		return nil, Location{}, errors.Newf(errors.ErrorTypeConfig, "store scheme %s not supported", loc.Scheme).
			WithDetail("location", uri)
	}

	s, err := factory(ctx, loc, opts)
	if err != nil {
		return nil, Location{}, err
	}
	return s, loc, nil
}

// Write stores the contents of r at uri.
func (r *Registry) Write(ctx context.Context, uri string, src io.Reader, opts Options) error {
	s, loc, err := r.Open(ctx, uri, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Put(ctx, loc.Key, src); err != nil {
		return err
	}
	opts.logger().Debug("object written", zap.String("location", loc.String()))
	return nil
}

// Read returns the object at uri. Closing the reader also closes the store.
func (r *Registry) Read(ctx context.Context, uri string, opts Options) (io.ReadCloser, error) {
	s, loc, err := r.Open(ctx, uri, opts)
	if err != nil {
		return nil, err
	}
	rc, err := s.Get(ctx, loc.Key)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &storeReader{ReadCloser: rc, store: s}, nil
}

type storeReader struct {
	io.ReadCloser
	store Store
}

func (r *storeReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// Global registry functions

// Register adds a factory to the global registry.
func Register(scheme string, factory Factory) error {
	return globalRegistry.Register(scheme, factory)
}

// Open opens uri using the global registry.
func Open(ctx context.Context, uri string, opts Options) (Store, Location, error) {
	return globalRegistry.Open(ctx, uri, opts)
}

// Write stores src at uri using the global registry.
func Write(ctx context.Context, uri string, src io.Reader, opts Options) error {
	return globalRegistry.Write(ctx, uri, src, opts)
}

// Read opens uri using the global registry.
func Read(ctx context.Context, uri string, opts Options) (io.ReadCloser, error) {
	return globalRegistry.Read(ctx, uri, opts)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}

func notFound(loc string, cause error) error {
	return errors.Wrap(cause, errors.ErrorTypeFile, "object not found").WithDetail("location", loc)
}
