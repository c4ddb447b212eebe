// Package dataset loads records for training and prediction from files and
// databases.
//
// Sources are registered by name, like connectors: json, csv, avro,
// postgres, mysql, snowflake, mongodb and bigquery. Every source returns
// plain rows; Training adds the schema header, taken from the source config
// roles or, for JSON files, from the first object.
package dataset

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/logger"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// Source reads every row it addresses.
type Source interface {
	Read(ctx context.Context) ([]record.Record, error)
	Close() error
}

// HeaderCarrier is implemented by sources whose first record may be the
// role header.
type HeaderCarrier interface {
	CarriesHeader() bool
}

// Factory creates a source from its config section.
type Factory func(cfg config.SourceConfig, logger *zap.Logger) (Source, error)

// Registry manages source registration and instantiation.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

func init() {
	for name, f := range map[string]Factory{
		"json":      newJSONSource,
		"csv":       newCSVSource,
		"avro":      newAvroSource,
		"postgres":  newPostgresSource,
		"mysql":     newMySQLSource,
		"snowflake": newSnowflakeSource,
		"mongodb":   newMongoSource,
		"bigquery":  newBigQuerySource,
	} {
		_ = globalRegistry.Register(name, f)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.For("dataset"),
	}
}

// Register registers a source factory.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "source %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open creates the source named by cfg.Type.
func (r *Registry) Open(cfg config.SourceConfig) (Source, error) {
	name := strings.ToLower(cfg.Type)
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "source %s not found", cfg.Type).
			WithDetail("available", r.Names())
	}
	return factory(cfg, r.logger.With(zap.String("source", name)))
}

// Rows reads every row of the source without a header.
func (r *Registry) Rows(ctx context.Context, cfg config.SourceConfig) ([]record.Record, error) {
	src, err := r.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	rows, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("rows loaded", zap.String("source", cfg.Type), zap.Int("rows", len(rows)))
	return rows, nil
}

// Training returns header plus rows, ready for predictor.Train. Configured
// roles win; otherwise a header-carrying source must supply the header as
// its first record.
func (r *Registry) Training(ctx context.Context, cfg config.SourceConfig) ([]record.Record, error) {
	src, err := r.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	rows, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.HasRoles() {
		return append([]record.Record{record.Record(cfg.Header())}, rows...), nil
	}
	if hc, ok := src.(HeaderCarrier); ok && hc.CarriesHeader() {
		return rows, nil
	}
	return nil, errors.Newf(errors.ErrorTypeConfig, "source %s has no header; configure roles", cfg.Type)
}

// Global registry functions

// Register registers a source in the global registry.
func Register(name string, factory Factory) error {
	return globalRegistry.Register(name, factory)
}

// Names lists the sources in the global registry.
func Names() []string {
	return globalRegistry.Names()
}

// Rows reads rows through the global registry.
func Rows(ctx context.Context, cfg config.SourceConfig) ([]record.Record, error) {
	return globalRegistry.Rows(ctx, cfg)
}

// Training reads header plus rows through the global registry.
func Training(ctx context.Context, cfg config.SourceConfig) ([]record.Record, error) {
	return globalRegistry.Training(ctx, cfg)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}

func requireField(source, field, value string) error {
	if value == "" {
		return errors.Newf(errors.ErrorTypeConfig, "%s source requires %s", source, field)
	}
	return nil
}

// limiter stops reading once cfg.Limit rows are collected.
type limiter int

func (l limiter) full(n int) bool {
	return l > 0 && n >= int(l)
}
