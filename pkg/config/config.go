// Package config provides the unified configuration system for brainless.
// It defines a single Config structure shared by the predictor facade, the
// model search and the CLI, so that a training run is fully described by one
// YAML document.
//
// The configuration is organized into logical sections:
//   - Features: Vocabulary bounds, stop words, role inference
//   - Search: Folds, seed, worker limit, budget, candidate restrictions
//   - Observability: Log level, metrics, tracing
//   - Snapshot: Compression used when a trained predictor is persisted
//   - Source: Where training or prediction data is read from (CLI only)
//
// Example usage:
//
//	cfg := config.NewConfig()
//	cfg.Search.Folds = 3
//	cfg.Search.Budget = 2 * time.Minute
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// Config is the single configuration structure for a training run.
type Config struct {
	// Name identifies the run in logs and snapshots
	Name string `yaml:"name" json:"name"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Features controls how column transformers are fit
	Features FeaturesConfig `yaml:"features" json:"features"`

	// Search controls the model search engine
	Search SearchConfig `yaml:"search" json:"search"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Snapshot controls how trained predictors are persisted
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// Source describes the data source used by the CLI
	Source SourceConfig `yaml:"source" json:"source"`
}

// FeaturesConfig contains feature-engineering settings.
type FeaturesConfig struct {
	// MaxVocabulary bounds the number of terms kept per nlp column
	MaxVocabulary int `yaml:"max_vocabulary" json:"max_vocabulary"`
	// MinDocumentFrequency drops terms seen in fewer training documents
	MinDocumentFrequency int `yaml:"min_document_frequency" json:"min_document_frequency"`
	// StopWords removes common English words before counting terms
	StopWords bool `yaml:"stop_words" json:"stop_words"`
	// InferRoles upgrades undeclared columns to categorical or nlp using the training data
	InferRoles bool `yaml:"infer_roles" json:"infer_roles"`
	// MaxCategoricalCardinality is the distinct-value bound used by role inference
	MaxCategoricalCardinality int `yaml:"max_categorical_cardinality" json:"max_categorical_cardinality"`
}

// SearchConfig contains model search settings.
type SearchConfig struct {
	// Folds is the number of cross-validation folds
	Folds int `yaml:"folds" json:"folds"`
	// Seed drives fold assignment, candidate sampling and stochastic models
	Seed int64 `yaml:"seed" json:"seed"`
	// Workers bounds the number of candidates evaluated concurrently
	Workers int `yaml:"workers" json:"workers"`
	// Budget stops launching new candidates once elapsed (0 = unbounded)
	Budget time.Duration `yaml:"budget" json:"budget"`
	// MaxCandidates caps the candidate list with a seeded sample (0 = all)
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates"`
	// Scoring selects the metric; empty picks the default for the problem kind
	Scoring string `yaml:"scoring" json:"scoring"`
	// Families restricts the model families searched (empty = all eligible)
	Families []string `yaml:"families" json:"families"`
	// Overrides replaces hyperparameter grids: family -> parameter -> values
	Overrides map[string]map[string][]float64 `yaml:"overrides" json:"overrides"`
	// Intervals fits a random forest next to a regressor that is not one,
	// so the predictor can report prediction intervals
	Intervals bool `yaml:"intervals" json:"intervals"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding selects json or console output
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics registers the prometheus search observer
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing installs a tracer provider for search spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
}

// SnapshotConfig contains persistence settings.
type SnapshotConfig struct {
	// Compression selects the codec (none, gzip, zstd, lz4, s2)
	Compression string `yaml:"compression" json:"compression"`
	// Level sets compression ratio vs speed
	Level int `yaml:"level" json:"level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Name:    "brainless",
		Version: "1.0.0",
		Features: FeaturesConfig{
			MaxVocabulary:             1000,
			MinDocumentFrequency:      1,
			StopWords:                 true,
			InferRoles:                false,
			MaxCategoricalCardinality: 50,
		},
		Search: SearchConfig{
			Folds:     5,
			Seed:      42,
			Workers:   runtime.NumCPU(),
			Overrides: make(map[string]map[string][]float64),
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogEncoding: "json",
		},
		Snapshot: SnapshotConfig{
			Compression: "zstd",
			Level:       5,
		},
		Source: SourceConfig{
			Type:  "json",
			Roles: make(map[string]string),
		},
	}
}

var validCompression = map[string]bool{"none": true, "gzip": true, "zstd": true, "lz4": true, "s2": true}

var validScoring = map[string]bool{
	"":         true,
	"accuracy": true, "neg_brier": true,
	"neg_rmse": true, "neg_mae": true, "r2": true,
}

// Validate validates the configuration for correctness.
// It checks value ranges only; family and hyperparameter names are checked by
// the search engine, which owns the model catalogue.
func (c *Config) Validate() error {
	if c.Features.MaxVocabulary <= 0 {
		return configError("features.max_vocabulary must be positive")
	}
	if c.Features.MinDocumentFrequency < 1 {
		return configError("features.min_document_frequency must be at least 1")
	}
	if c.Features.MaxCategoricalCardinality <= 0 {
		return configError("features.max_categorical_cardinality must be positive")
	}
	if c.Search.Folds < 2 {
		return configError("search.folds must be at least 2")
	}
	if c.Search.Workers < 0 {
		return configError("search.workers cannot be negative")
	}
	if c.Search.Budget < 0 {
		return configError("search.budget cannot be negative")
	}
	if c.Search.MaxCandidates < 0 {
		return configError("search.max_candidates cannot be negative")
	}
	if !validScoring[strings.ToLower(c.Search.Scoring)] {
		return configError("search.scoring is not recognized").WithDetail("scoring", c.Search.Scoring)
	}
	if c.Snapshot.Compression != "" && !validCompression[strings.ToLower(c.Snapshot.Compression)] {
		return configError("snapshot.compression is not recognized").WithDetail("compression", c.Snapshot.Compression)
	}
	return nil
}

func configError(msg string) *errors.Error {
	return errors.New(errors.ErrorTypeConfig, msg)
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (s *SearchConfig) GetWorkers() int {
	if s.Workers <= 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}

// HasBudget returns true if the search is time-bounded
func (s *SearchConfig) HasBudget() bool {
	return s.Budget > 0
}

// IsCompressionEnabled returns true if snapshots should be compressed
func (s *SnapshotConfig) IsCompressionEnabled() bool {
	return s.Compression != "" && !strings.EqualFold(s.Compression, "none")
}
