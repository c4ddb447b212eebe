package predictor

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/search"
	"github.com/ajitpratap0/brainless/pkg/transform"
)

// Option configures a Predictor.
type Option func(*Predictor)

// WithConfig sets the run configuration. The default is config.NewConfig().
func WithConfig(cfg *config.Config) Option {
	return func(p *Predictor) {
		if cfg != nil {
			p.cfg = cfg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObservers adds search observers, such as the prometheus observer from
// pkg/metrics.
func WithObservers(observers ...search.Observer) Option {
	return func(p *Predictor) {
		p.observers = append(p.observers, observers...)
	}
}

// WithSentiment replaces the lexicon scorer used by nlp columns.
func WithSentiment(s transform.SentimentScorer) Option {
	return func(p *Predictor) {
		p.sentiment = s
	}
}

// WithTracer sets the tracer for training spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Predictor) {
		p.tracer = tracer
	}
}
