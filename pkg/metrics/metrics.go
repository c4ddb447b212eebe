// Package metrics exposes model search progress as Prometheus metrics.
//
// # Overview
//
// A Collector implements search.Observer, so it can be handed to a
// predictor with predictor.WithObservers. Every evaluated candidate is
// counted by family and status, its cross-validation time is observed, and
// the winning score and total search time are recorded when the search
// completes.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewWithRegistry(reg)
//	p, err := predictor.New("classifier", predictor.WithObservers(collector))
//
// New registers against the default registerer and panics on duplicate
// registration, like promauto; tests should use NewWithRegistry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/brainless/pkg/search"
)

const namespace = "brainless"

// Collector holds the search metrics.
type Collector struct {
	CandidatesTotal   *prometheus.CounterVec   // Candidates by family and status
	CandidateDuration *prometheus.HistogramVec // Cross-validation time per candidate
	SearchesTotal     *prometheus.CounterVec   // Completed searches by kind and outcome
	SearchDuration    *prometheus.HistogramVec // Wall time of a whole search
	BestScore         *prometheus.GaugeVec     // Score of the last selected candidate
	SkippedTotal      *prometheus.CounterVec   // Candidates not started because of the budget
}

// New creates a collector registered with the default registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CandidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_candidates_total",
				Help:      "Total number of candidates evaluated",
			},
			[]string{"family", "status"},
		),
		CandidateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_candidate_duration_seconds",
				Help:      "Cross-validation time per candidate in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"family"},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of completed model searches",
			},
			[]string{"kind", "outcome"},
		),
		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Model search wall time in seconds",
				Buckets:   []float64{.01, .1, .5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"kind"},
		),
		BestScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "search_best_score",
				Help:      "Cross-validated score of the selected candidate",
			},
			[]string{"kind", "scoring", "family"},
		),
		SkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_budget_skipped_total",
				Help:      "Candidates not started because the search budget was exceeded",
			},
			[]string{"kind"},
		),
	}
}

// CandidateEvaluated implements search.Observer.
func (c *Collector) CandidateEvaluated(r search.CandidateResult) {
	c.CandidatesTotal.WithLabelValues(r.Family, string(r.Status)).Inc()
	if r.Status != search.StatusSkipped {
		c.CandidateDuration.WithLabelValues(r.Family).Observe(r.Duration.Seconds())
	}
}

// SearchCompleted implements search.Observer.
func (c *Collector) SearchCompleted(s search.Summary) {
	kind := string(s.Kind)
	c.SearchDuration.WithLabelValues(kind).Observe(s.Duration.Seconds())
	if s.Skipped > 0 {
		c.SkippedTotal.WithLabelValues(kind).Add(float64(s.Skipped))
	}
	if s.Best == nil {
		c.SearchesTotal.WithLabelValues(kind, "no_viable_model").Inc()
		return
	}
	c.SearchesTotal.WithLabelValues(kind, "selected").Inc()
	c.BestScore.Reset()
	c.BestScore.WithLabelValues(kind, s.Scoring, s.Best.Family).Set(s.Best.Score)
}

// Timer measures an operation from creation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
//
// Example:
//
//	timer := metrics.NewTimer("load")
//	rows, err := source.Load(ctx)
//	logger.Info("data loaded", zap.Duration("duration", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It can be called
// repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
