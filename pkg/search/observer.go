package search

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/model"
)

// Status is the outcome of one candidate evaluation.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// CandidateResult is a cross-validated candidate.
type CandidateResult struct {
	Candidate
	Status     Status        `json:"status"`
	Score      float64       `json:"score"`
	FoldScores []float64     `json:"fold_scores,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// Summary describes a finished search.
type Summary struct {
	Kind           model.Kind       `json:"kind"`
	Scoring        string           `json:"scoring"`
	Folds          int              `json:"folds"`
	Candidates     int              `json:"candidates"`
	Evaluated      int              `json:"evaluated"`
	Failed         int              `json:"failed"`
	Skipped        int              `json:"skipped"`
	BudgetExceeded bool             `json:"budget_exceeded"`
	Best           *CandidateResult `json:"best,omitempty"`
	Duration       time.Duration    `json:"duration"`
}

// Observer receives search progress. Calls are serialised by the search,
// so implementations need not lock.
type Observer interface {
	CandidateEvaluated(r CandidateResult)
	SearchCompleted(s Summary)
}

// LogObserver logs candidate results at debug, failures at warn and the
// selection at info.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a logging observer.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// CandidateEvaluated implements Observer.
func (o *LogObserver) CandidateEvaluated(r CandidateResult) {
	fields := []zap.Field{
		zap.Int("candidate", r.Index),
		zap.String("family", r.Family),
		zap.String("params", r.Params.String()),
		zap.Duration("duration", r.Duration),
	}
	switch r.Status {
	case StatusOK:
		o.logger.Debug("candidate evaluated", append(fields, zap.Float64("score", r.Score))...)
	case StatusFailed:
		o.logger.Warn("candidate failed", append(fields, zap.Error(r.Err))...)
	case StatusSkipped:
		o.logger.Debug("candidate skipped, budget exceeded", fields...)
	}
}

// SearchCompleted implements Observer.
func (o *LogObserver) SearchCompleted(s Summary) {
	fields := []zap.Field{
		zap.String("kind", string(s.Kind)),
		zap.String("scoring", s.Scoring),
		zap.Int("folds", s.Folds),
		zap.Int("candidates", s.Candidates),
		zap.Int("evaluated", s.Evaluated),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
		zap.Bool("budget_exceeded", s.BudgetExceeded),
		zap.Duration("duration", s.Duration),
	}
	if s.Best == nil {
		o.logger.Warn("search found no viable model", fields...)
		return
	}
	o.logger.Info("model selected", append(fields,
		zap.String("family", s.Best.Family),
		zap.String("params", s.Best.Params.String()),
		zap.Float64("score", s.Best.Score),
	)...)
}
