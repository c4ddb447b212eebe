// Package search selects a model by k-fold cross validation.
//
// Every candidate (a family plus one hyperparameter combination) is scored
// on the same folds. Candidates run on a bounded worker group; a failing
// candidate is recorded and skipped, and only a search in which every
// candidate failed is an error. Ties go to the lower complexity candidate.
package search

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/logger"
	"github.com/ajitpratap0/brainless/pkg/model"
)

const tracerName = "github.com/ajitpratap0/brainless/pkg/search"

// Options configures a search run.
type Options struct {
	Config    config.SearchConfig
	Logger    *zap.Logger
	Observers []Observer
	Tracer    trace.Tracer
	// Catalogue replaces model.Families() as the searched families.
	Catalogue []model.Descriptor
}

// Result is the outcome of a search.
type Result struct {
	// Model is the winner refit on the full matrix.
	Model model.Model
	// Best is the winning candidate.
	Best CandidateResult
	// Task is the task the winner was built for.
	Task model.Task
	// Results holds every candidate in enumeration order.
	Results []CandidateResult
	Summary Summary
}

// Run cross-validates every candidate on X and y, then refits the best one
// on the full matrix. Classifier targets are class indices.
func Run(ctx context.Context, X *mat.Dense, y []float64, task model.Task, opts Options) (*Result, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.For("search")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	task.Seed = cfg.Seed

	scorer, err := model.ScorerFor(task.Kind, cfg.Scoring)
	if err != nil {
		return nil, err
	}
	catalogue := opts.Catalogue
	if catalogue == nil {
		catalogue = model.Families()
	}
	candidates, err := enumerate(catalogue, task.Kind, cfg)
	if err != nil {
		return nil, err
	}
	rows, cols := 0, 0
	if !X.IsEmpty() {
		rows, cols = X.Dims()
	}
	if rows == 0 || cols == 0 || rows != len(y) {
		return nil, errors.Newf(errors.ErrorTypeData, "search needs a non-empty matrix with one target per row (rows=%d targets=%d)", rows, len(y))
	}

	ctx, span := tracer.Start(ctx, "search.run", trace.WithAttributes(
		attribute.String("kind", string(task.Kind)),
		attribute.String("scoring", scorer.Name),
		attribute.Int("rows", rows),
		attribute.Int("features", cols),
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()

	folds := Folds(rows, cfg.Folds, cfg.Seed)
	parts := splits(X, y, folds)

	s := &run{
		families: make(map[string]model.Descriptor, len(catalogue)),
		task:     task,
		scorer:   scorer,
		parts:    parts,
		tracer:   tracer,
		observe:  opts.Observers,
	}
	for _, d := range catalogue {
		s.families[d.Name] = d
	}

	start := time.Now()
	results := make([]CandidateResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.GetWorkers())

	for i, c := range candidates {
		if i > 0 && (s.overBudget(start, cfg.Budget) || gctx.Err() != nil) {
			results[i] = CandidateResult{Candidate: c, Status: StatusSkipped}
			s.report(results[i])
			continue
		}
		i, c := i, c
		g.Go(func() error {
			if i > 0 && s.overBudget(start, cfg.Budget) {
				results[i] = CandidateResult{Candidate: c, Status: StatusSkipped}
			} else {
				results[i] = s.evaluate(gctx, c)
			}
			s.report(results[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "search cancelled")
	}

	summary := Summary{
		Kind:           task.Kind,
		Scoring:        scorer.Name,
		Folds:          len(folds),
		Candidates:     len(candidates),
		BudgetExceeded: s.budgetHit,
	}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			summary.Evaluated++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}

	ranked := Rank(results)
	var (
		winner *CandidateResult
		fitted model.Model
	)
	for i := range ranked {
		m, err := s.fit(ranked[i].Candidate, X, y)
		if err != nil {
			log.Warn("refit failed, trying next candidate",
				zap.String("family", ranked[i].Family),
				zap.String("params", ranked[i].Params.String()),
				zap.Error(err))
			continue
		}
		winner, fitted = &ranked[i], m
		break
	}

	summary.Duration = time.Since(start)
	summary.Best = winner
	s.complete(summary)

	if winner == nil {
		span.SetStatus(codes.Error, "no viable model")
		return nil, errors.Newf(errors.ErrorTypeNoViableModel,
			"all %d candidates failed (%d failed, %d skipped)", len(candidates), summary.Failed, summary.Skipped)
	}

	span.SetAttributes(
		attribute.String("best.family", winner.Family),
		attribute.String("best.params", winner.Params.String()),
		attribute.Float64("best.score", winner.Score),
	)
	return &Result{
		Model:   fitted,
		Best:    *winner,
		Task:    task,
		Results: results,
		Summary: summary,
	}, nil
}

// Rank returns the successful results ordered best first: highest score,
// then lower complexity, then earlier enumeration.
func Rank(results []CandidateResult) []CandidateResult {
	var ok []CandidateResult
	for _, r := range results {
		if r.Status == StatusOK {
			ok = append(ok, r)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		a, b := ok[i], ok[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Complexity != b.Complexity {
			return a.Complexity < b.Complexity
		}
		return a.Index < b.Index
	})
	return ok
}

type run struct {
	families map[string]model.Descriptor
	task     model.Task
	scorer   model.Scorer
	parts    []split
	tracer   trace.Tracer
	observe  []Observer

	mu        sync.Mutex
	budgetHit bool
}

func (s *run) overBudget(start time.Time, budget time.Duration) bool {
	if budget <= 0 || time.Since(start) < budget {
		return false
	}
	s.mu.Lock()
	s.budgetHit = true
	s.mu.Unlock()
	return true
}

func (s *run) report(r CandidateResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.observe {
		o.CandidateEvaluated(r)
	}
}

func (s *run) complete(summary Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.observe {
		o.SearchCompleted(summary)
	}
}

// evaluate scores one candidate as its mean fold score. Without folds the
// score is 0.
func (s *run) evaluate(ctx context.Context, c Candidate) (res CandidateResult) {
	start := time.Now()
	res = CandidateResult{Candidate: c, Status: StatusOK}

	_, span := s.tracer.Start(ctx, "search.candidate", trace.WithAttributes(
		attribute.Int("candidate", c.Index),
		attribute.String("family", c.Family),
		attribute.String("params", c.Params.String()),
	))
	defer func() {
		res.Duration = time.Since(start)
		if res.Status == StatusFailed {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		} else {
			span.SetAttributes(attribute.Float64("score", res.Score))
		}
		span.End()
	}()

	if len(s.parts) == 0 {
		return res
	}

	res.FoldScores = make([]float64, 0, len(s.parts))
	for f, p := range s.parts {
		if err := ctx.Err(); err != nil {
			return failed(res, err)
		}
		m, err := s.fit(c, p.trainX, p.trainY)
		if err != nil {
			return failed(res, err)
		}
		score, err := s.score(m, p.testX, p.testY)
		if err != nil {
			return failed(res, err)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return failed(res, errors.Newf(errors.ErrorTypeData, "fold %d produced a non-finite score", f))
		}
		res.FoldScores = append(res.FoldScores, score)
	}
	sum := 0.0
	for _, v := range res.FoldScores {
		sum += v
	}
	res.Score = sum / float64(len(res.FoldScores))
	return res
}

func failed(res CandidateResult, err error) CandidateResult {
	res.Status = StatusFailed
	res.Err = err
	res.Score = 0
	res.FoldScores = nil
	return res
}

// fit builds and fits a model, turning panics into errors.
func (s *run) fit(c Candidate, X *mat.Dense, y []float64) (m model.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = errors.Newf(errors.ErrorTypeInternal, "%s panicked: %v", c.Family, r)
		}
	}()
	d, ok := s.families[c.Family]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown model family %q", c.Family)
	}
	m, err = d.New(s.task, c.Params)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(X, y); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *run) score(m model.Model, X *mat.Dense, y []float64) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrorTypeInternal, "scoring panicked: %v", r)
		}
	}()
	return s.scorer.Score(m, X, y), nil
}
