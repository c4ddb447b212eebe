package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/dataset"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/json"
	"github.com/ajitpratap0/brainless/pkg/predictor"
	"github.com/ajitpratap0/brainless/pkg/snapshot"
	"github.com/ajitpratap0/brainless/pkg/store"
)

func newPredictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict rows with a stored snapshot",
		Long: `Load a snapshot and write one JSON line per input row to stdout.

Example:
  brainless predict --model models/fruit.snap --data new_fruit.json --proba
  brainless predict --model models/house.snap --data houses.csv --intervals 0.05,0.95`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.predict(cmd.Context())
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().String("model", "", "Snapshot location (required)")
	cmd.Flags().Bool("proba", false, "Include class probabilities (classifiers only)")
	cmd.Flags().StringSlice("intervals", nil, "Include prediction intervals at these quantiles (regressors only)")
	return cmd
}

// prediction is one output line.
type prediction struct {
	Row           int                `json:"row"`
	Prediction    interface{}        `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Interval      map[string]float64 `json:"interval,omitempty"`
}

func (a *app) predict(ctx context.Context) error {
	model := a.v.GetString("model")
	if model == "" {
		return errors.New(errors.ErrorTypeConfig, "--model is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p, env, err := a.loadSnapshot(ctx, model)
	if err != nil {
		return err
	}
	a.log.Info("snapshot loaded",
		zap.String("snapshot_id", env.ID),
		zap.String("family", env.Family),
		zap.String("kind", env.Kind))

	quantiles, err := parseQuantiles(a.v.GetStringSlice("intervals"))
	if err != nil {
		return err
	}
	src, err := a.sourceConfig()
	if err != nil {
		return err
	}
	rows, err := dataset.Rows(ctx, src)
	if err != nil {
		return err
	}
	rows = dropHeader(rows)

	preds, err := p.Predict(rows)
	if err != nil {
		return err
	}
	var probas []map[string]float64
	if a.v.GetBool("proba") {
		if probas, err = p.PredictProba(rows); err != nil {
			return err
		}
	}
	var intervals []predictor.Interval
	if len(quantiles) > 0 {
		if intervals, err = p.PredictIntervals(rows, quantiles); err != nil {
			return err
		}
	}

	enc, err := json.NewStreamingEncoder(a.out, false)
	if err != nil {
		return err
	}
	for i, v := range preds {
		line := prediction{Row: i, Prediction: v}
		if probas != nil {
			line.Probabilities = probas[i]
		}
		if intervals != nil {
			line.Interval = intervals[i].Bounds
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return enc.Close()
}

// parseQuantiles parses --intervals values such as "0.05".
func parseQuantiles(values []string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "invalid quantile %q", v)
		}
		out = append(out, q)
	}
	return out, nil
}

func (a *app) loadSnapshot(ctx context.Context, location string) (*predictor.Predictor, *snapshot.Envelope, error) {
	rc, err := store.Read(ctx, location, a.storeOptions())
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	return snapshot.Load(rc, predictor.WithConfig(a.cfg), predictor.WithLogger(a.log))
}

func (a *app) readEnvelope(ctx context.Context, location string) (*snapshot.Envelope, error) {
	rc, err := store.Read(ctx, location, a.storeOptions())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return snapshot.ReadEnvelope(rc)
}
