package main

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/compression"
	"github.com/ajitpratap0/brainless/pkg/dataset"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/logger"
	"github.com/ajitpratap0/brainless/pkg/metrics"
	"github.com/ajitpratap0/brainless/pkg/observability"
	"github.com/ajitpratap0/brainless/pkg/predictor"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/snapshot"
	"github.com/ajitpratap0/brainless/pkg/store"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a predictor and store its snapshot",
		Long: `Train a classifier or regressor from a data source. The first record of a
JSON source is the role header unless --roles is given.

Example:
  brainless train --kind classifier --data fruit.json --out models/fruit.snap
  brainless train --kind regressor --source csv --data houses.csv \
    --roles price=output,area=categorical --out s3://models/houses.snap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.train(cmd.Context())
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().String("kind", "", "Problem kind: classifier or regressor (required)")
	cmd.Flags().String("out", "", "Snapshot location: path, file://, s3:// or gs://")
	cmd.Flags().String("compression", "", "Snapshot compression (none, gzip, zstd, lz4, s2); overrides the config")
	cmd.Flags().Bool("trace", false, "Export spans to stderr")
	cmd.Flags().String("metrics-file", "", "Write search metrics in Prometheus text format to this file")
	cmd.Flags().Duration("timeout", 0, "Abort training after this long (0 = no limit)")
	return cmd
}

func (a *app) train(ctx context.Context) error {
	kind := a.v.GetString("kind")
	if kind == "" {
		return errors.New(errors.ErrorTypeConfig, "--kind is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := a.v.GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	ctx = context.WithValue(ctx, logger.KindKey, kind)
	log := logger.WithContext(ctx).With(zap.String("component", "brainless-cli"))

	opts := []predictor.Option{predictor.WithConfig(a.cfg), predictor.WithLogger(log)}

	if a.v.GetBool("trace") || a.cfg.Observability.EnableTracing {
		tcfg := observability.DefaultConfig()
		tcfg.ServiceVersion = version
		tcfg.Writer = a.errOut
		if _, err := observability.Initialize(tcfg); err != nil {
			return err
		}
		defer func() {
			if err := observability.Shutdown(context.Background()); err != nil {
				log.Warn("failed to flush spans", zap.Error(err))
			}
		}()
		opts = append(opts, predictor.WithTracer(observability.GetTracer()))
	}

	var registry *prometheus.Registry
	metricsFile := a.v.GetString("metrics-file")
	if metricsFile != "" || a.cfg.Observability.EnableMetrics {
		registry = prometheus.NewRegistry()
		opts = append(opts, predictor.WithObservers(metrics.NewWithRegistry(registry)))
	}

	src, err := a.sourceConfig()
	if err != nil {
		return err
	}

	p, err := predictor.New(kind, opts...)
	if err != nil {
		return err
	}

	timer := metrics.NewTimer("load")
	var data []record.Record
	err = observability.Trace(ctx, "dataset.load", map[string]interface{}{"source": src.Type}, func(ctx context.Context) error {
		var err error
		data, err = dataset.Training(ctx, src)
		return err
	})
	if err != nil {
		return err
	}
	log.Info("training data loaded",
		zap.String("source", src.Type),
		zap.Int("records", len(data)),
		zap.Duration("duration", timer.Stop()))

	if err := p.Train(ctx, data); err != nil {
		return err
	}
	summary, err := p.Summary()
	if err != nil {
		return err
	}

	if out := a.v.GetString("out"); out != "" {
		env, err := a.save(ctx, p, out)
		if err != nil {
			return err
		}
		log.Info("snapshot stored",
			zap.String("location", out),
			zap.String("snapshot_id", env.ID),
			zap.String("compression", string(env.Compression)))
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics").WithDetail("path", metricsFile)
		}
	}

	return a.printSummary(runID, summary)
}

func (a *app) save(ctx context.Context, p *predictor.Predictor, out string) (*snapshot.Envelope, error) {
	opts, err := snapshot.OptionsFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	if c := a.v.GetString("compression"); c != "" {
		if opts.Compression, err = compression.ParseAlgorithm(c); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	env, err := snapshot.Save(&buf, p, opts)
	if err != nil {
		return nil, err
	}
	err = observability.Trace(ctx, "snapshot.store", map[string]interface{}{"location": out, "bytes": buf.Len()}, func(ctx context.Context) error {
		return store.Write(ctx, out, &buf, a.storeOptions())
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

func (a *app) storeOptions() store.Options {
	return store.Options{
		Region:          a.v.GetString("aws-region"),
		CredentialsFile: a.cfg.Source.CredentialsFile,
		Logger:          a.log,
	}
}

// trainResult is printed after a successful train.
type trainResult struct {
	RunID    string            `json:"run_id"`
	Summary  predictor.Summary `json:"summary"`
	Duration string            `json:"duration"`
}

func (a *app) printSummary(runID string, s predictor.Summary) error {
	return a.printJSON(trainResult{
		RunID:    runID,
		Summary:  s,
		Duration: s.Duration.Round(time.Millisecond).String(),
	})
}
