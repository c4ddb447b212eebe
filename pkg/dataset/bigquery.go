package dataset

import (
	"context"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// bigQuerySource runs a standard SQL query.
type bigQuerySource struct {
	project         string
	query           string
	credentialsFile string
	limit           limiter
	client          *bigquery.Client
	logger          *zap.Logger
}

func newBigQuerySource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	if err := requireField("bigquery", "project", cfg.Project); err != nil {
		return nil, err
	}
	if err := requireField("bigquery", "query", cfg.Query); err != nil {
		return nil, err
	}
	return &bigQuerySource{
		project:         cfg.Project,
		query:           cfg.Query,
		credentialsFile: cfg.CredentialsFile,
		limit:           limiter(cfg.Limit),
		logger:          logger,
	}, nil
}

func (s *bigQuerySource) Read(ctx context.Context) ([]record.Record, error) {
	if s.client == nil {
		var opts []option.ClientOption
		if s.credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(s.credentialsFile))
		}
		client, err := bigquery.NewClient(ctx, s.project, opts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create BigQuery client")
		}
		s.client = client
	}

	it, err := s.client.Query(s.query).Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "BigQuery query failed")
	}

	var out []record.Record
	for !s.limit.full(len(out)) {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read BigQuery row")
		}
		r := make(record.Record, len(row))
		for k, v := range row {
			if nv := normalize(v); nv != nil {
				r[k] = nv
			}
		}
		out = append(out, r)
	}
	s.logger.Debug("bigquery read complete", zap.Uint64("total_rows", it.TotalRows), zap.Int("rows", len(out)))
	return out, nil
}

func (s *bigQuerySource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
