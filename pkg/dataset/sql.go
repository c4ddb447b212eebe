package dataset

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// postgresSource runs a query through a pgx pool.
type postgresSource struct {
	query  string
	limit  limiter
	pool   *pgxpool.Pool
	config *pgxpool.Config
	logger *zap.Logger
}

func newPostgresSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	if err := requireField("postgres", "dsn", cfg.DSN); err != nil {
		return nil, err
	}
	if err := requireField("postgres", "query", cfg.Query); err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid postgres connection string")
	}
	poolConfig.MaxConns = 2
	return &postgresSource{
		query:  cfg.Query,
		limit:  limiter(cfg.Limit),
		config: poolConfig,
		logger: logger,
	}, nil
}

func (s *postgresSource) Read(ctx context.Context) ([]record.Record, error) {
	if s.pool == nil {
		pool, err := pgxpool.NewWithConfig(ctx, s.config)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to postgres")
		}
		s.pool = pool
	}

	rows, err := s.pool.Query(ctx, s.query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to run postgres query")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var out []record.Record
	for !s.limit.full(len(out)) && rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to get row values")
		}
		r := make(record.Record, len(columns))
		for i, v := range values {
			if nv := normalizePostgres(v); nv != nil {
				r[columns[i]] = nv
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "postgres query failed")
	}
	s.logger.Debug("postgres query complete", zap.Int("rows", len(out)))
	return out, nil
}

func (s *postgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

// sqlSource runs a query through database/sql. MySQL and Snowflake share it.
type sqlSource struct {
	name   string
	query  string
	limit  limiter
	db     *sql.DB
	logger *zap.Logger
}

func newMySQLSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	if err := requireField("mysql", "dsn", cfg.DSN); err != nil {
		return nil, err
	}
	if err := requireField("mysql", "query", cfg.Query); err != nil {
		return nil, err
	}
	dsn, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql connection string")
	}
	dsn.ParseTime = true
	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql configuration")
	}
	return &sqlSource{name: "mysql", query: cfg.Query, limit: limiter(cfg.Limit), db: sql.OpenDB(connector), logger: logger}, nil
}

func newSnowflakeSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	if err := requireField("snowflake", "dsn", cfg.DSN); err != nil {
		return nil, err
	}
	if err := requireField("snowflake", "query", cfg.Query); err != nil {
		return nil, err
	}
	sfConfig, err := gosnowflake.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid snowflake connection string")
	}
	connector := gosnowflake.NewConnector(gosnowflake.SnowflakeDriver{}, *sfConfig)
	return &sqlSource{name: "snowflake", query: cfg.Query, limit: limiter(cfg.Limit), db: sql.OpenDB(connector), logger: logger}, nil
}

func (s *sqlSource) Read(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConnection, "failed to run %s query", s.name)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read column types")
	}
	values := make([]interface{}, len(types))
	ptrs := make([]interface{}, len(types))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var out []record.Record
	for !s.limit.full(len(out)) && rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan row")
		}
		r := make(record.Record, len(types))
		for i, ct := range types {
			if v := sqlValue(values[i], ct.DatabaseTypeName()); v != nil {
				r[ct.Name()] = v
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConnection, "%s query failed", s.name)
	}
	s.logger.Debug("query complete", zap.Int("rows", len(out)))
	return out, nil
}

func (s *sqlSource) Close() error {
	return s.db.Close()
}

// sqlValue parses numeric columns that arrive as text.
func sqlValue(v interface{}, dbType string) interface{} {
	nv := normalize(v)
	if s, ok := nv.(string); ok && numericColumn(dbType) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return nv
}

// normalizePostgres handles pgx types with no plain Go equivalent.
func normalizePostgres(v interface{}) interface{} {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	default:
		return normalize(v)
	}
}
