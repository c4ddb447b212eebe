package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/linkedin/goavro/v2"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/json"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// fileSource holds what every file-backed source needs.
type fileSource struct {
	path   string
	limit  limiter
	logger *zap.Logger
}

func newFileSource(kind string, cfg config.SourceConfig, logger *zap.Logger) (fileSource, error) {
	if err := requireField(kind, "path", cfg.Path); err != nil {
		return fileSource{}, err
	}
	return fileSource{path: cfg.Path, limit: limiter(cfg.Limit), logger: logger}, nil
}

// open returns stdin for "-".
func (f fileSource) open() (io.ReadCloser, error) {
	if f.path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open data file").WithDetail("path", f.path)
	}
	return file, nil
}

func (f fileSource) Close() error { return nil }

// jsonSource reads a JSON array of objects or JSON lines.
type jsonSource struct {
	fileSource
}

func newJSONSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	fs, err := newFileSource("json", cfg, logger)
	if err != nil {
		return nil, err
	}
	return &jsonSource{fileSource: fs}, nil
}

// CarriesHeader implements HeaderCarrier.
func (s *jsonSource) CarriesHeader() bool { return true }

func (s *jsonSource) Read(ctx context.Context) ([]record.Record, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	objects, err := json.DecodeObjects(rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode JSON records").WithDetail("path", s.path)
	}
	if s.limit.full(len(objects)) {
		objects = objects[:s.limit]
	}
	return record.FromMaps(objects), ctx.Err()
}

// csvSource reads a delimited file whose first line names the columns.
type csvSource struct {
	fileSource
	opts  config.CSVSourceConfig
	nulls map[string]bool
}

func newCSVSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	fs, err := newFileSource("csv", cfg, logger)
	if err != nil {
		return nil, err
	}
	for _, opt := range []string{cfg.CSV.Delimiter, cfg.CSV.Comment} {
		if utf8.RuneCountInString(opt) > 1 {
			return nil, errors.New(errors.ErrorTypeConfig, "csv delimiter and comment must be a single character").
				WithDetail("value", opt)
		}
	}
	nulls := map[string]bool{"": true}
	for _, n := range cfg.CSV.NullValues {
		nulls[n] = true
	}
	return &csvSource{fileSource: fs, opts: cfg.CSV, nulls: nulls}, nil
}

func (s *csvSource) Read(ctx context.Context) ([]record.Record, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = s.opts.TrimSpaces
	if s.opts.Delimiter != "" {
		reader.Comma, _ = utf8.DecodeRuneInString(s.opts.Delimiter)
	}
	if s.opts.Comment != "" {
		reader.Comment, _ = utf8.DecodeRuneInString(s.opts.Comment)
	}

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV header").WithDetail("path", s.path)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []record.Record
	for !s.limit.full(len(rows)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV row").WithDetail("path", s.path)
		}
		rows = append(rows, s.toRecord(headers, fields))
	}
	return rows, nil
}

// toRecord leaves null cells absent; short rows leave trailing columns absent.
func (s *csvSource) toRecord(headers, fields []string) record.Record {
	r := make(record.Record, len(headers))
	for i, name := range headers {
		if i >= len(fields) {
			break
		}
		v := fields[i]
		if s.opts.TrimSpaces {
			v = strings.TrimSpace(v)
		}
		if s.nulls[v] {
			continue
		}
		if s.opts.InferTypes {
			r[name] = parseCell(v)
		} else {
			r[name] = v
		}
	}
	return r
}

// avroSource reads an Avro object container file.
type avroSource struct {
	fileSource
}

func newAvroSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	fs, err := newFileSource("avro", cfg, logger)
	if err != nil {
		return nil, err
	}
	return &avroSource{fileSource: fs}, nil
}

func (s *avroSource) Read(ctx context.Context) ([]record.Record, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ocf, err := goavro.NewOCFReader(rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create Avro reader").WithDetail("path", s.path)
	}
	s.logger.Debug("reading avro file", zap.String("schema", ocf.Codec().Schema()))

	var rows []record.Record
	for !s.limit.full(len(rows)) && ocf.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		datum, err := ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read Avro record").WithDetail("path", s.path)
		}
		fields, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.ErrorTypeData, "Avro records must be of record type").WithDetail("path", s.path)
		}
		r := make(record.Record, len(fields))
		for k, v := range fields {
			if nv := normalize(v); nv != nil {
				r[k] = nv
			}
		}
		rows = append(rows, r)
	}
	if err := ocf.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan Avro file").WithDetail("path", s.path)
	}
	return rows, nil
}
