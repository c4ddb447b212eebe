// Package brainless builds a complete supervised learning pipeline for
// tabular data from a handful of rows and a role declaration.
//
// The first training row names the column roles: one column is the output,
// and the rest are declared categorical, text, numeric or ignored. Columns
// that are not declared are treated as numeric. Brainless turns the rows
// into a feature matrix, searches a set of model families with k-fold cross
// validation and keeps the best scoring candidate for prediction.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/brainless/pkg/predictor"
//	    "github.com/ajitpratap0/brainless/pkg/record"
//	)
//
//	p, err := predictor.New("classifier")
//	if err != nil {
//	    return err
//	}
//
//	rows := []record.Record{
//	    {"is_red": "output", "colour": "categorical"},
//	    {"is_red": "yes", "colour": "red", "weight": 120},
//	    {"is_red": "no", "colour": "green", "weight": 95},
//	    // ...
//	}
//	if err := p.Train(context.Background(), rows); err != nil {
//	    return err
//	}
//	labels, err := p.Predict([]record.Record{{"colour": "red", "weight": 110}})
//
// # Packages
//
//	pkg/schema       - Role header parsing and column type inference
//	pkg/transform    - Per-column transformers (one-hot, text, numeric)
//	pkg/pipeline     - Feature pipeline assembling the transformers
//	pkg/model        - Model families for classification and regression
//	pkg/search       - Cross-validated model search
//	pkg/predictor    - Train, predict and score facade
//	pkg/snapshot     - Compressed, versioned predictor snapshots
//	pkg/dataset      - Training data sources (files, SQL, MongoDB, BigQuery)
//	pkg/store        - Snapshot storage (local files, S3, GCS)
//	pkg/config       - YAML configuration
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus search metrics
//	pkg/observability - OpenTelemetry tracing
//
// # Command line
//
//	brainless train --kind classifier --data fruit.json --out models/fruit.snap
//	brainless predict --model models/fruit.snap --data rows.jsonl --proba
//	brainless describe --data fruit.csv --source csv
//	brainless inspect --model s3://bucket/models/fruit.snap
package brainless
