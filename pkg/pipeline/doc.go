// Package pipeline assembles the per-column transformers chosen from a
// schema into one composable feature pipeline.
//
// # Overview
//
// A Pipeline is built from a parsed schema, fit once on the training rows
// and then used unchanged for search-time evaluation and for inference:
//
//	p := pipeline.New(s, pipeline.Options{Logger: logger})
//	if err := p.Fit(rows); err != nil {
//		return err
//	}
//	X, err := p.TransformAll(rows)
//
// # Layout
//
// Features are laid out in schema order: declared columns sorted by name,
// then implicit numeric columns. Each column contributes a fixed block:
//
//   - numeric: one slot, named after the column
//   - categorical: one slot per learned category (col=value) plus col=__unknown__
//   - nlp: one TF-IDF slot per vocabulary term (nlp_col_term) plus length,
//     punctuation, uppercase and sentiment slots (nlp_col__length, ...)
//
// The width is fixed at fit time, so training and inference vectors always
// line up.
//
// # Immutability
//
// Fit stores the fitted state atomically and refuses a second call. Transform,
// TransformAll, Verify and State only read that state and are safe for
// concurrent use.
package pipeline
