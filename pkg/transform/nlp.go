package transform

import (
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

// Auxiliary text statistics appended after the TF-IDF block, in order.
var auxFeatures = []string{"_length", "_punctuation", "_uppercase", "_sentiment"}

// NLP extracts TF-IDF term weights plus text statistics from free text.
type NLP struct {
	column string
	opts   Options
}

// NLPState is the fitted state of an nlp column. Vocabulary is sorted and
// IDF is aligned with it.
type NLPState struct {
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`
	Documents  int       `json:"documents"`
	StopWords  bool      `json:"stop_words"`
}

// Column implements Transformer.
func (n *NLP) Column() string { return n.column }

// Role implements Transformer.
func (n *NLP) Role() schema.Role { return schema.RoleNLP }

// Fit learns the vocabulary and inverse document frequencies. Missing and
// non-text values are empty documents; at least one value must be text.
func (n *NLP) Fit(values []Value) (Fitted, error) {
	tok := NewTokenizer(n.opts.StopWords)

	df := make(map[string]int)
	valid := 0
	for _, v := range values {
		text, ok := textOf(v)
		if !ok {
			continue
		}
		valid++
		seen := make(map[string]bool)
		for _, term := range tok.Tokenize(text) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	if valid == 0 {
		return nil, emptyColumn(n.column, schema.RoleNLP)
	}

	type termDF struct {
		term string
		df   int
	}
	candidates := make([]termDF, 0, len(df))
	for term, count := range df {
		if count >= n.opts.MinDocumentFrequency {
			candidates = append(candidates, termDF{term, count})
		}
	}
	// Most frequent first; the term breaks ties so the cut is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].df != candidates[j].df {
			return candidates[i].df > candidates[j].df
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > n.opts.MaxVocabulary {
		n.opts.Logger.Debug("vocabulary truncated",
			zap.String("column", n.column),
			zap.Int("terms", len(candidates)),
			zap.Int("max_vocabulary", n.opts.MaxVocabulary))
		candidates = candidates[:n.opts.MaxVocabulary]
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].term < candidates[j].term })

	docs := len(values)
	state := NLPState{
		Vocabulary: make([]string, len(candidates)),
		IDF:        make([]float64, len(candidates)),
		Documents:  docs,
		StopWords:  n.opts.StopWords,
	}
	for i, c := range candidates {
		state.Vocabulary[i] = c.term
		state.IDF[i] = math.Log(float64(1+docs)/float64(1+c.df)) + 1
	}
	return newFittedNLP(n.column, state, n.opts.Sentiment)
}

func textOf(v Value) (string, bool) {
	if !v.Present {
		return "", false
	}
	return record.ToText(v.V)
}

// FittedNLP is a fitted nlp column.
type FittedNLP struct {
	column    string
	state     NLPState
	index     map[string]int
	tokenizer Tokenizer
	sentiment SentimentScorer
}

func newFittedNLP(column string, state NLPState, sentiment SentimentScorer) (*FittedNLP, error) {
	if len(state.Vocabulary) != len(state.IDF) {
		return nil, errors.Newf(errors.ErrorTypeData,
			"nlp state for column %q has %d terms but %d idf weights", column, len(state.Vocabulary), len(state.IDF))
	}
	if sentiment == nil {
		sentiment = DefaultSentiment()
	}
	index := make(map[string]int, len(state.Vocabulary))
	for i, t := range state.Vocabulary {
		index[t] = i
	}
	return &FittedNLP{
		column:    column,
		state:     state,
		index:     index,
		tokenizer: NewTokenizer(state.StopWords),
		sentiment: sentiment,
	}, nil
}

// Vocabulary returns the learned terms in slot order.
func (f *FittedNLP) Vocabulary() []string {
	out := make([]string, len(f.state.Vocabulary))
	copy(out, f.state.Vocabulary)
	return out
}

func (f *FittedNLP) Column() string    { return f.column }
func (f *FittedNLP) Role() schema.Role { return schema.RoleNLP }

// Width is the vocabulary size plus the auxiliary statistics.
func (f *FittedNLP) Width() int { return len(f.state.Vocabulary) + len(auxFeatures) }

// FeatureNames returns nlp_col_term for each term, then nlp_col__length and
// the other statistics.
func (f *FittedNLP) FeatureNames() []string {
	prefix := "nlp_" + f.column + "_"
	names := make([]string, 0, f.Width())
	for _, t := range f.state.Vocabulary {
		names = append(names, prefix+t)
	}
	for _, a := range auxFeatures {
		names = append(names, prefix+a)
	}
	return names
}

// Transform writes L2-normalised TF-IDF weights followed by rune length,
// punctuation count, uppercase count and sentiment.
func (f *FittedNLP) Transform(v Value, dst []float64) {
	dst = dst[:f.Width()]
	for i := range dst {
		dst[i] = 0
	}
	text, _ := textOf(v)
	if text == "" {
		return
	}

	vocab := len(f.state.Vocabulary)
	for _, term := range f.tokenizer.Tokenize(text) {
		if i, ok := f.index[term]; ok {
			dst[i] += f.state.IDF[i]
		}
	}
	norm := 0.0
	for _, w := range dst[:vocab] {
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range dst[:vocab] {
			dst[i] /= norm
		}
	}

	punct, upper := 0, 0
	for _, r := range text {
		if unicode.IsPunct(r) {
			punct++
		}
		if unicode.IsUpper(r) {
			upper++
		}
	}
	dst[vocab] = float64(utf8.RuneCountInString(text))
	dst[vocab+1] = float64(punct)
	dst[vocab+2] = float64(upper)
	dst[vocab+3] = f.sentiment.Score(text)
}

// State implements Fitted.
func (f *FittedNLP) State() State {
	s := f.state
	s.Vocabulary = f.Vocabulary()
	s.IDF = append([]float64(nil), f.state.IDF...)
	return State{Column: f.column, Role: schema.RoleNLP, NLP: &s}
}
