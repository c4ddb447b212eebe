// Package lexicon is a small valence lexicon and rule-based sentiment scorer
// for English text. Word valences use the AFINN scale (-5..5); the scoring
// rules (negation, boosters, capitalisation and exclamation emphasis, and
// the final normalisation into [-1, 1]) follow the VADER heuristics.
package lexicon

import (
	"math"
	"strings"
	"unicode"
)

const (
	// normalisationAlpha approximates the maximum expected raw sum.
	normalisationAlpha = 15.0
	negationScalar     = -0.74
	boosterIncrement   = 0.293
	capsIncrement      = 0.733
	exclamationStep    = 0.292
	maxExclamations    = 4
)

// Analyzer scores text against a valence lexicon.
type Analyzer struct {
	valence   map[string]float64
	negations map[string]bool
	boosters  map[string]float64
}

// New returns an analyzer over the built-in English lexicon.
func New() *Analyzer {
	return &Analyzer{valence: valence, negations: negations, boosters: boosters}
}

// NewWithWords returns an analyzer whose valences are extended or
// overridden by words.
func NewWithWords(words map[string]float64) *Analyzer {
	merged := make(map[string]float64, len(valence)+len(words))
	for k, v := range valence {
		merged[k] = v
	}
	for k, v := range words {
		merged[strings.ToLower(k)] = v
	}
	return &Analyzer{valence: merged, negations: negations, boosters: boosters}
}

// Valence returns the lexicon value of a lower-case word.
func (a *Analyzer) Valence(word string) (float64, bool) {
	v, ok := a.valence[word]
	return v, ok
}

// Score returns the compound sentiment of text in [-1, 1]. Text without any
// lexicon word scores 0.
func (a *Analyzer) Score(text string) float64 {
	raw := strings.Fields(text)
	if len(raw) == 0 {
		return 0
	}

	words := make([]string, 0, len(raw))
	originals := make([]string, 0, len(raw))
	for _, w := range raw {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		})
		if trimmed == "" {
			continue
		}
		originals = append(originals, trimmed)
		words = append(words, strings.ToLower(trimmed))
	}
	if len(words) == 0 {
		return 0
	}

	mixedCase := hasMixedCase(originals)

	sum := 0.0
	for i, w := range words {
		v, ok := a.valence[w]
		if !ok {
			continue
		}

		if mixedCase && isAllCaps(originals[i]) {
			v += sign(v) * capsIncrement
		}

		// Boosters and negations look back up to three words.
		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := words[i-back]
			if inc, ok := a.boosters[prev]; ok {
				damp := 1.0 - 0.05*float64(back-1)
				v += sign(v) * inc * damp
			}
			if a.negations[prev] || strings.HasSuffix(prev, "n't") {
				v *= negationScalar
			}
		}
		sum += v
	}

	if sum != 0 {
		bangs := strings.Count(text, "!")
		if bangs > maxExclamations {
			bangs = maxExclamations
		}
		sum += sign(sum) * float64(bangs) * exclamationStep
	}

	return normalise(sum)
}

func normalise(sum float64) float64 {
	score := sum / math.Sqrt(sum*sum+normalisationAlpha)
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func isAllCaps(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters > 1
}

// hasMixedCase reports whether some but not all words are shouted.
func hasMixedCase(words []string) bool {
	caps := 0
	for _, w := range words {
		if isAllCaps(w) {
			caps++
		}
	}
	return caps > 0 && caps < len(words)
}
