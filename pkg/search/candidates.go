package search

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/model"
)

// Candidate is one (family, hyperparameters) point of the search.
// Index is the enumeration position and the final tie-breaker.
type Candidate struct {
	Index      int          `json:"index"`
	Family     string       `json:"family"`
	Params     model.Params `json:"params"`
	Complexity float64      `json:"complexity"`
}

// Candidates enumerates the search space for kind in declaration order:
// families as declared by the model catalogue, grid points as expanded by
// each family space. Family restrictions and grid overrides come from cfg.
// When cfg.MaxCandidates is smaller than the full list, a subset seeded by
// cfg.Seed is kept, still in declaration order.
func Candidates(kind model.Kind, cfg config.SearchConfig) ([]Candidate, error) {
	return enumerate(model.Families(), kind, cfg)
}

func enumerate(catalogue []model.Descriptor, kind model.Kind, cfg config.SearchConfig) ([]Candidate, error) {
	known := make(map[string]bool, len(catalogue))
	for _, d := range catalogue {
		known[d.Name] = true
	}
	allowed, err := allowedFamilies(known, cfg.Families)
	if err != nil {
		return nil, err
	}
	for name := range cfg.Overrides {
		if !known[name] {
			return nil, errors.Newf(errors.ErrorTypeConfig, "override for unknown model family %q", name).
				WithDetail("family", name)
		}
	}

	var out []Candidate
	for _, d := range catalogue {
		space := d.Space
		if o, ok := cfg.Overrides[d.Name]; ok {
			if space, err = space.Override(d.Name, o); err != nil {
				return nil, err
			}
		}
		if !d.Supports(kind) || (allowed != nil && !allowed[d.Name]) {
			continue
		}
		for _, p := range space.Grid() {
			out = append(out, Candidate{
				Index:      len(out),
				Family:     d.Name,
				Params:     p,
				Complexity: d.Complexity(p),
			})
		}
	}
	if len(out) == 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "no model family supports %s problems with the configured families", kind).
			WithDetail("families", strings.Join(cfg.Families, ","))
	}

	if cfg.MaxCandidates > 0 && len(out) > cfg.MaxCandidates {
		rng := rand.New(rand.NewSource(cfg.Seed))
		keep := rng.Perm(len(out))[:cfg.MaxCandidates]
		sort.Ints(keep)
		sampled := make([]Candidate, len(keep))
		for i, k := range keep {
			sampled[i] = out[k]
		}
		out = sampled
	}
	return out, nil
}

func allowedFamilies(known map[string]bool, names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if !known[name] {
			return nil, errors.Newf(errors.ErrorTypeConfig, "unknown model family %q", name).
				WithDetail("family", name)
		}
		allowed[name] = true
	}
	return allowed, nil
}
