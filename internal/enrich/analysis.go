package enrich

import (
	"fmt"
	"sort"
)

// State tracks how far an enricher or analysis has progressed.
type State int

// Lifecycle states. An Enricher moves from StateIdle to StateBackgroundSet;
// each Analysis starts in StateAnalyzed and becomes StateCorrected once
// Correct has run.
const (
	StateIdle State = iota
	StateBackgroundSet
	StateAnalyzed
	StateCorrected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackgroundSet:
		return "background-set"
	case StateAnalyzed:
		return "analyzed"
	case StateCorrected:
		return "corrected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TermResult holds the outcome of testing one term against a query.
type TermResult struct {
	ID        string
	Name      string
	Namespace string

	CategorySize   int // n, propagated background size
	QuerySize      int // N, distinct query entries
	PopulationSize int // M
	HitCount       int // x, |query ∩ background|
	Hits           []string

	P           float64
	Q           float64 // set by Correct
	Significant bool    // set by Correct
}

// Analysis is the per-query result of an enrichment run. Only terms that
// passed all filters are present.
type Analysis struct {
	results        map[string]*TermResult
	populationSize int
	querySize      int
	state          State
	method         Method
	alpha          float64
}

// State returns StateAnalyzed or StateCorrected.
func (a *Analysis) State() State {
	return a.state
}

// Method returns the correction method, or "" before correction.
func (a *Analysis) Method() Method {
	return a.method
}

// Alpha returns the significance level used by the correction.
func (a *Analysis) Alpha() float64 {
	return a.alpha
}

// PopulationSize returns M.
func (a *Analysis) PopulationSize() int {
	return a.populationSize
}

// QuerySize returns N.
func (a *Analysis) QuerySize() int {
	return a.querySize
}

// Len returns the number of tested terms.
func (a *Analysis) Len() int {
	return len(a.results)
}

// Result returns the result for a term, or nil if it was not tested.
func (a *Analysis) Result(id string) *TermResult {
	return a.results[id]
}

// PValues returns the raw p-value of every tested term.
func (a *Analysis) PValues() map[string]float64 {
	out := make(map[string]float64, len(a.results))
	for id, r := range a.results {
		out[id] = r.P
	}
	return out
}

// Results returns every tested term ordered by q, then p, then id.
func (a *Analysis) Results() []*TermResult {
	out := make([]*TermResult, 0, len(a.results))
	for _, r := range a.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		if out[i].P != out[j].P {
			return out[i].P < out[j].P
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Significant returns the significant terms in Results order.
func (a *Analysis) Significant() []*TermResult {
	var out []*TermResult
	for _, r := range a.Results() {
		if r.Significant {
			out = append(out, r)
		}
	}
	return out
}

// Top returns at most k results in Results order. k <= 0 returns all.
func (a *Analysis) Top(k int) []*TermResult {
	all := a.Results()
	if k <= 0 || k >= len(all) {
		return all
	}
	return all[:k]
}

// CalculatePValues tests every term of the background against the query and
// returns an Analysis holding the terms that pass the size window
// [MinCategorySize, MaxCategorySize] and have at least MinHitSize hits.
// A nil background tests nothing.
func CalculatePValues(bg *Background, query []string, opts Options) (*Analysis, error) {
	querySet := make(map[string]struct{}, len(query))
	for _, q := range query {
		querySet[q] = struct{}{}
	}

	a := &Analysis{
		results:   make(map[string]*TermResult),
		querySize: len(querySet),
		state:     StateAnalyzed,
	}
	if bg == nil {
		return a, nil
	}
	a.populationSize = bg.m

	for _, id := range bg.graph.IDs() {
		background := bg.sets[id]
		n := len(background)
		if n < opts.MinCategorySize || n > opts.MaxCategorySize {
			continue
		}

		var hits []string
		for q := range querySet {
			if _, ok := background[q]; ok {
				hits = append(hits, q)
			}
		}
		x := len(hits)
		if x < opts.MinHitSize {
			continue
		}
		if a.querySize > bg.m {
			return nil, fmt.Errorf("%w: %d query entries exceed population size %d", ErrInvalidQuery, a.querySize, bg.m)
		}
		sort.Strings(hits)

		term := bg.graph.Term(id)
		a.results[id] = &TermResult{
			ID:             id,
			Name:           term.Name,
			Namespace:      term.Namespace,
			CategorySize:   n,
			QuerySize:      a.querySize,
			PopulationSize: bg.m,
			HitCount:       x,
			Hits:           hits,
			P:              HypergeomSF(x, bg.m, n, a.querySize),
		}
	}

	return a, nil
}
