package enrich

import (
	"github.com/montanaflynn/stats"
)

// Summary describes an analysis at a glance.
type Summary struct {
	Tested             int
	Significant        int
	MedianCategorySize float64
	MedianHitCount     float64
	MinP               float64
	MinQ               float64
}

// Summarize computes summary statistics over the tested terms. All fields
// are zero when nothing was tested.
func (a *Analysis) Summarize() Summary {
	s := Summary{Tested: len(a.results)}
	if s.Tested == 0 {
		return s
	}

	sizes := make(stats.Float64Data, 0, s.Tested)
	hits := make(stats.Float64Data, 0, s.Tested)
	ps := make(stats.Float64Data, 0, s.Tested)
	qs := make(stats.Float64Data, 0, s.Tested)
	for _, r := range a.results {
		sizes = append(sizes, float64(r.CategorySize))
		hits = append(hits, float64(r.HitCount))
		ps = append(ps, r.P)
		qs = append(qs, r.Q)
		if r.Significant {
			s.Significant++
		}
	}

	// Inputs are non-empty, so these cannot fail.
	s.MedianCategorySize, _ = stats.Median(sizes)
	s.MedianHitCount, _ = stats.Median(hits)
	s.MinP, _ = stats.Min(ps)
	s.MinQ, _ = stats.Min(qs)
	return s
}
