package enrich

import (
	"fmt"
	"sort"
)

// Correct adjusts the p-values of a for multiple testing, writing Q and
// Significant on every tested term and recording method and alpha on the
// analysis.
//
// Bonferroni multiplies each p-value by the number of tests (the result is
// not capped at 1) and flags q < alpha. Benjamini-Hochberg applies the
// step-up false discovery rate procedure and flags q <= alpha.
func Correct(a *Analysis, alpha float64, method Method) error {
	if _, err := ParseMethod(string(method)); err != nil {
		return err
	}
	if err := validateAlpha(alpha); err != nil {
		return err
	}

	switch method {
	case Bonferroni:
		correctBonferroni(a, alpha)
	case BenjaminiHochberg:
		correctBenjaminiHochberg(a, alpha)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	a.method = method
	a.alpha = alpha
	a.state = StateCorrected
	return nil
}

func correctBonferroni(a *Analysis, alpha float64) {
	k := float64(len(a.results))
	for _, r := range a.results {
		r.Q = r.P * k
		r.Significant = r.Q < alpha
	}
}

func correctBenjaminiHochberg(a *Analysis, alpha float64) {
	ranked := make([]*TermResult, 0, len(a.results))
	for _, r := range a.results {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].P != ranked[j].P {
			return ranked[i].P < ranked[j].P
		}
		return ranked[i].ID < ranked[j].ID
	})

	k := float64(len(ranked))
	q := 1.0
	for i := len(ranked) - 1; i >= 0; i-- {
		r := ranked[i]
		if v := r.P * k / float64(i+1); v < q {
			q = v
		}
		r.Q = q
		r.Significant = q <= alpha
	}
}
