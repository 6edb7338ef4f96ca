package enrich

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// HypergeomSF returns P(X >= x) for X ~ Hypergeometric(M, n, N): the
// probability of drawing x or more successes in N draws without
// replacement from a population of M items containing n successes.
//
// The tail is inclusive of x, i.e. 1 - CDF(x-1). It is summed directly
// over the upper support so small probabilities keep full precision.
// NaN is returned for parameters outside the distribution's domain.
func HypergeomSF(x, M, n, N int) float64 {
	if M < 0 || n < 0 || N < 0 || n > M || N > M {
		return math.NaN()
	}

	lo := max(0, N-(M-n))
	hi := min(n, N)
	if x <= lo {
		return 1
	}
	if x > hi {
		return 0
	}

	logTotal := combin.LogGeneralizedBinomial(float64(M), float64(N))
	var p float64
	for k := x; k <= hi; k++ {
		p += math.Exp(logHypergeomTerm(k, M, n, N) - logTotal)
	}
	return math.Min(p, 1)
}

// HypergeomPMF returns P(X = k) for X ~ Hypergeometric(M, n, N).
func HypergeomPMF(k, M, n, N int) float64 {
	if M < 0 || n < 0 || N < 0 || n > M || N > M {
		return math.NaN()
	}
	if k < max(0, N-(M-n)) || k > min(n, N) {
		return 0
	}
	return math.Exp(logHypergeomTerm(k, M, n, N) - combin.LogGeneralizedBinomial(float64(M), float64(N)))
}

// logHypergeomTerm is log(C(n, k) * C(M-n, N-k)).
func logHypergeomTerm(k, M, n, N int) float64 {
	return combin.LogGeneralizedBinomial(float64(n), float64(k)) +
		combin.LogGeneralizedBinomial(float64(M-n), float64(N-k))
}
