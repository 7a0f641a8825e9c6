package consensus

import "valuation_engine/pkg/core/calc"

// AgreementResult is the share of values equal to the most common one.
type AgreementResult struct {
	Index          float64 `json:"consistency_index"`
	Count          int     `json:"count"`
	Interpretation string  `json:"interpretation"`
}

// Agreement computes the most-common-value ratio over scalar values. An empty
// set is trivially consistent.
func Agreement(values []any) AgreementResult {
	if len(values) == 0 {
		return AgreementResult{Index: 1, Interpretation: interpretIndex(1)}
	}
	counts := make(map[any]int, len(values))
	best := 0
	for _, v := range values {
		counts[v]++
		best = max(best, counts[v])
	}
	idx := calc.Round(float64(best)/float64(len(values)), 4)
	return AgreementResult{Index: idx, Count: len(values), Interpretation: interpretIndex(idx)}
}

func interpretIndex(idx float64) string {
	switch {
	case idx > 0.9:
		return "very consistent"
	case idx > 0.7:
		return "fairly consistent"
	default:
		return "inconsistent"
	}
}
