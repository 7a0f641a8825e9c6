package calc

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Round rounds half away from zero to the given number of decimal places.
// Decimal arithmetic keeps 0.0885 from turning into 0.08849999.
func Round(v float64, places int32) float64 {
	if !IsFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// PopStdDev is the population standard deviation (divides by N).
func PopStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(xs, nil)
	return math.Sqrt(variance)
}

// SampleStdDev is the unbiased standard deviation (divides by N-1).
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// CoefficientOfVariation is population std / |mean|.
// A zero mean yields 0 when every value is zero and 1 otherwise.
func CoefficientOfVariation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Mean(xs)
	std := PopStdDev(xs)
	if mean == 0 {
		if std == 0 {
			return 0
		}
		return 1
	}
	return std / math.Abs(mean)
}

// Percentile returns the p-th percentile (0-100) with linear interpolation
// between closest ranks. xs need not be sorted.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Median of xs.
func Median(xs []float64) float64 {
	return Percentile(xs, 50)
}

// Returns converts a price series into simple period returns.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out = append(out, SafeDiv(prices[i]-prices[i-1], prices[i-1]))
	}
	return out
}

// Deltas returns consecutive differences p[i] - p[i-1].
func Deltas(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}
