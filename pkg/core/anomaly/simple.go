// Package anomaly detects statistical and feature-based irregularities in a dataset.
package anomaly

import (
	"math"

	"valuation_engine/pkg/core/calc"
)

// SimpleResult is the z-score style anomaly measure over a value set.
type SimpleResult struct {
	Score          float64        `json:"anomaly_score"`
	Mean           float64        `json:"mean"`
	StdDev         float64        `json:"std_dev"`
	Count          int            `json:"count"`
	Interpretation string         `json:"interpretation"`
	Benford        *BenfordResult `json:"benford,omitempty"`
}

// Simple scores the largest deviation from the mean in population standard
// deviations. The score is 0 when there are no values or they are all equal.
func Simple(values []float64) SimpleResult {
	res := SimpleResult{Count: len(values)}
	if len(values) == 0 {
		res.Interpretation = InterpretScore(0)
		return res
	}

	mean := calc.Mean(values)
	std := calc.PopStdDev(values)

	var score float64
	if std > 0 {
		var maxDev float64
		for _, v := range values {
			maxDev = math.Max(maxDev, math.Abs(v-mean))
		}
		score = maxDev / std
	}

	res.Score = calc.Round(score, 4)
	res.Mean = calc.Round(mean, 4)
	res.StdDev = calc.Round(std, 4)
	res.Interpretation = InterpretScore(res.Score)
	if len(values) >= MinBenfordSample {
		b := Benford(values)
		res.Benford = &b
	}
	return res
}

// InterpretScore maps a simple anomaly score to a label.
func InterpretScore(score float64) string {
	switch {
	case score > 2:
		return "highly abnormal"
	case score > 1:
		return "signs of abnormality"
	default:
		return "normal"
	}
}
