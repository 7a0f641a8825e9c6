package anomaly

import (
	"math"
	"strconv"

	"valuation_engine/pkg/core/calc"
)

// benfordExpected is the expected frequency for leading digits 1-9
var benfordExpected = [10]float64{0, 0.30103, 0.17609, 0.12494, 0.09691, 0.07918, 0.06695, 0.05799, 0.05115, 0.04576}

// MinBenfordSample is the smallest value count worth testing.
const MinBenfordSample = 20

// BenfordResult holds the analysis of leading digit distribution
type BenfordResult struct {
	TotalCount int     `json:"total_count"`
	MAD        float64 `json:"mad"` // Mean Absolute Deviation
	Flagged    bool    `json:"flagged"`
	Level      string  `json:"level"`
}

// Benford performs first-digit analysis on a set of values.
// Values below 1 in magnitude are ignored.
// Thresholds for MAD:
// - <= 0.010: Low Risk
// - 0.010 - 0.015: Medium Risk
// - > 0.015: High Risk
func Benford(values []float64) BenfordResult {
	var counts [10]int
	processed := 0

	for _, v := range values {
		vAbs := math.Abs(v)
		if vAbs < 1.0 || !calc.IsFinite(vAbs) {
			continue
		}
		s := strconv.FormatFloat(vAbs, 'f', -1, 64)
		for _, c := range s {
			if c >= '1' && c <= '9' {
				counts[c-'0']++
				processed++
				break
			}
		}
	}

	if processed == 0 {
		return BenfordResult{Level: "Insufficient Data"}
	}

	sumDiff := 0.0
	for d := 1; d <= 9; d++ {
		actual := float64(counts[d]) / float64(processed)
		sumDiff += math.Abs(actual - benfordExpected[d])
	}
	mad := sumDiff / 9.0

	res := BenfordResult{TotalCount: processed, MAD: calc.Round(mad, 4), Level: "Low Risk"}
	switch {
	case mad > 0.015:
		res.Level = "High Risk"
		res.Flagged = true
	case mad > 0.010:
		res.Level = "Medium Risk"
	}
	return res
}
