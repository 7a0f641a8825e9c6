package anomaly

import (
	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

// Severity levels.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
)

var severityActions = map[string]string{
	SeverityCritical: "investigate immediately and suspend decisions based on this data",
	SeverityHigh:     "review recent filings and trading activity for the flagged signals",
	SeverityModerate: "monitor closely over the coming periods",
	SeverityLow:      "no action required",
}

// EnhancedResult is the model-scored anomaly analysis.
type EnhancedResult struct {
	Features       Features `json:"features"`
	AnomalyScore   float64  `json:"anomaly_score"`
	IsAnomaly      bool     `json:"is_anomaly"`
	Severity       string   `json:"severity"`
	Recommendation string   `json:"recommendation"`
	RuleFlags      []string `json:"rule_flags"`

	Beneish *BeneishResult `json:"beneish,omitempty"`
}

// Enhanced extracts features and scores them with a trained model.
func Enhanced(ds dataset.Dataset, scorer Scorer) (EnhancedResult, error) {
	if scorer == nil {
		return EnhancedResult{}, apperr.New(apperr.ModelNotTrained, "anomaly.Enhanced", "no anomaly model configured")
	}
	f, err := ExtractFeatures(ds)
	if err != nil {
		return EnhancedResult{}, err
	}
	s, err := scorer.Score(f.Vector())
	if err != nil {
		return EnhancedResult{}, err
	}

	severity := Severity(s.Value)
	res := EnhancedResult{
		Features:       roundFeatures(f),
		AnomalyScore:   calc.Round(s.Value, 4),
		IsAnomaly:      s.Anomalous,
		Severity:       severity,
		Recommendation: severityActions[severity],
		RuleFlags:      RuleFlags(f),
	}
	if m, ok := Beneish(ds); ok {
		res.Beneish = &m
	}
	return res, nil
}

// Severity buckets a model score.
func Severity(score float64) string {
	switch {
	case score > 0.8:
		return SeverityCritical
	case score > 0.6:
		return SeverityHigh
	case score > 0.4:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

func roundFeatures(f Features) Features {
	f.Volatility = calc.Round(f.Volatility, 4)
	f.Momentum = calc.Round(f.Momentum, 4)
	f.VolumeChange = calc.Round(f.VolumeChange, 4)
	f.PEDeviation = calc.Round(f.PEDeviation, 4)
	f.PE = calc.Round(f.PE, 4)
	f.PB = calc.Round(f.PB, 4)
	f.DebtToEquity = calc.Round(f.DebtToEquity, 4)
	return f
}
