package anomaly

import (
	"math"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

const (
	// MinPriceHistory is the shortest price series the feature extractor accepts.
	MinPriceHistory = 10
	momentumPeriod  = 5
	defaultSectorPE = 15.0
)

// FeatureNames orders the feature vector handed to a Scorer.
var FeatureNames = []string{
	"volatility", "momentum", "volume_change", "pe_deviation", "pe_ratio", "pb_ratio", "debt_to_equity",
}

// Features are the technical and fundamental signals of one security.
type Features struct {
	Volatility   float64 `json:"volatility"`
	Momentum     float64 `json:"momentum"`
	VolumeChange float64 `json:"volume_change"`
	PEDeviation  float64 `json:"pe_deviation"`
	PE           float64 `json:"pe_ratio"`
	PB           float64 `json:"pb_ratio"`
	DebtToEquity float64 `json:"debt_to_equity"`

	meanPrice float64
}

// Vector returns the features in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{f.Volatility, f.Momentum, f.VolumeChange, f.PEDeviation, f.PE, f.PB, f.DebtToEquity}
}

// ExtractFeatures derives features from price history, volumes and valuation ratios.
func ExtractFeatures(ds dataset.Dataset) (Features, error) {
	prices, _ := ds.FirstFloats("historical_prices", "prices")
	if len(prices) < MinPriceHistory {
		return Features{}, apperr.New(apperr.InsufficientData, "anomaly.ExtractFeatures",
			"need at least %d historical prices, got %d", MinPriceHistory, len(prices))
	}

	deltas := calc.Deltas(prices)
	var momentum float64
	for _, d := range deltas[len(deltas)-momentumPeriod:] {
		momentum += d
	}

	f := Features{
		Volatility: calc.PopStdDev(deltas),
		Momentum:   momentum,
		PB:         ds.FloatOr("pb_ratio", 0),
		meanPrice:  calc.Mean(prices),
	}
	f.DebtToEquity = ds.FloatOr("debt_to_equity", 0)

	if volumes, ok := ds.FirstFloats("historical_volumes", "volumes", "volume"); ok && len(volumes) > 0 {
		mean := calc.Mean(volumes)
		f.VolumeChange = calc.SafeDiv(volumes[len(volumes)-1]-mean, mean)
	}

	pe, ok := ds.Float("pe_ratio")
	if !ok {
		if eps, found := ds.FirstFloat("eps", "earnings"); found && eps > 0 {
			pe, ok = prices[len(prices)-1]/eps, true
		}
	}
	if ok {
		sector := ds.FloatOr("sector_avg_pe", defaultSectorPE)
		f.PE = pe
		f.PEDeviation = calc.SafeDiv(pe-sector, sector)
	}

	return f, nil
}

// RuleFlags lists concrete threshold breaches, independent of any model.
func RuleFlags(f Features) []string {
	flags := []string{}
	if f.meanPrice > 0 && f.Volatility > 0.15*f.meanPrice {
		flags = append(flags, "price volatility exceeds 15% of mean price")
	}
	if math.Abs(f.VolumeChange) > 0.5 {
		flags = append(flags, "volume deviates more than 50% from its average")
	}
	if math.Abs(f.PEDeviation) > 0.3 {
		flags = append(flags, "PE ratio deviates more than 30% from sector average")
	}
	return flags
}
