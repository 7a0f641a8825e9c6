// Package relative values a company against sector and market earnings multiples.
//
// A single analyzer serves both the rule-based and the heuristic fair-value
// variants; Policy selects between them.
package relative

import (
	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

const (
	DefaultSectorPE     = 15.0
	DefaultMarketPE     = 18.0
	DefaultSectorGrowth = 0.05

	baseConfidence     = 0.9
	missingInfoHaircut = 0.15
	targetBand         = 0.10
)

// Policy selects the analysis variant.
type Policy struct {
	// Heuristic blends growth and risk adjustments into a fair PE.
	Heuristic bool
}

// PEInput holds per-share market data and optional fundamentals.
type PEInput struct {
	Price           float64
	Earnings        float64 // per share
	SectorAvgPE     float64
	MarketAvgPE     float64
	SectorLowPE     float64
	SectorHighPE    float64
	SectorAvgGrowth float64
	ProjectedGrowth *float64
	DebtToEquity    *float64
	CurrentRatio    *float64
	ROE             *float64
	HistoricalPE    []float64
}

// FairValue is the heuristic part of a PE analysis.
type FairValue struct {
	GrowthAdjustment float64  `json:"growth_adjustment"`
	RiskAdjustment   float64  `json:"risk_adjustment"`
	FairPE           float64  `json:"fair_pe"`
	FairPrice        float64  `json:"fair_price"`
	TargetLow        float64  `json:"target_price_low"`
	TargetHigh       float64  `json:"target_price_high"`
	UpsidePct        float64  `json:"upside_pct"`
	HistoricalAvgPE  *float64 `json:"historical_avg_pe,omitempty"`
	Confidence       float64  `json:"confidence"`
}

// PEResult is the outcome of a PE analysis.
type PEResult struct {
	Method      string     `json:"method"`
	PERatio     *float64   `json:"pe_ratio"`
	SectorAvgPE float64    `json:"sector_avg_pe"`
	MarketAvgPE float64    `json:"market_avg_pe"`
	VsSectorPct float64    `json:"vs_sector_pct"`
	VsMarketPct float64    `json:"vs_market_pct"`
	Evaluation  string     `json:"evaluation"`
	FairValue   *FairValue `json:"fair_value,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// InputFromDataset reads price and earnings fields, filling sector defaults.
func InputFromDataset(ds dataset.Dataset) PEInput {
	in := PEInput{
		SectorAvgPE:     ds.FloatOr("sector_avg_pe", DefaultSectorPE),
		MarketAvgPE:     ds.FloatOr("market_avg_pe", DefaultMarketPE),
		SectorAvgGrowth: ds.FloatOr("sector_avg_growth", DefaultSectorGrowth),
		ProjectedGrowth: ds.FloatPtr("projected_growth", "earnings_growth"),
		DebtToEquity:    ds.FloatPtr("debt_to_equity"),
		CurrentRatio:    ds.FloatPtr("current_ratio"),
		ROE:             ds.FloatPtr("roe", "return_on_equity"),
	}
	in.Price, _ = ds.FirstFloat("price", "current_price")
	in.Earnings, _ = ds.FirstFloat("earnings", "eps", "earnings_per_share")
	in.SectorLowPE = ds.FloatOr("sector_low_pe", 0)
	in.SectorHighPE = ds.FloatOr("sector_high_pe", 0)
	in.HistoricalPE, _ = ds.Floats("historical_pe")
	return in
}

// Analyze computes the PE ratio and its evaluation.
// Non-positive earnings make the ratio meaningless and fail with InvalidInput.
func Analyze(in PEInput, p Policy) (PEResult, error) {
	const op = "relative.Analyze"
	if in.Earnings <= 0 {
		return PEResult{Message: "earnings must be positive to compute a PE ratio"},
			apperr.New(apperr.InvalidInput, op, "earnings must be positive to compute a PE ratio, got %.4f", in.Earnings)
	}
	if in.SectorAvgPE <= 0 {
		in.SectorAvgPE = DefaultSectorPE
	}
	if in.MarketAvgPE <= 0 {
		in.MarketAvgPE = DefaultMarketPE
	}

	pe := in.Price / in.Earnings
	rounded := calc.Round(pe, 2)
	res := PEResult{
		Method:      "simple",
		PERatio:     &rounded,
		SectorAvgPE: in.SectorAvgPE,
		MarketAvgPE: in.MarketAvgPE,
		VsSectorPct: calc.Round((pe-in.SectorAvgPE)/in.SectorAvgPE*100, 2),
		VsMarketPct: calc.Round((pe-in.MarketAvgPE)/in.MarketAvgPE*100, 2),
		Evaluation:  evaluateAgainstSector(pe, in.SectorAvgPE),
	}
	if !p.Heuristic {
		return res, nil
	}

	fv := fairValue(in)
	res.Method = "heuristic"
	res.FairValue = &fv
	res.Evaluation = evaluateAgainstFair(pe, fv.FairPE)
	return res, nil
}

func evaluateAgainstSector(pe, sector float64) string {
	switch {
	case pe < 0.7*sector:
		return "significantly undervalued"
	case pe < 1.0*sector:
		return "undervalued"
	case pe < 1.3*sector:
		return "moderately overvalued"
	default:
		return "significantly overvalued"
	}
}

func evaluateAgainstFair(pe, fair float64) string {
	ratio := pe / fair
	switch {
	case ratio < 0.8:
		return "significantly undervalued"
	case ratio < 0.95:
		return "undervalued"
	case ratio <= 1.05:
		return "fairly valued"
	case ratio <= 1.2:
		return "overvalued"
	default:
		return "significantly overvalued"
	}
}

func fairValue(in PEInput) FairValue {
	// 1. Growth adjustment
	growthAdj := 1.0
	if in.ProjectedGrowth != nil {
		growthAdj = 1 + (*in.ProjectedGrowth - in.SectorAvgGrowth)
	}

	// 2. Risk adjustment
	riskAdj := 1.0
	if d := in.DebtToEquity; d != nil {
		switch {
		case *d > 2:
			riskAdj *= 0.9
		case *d < 0.5:
			riskAdj *= 1.05
		}
	}
	if c := in.CurrentRatio; c != nil {
		switch {
		case *c < 1.0:
			riskAdj *= 0.9
		case *c > 2.0:
			riskAdj *= 1.05
		}
	}
	if r := in.ROE; r != nil && *r > 0.2 {
		riskAdj *= 1.1
	}

	// 3. Fair PE within the sector's observed range
	low, high := in.SectorLowPE, in.SectorHighPE
	if low <= 0 {
		low = 0.6 * in.SectorAvgPE
	}
	if high <= 0 || high < low {
		high = 1.6 * in.SectorAvgPE
	}
	fairPE := clamp(in.SectorAvgPE*growthAdj*riskAdj, 0.8*low, 1.2*high)
	fairPrice := fairPE * in.Earnings

	confidence := baseConfidence
	var histAvg *float64
	if len(in.HistoricalPE) > 0 {
		avg := calc.Round(calc.Mean(in.HistoricalPE), 2)
		histAvg = &avg
	} else {
		confidence -= missingInfoHaircut
	}
	if in.ProjectedGrowth == nil {
		confidence -= missingInfoHaircut
	}

	var upside float64
	if in.Price > 0 {
		upside = (fairPrice - in.Price) / in.Price * 100
	}

	return FairValue{
		GrowthAdjustment: calc.Round(growthAdj, 4),
		RiskAdjustment:   calc.Round(riskAdj, 4),
		FairPE:           calc.Round(fairPE, 2),
		FairPrice:        calc.Round(fairPrice, 2),
		TargetLow:        calc.Round(fairPrice*(1-targetBand), 2),
		TargetHigh:       calc.Round(fairPrice*(1+targetBand), 2),
		UpsidePct:        calc.Round(upside, 2),
		HistoricalAvgPE:  histAvg,
		Confidence:       calc.Round(confidence, 2),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
