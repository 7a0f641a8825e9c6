// Package risk scores bankruptcy risk and simulates price paths.
package risk

import (
	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

// Z-score zones.
const (
	ZoneSafe     = "safe"
	ZoneGrey     = "grey"
	ZoneDistress = "distress"
)

// ZInput holds the balance-sheet and market inputs of the Altman Z-score.
type ZInput struct {
	WorkingCapital   float64
	RetainedEarnings float64
	EBIT             float64
	MarketEquity     float64
	Sales            float64
	TotalAssets      float64
	TotalLiabilities float64
}

// ZComponents are the five weighted terms.
type ZComponents struct {
	WorkingCapital   float64 `json:"working_capital"`
	RetainedEarnings float64 `json:"retained_earnings"`
	EBIT             float64 `json:"ebit"`
	MarketEquity     float64 `json:"market_equity"`
	Sales            float64 `json:"sales"`
}

// ZScore is the Altman result.
type ZScore struct {
	Score      float64     `json:"score"`
	Components ZComponents `json:"components"`
	Zone       string      `json:"zone"`
}

// ZInputFromDataset extracts Z-score inputs. ok is false when neither denominator
// is present, meaning the dataset carries no balance sheet.
func ZInputFromDataset(ds dataset.Dataset) (in ZInput, ok bool) {
	in.TotalAssets, ok = ds.Float("total_assets")
	tl, tlOK := ds.Float("total_liabilities")
	in.TotalLiabilities = tl
	ok = ok || tlOK

	if wc, found := ds.Float("working_capital"); found {
		in.WorkingCapital = wc
	} else {
		in.WorkingCapital = ds.FloatOr("current_assets", 0) - ds.FloatOr("current_liabilities", 0)
	}
	in.RetainedEarnings = ds.FloatOr("retained_earnings", 0)
	in.EBIT, _ = ds.FirstFloat("ebit", "operating_income")
	in.MarketEquity, _ = ds.FirstFloat("market_equity", "market_cap", "equity_value")
	in.Sales, _ = ds.FirstFloat("sales", "revenue")
	return in, ok
}

// AltmanZ computes Z = 1.2A + 1.4B + 3.3C + 0.6D + 1.0E.
// A missing or non-positive denominator leaves the ratios undefined.
func AltmanZ(in ZInput) (ZScore, error) {
	const op = "risk.AltmanZ"
	if in.TotalAssets <= 0 {
		return ZScore{}, apperr.New(apperr.InvalidInput, op, "total assets must be positive")
	}
	if in.TotalLiabilities <= 0 {
		return ZScore{}, apperr.New(apperr.InvalidInput, op, "total liabilities must be positive")
	}

	c := calc.AltmanComponents(in.WorkingCapital, in.RetainedEarnings, in.EBIT,
		in.MarketEquity, in.Sales, in.TotalAssets, in.TotalLiabilities)
	var z float64
	for _, v := range c {
		z += v
	}

	return ZScore{
		Score: calc.Round(z, 4),
		Components: ZComponents{
			WorkingCapital:   calc.Round(c[0], 4),
			RetainedEarnings: calc.Round(c[1], 4),
			EBIT:             calc.Round(c[2], 4),
			MarketEquity:     calc.Round(c[3], 4),
			Sales:            calc.Round(c[4], 4),
		},
		Zone: zZone(z),
	}, nil
}

func zZone(z float64) string {
	switch {
	case z > 2.99:
		return ZoneSafe
	case z > 1.81:
		return ZoneGrey
	default:
		return ZoneDistress
	}
}
