package risk

import (
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

// Period is one fiscal year of the fields the F-score inspects.
type Period struct {
	NetIncome          float64
	TotalAssets        float64
	OperatingCashFlow  float64
	LongTermDebt       float64
	CurrentAssets      float64
	CurrentLiabilities float64
	SharesOutstanding  float64
	GrossMargin        float64
	Revenue            float64
}

// FScore is the Piotroski result.
type FScore struct {
	Score    int             `json:"score"`
	Health   string          `json:"health"`
	Criteria map[string]bool `json:"criteria"`
	// HasPrior is false when year-over-year criteria could not be evaluated.
	HasPrior bool `json:"has_prior"`
}

// PriorKeys name the nested record holding last year's figures.
var PriorKeys = []string{"prior_year", "previous_year", "prior"}

// PeriodFromDataset reads one period's figures.
func PeriodFromDataset(ds dataset.Dataset) Period {
	p := Period{
		NetIncome:          ds.FloatOr("net_income", 0),
		TotalAssets:        ds.FloatOr("total_assets", 0),
		OperatingCashFlow:  ds.FloatOr("operating_cash_flow", 0),
		LongTermDebt:       ds.FloatOr("long_term_debt", 0),
		CurrentAssets:      ds.FloatOr("current_assets", 0),
		CurrentLiabilities: ds.FloatOr("current_liabilities", 0),
		SharesOutstanding:  ds.FloatOr("shares_outstanding", 0),
		Revenue:            ds.FloatOr("revenue", ds.FloatOr("sales", 0)),
	}
	if gm, ok := ds.Float("gross_margin"); ok {
		p.GrossMargin = gm
	} else {
		p.GrossMargin = calc.GrossMargin(ds.FloatOr("gross_profit", 0), p.Revenue)
	}
	return p
}

// PriorFromDataset returns the prior period when the dataset nests one.
func PriorFromDataset(ds dataset.Dataset) *Period {
	for _, k := range PriorKeys {
		if nested, ok := ds.Nested(k); ok {
			p := PeriodFromDataset(nested)
			return &p
		}
	}
	return nil
}

// PiotroskiF scores nine binary criteria. Year-over-year criteria score 0
// without a prior period.
func PiotroskiF(cur Period, prior *Period) FScore {
	roa := calc.ROA(cur.NetIncome, cur.TotalAssets)
	criteria := map[string]bool{
		// Profitability
		"positive_roa":                 roa > 0,
		"positive_operating_cash_flow": cur.OperatingCashFlow > 0,
		"cash_flow_exceeds_income":     cur.OperatingCashFlow > cur.NetIncome,
		"improving_roa":                false,
		// Leverage, liquidity, source of funds
		"lower_leverage":       false,
		"higher_current_ratio": false,
		"no_dilution":          false,
		// Operating efficiency
		"higher_gross_margin":   false,
		"higher_asset_turnover": false,
	}

	if prior != nil {
		criteria["improving_roa"] = roa > calc.ROA(prior.NetIncome, prior.TotalAssets)
		criteria["lower_leverage"] = calc.SafeDiv(cur.LongTermDebt, cur.TotalAssets) <
			calc.SafeDiv(prior.LongTermDebt, prior.TotalAssets)
		criteria["higher_current_ratio"] = calc.CurrentRatio(cur.CurrentAssets, cur.CurrentLiabilities) >
			calc.CurrentRatio(prior.CurrentAssets, prior.CurrentLiabilities)
		criteria["no_dilution"] = cur.SharesOutstanding <= prior.SharesOutstanding
		criteria["higher_gross_margin"] = cur.GrossMargin > prior.GrossMargin
		criteria["higher_asset_turnover"] = calc.AssetTurnover(cur.Revenue, cur.TotalAssets) >
			calc.AssetTurnover(prior.Revenue, prior.TotalAssets)
	}

	score := 0
	for _, passed := range criteria {
		if passed {
			score++
		}
	}

	return FScore{Score: score, Health: fHealth(score), Criteria: criteria, HasPrior: prior != nil}
}

func fHealth(score int) string {
	switch {
	case score >= 7:
		return "strong"
	case score >= 4:
		return "moderate"
	default:
		return "weak"
	}
}
