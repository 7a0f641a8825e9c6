package anomaly

import (
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

// mScoreCutoff is the score above which earnings manipulation is likely.
const mScoreCutoff = -1.78

// BeneishResult holds the eight Beneish indices and the M-score.
type BeneishResult struct {
	DSRI  float64 `json:"dsri"`
	GMI   float64 `json:"gmi"`
	AQI   float64 `json:"aqi"`
	SGI   float64 `json:"sgi"`
	DEPI  float64 `json:"depi"`
	SGAI  float64 `json:"sgai"`
	LVGI  float64 `json:"lvgi"`
	TATA  float64 `json:"tata"`
	Score float64 `json:"score"`
	Risk  string  `json:"risk"`
}

type statement struct {
	receivables, revenue, grossProfit   float64
	currentAssets, ppe, totalAssets     float64
	depreciation, sga, totalLiabilities float64
	netIncome, operatingCashFlow        float64
}

var priorKeys = []string{"prior_year", "previous_year", "prior"}

func statementFrom(ds dataset.Dataset) (statement, bool) {
	s := statement{
		receivables:       ds.FloatOr("receivables", ds.FloatOr("accounts_receivable", 0)),
		grossProfit:       ds.FloatOr("gross_profit", 0),
		currentAssets:     ds.FloatOr("current_assets", 0),
		ppe:               ds.FloatOr("ppe", ds.FloatOr("property_plant_equipment", 0)),
		depreciation:      ds.FloatOr("depreciation", 0),
		sga:               ds.FloatOr("sga", ds.FloatOr("sga_expense", 0)),
		totalLiabilities:  ds.FloatOr("total_liabilities", 0),
		netIncome:         ds.FloatOr("net_income", 0),
		operatingCashFlow: ds.FloatOr("operating_cash_flow", 0),
	}
	var okRev, okTA bool
	s.revenue, okRev = ds.FirstFloat("revenue", "sales")
	s.totalAssets, okTA = ds.Float("total_assets")
	return s, okRev && okTA && s.revenue > 0 && s.totalAssets > 0
}

// Beneish computes the eight-variable M-score from the dataset and its nested
// prior-year record. ok is false when either year lacks revenue or total assets.
func Beneish(ds dataset.Dataset) (BeneishResult, bool) {
	cur, ok := statementFrom(ds)
	if !ok {
		return BeneishResult{}, false
	}
	var prior statement
	found := false
	for _, k := range priorKeys {
		if nested, has := ds.Nested(k); has {
			prior, found = statementFrom(nested)
			break
		}
	}
	if !found {
		return BeneishResult{}, false
	}

	div := calc.SafeDiv
	softAssets := func(s statement) float64 { return 1 - (s.currentAssets+s.ppe)/s.totalAssets }
	depRate := func(s statement) float64 { return div(s.depreciation, s.ppe+s.depreciation) }

	r := BeneishResult{
		DSRI: div(div(cur.receivables, cur.revenue), div(prior.receivables, prior.revenue)),
		GMI:  div(div(prior.grossProfit, prior.revenue), div(cur.grossProfit, cur.revenue)),
		AQI:  div(softAssets(cur), softAssets(prior)),
		SGI:  div(cur.revenue, prior.revenue),
		DEPI: div(depRate(prior), depRate(cur)),
		SGAI: div(div(cur.sga, cur.revenue), div(prior.sga, prior.revenue)),
		LVGI: div(div(cur.totalLiabilities, cur.totalAssets), div(prior.totalLiabilities, prior.totalAssets)),
		TATA: div(cur.netIncome-cur.operatingCashFlow, cur.totalAssets),
	}
	score := -4.84 +
		0.920*r.DSRI +
		0.528*r.GMI +
		0.404*r.AQI +
		0.892*r.SGI +
		0.115*r.DEPI -
		0.172*r.SGAI +
		4.679*r.TATA -
		0.327*r.LVGI

	r.Score = calc.Round(score, 4)
	r.Risk = "low probability of manipulation"
	if score > mScoreCutoff {
		r.Risk = "high probability of manipulation"
	}
	return r, true
}
