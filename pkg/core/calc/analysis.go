package calc

import "math"

// =============================================================================
// RISK MODELS
// =============================================================================

// AltmanWeights are the coefficients of the original manufacturing Z-score.
var AltmanWeights = [5]float64{1.2, 1.4, 3.3, 0.6, 1.0}

// AltmanComponents returns the five weighted Z-score terms.
// Z = 1.2A + 1.4B + 3.3C + 0.6D + 1.0E
// A = Working Capital / Total Assets
// B = Retained Earnings / Total Assets
// C = EBIT / Total Assets
// D = Market Value of Equity / Total Liabilities
// E = Sales / Total Assets
// Callers must ensure ta and tl are positive.
func AltmanComponents(wc, re, ebit, mve, sales, ta, tl float64) [5]float64 {
	ratios := [5]float64{wc / ta, re / ta, ebit / ta, mve / tl, sales / ta}
	var out [5]float64
	for i, r := range ratios {
		out[i] = AltmanWeights[i] * r
	}
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// SafeDiv returns 0 when the denominator is zero.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// =============================================================================
// LIQUIDITY, LEVERAGE, PROFITABILITY
// =============================================================================

func CurrentRatio(currentAssets, currentLiabilities float64) float64 {
	return SafeDiv(currentAssets, currentLiabilities)
}

func ROA(netIncome, totalAssets float64) float64 {
	return SafeDiv(netIncome, totalAssets)
}

func AssetTurnover(revenue, totalAssets float64) float64 {
	return SafeDiv(revenue, totalAssets)
}

func GrossMargin(grossProfit, revenue float64) float64 {
	return SafeDiv(grossProfit, revenue)
}

// =============================================================================
// GROWTH METRICS
// =============================================================================

func GrowthRate(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior)
}

func CAGR(endingValue, beginningValue float64, years int) float64 {
	if beginningValue <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(endingValue/beginningValue, 1.0/float64(years)) - 1
}
