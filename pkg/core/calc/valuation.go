// Package calc provides the deterministic financial math shared by the analysis modules.
// This file implements cost-of-capital and discounting formulas.
package calc

import (
	"math"
)

// =============================================================================
// COST OF CAPITAL
// =============================================================================

// CostOfEquityCAPM calculates required return on equity using CAPM.
//
// FORMULA: r_e = r_f + β × (r_m - r_f)
//
// Where:
//   - r_f = Risk-free rate
//   - β = Equity beta (market sensitivity)
//   - r_m = Expected market return
func CostOfEquityCAPM(riskFreeRate, beta, marketReturn float64) float64 {
	return riskFreeRate + beta*(marketReturn-riskFreeRate)
}

// WACC calculates Weighted Average Cost of Capital.
//
// FORMULA: WACC = r_d × (1 - T) × (D/V) + r_e × (E/V)
func WACC(costOfDebt, taxRate, debtWeight, costOfEquity, equityWeight float64) float64 {
	afterTaxDebtCost := costOfDebt * (1 - taxRate) * debtWeight
	equityCost := costOfEquity * equityWeight
	return afterTaxDebtCost + equityCost
}

// LeveredBeta re-levers an asset beta with the Hamada equation.
//
// FORMULA: β_L = β_U × (1 + (1 - T) × D/E)
func LeveredBeta(unleveredBeta, taxRate, debtToEquity float64) float64 {
	return unleveredBeta * (1 + (1-taxRate)*debtToEquity)
}

// =============================================================================
// DISCOUNTING
// =============================================================================

// TerminalValueGordonGrowth calculates terminal value using the Gordon Growth Model.
//
// FORMULA: TV = CF_last × (1 + g) / (r - g)
//
// ok is false when r <= g; the model is undefined there.
func TerminalValueGordonGrowth(lastCF, discountRate, growthRate float64) (tv float64, ok bool) {
	if discountRate <= growthRate {
		return 0, false
	}
	return lastCF * (1 + growthRate) / (discountRate - growthRate), true
}

// PresentValue calculates PV of a single cash flow.
//
// FORMULA: PV = CF / (1 + r)^t
func PresentValue(cashFlow, discountRate float64, periods int) float64 {
	if periods < 0 {
		return 0
	}
	return cashFlow / math.Pow(1+discountRate, float64(periods))
}

// PresentValueOfCashFlows calculates PV of a series of cash flows.
//
// FORMULA: PV = Σ [ CF_t / (1 + r)^t ], t = 1..N
//
// Cash flows are assumed to be at end of each period (ordinary annuity).
func PresentValueOfCashFlows(cashFlows []float64, discountRate float64) float64 {
	var pv float64
	for t, cf := range cashFlows {
		pv += PresentValue(cf, discountRate, t+1)
	}
	return pv
}

// DiscountEach returns the present value of every cash flow in order.
func DiscountEach(cashFlows []float64, discountRate float64) []float64 {
	out := make([]float64, len(cashFlows))
	for t, cf := range cashFlows {
		out[t] = PresentValue(cf, discountRate, t+1)
	}
	return out
}

// ProjectFromGrowth calculates projected amount from prior period growth.
//
// FORMULA: Amount_t = Amount_{t-1} × (1 + Growth)
func ProjectFromGrowth(priorAmount, growthRate float64) float64 {
	return priorAmount * (1 + growthRate)
}
