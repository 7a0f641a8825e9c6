package valuation

import (
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

// WACCInput parameters for calculating Cost of Capital
type WACCInput struct {
	EquityValue  float64 `json:"equity_value"`
	DebtValue    float64 `json:"debt_value"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	MarketReturn float64 `json:"market_return"`
	Beta         float64 `json:"beta"`
	CostOfDebt   float64 `json:"cost_of_debt"` // Pre-tax
	TaxRate      float64 `json:"tax_rate"`
}

// WACCResult holds the calculated rates, rounded to 4 decimals.
type WACCResult struct {
	Beta               float64 `json:"beta"`
	CostOfEquity       float64 `json:"cost_of_equity"`
	AfterTaxCostOfDebt float64 `json:"after_tax_cost_of_debt"`
	EquityWeight       float64 `json:"equity_weight"`
	DebtWeight         float64 `json:"debt_weight"`
	WACC               float64 `json:"wacc"`
}

// DefaultWACCInput carries the market assumptions used when a dataset is silent.
func DefaultWACCInput() WACCInput {
	return WACCInput{
		RiskFreeRate: 0.03,
		MarketReturn: 0.10,
		Beta:         1.0,
		CostOfDebt:   0.05,
		TaxRate:      0.20,
	}
}

// WACCInputFromDataset overlays dataset fields on the defaults.
func WACCInputFromDataset(ds dataset.Dataset) WACCInput {
	in := DefaultWACCInput()
	in.EquityValue, _ = ds.FirstFloat("equity_value", "market_cap", "market_equity")
	in.DebtValue, _ = ds.FirstFloat("debt_value", "total_debt")
	in.RiskFreeRate = ds.FloatOr("risk_free_rate", in.RiskFreeRate)
	in.MarketReturn = ds.FloatOr("market_return", in.MarketReturn)
	in.Beta = ds.FloatOr("beta", in.Beta)
	in.CostOfDebt = ds.FloatOr("cost_of_debt", in.CostOfDebt)
	in.TaxRate = ds.FloatOr("tax_rate", in.TaxRate)
	return in
}

// ComputeWACC computes the Weighted Average Cost of Capital from market values.
// A firm with no equity or debt value has no defined WACC; 0 is returned.
func ComputeWACC(in WACCInput) WACCResult {
	total := in.EquityValue + in.DebtValue
	if total <= 0 {
		return WACCResult{}
	}

	// 1. Cost of Equity (CAPM)
	ke := calc.CostOfEquityCAPM(in.RiskFreeRate, in.Beta, in.MarketReturn)

	// 2. Weights
	we := in.EquityValue / total
	wd := in.DebtValue / total

	// 3. WACC
	wacc := calc.WACC(in.CostOfDebt, in.TaxRate, wd, ke, we)

	return WACCResult{
		Beta:               in.Beta,
		CostOfEquity:       calc.Round(ke, 4),
		AfterTaxCostOfDebt: calc.Round(in.CostOfDebt*(1-in.TaxRate), 4),
		EquityWeight:       calc.Round(we, 4),
		DebtWeight:         calc.Round(wd, 4),
		WACC:               calc.Round(wacc, 4),
	}
}

// ReleveredWACC computes WACC from a target D/E ratio using the Hamada equation,
// for firms quoted with an asset (unlevered) beta instead of capital values.
func ReleveredWACC(in WACCInput, unleveredBeta, debtToEquity float64) WACCResult {
	if debtToEquity < 0 {
		return WACCResult{}
	}

	// 1. Re-lever Beta (Hamada)
	leveredBeta := calc.LeveredBeta(unleveredBeta, in.TaxRate, debtToEquity)

	// 2. Weights
	// D/E = x -> D = xE, V = E(1+x)
	// Wd = x / (1+x), We = 1 / (1+x)
	in.Beta = leveredBeta
	in.EquityValue = 1
	in.DebtValue = debtToEquity
	return ComputeWACC(in)
}
