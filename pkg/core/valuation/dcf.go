// Package valuation implements discounted cash flow and cost of capital analysis.
package valuation

import (
	"errors"

	"github.com/rs/zerolog"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
	"valuation_engine/pkg/core/predictor"
)

const (
	// ForecastHorizon is the number of explicitly projected years.
	ForecastHorizon = 5
	// ARLags is the number of lagged cash flows fed to the autoregressive model.
	ARLags = 3

	minHistory         = 3
	defaultDiscount    = 0.1
	defaultGrowth      = 0.05
	defaultTerminalG   = 0.025
	highValueThreshold = 1000.0
)

// ContextFields are the macro/growth features appended to every autoregressive row.
var ContextFields = []string{"revenue_growth", "gdp_growth", "inflation", "interest_rate"}

// SimpleDCFResult is the closed-form present value of a cash-flow list.
type SimpleDCFResult struct {
	PresentValue   float64 `json:"present_value"`
	DiscountRate   float64 `json:"discount_rate"`
	Periods        int     `json:"periods"`
	Interpretation string  `json:"interpretation"`
}

// SimpleDCF returns Σ cf_i / (1+r)^i for i = 1..N, rounded to 2 decimals.
// An empty list is worth 0.
func SimpleDCF(cashFlows []float64, discountRate float64) float64 {
	if len(cashFlows) == 0 {
		return 0
	}
	return calc.Round(calc.PresentValueOfCashFlows(cashFlows, discountRate), 2)
}

// SimpleFromDataset runs SimpleDCF over the first cash-flow series the dataset offers.
func SimpleFromDataset(ds dataset.Dataset) SimpleDCFResult {
	flows, _ := ds.FirstFloats("cash_flows", "free_cash_flow", "historical_cash_flows")
	rate := ds.FloatOr("discount_rate", defaultDiscount)
	pv := SimpleDCF(flows, rate)
	return SimpleDCFResult{
		PresentValue:   pv,
		DiscountRate:   rate,
		Periods:        len(flows),
		Interpretation: InterpretValue(pv),
	}
}

// InterpretValue labels a valuation outcome.
func InterpretValue(v float64) string {
	switch {
	case v > highValueThreshold:
		return "high enterprise value"
	case v > 0:
		return "positive enterprise value"
	default:
		return "negative enterprise value"
	}
}

// DCFInput encapsulates all inputs required for a Discounted Cash Flow valuation
type DCFInput struct {
	HistoricalCashFlows []float64
	WACC                WACCInput
	UnleveredBeta       *float64 // with DebtToEquity, selects the Hamada path
	DebtToEquity        *float64
	DiscountRate        *float64 // explicit override of the computed WACC
	GrowthRate          float64  // compound-growth fallback, e.g. 0.05
	TerminalGrowth      float64  // e.g. 0.025
	Cash                float64
	TotalDebt           float64
	SharesOutstanding   float64
	CurrentPrice        *float64
	Context             []float64 // values for ContextFields
}

// DCFResult holds the valuation outputs
type DCFResult struct {
	Method              string      `json:"method"`
	FallbackReason      string      `json:"fallback_reason,omitempty"`
	ProjectedCashFlows  []float64   `json:"projected_cash_flows"`
	DiscountedCashFlows []float64   `json:"discounted_cash_flows"`
	DiscountRate        float64     `json:"discount_rate"`
	WACC                *WACCResult `json:"wacc,omitempty"`
	TerminalValue       float64     `json:"terminal_value"`
	PVTerminalValue     float64     `json:"pv_terminal_value"`
	EnterpriseValue     float64     `json:"enterprise_value"`
	EquityValue         float64     `json:"equity_value"`
	PricePerShare       float64     `json:"price_per_share"`
	UpsidePct           *float64    `json:"upside_pct,omitempty"`
	Confidence          *float64    `json:"confidence,omitempty"`
	Interpretation      string      `json:"interpretation"`
}

// DCFInputFromDataset maps dataset fields onto a DCFInput, filling configured defaults.
func DCFInputFromDataset(ds dataset.Dataset, growth, terminalGrowth float64) DCFInput {
	flows, _ := ds.FirstFloats("historical_cash_flows", "free_cash_flow", "cash_flows")
	in := DCFInput{
		HistoricalCashFlows: flows,
		WACC:                WACCInputFromDataset(ds),
		UnleveredBeta:       ds.FloatPtr("unlevered_beta"),
		DebtToEquity:        ds.FloatPtr("debt_to_equity"),
		DiscountRate:        ds.FloatPtr("discount_rate"),
		GrowthRate:          ds.FloatOr("growth_rate", growth),
		TerminalGrowth:      ds.FloatOr("terminal_growth_rate", terminalGrowth),
		Cash:                ds.FloatOr("cash", 0),
		TotalDebt:           ds.FloatOr("total_debt", 0),
		SharesOutstanding:   ds.FloatOr("shares_outstanding", 0),
		CurrentPrice:        ds.FloatPtr("current_price", "price"),
	}
	for _, f := range ContextFields {
		in.Context = append(in.Context, ds.FloatOr(f, 0))
	}
	return in
}

// DCFModel runs the regression-assisted DCF.
type DCFModel struct {
	regressor      predictor.Regressor
	growth         float64
	terminalGrowth float64
	log            zerolog.Logger
}

// NewDCFModel creates a model. A nil regressor limits it to compound growth.
func NewDCFModel(regressor predictor.Regressor, growth, terminalGrowth float64, logger zerolog.Logger) *DCFModel {
	if growth == 0 {
		growth = defaultGrowth
	}
	if terminalGrowth == 0 {
		terminalGrowth = defaultTerminalG
	}
	return &DCFModel{
		regressor:      regressor,
		growth:         growth,
		terminalGrowth: terminalGrowth,
		log:            logger.With().Str("component", "dcf").Logger(),
	}
}

// FromDataset runs the enhanced DCF on a dataset.
func (m *DCFModel) FromDataset(ds dataset.Dataset) (DCFResult, error) {
	return m.Enhanced(DCFInputFromDataset(ds, m.growth, m.terminalGrowth))
}

// Enhanced projects five years of cash flows, adds a Gordon terminal value and
// bridges enterprise value to a per-share price.
func (m *DCFModel) Enhanced(in DCFInput) (DCFResult, error) {
	const op = "valuation.EnhancedDCF"
	history := in.HistoricalCashFlows
	if len(history) < minHistory {
		return DCFResult{}, apperr.New(apperr.InsufficientData, op,
			"need at least %d historical cash flows, got %d", minHistory, len(history))
	}

	var res DCFResult

	// 1. Discount rate
	switch {
	case in.DiscountRate != nil:
		res.DiscountRate = *in.DiscountRate
	case in.UnleveredBeta != nil && in.DebtToEquity != nil && in.WACC.EquityValue+in.WACC.DebtValue <= 0:
		w := ReleveredWACC(in.WACC, *in.UnleveredBeta, *in.DebtToEquity)
		res.WACC, res.DiscountRate = &w, w.WACC
	case in.WACC.EquityValue+in.WACC.DebtValue <= 0:
		return DCFResult{}, apperr.New(apperr.InsufficientData, op,
			"no discount_rate and no capital structure to derive WACC from")
	default:
		w := ComputeWACC(in.WACC)
		res.WACC, res.DiscountRate = &w, w.WACC
	}
	if res.DiscountRate <= in.TerminalGrowth {
		return DCFResult{}, apperr.New(apperr.InvalidInput, op,
			"discount rate %.4f must exceed terminal growth %.4f", res.DiscountRate, in.TerminalGrowth)
	}

	// 2. Projection
	forecast, err := m.project(in, &res)
	if err != nil {
		return DCFResult{}, err
	}
	res.ProjectedCashFlows = roundAll(forecast.Values, 2)
	res.Confidence = forecast.Confidence

	// 3. Discounting and terminal value
	discounted := calc.DiscountEach(forecast.Values, res.DiscountRate)
	last := forecast.Values[len(forecast.Values)-1]
	tv, ok := calc.TerminalValueGordonGrowth(last, res.DiscountRate, in.TerminalGrowth)
	if !ok {
		return DCFResult{}, apperr.New(apperr.ComputationError, op, "terminal value undefined")
	}
	pvTV := calc.PresentValue(tv, res.DiscountRate, len(forecast.Values))

	var pvSum float64
	for _, v := range discounted {
		pvSum += v
	}

	// 4. Enterprise -> Equity -> Per Share
	ev := pvSum + pvTV
	equity := ev + in.Cash - in.TotalDebt
	var perShare float64
	if in.SharesOutstanding > 0 {
		perShare = equity / in.SharesOutstanding
	}

	res.DiscountedCashFlows = roundAll(discounted, 2)
	res.TerminalValue = calc.Round(tv, 2)
	res.PVTerminalValue = calc.Round(pvTV, 2)
	res.EnterpriseValue = calc.Round(ev, 2)
	res.EquityValue = calc.Round(equity, 2)
	res.PricePerShare = calc.Round(perShare, 2)
	res.Interpretation = InterpretValue(ev)

	if in.CurrentPrice != nil && *in.CurrentPrice > 0 && perShare != 0 {
		upside := calc.Round((perShare-*in.CurrentPrice) / *in.CurrentPrice * 100, 2)
		res.UpsidePct = &upside
	}
	return res, nil
}

// project picks the autoregressive strategy when history allows and falls back to
// compound growth when it cannot be used.
func (m *DCFModel) project(in DCFInput, res *DCFResult) (Forecast, error) {
	growth := GrowthStrategy{GrowthRate: in.GrowthRate}
	if len(in.HistoricalCashFlows) <= ARLags || m.regressor == nil {
		res.Method = growth.Name()
		return growth.Forecast(in.HistoricalCashFlows, ForecastHorizon)
	}

	ar := AutoregressiveStrategy{Regressor: m.regressor, Lags: ARLags, Context: in.Context}
	forecast, err := ar.Forecast(in.HistoricalCashFlows, ForecastHorizon)
	if err == nil && allFinite(forecast.Values) {
		res.Method = ar.Name()
		return forecast, nil
	}
	if err == nil {
		err = errors.New("non-finite forecast")
	}

	m.log.Warn().Err(err).Int("observations", len(in.HistoricalCashFlows)).
		Msg("autoregressive forecast failed, using compound growth")
	res.Method = growth.Name()
	res.FallbackReason = err.Error()
	return growth.Forecast(in.HistoricalCashFlows, ForecastHorizon)
}

func roundAll(xs []float64, places int32) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = calc.Round(v, places)
	}
	return out
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if !calc.IsFinite(v) {
			return false
		}
	}
	return true
}
