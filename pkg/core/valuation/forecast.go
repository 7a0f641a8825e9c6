package valuation

import (
	"fmt"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/predictor"
)

// =============================================================================
// FORECAST STRATEGY INTERFACE
// =============================================================================

// Forecast is a projected cash-flow path.
type Forecast struct {
	Values []float64
	// Confidence is set only by strategies that can measure their own fit.
	Confidence *float64
}

// ForecastStrategy is a pluggable cash-flow projection algorithm.
type ForecastStrategy interface {
	Name() string
	Validate(history []float64) error
	Forecast(history []float64, horizon int) (Forecast, error)
}

// Method names reported in DCF results.
const (
	MethodCompoundGrowth = "compound_growth"
	MethodAutoregressive = "autoregressive"
)

// =============================================================================
// BUILT-IN STRATEGIES
// =============================================================================

// GrowthStrategy compounds the last observed value.
// Formula: Value(t) = Value(t-1) * (1 + GrowthRate)
type GrowthStrategy struct {
	GrowthRate float64
}

func (s GrowthStrategy) Name() string { return MethodCompoundGrowth }

func (s GrowthStrategy) Validate(history []float64) error {
	if len(history) == 0 {
		return apperr.New(apperr.InsufficientData, "valuation.GrowthStrategy", "no history to grow from")
	}
	return nil
}

func (s GrowthStrategy) Forecast(history []float64, horizon int) (Forecast, error) {
	if err := s.Validate(history); err != nil {
		return Forecast{}, err
	}
	out := make([]float64, horizon)
	last := history[len(history)-1]
	for i := range out {
		last = calc.ProjectFromGrowth(last, s.GrowthRate)
		out[i] = last
	}
	return Forecast{Values: out}, nil
}

// AutoregressiveStrategy regresses each value on its previous Lags values plus a
// fixed context vector, then rolls the fitted model forward one step at a time.
type AutoregressiveStrategy struct {
	Regressor predictor.Regressor
	Lags      int
	Context   []float64
}

func (s AutoregressiveStrategy) Name() string { return MethodAutoregressive }

func (s AutoregressiveStrategy) Validate(history []float64) error {
	if s.Regressor == nil {
		return apperr.New(apperr.ModelNotTrained, "valuation.AutoregressiveStrategy", "no regressor configured")
	}
	if len(history) <= s.Lags {
		return apperr.New(apperr.InsufficientData, "valuation.AutoregressiveStrategy",
			"need more than %d observations, got %d", s.Lags, len(history))
	}
	return nil
}

func (s AutoregressiveStrategy) Forecast(history []float64, horizon int) (Forecast, error) {
	if err := s.Validate(history); err != nil {
		return Forecast{}, err
	}

	// 1. Sliding window training pairs: (y[i-lags..i-1], context) -> y[i]
	var x [][]float64
	var y []float64
	for i := s.Lags; i < len(history); i++ {
		x = append(x, s.features(history[i-s.Lags:i]))
		y = append(y, history[i])
	}

	fitted, err := s.Regressor.Fit(x, y)
	if err != nil {
		return Forecast{}, fmt.Errorf("fit autoregressive model: %w", err)
	}

	// 2. Roll forward, feeding each prediction into the next window
	window := append([]float64(nil), history[len(history)-s.Lags:]...)
	out := make([]float64, horizon)
	for step := range out {
		next, err := fitted.Predict(s.features(window))
		if err != nil {
			return Forecast{}, fmt.Errorf("forecast step %d: %w", step+1, err)
		}
		out[step] = next
		window = append(window[1:], next)
	}

	confidence := calc.Round(clamp01(fitted.R2()), 4)
	return Forecast{Values: out, Confidence: &confidence}, nil
}

func (s AutoregressiveStrategy) features(window []float64) []float64 {
	row := make([]float64, 0, len(window)+len(s.Context))
	row = append(row, window...)
	return append(row, s.Context...)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
