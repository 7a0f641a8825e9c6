package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/predictor"
)

func TestGrowthStrategy(t *testing.T) {
	f, err := GrowthStrategy{GrowthRate: 0.1}.Forecast([]float64{50, 100}, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{110, 121, 133.1}, f.Values, 1e-9)

	_, err = GrowthStrategy{}.Forecast(nil, 3)
	assert.Equal(t, apperr.InsufficientData, apperr.KindOf(err))
}

func TestAutoregressiveStrategyLinearSeries(t *testing.T) {
	// A series rising by 10 each period: the lag model should keep climbing.
	history := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	ar := AutoregressiveStrategy{Regressor: predictor.NewRidge(1e-6), Lags: 3}

	f, err := ar.Forecast(history, 2)
	require.NoError(t, err)
	assert.InDelta(t, 90, f.Values[0], 0.5)
	assert.InDelta(t, 100, f.Values[1], 1.0)
	require.NotNil(t, f.Confidence)
	assert.InDelta(t, 1.0, *f.Confidence, 1e-3)
}

func TestAutoregressiveStrategyValidate(t *testing.T) {
	err := AutoregressiveStrategy{Lags: 3}.Validate([]float64{1, 2, 3, 4})
	assert.Equal(t, apperr.ModelNotTrained, apperr.KindOf(err))

	err = AutoregressiveStrategy{Regressor: predictor.NewRidge(1), Lags: 3}.Validate([]float64{1, 2, 3})
	assert.Equal(t, apperr.InsufficientData, apperr.KindOf(err))
}
