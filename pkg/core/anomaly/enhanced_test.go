package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

func steadyPrices() []float64 {
	return []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
}

func TestExtractFeatures(t *testing.T) {
	ds := dataset.Dataset{
		"historical_prices":  steadyPrices(),
		"historical_volumes": []float64{100, 100, 100, 200},
		"eps":                5.5,
		"sector_avg_pe":      10.0,
		"pb_ratio":           1.5,
		"debt_to_equity":     0.8,
	}
	f, err := ExtractFeatures(ds)
	require.NoError(t, err)

	assert.Zero(t, f.Volatility, "constant deltas")
	assert.Equal(t, 5.0, f.Momentum)
	assert.InDelta(t, 0.6, f.VolumeChange, 1e-9) // (200 - 125) / 125
	assert.InDelta(t, 20.0, f.PE, 1e-9)          // 110 / 5.5
	assert.InDelta(t, 1.0, f.PEDeviation, 1e-9)
	assert.Len(t, f.Vector(), len(FeatureNames))

	assert.Equal(t, []string{
		"volume deviates more than 50% from its average",
		"PE ratio deviates more than 30% from sector average",
	}, RuleFlags(f))
}

func TestExtractFeaturesNeedsTenPrices(t *testing.T) {
	_, err := ExtractFeatures(dataset.Dataset{"historical_prices": []float64{1, 2, 3}})
	assert.Equal(t, apperr.InsufficientData, apperr.KindOf(err))
}

func TestVolatilityRuleFlag(t *testing.T) {
	f, err := ExtractFeatures(dataset.Dataset{
		"historical_prices": []float64{10, 20, 5, 25, 4, 30, 3, 28, 6, 22},
	})
	require.NoError(t, err)
	assert.Contains(t, RuleFlags(f), "price volatility exceeds 15% of mean price")
}

func TestBaselineLifecycle(t *testing.T) {
	var untrained Baseline
	_, err := untrained.Score(make([]float64, 7))
	assert.Equal(t, apperr.ModelNotTrained, apperr.KindOf(err))
	assert.False(t, NewBaseline(nil, nil).Trained())

	b, err := FitBaseline([][]float64{{0, 0}, {2, 2}})
	require.NoError(t, err)
	assert.True(t, b.Trained())

	centre, err := b.Score([]float64{1, 1})
	require.NoError(t, err)
	assert.Zero(t, centre.Value)
	assert.False(t, centre.Anomalous)

	far, err := b.Score([]float64{10, 10})
	require.NoError(t, err)
	assert.Greater(t, far.Value, 0.98) // mean |z| = 9
	assert.True(t, far.Anomalous)

	_, err = b.Score([]float64{1})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	_, err = FitBaseline([][]float64{{1}})
	assert.Equal(t, apperr.InsufficientData, apperr.KindOf(err))
}

func TestEnhanced(t *testing.T) {
	ds := dataset.Dataset{"historical_prices": steadyPrices()}

	_, err := Enhanced(ds, nil)
	assert.Equal(t, apperr.ModelNotTrained, apperr.KindOf(err))

	_, err = Enhanced(ds, NewBaseline(nil, nil))
	assert.Equal(t, apperr.ModelNotTrained, apperr.KindOf(err))

	b := NewBaseline(make([]float64, 7), []float64{1, 1, 1, 1, 1, 1, 1})
	res, err := Enhanced(ds, b)
	require.NoError(t, err)
	// Only momentum (5) is off-centre: mean |z| = 5/7
	assert.InDelta(t, 0.3003, res.AnomalyScore, 1e-4)
	assert.Equal(t, SeverityLow, res.Severity)
	assert.Equal(t, "no action required", res.Recommendation)
	assert.Empty(t, res.RuleFlags)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, Severity(0.81))
	assert.Equal(t, SeverityHigh, Severity(0.8))
	assert.Equal(t, SeverityModerate, Severity(0.5))
	assert.Equal(t, SeverityLow, Severity(0.4))
}

func TestBeneish(t *testing.T) {
	year := map[string]any{
		"receivables": 100.0, "revenue": 1000.0, "gross_profit": 400.0, "current_assets": 300.0,
		"ppe": 400.0, "total_assets": 1000.0, "depreciation": 50.0, "sga": 100.0,
		"total_liabilities": 500.0, "net_income": 80.0, "operating_cash_flow": 100.0,
	}
	raw := map[string]any{"prior_year": year}
	for k, v := range year {
		raw[k] = v
	}

	m, ok := Beneish(dataset.Normalize(raw))
	require.True(t, ok)
	assert.InDelta(t, 1.0, m.DSRI, 1e-9)
	assert.InDelta(t, 1.0, m.AQI, 1e-9)
	assert.InDelta(t, -0.02, m.TATA, 1e-9)
	assert.InDelta(t, -2.5736, m.Score, 1e-4)
	assert.Equal(t, "low probability of manipulation", m.Risk)

	_, ok = Beneish(dataset.Normalize(year))
	assert.False(t, ok, "no prior year")
}
