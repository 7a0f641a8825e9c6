package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/utils"
)

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"freeCashFlow":    "free_cash_flow",
		"FreeCashFlow":    "free_cash_flow",
		"PERatio":         "pe_ratio",
		"EBIT":            "ebit",
		"sector_avg_PE":   "sector_avg_pe",
		"total assets":    "total_assets",
		"debt-to-equity":  "debt_to_equity",
		"already_snake":   "already_snake",
		"gdpGrowth2024":   "gdp_growth2024",
		" currentPrice  ": "current_price",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestNormalize(t *testing.T) {
	raw := map[string]any{
		"task": "DCF",
		"data": map[string]any{
			"cashFlows":         []any{100.0, "110", 121},
			"discountRate":      "0.1",
			"marketSentiment":   "Bearish",
			"sharesOutstanding": "1,000",
			"notes":             nil,
			"priorYear": map[string]any{
				"netIncome": "50",
			},
			"tags": []any{"a", "b"},
		},
	}

	ds := Normalize(raw)

	flows, ok := ds.Floats("cash_flows")
	require.True(t, ok)
	assert.Equal(t, []float64{100, 110, 121}, flows)
	assert.Equal(t, 0.1, ds.FloatOr("discount_rate", 0))
	assert.Equal(t, 1000.0, ds.FloatOr("shares_outstanding", 0))

	label, ok := ds.String("market_sentiment")
	assert.True(t, ok)
	assert.Equal(t, "bearish", label)

	assert.False(t, ds.Has("notes"), "nulls are dropped, not kept as placeholders")
	assert.False(t, ds.Has("tags"), "non-numeric lists are dropped")
	assert.False(t, ds.Has("task"), "outer envelope is not part of the data")

	prior, ok := ds.Nested("prior_year")
	require.True(t, ok)
	assert.Equal(t, 50.0, prior.FloatOr("net_income", 0))
}

func TestNormalizeKeyCollisions(t *testing.T) {
	for i := 0; i < 20; i++ {
		ds := Normalize(map[string]any{"totalAssets": 1.0, "total_assets": 2.0, "TotalAssets": 3.0})
		assert.Equal(t, 2.0, ds.FloatOr("total_assets", 0))
	}
	ds := Normalize(map[string]any{"totalAssets": 1.0, "TotalAssets": 3.0})
	assert.Equal(t, 3.0, ds.FloatOr("total_assets", 0), "TotalAssets sorts before totalAssets")
}

func TestNormalizeSeriesWithGapsIsDropped(t *testing.T) {
	ds := Normalize(map[string]any{"prices": []any{100.0, nil, 102.0}, "cashFlows": []any{1.0, 2.0}})
	assert.False(t, ds.Has("prices"))
	assert.Equal(t, []float64{1, 2}, ds["cash_flows"])
}

func TestNormalizeRejectsNonFiniteStrings(t *testing.T) {
	ds := Normalize(map[string]any{"revenueGrowth": "NaN", "beta": "+Inf", "price": "1e400"})
	_, ok := ds.Float("revenue_growth")
	assert.False(t, ok)
	_, ok = ds.Float("beta")
	assert.False(t, ok)
	_, ok = ds.Float("price")
	assert.False(t, ok)
}

func TestNormalizeWithoutEnvelope(t *testing.T) {
	ds := Normalize(map[string]any{"Price": 10.0, "EPS": "2"})
	assert.Equal(t, 10.0, ds.FloatOr("price", 0))
	assert.Equal(t, 2.0, ds.FloatOr("eps", 0))
}

func TestDecode(t *testing.T) {
	ds, strategy, err := Decode([]byte(`{'data': {'historicalPrices': [1, 2, 3],}}`))
	require.NoError(t, err)
	assert.Equal(t, utils.StrategyRepaired, strategy)
	assert.Equal(t, []float64{1, 2, 3}, ds["historical_prices"])
}

func TestAccessors(t *testing.T) {
	ds := Dataset{"a": 1.0, "b": []float64{1, 2}, "c": "x", "z": 3.0}

	assert.True(t, ds.Has("a", "b"))
	assert.Equal(t, []string{"d"}, ds.Missing("a", "d"))

	v, ok := ds.FirstFloat("missing", "z")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.Nil(t, ds.FloatPtr("missing"))

	single, ok := ds.Floats("a")
	assert.True(t, ok)
	assert.Equal(t, []float64{1}, single)

	assert.Equal(t, []float64{1, 3}, ds.Numbers())
	assert.Equal(t, []any{1.0, "x", 3.0}, ds.Scalars())
}
