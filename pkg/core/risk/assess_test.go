package risk

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

func TestRate(t *testing.T) {
	tests := []struct {
		name  string
		z     *ZScore
		f     *FScore
		level string
	}{
		{"healthy", &ZScore{Score: 3.2, Zone: ZoneSafe}, &FScore{Score: 8}, LevelLow},
		{"solid", &ZScore{Score: 2.2, Zone: ZoneGrey}, &FScore{Score: 6}, LevelModerateLow},
		{"mixed", &ZScore{Score: 1.5, Zone: ZoneDistress}, &FScore{Score: 6}, LevelModerate},
		{"weak", &ZScore{Score: 1.5, Zone: ZoneDistress}, &FScore{Score: 3}, LevelModerateHigh},
		{"insolvent", &ZScore{Score: 0.8, Zone: ZoneDistress}, &FScore{Score: 9}, LevelHigh},
		{"z only", &ZScore{Score: 3.5, Zone: ZoneSafe}, nil, LevelModerateLow},
		{"f only", nil, &FScore{Score: 2, Health: "weak"}, LevelModerateHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Rate(tt.z, tt.f, nil)
			assert.Equal(t, tt.level, r.Level)
			assert.NotEmpty(t, r.Recommendation)
			assert.NotNil(t, r.MacroFactors)
		})
	}

	assert.False(t, Rate(&ZScore{Score: 0.5}, &FScore{Score: 9}, nil).Investable)
	assert.True(t, Rate(&ZScore{Score: 3}, &FScore{Score: 7}, nil).Investable)
}

func TestMacroFactors(t *testing.T) {
	ds := dataset.Dataset{
		"interest_rate_trend": "Rising",
		"gdp_growth":          0.5,
		"inflation":           6.2,
		"market_sentiment":    "bearish",
	}
	assert.Equal(t, []string{
		"rising interest rates", "weak GDP growth", "high inflation", "bearish market sentiment",
	}, MacroFactors(ds))

	assert.Empty(t, MacroFactors(dataset.Dataset{"gdp_growth": 2.5, "inflation": 2.0}))
}

func TestAssessFull(t *testing.T) {
	ds := dataset.Dataset{
		"total_assets":        1000.0,
		"total_liabilities":   300.0,
		"working_capital":     400.0,
		"retained_earnings":   500.0,
		"ebit":                250.0,
		"market_cap":          2000.0,
		"revenue":             1500.0,
		"net_income":          120.0,
		"operating_cash_flow": 150.0,
		"historical_prices":   noisyPrices(40),
		"inflation":           7.0,
	}
	a := NewAssessor(NewSimulator(SimulationConfig{Paths: 50, Steps: 20}, nil, zerolog.Nop()), zerolog.Nop())

	out, err := a.Assess(context.Background(), ds, Options{Piotroski: true, Simulation: true, Seed: 1})
	require.NoError(t, err)
	require.NotNil(t, out.ZScore)
	require.NotNil(t, out.FScore)
	require.NotNil(t, out.Simulation)
	assert.Equal(t, ZoneSafe, out.ZScore.Zone)
	assert.Equal(t, []string{"high inflation"}, out.Rating.MacroFactors)
	assert.Contains(t, out.Warnings[0], "without prior year")
}

func TestAssessZOnly(t *testing.T) {
	a := NewAssessor(nil, zerolog.Nop())
	out, err := a.Assess(context.Background(), dataset.Dataset{"total_assets": 100.0, "total_liabilities": 50.0, "revenue": 300.0}, Options{})
	require.NoError(t, err)
	assert.Nil(t, out.FScore)
	assert.Nil(t, out.Simulation)
	assert.Equal(t, ZoneSafe, out.ZScore.Zone) // 1.0 * 3 = 3.0
}

func TestAssessWithoutStatementsFails(t *testing.T) {
	a := NewAssessor(nil, zerolog.Nop())
	_, err := a.Assess(context.Background(), dataset.Dataset{"historical_prices": []float64{1, 2}}, Options{})
	assert.Equal(t, apperr.InsufficientData, apperr.KindOf(err))
}

func TestAssessWarnsOnShortPriceHistory(t *testing.T) {
	a := NewAssessor(NewSimulator(SimulationConfig{Paths: 10, Steps: 5}, nil, zerolog.Nop()), zerolog.Nop())
	out, err := a.Assess(context.Background(), dataset.Dataset{
		"total_assets":      100.0,
		"total_liabilities": 50.0,
		"historical_prices": []float64{1, 2, 3},
	}, Options{Simulation: true})
	require.NoError(t, err)
	assert.Nil(t, out.Simulation)
	assert.Contains(t, out.Warnings[0], "simulation skipped")
}

func TestAssessReportsIntegrityGaps(t *testing.T) {
	a := NewAssessor(nil, zerolog.Nop())
	out, err := a.Assess(context.Background(), dataset.Dataset{
		"total_assets":      100.0,
		"total_liabilities": 50.0,
		"total_equity":      40.0,
	}, Options{})
	require.NoError(t, err)
	assert.Contains(t, out.Warnings, "balance sheet out of balance by 10.00")
}
