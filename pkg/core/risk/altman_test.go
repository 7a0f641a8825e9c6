package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

func TestAltmanZHealthyFirm(t *testing.T) {
	// Strong working capital and EBIT, light liabilities
	z, err := AltmanZ(ZInput{
		WorkingCapital:   400,
		RetainedEarnings: 500,
		EBIT:             250,
		MarketEquity:     2000,
		Sales:            1500,
		TotalAssets:      1000,
		TotalLiabilities: 300,
	})
	require.NoError(t, err)

	// 0.48 + 0.7 + 0.825 + 4.0 + 1.5 = 7.505
	assert.InDelta(t, 7.505, z.Score, 1e-4)
	assert.Equal(t, ZoneSafe, z.Zone)
	assert.Equal(t, 4.0, z.Components.MarketEquity)
}

func TestAltmanZNearInsolventFirm(t *testing.T) {
	z, err := AltmanZ(ZInput{
		WorkingCapital:   -200,
		RetainedEarnings: -300,
		EBIT:             -50,
		MarketEquity:     100,
		Sales:            400,
		TotalAssets:      1000,
		TotalLiabilities: 950,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, z.Score, 1.81)
	assert.Equal(t, ZoneDistress, z.Zone)
}

func TestAltmanZGreyZone(t *testing.T) {
	z, err := AltmanZ(ZInput{Sales: 2000, TotalAssets: 1000, TotalLiabilities: 500})
	require.NoError(t, err)
	assert.Equal(t, 2.0, z.Score)
	assert.Equal(t, ZoneGrey, z.Zone)
}

func TestAltmanZUndefinedWithoutDenominators(t *testing.T) {
	_, err := AltmanZ(ZInput{Sales: 100, TotalLiabilities: 10})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	_, err = AltmanZ(ZInput{Sales: 100, TotalAssets: 10})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestZInputFromDataset(t *testing.T) {
	in, ok := ZInputFromDataset(dataset.Dataset{
		"total_assets":        1000.0,
		"current_assets":      300.0,
		"current_liabilities": 100.0,
		"revenue":             800.0,
		"market_cap":          900.0,
	})
	assert.True(t, ok)
	assert.Equal(t, 200.0, in.WorkingCapital)
	assert.Equal(t, 800.0, in.Sales)
	assert.Equal(t, 900.0, in.MarketEquity)

	_, ok = ZInputFromDataset(dataset.Dataset{"revenue": 1.0})
	assert.False(t, ok)
}
