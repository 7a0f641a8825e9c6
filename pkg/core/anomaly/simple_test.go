package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimple(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		score  float64
		label  string
	}{
		// mean 28, population std exactly 36 => 72/36 = 2.0, which is not above 2
		{"single spike at boundary", []float64{10, 10, 10, 10, 100}, 2.0, "signs of abnormality"},
		{"longer flat run", []float64{10, 10, 10, 10, 10, 10, 100}, 2.4495, "highly abnormal"},
		{"symmetric pair", []float64{1, 3}, 1.0, "normal"},
		{"constant", []float64{5, 5, 5}, 0, "normal"},
		{"empty", nil, 0, "normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Simple(tt.values)
			assert.InDelta(t, tt.score, res.Score, 1e-4)
			assert.Equal(t, tt.label, res.Interpretation)
			assert.Equal(t, len(tt.values), res.Count)
		})
	}

	res := Simple([]float64{10, 10, 10, 10, 100})
	assert.Equal(t, 28.0, res.Mean)
	assert.Equal(t, 36.0, res.StdDev)
	assert.Nil(t, res.Benford, "too few values for a digit test")
}

func TestSimpleAddsBenfordForLargeSets(t *testing.T) {
	var values []float64
	for i := 1; i <= 30; i++ {
		values = append(values, float64(i*37))
	}
	res := Simple(values)
	require.NotNil(t, res.Benford)
	assert.Equal(t, 30, res.Benford.TotalCount)
}

func TestBenford(t *testing.T) {
	// Every value leads with 9: far from the expected distribution
	skewed := make([]float64, 50)
	for i := range skewed {
		skewed[i] = 900 + float64(i)
	}
	res := Benford(skewed)
	assert.True(t, res.Flagged)
	assert.Equal(t, "High Risk", res.Level)

	assert.Equal(t, "Insufficient Data", Benford([]float64{0.5, 0}).Level)
}
