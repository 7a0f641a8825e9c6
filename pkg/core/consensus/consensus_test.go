package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

func TestEvaluateIdenticalPredictions(t *testing.T) {
	res, err := Evaluate(Input{Models: map[string]ModelOutput{
		"rf": {Predictions: []float64{100, 100}},
		"nn": {Predictions: []float64{100}},
	}})
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.OverallConsistency)
	assert.Equal(t, "high", res.Level)
	// equal scores break toward the smallest id
	assert.Equal(t, "nn", res.BestModel)
	assert.Equal(t, 100.0, res.Blended[BlendedPredictionKey])
	require.Len(t, res.Models, 2)
	assert.Equal(t, 0.8, res.Models[0].Score)
}

func TestEvaluateWeightsAndAccuracy(t *testing.T) {
	res, err := Evaluate(Input{
		Models: map[string]ModelOutput{
			"rf": {Predictions: []float64{100, 110}},
			"nn": {Predictions: []float64{90}},
		},
		Weights:  map[string]float64{"rf": 3, "nn": 1},
		Accuracy: map[string]float64{"rf": 0.9},
	})
	require.NoError(t, err)

	assert.Equal(t, "rf", res.BestModel)
	assert.InDelta(t, 101.25, res.Blended[BlendedPredictionKey], 1e-9)
	assert.InDelta(t, 0.9184, res.OverallConsistency, 1e-4)

	byModel := map[string]ModelScore{}
	for _, m := range res.Models {
		byModel[m.Model] = m
	}
	assert.InDelta(t, 0.75, byModel["rf"].Weight, 1e-9)
	assert.InDelta(t, 0.9314, byModel["rf"].Score, 1e-4)
	assert.InDelta(t, 0.5, byModel["nn"].Accuracy, 1e-9)
}

func TestEvaluateMetricBlendUsesReportingModels(t *testing.T) {
	res, err := Evaluate(Input{Models: map[string]ModelOutput{
		"rf": {Predictions: []float64{10}, Metrics: map[string]float64{"target_price": 0.8}},
		"nn": {Metrics: map[string]float64{"target_price": 0.6}},
	}})
	require.NoError(t, err)

	assert.InDelta(t, 0.7, res.Blended["target_price"], 1e-9)
	assert.Equal(t, 10.0, res.Blended[BlendedPredictionKey])
}

func TestEvaluateNoPredictions(t *testing.T) {
	_, err := Evaluate(Input{Models: map[string]ModelOutput{"rf": {}}})
	assert.True(t, apperr.IsKind(err, apperr.InsufficientData))
}

func TestEvaluateDivergentModels(t *testing.T) {
	res, err := Evaluate(Input{Models: map[string]ModelOutput{
		"rf": {Predictions: []float64{1}},
		"nn": {Predictions: []float64{100}},
	}})
	require.NoError(t, err)
	// mean 50.5, std 49.5
	assert.InDelta(t, 0.0198, res.OverallConsistency, 1e-4)
	assert.Equal(t, "very low", res.Level)
}

func TestInputFromDataset(t *testing.T) {
	ds := dataset.Normalize(map[string]any{
		"model_predictions": map[string]any{
			"rf":  []any{1.0, 2.0},
			"nn":  3.0,
			"xgb": map[string]any{"predictions": []any{4.0}, "mae": 0.2},
		},
		"model_weights":       map[string]any{"rf": 2.0},
		"historical_accuracy": map[string]any{"xgb": 0.7},
	})

	in := InputFromDataset(ds)
	require.Len(t, in.Models, 3)
	assert.Equal(t, []float64{1, 2}, in.Models["rf"].Predictions)
	assert.Equal(t, []float64{3}, in.Models["nn"].Predictions)
	assert.Equal(t, []float64{4}, in.Models["xgb"].Predictions)
	assert.Equal(t, map[string]float64{"mae": 0.2}, in.Models["xgb"].Metrics)
	assert.Equal(t, 2.0, in.Weights["rf"])
	assert.Equal(t, 0.7, in.Accuracy["xgb"])
}

func TestAgreement(t *testing.T) {
	tests := []struct {
		values []any
		index  float64
		label  string
	}{
		{[]any{1.0, 1.0, 1.0, 1.0}, 1, "very consistent"},
		{[]any{1.0, 1.0, 1.0, 2.0}, 0.75, "fairly consistent"},
		{[]any{1.0, 2.0, "buy"}, 0.3333, "inconsistent"},
		{nil, 1, "very consistent"},
	}
	for _, tt := range tests {
		res := Agreement(tt.values)
		assert.InDelta(t, tt.index, res.Index, 1e-4)
		assert.Equal(t, tt.label, res.Interpretation)
	}
}
