package predictor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

func TestRegistryUnknownModel(t *testing.T) {
	r := DefaultRegistry(nil)

	_, err := r.Predict(context.Background(), "LinearSVC", dataset.Dataset{})
	require.Error(t, err)
	assert.Equal(t, apperr.UnknownModel, apperr.KindOf(err))
	assert.Equal(t, []string{NeuralNetwork, RandomForest, XGBoost}, r.Models())
}

func TestUntrainedModelRefusesToPredict(t *testing.T) {
	r := DefaultRegistry(nil)

	_, err := r.Predict(context.Background(), "RandomForest", dataset.Dataset{"price": 10.0})
	assert.Equal(t, apperr.ModelNotTrained, apperr.KindOf(err))
}

func TestLinearModelPrediction(t *testing.T) {
	r := DefaultRegistry(map[string]Coefficients{
		XGBoost: {Intercept: 2, Weights: map[string]float64{"eps": 10, "revenue_growth": 5}},
	})
	ds := dataset.Dataset{"eps": 3.0, "revenue_growth": 0.2}

	rec, err := r.Predict(context.Background(), "XGBoost", ds)
	require.NoError(t, err)
	assert.InDelta(t, 33.0, rec["xgb_result"], 1e-9) // 2 + 30 + 1
	assert.Equal(t, "xgboost", rec["model"])

	_, err = r.Predict(context.Background(), "xgboost", dataset.Dataset{"eps": 3.0})
	assert.Equal(t, apperr.InsufficientData, apperr.KindOf(err))
}

func TestRegistryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DefaultRegistry(nil).Predict(ctx, RandomForest, dataset.Dataset{})
	assert.ErrorIs(t, err, context.Canceled)
}
