// Package predictor provides the point-prediction capability consumed by the engine.
//
// Models are trained elsewhere; this package only holds their fitted parameters and
// evaluates them. A model without parameters reports ModelNotTrained rather than
// inventing a value.
package predictor

import (
	"context"
	"sort"
	"strings"
	"sync"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

// Record is a JSON-serializable prediction.
type Record map[string]any

// Predictor returns a point prediction for a dataset.
type Predictor interface {
	Predict(ctx context.Context, modelID string, ds dataset.Dataset) (Record, error)
}

// Model is a single named estimator.
type Model interface {
	Name() string
	Predict(ds dataset.Dataset) (Record, error)
}

// Built-in model identifiers.
const (
	RandomForest  = "randomforest"
	NeuralNetwork = "neuralnetwork"
	XGBoost       = "xgboost"
)

// resultKeys are the output field names of the built-in models.
var resultKeys = map[string]string{
	RandomForest:  "rf_result",
	NeuralNetwork: "nn_result",
	XGBoost:       "xgb_result",
}

// Coefficients are the fitted parameters of a linear surrogate.
type Coefficients struct {
	Intercept float64
	Weights   map[string]float64
}

// LinearModel evaluates intercept + Σ weight·feature over dataset fields.
type LinearModel struct {
	name      string
	resultKey string
	coef      Coefficients
}

// NewLinearModel builds a model. An empty weight map leaves it untrained.
func NewLinearModel(name, resultKey string, coef Coefficients) *LinearModel {
	if resultKey == "" {
		resultKey = strings.ToLower(name) + "_result"
	}
	return &LinearModel{name: strings.ToLower(name), resultKey: resultKey, coef: coef}
}

func (m *LinearModel) Name() string { return m.name }

// Trained reports whether fitted parameters are loaded.
func (m *LinearModel) Trained() bool { return len(m.coef.Weights) > 0 }

func (m *LinearModel) Predict(ds dataset.Dataset) (Record, error) {
	const op = "predictor.LinearModel"
	if !m.Trained() {
		return nil, apperr.New(apperr.ModelNotTrained, op, "model %s has no fitted parameters", m.name)
	}

	features := make([]string, 0, len(m.coef.Weights))
	for f := range m.coef.Weights {
		features = append(features, f)
	}
	sort.Strings(features)

	value := m.coef.Intercept
	var missing []string
	for _, f := range features {
		x, ok := ds.Float(f)
		if !ok {
			missing = append(missing, f)
			continue
		}
		value += m.coef.Weights[f] * x
	}
	if len(missing) > 0 {
		return nil, apperr.New(apperr.InsufficientData, op, "model %s is missing features: %s", m.name, strings.Join(missing, ", "))
	}

	return Record{m.resultKey: value, "model": m.name}, nil
}

// Registry dispatches predictions by case-insensitive model id.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

// NewRegistry registers the given models.
func NewRegistry(models ...Model) *Registry {
	r := &Registry{models: make(map[string]Model, len(models))}
	for _, m := range models {
		r.Register(m)
	}
	return r
}

// DefaultRegistry registers the three built-in estimators, loading any fitted
// parameters supplied by id.
func DefaultRegistry(fitted map[string]Coefficients) *Registry {
	r := NewRegistry()
	for _, id := range []string{RandomForest, NeuralNetwork, XGBoost} {
		r.Register(NewLinearModel(id, resultKeys[id], fitted[id]))
	}
	return r
}

func (r *Registry) Register(m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[strings.ToLower(m.Name())] = m
}

// Models lists registered ids in sorted order.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Predict(ctx context.Context, modelID string, ds dataset.Dataset) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	m, ok := r.models[strings.ToLower(strings.TrimSpace(modelID))]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.UnknownModel, "predictor.Registry", "unknown model: %s", modelID)
	}
	return m.Predict(ds)
}
