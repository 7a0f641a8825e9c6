// Package consensus measures how far independent model predictions agree and
// blends them into weighted estimates.
package consensus

import (
	"sort"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
	"valuation_engine/pkg/core/dataset"
)

const (
	defaultWeight   = 1.0
	defaultAccuracy = 0.5

	consistencyShare = 0.6
	accuracyShare    = 0.4

	// BlendedPredictionKey holds the weighted blend of each model's mean prediction.
	BlendedPredictionKey = "prediction"
)

// ModelOutput is what one model reported.
type ModelOutput struct {
	Predictions []float64
	Metrics     map[string]float64
}

// Input is the set of model outputs with optional weights and track records.
type Input struct {
	Models   map[string]ModelOutput
	Weights  map[string]float64
	Accuracy map[string]float64
}

// ModelScore describes one model's reliability.
type ModelScore struct {
	Model               string  `json:"model"`
	Weight              float64 `json:"weight"`
	InternalConsistency float64 `json:"internal_consistency"`
	Accuracy            float64 `json:"accuracy"`
	Score               float64 `json:"score"`
}

// Result summarizes cross-model agreement.
type Result struct {
	OverallConsistency float64            `json:"overall_consistency"`
	BestModel          string             `json:"best_model"`
	Models             []ModelScore       `json:"models"`
	Blended            map[string]float64 `json:"blended_predictions"`
	Level              string             `json:"agreement_level"`
	Recommendation     string             `json:"recommendation"`
}

// InputFromDataset reads model_predictions, model_weights and historical_accuracy.
// A model entry may be a number, a list, or a record whose "predictions" field
// holds the values and whose other numeric fields are named metrics.
func InputFromDataset(ds dataset.Dataset) Input {
	in := Input{Models: map[string]ModelOutput{}, Weights: map[string]float64{}, Accuracy: map[string]float64{}}

	preds, _ := ds.Nested("model_predictions")
	for model := range preds {
		var out ModelOutput
		if values, ok := preds.Floats(model); ok {
			out.Predictions = values
		} else if rec, ok := preds.Nested(model); ok {
			out.Predictions, _ = rec.FirstFloats("predictions", "prediction")
			for k, v := range rec {
				if f, isNum := v.(float64); isNum && k != "predictions" && k != "prediction" {
					if out.Metrics == nil {
						out.Metrics = map[string]float64{}
					}
					out.Metrics[k] = f
				}
			}
		}
		in.Models[model] = out
	}

	copyScalars(ds, "model_weights", in.Weights)
	copyScalars(ds, "historical_accuracy", in.Accuracy)
	return in
}

func copyScalars(ds dataset.Dataset, key string, dst map[string]float64) {
	nested, ok := ds.Nested(key)
	if !ok {
		return
	}
	for k := range nested {
		if v, ok := nested.Float(k); ok {
			dst[k] = v
		}
	}
}

// Evaluate scores agreement across models.
func Evaluate(in Input) (Result, error) {
	models := make([]string, 0, len(in.Models))
	for m, out := range in.Models {
		if len(out.Predictions) > 0 || len(out.Metrics) > 0 {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return Result{}, apperr.New(apperr.InsufficientData, "consensus.Evaluate", "no model predictions supplied")
	}
	sort.Strings(models)

	// 1. Normalized weights
	weights := make(map[string]float64, len(models))
	var total float64
	for _, m := range models {
		w, ok := in.Weights[m]
		if !ok || w < 0 {
			w = defaultWeight
		}
		weights[m] = w
		total += w
	}
	for _, m := range models {
		if total > 0 {
			weights[m] /= total
		} else {
			weights[m] = 1 / float64(len(models))
		}
	}

	// 2. Per-model scores and pooled predictions
	res := Result{Blended: map[string]float64{}}
	var pooled []float64
	bestScore := -1.0
	for _, m := range models {
		out := in.Models[m]
		internal := 1.0
		if len(out.Predictions) > 1 {
			internal = clamp01(1 - calc.CoefficientOfVariation(out.Predictions))
		}
		acc, ok := in.Accuracy[m]
		if !ok {
			acc = defaultAccuracy
		}
		score := consistencyShare*internal + accuracyShare*acc
		res.Models = append(res.Models, ModelScore{
			Model:               m,
			Weight:              calc.Round(weights[m], 4),
			InternalConsistency: calc.Round(internal, 4),
			Accuracy:            acc,
			Score:               calc.Round(score, 4),
		})
		if score > bestScore {
			bestScore, res.BestModel = score, m
		}
		pooled = append(pooled, out.Predictions...)
	}

	// 3. Overall agreement
	overall := 1.0
	if len(pooled) > 0 {
		overall = clamp01(1 - calc.CoefficientOfVariation(pooled))
	} else {
		overall = metricAgreement(in.Models, models)
	}
	res.OverallConsistency = calc.Round(overall, 4)

	// 4. Weighted blends per metric, over the models that report it
	blend(res.Blended, models, weights, func(m string) (float64, bool) {
		p := in.Models[m].Predictions
		if len(p) == 0 {
			return 0, false
		}
		return calc.Mean(p), true
	}, BlendedPredictionKey)
	for _, metric := range metricNames(in.Models, models) {
		blend(res.Blended, models, weights, func(m string) (float64, bool) {
			v, ok := in.Models[m].Metrics[metric]
			return v, ok
		}, metric)
	}

	res.Level, res.Recommendation = recommend(res.OverallConsistency)
	return res, nil
}

func blend(dst map[string]float64, models []string, weights map[string]float64,
	value func(string) (float64, bool), key string) {
	var sum, wsum float64
	for _, m := range models {
		v, ok := value(m)
		if !ok {
			continue
		}
		sum += weights[m] * v
		wsum += weights[m]
	}
	if wsum > 0 {
		dst[key] = calc.Round(sum/wsum, 4)
	}
}

func metricNames(outputs map[string]ModelOutput, models []string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range models {
		for k := range outputs[m].Metrics {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// metricAgreement averages per-metric agreement when models only report named metrics.
func metricAgreement(outputs map[string]ModelOutput, models []string) float64 {
	names := metricNames(outputs, models)
	if len(names) == 0 {
		return 1
	}
	var sum float64
	for _, name := range names {
		var vals []float64
		for _, m := range models {
			if v, ok := outputs[m].Metrics[name]; ok {
				vals = append(vals, v)
			}
		}
		sum += clamp01(1 - calc.CoefficientOfVariation(vals))
	}
	return sum / float64(len(names))
}

func recommend(consistency float64) (level, advice string) {
	switch {
	case consistency >= 0.8:
		return "high", "models agree closely; blended predictions are reliable"
	case consistency >= 0.6:
		return "moderate", "models broadly agree; favour the best-scoring model"
	case consistency >= 0.4:
		return "low", "models diverge; use predictions with caution"
	default:
		return "very low", "models disagree; do not rely on the blended predictions"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
