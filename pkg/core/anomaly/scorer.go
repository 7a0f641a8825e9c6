package anomaly

import (
	"math"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
)

// Score is a model's verdict on one feature vector.
type Score struct {
	Value     float64 // in [0, 1), higher is more anomalous
	Anomalous bool
}

// Scorer is a trained one-class anomaly model. Implementations must be safe
// for concurrent use.
type Scorer interface {
	Score(features []float64) (Score, error)
}

// anomalyCutoff is the score above which the binary label turns positive.
const anomalyCutoff = 0.6

// Baseline scores how far a vector sits from a reference population, measured
// as the mean absolute z-score across features and squashed into [0, 1).
// It is immutable once built.
type Baseline struct {
	means []float64
	stds  []float64
}

// NewBaseline loads fitted parameters. Empty parameters give an untrained
// baseline that refuses to score.
func NewBaseline(means, stds []float64) *Baseline {
	if len(means) == 0 || len(means) != len(stds) {
		return &Baseline{}
	}
	b := &Baseline{means: append([]float64(nil), means...), stds: make([]float64, len(stds))}
	for i, s := range stds {
		if s <= 0 {
			s = 1
		}
		b.stds[i] = s
	}
	return b
}

// FitBaseline learns per-feature location and scale from reference vectors.
func FitBaseline(samples [][]float64) (*Baseline, error) {
	const op = "anomaly.FitBaseline"
	if len(samples) < 2 {
		return nil, apperr.New(apperr.InsufficientData, op, "need at least 2 reference vectors, got %d", len(samples))
	}
	width := len(samples[0])
	means := make([]float64, width)
	stds := make([]float64, width)
	col := make([]float64, len(samples))
	for j := 0; j < width; j++ {
		for i, s := range samples {
			if len(s) != width {
				return nil, apperr.New(apperr.InvalidInput, op, "vector %d has %d features, expected %d", i, len(s), width)
			}
			col[i] = s[j]
		}
		means[j] = calc.Mean(col)
		stds[j] = calc.PopStdDev(col)
	}
	return NewBaseline(means, stds), nil
}

// Trained reports whether parameters are loaded.
func (b *Baseline) Trained() bool { return b != nil && len(b.means) > 0 }

func (b *Baseline) Score(features []float64) (Score, error) {
	const op = "anomaly.Baseline"
	if !b.Trained() {
		return Score{}, apperr.New(apperr.ModelNotTrained, op, "anomaly model has not been trained")
	}
	if len(features) != len(b.means) {
		return Score{}, apperr.New(apperr.InvalidInput, op, "expected %d features, got %d", len(b.means), len(features))
	}

	var sumZ float64
	for i, x := range features {
		sumZ += math.Abs(x-b.means[i]) / b.stds[i]
	}
	value := 1 - math.Exp(-sumZ/float64(len(features))/2)
	return Score{Value: value, Anomalous: value > anomalyCutoff}, nil
}
