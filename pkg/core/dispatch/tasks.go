package dispatch

import (
	"context"
	"math/rand/v2"

	"valuation_engine/pkg/core/anomaly"
	"valuation_engine/pkg/core/config"
	"valuation_engine/pkg/core/consensus"
	"valuation_engine/pkg/core/dataset"
	"valuation_engine/pkg/core/relative"
	"valuation_engine/pkg/core/risk"
	"valuation_engine/pkg/core/valuation"
)

// variant runs one flavour of a task and returns a JSON-serializable value.
type variant func(ctx context.Context, ds dataset.Dataset) (any, error)

type taskHandler struct {
	simple   variant
	enhanced variant
}

func (d *Dispatcher) handlers() map[string]taskHandler {
	return map[string]taskHandler{
		config.TaskDCF:              {simple: d.simpleDCF, enhanced: d.enhancedDCF},
		config.TaskPEAnalysis:       {simple: peVariant(false), enhanced: peVariant(true)},
		config.TaskAbnormalFinding:  {simple: d.simpleAnomaly, enhanced: d.enhancedAnomaly},
		config.TaskModelConsistency: {simple: simpleConsistency, enhanced: enhancedConsistency},
		config.TaskRiskMitigation:   {simple: d.riskVariant(false), enhanced: d.riskVariant(true)},
	}
}

func (d *Dispatcher) simpleDCF(_ context.Context, ds dataset.Dataset) (any, error) {
	return valuation.SimpleFromDataset(ds), nil
}

func (d *Dispatcher) enhancedDCF(_ context.Context, ds dataset.Dataset) (any, error) {
	return d.dcf.FromDataset(ds)
}

func peVariant(heuristic bool) variant {
	return func(_ context.Context, ds dataset.Dataset) (any, error) {
		return relative.Analyze(relative.InputFromDataset(ds), relative.Policy{Heuristic: heuristic})
	}
}

func (d *Dispatcher) simpleAnomaly(_ context.Context, ds dataset.Dataset) (any, error) {
	values, ok := ds.FirstFloats("values", "historical_prices", "prices")
	if !ok {
		values = ds.Numbers()
	}
	return anomaly.Simple(values), nil
}

func (d *Dispatcher) enhancedAnomaly(_ context.Context, ds dataset.Dataset) (any, error) {
	return anomaly.Enhanced(ds, d.scorer)
}

func simpleConsistency(_ context.Context, ds dataset.Dataset) (any, error) {
	if preds, ok := ds.FirstFloats("predictions", "values"); ok {
		values := make([]any, len(preds))
		for i, p := range preds {
			values[i] = p
		}
		return consensus.Agreement(values), nil
	}
	return consensus.Agreement(ds.Scalars()), nil
}

func enhancedConsistency(_ context.Context, ds dataset.Dataset) (any, error) {
	return consensus.Evaluate(consensus.InputFromDataset(ds))
}

func (d *Dispatcher) riskVariant(full bool) variant {
	return func(ctx context.Context, ds dataset.Dataset) (any, error) {
		opts := risk.Options{Piotroski: full, Simulation: full, Seed: d.seedFor(ds)}
		return d.assessor.Assess(ctx, ds, opts)
	}
}

// seedFor prefers a per-request random_seed, then the configured seed, then a
// fresh one.
func (d *Dispatcher) seedFor(ds dataset.Dataset) uint64 {
	if s, ok := ds.Float("random_seed"); ok && s >= 0 {
		return uint64(s)
	}
	if d.seed != 0 {
		return d.seed
	}
	return rand.Uint64()
}
