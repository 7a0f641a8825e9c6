// Package dispatch routes an analysis task to the simple or enhanced variant of
// its module and shapes the outcome into a JSON-ready record.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"valuation_engine/pkg/core/anomaly"
	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/config"
	"valuation_engine/pkg/core/dataset"
	"valuation_engine/pkg/core/predictor"
	"valuation_engine/pkg/core/risk"
	"valuation_engine/pkg/core/valuation"
)

// Result keys added by the dispatcher.
const (
	KeyError             = "error"
	KeyVariant           = "analysis_variant"
	KeyDegradedFrom      = "degraded_from"
	KeyDegradationReason = "degradation_reason"
	KeyPrediction        = "ml_prediction"

	VariantSimple   = "simple"
	VariantEnhanced = "enhanced"
)

// Result is one analysis outcome. A failure is exactly {"error": message}.
type Result map[string]any

// Failed reports whether r is an error record.
func (r Result) Failed() bool {
	_, ok := r[KeyError]
	return ok
}

// Deps are the collaborators a Dispatcher routes to.
type Deps struct {
	Policies     map[string]config.TaskPolicy
	DCF          *valuation.DCFModel
	Assessor     *risk.Assessor
	Scorer       anomaly.Scorer
	Predictor    predictor.Predictor
	DefaultModel string
	Seed         uint64
	BatchWorkers int
	Metrics      *Metrics
}

// Dispatcher runs analyses. It holds no per-call state and is safe for
// concurrent use.
type Dispatcher struct {
	policies     map[string]config.TaskPolicy
	dcf          *valuation.DCFModel
	assessor     *risk.Assessor
	scorer       anomaly.Scorer
	predictor    predictor.Predictor
	seed         uint64
	batchWorkers int
	metrics      *Metrics
	tasks        map[string]taskHandler
	log          zerolog.Logger

	mu           sync.RWMutex
	defaultModel string
}

// New builds a Dispatcher. Missing models get defaults; a nil Predictor
// disables prediction merging.
func New(deps Deps, logger zerolog.Logger) *Dispatcher {
	logger = logger.With().Str("component", "dispatch").Logger()
	d := &Dispatcher{
		policies:     deps.Policies,
		dcf:          deps.DCF,
		assessor:     deps.Assessor,
		scorer:       deps.Scorer,
		predictor:    deps.Predictor,
		defaultModel: deps.DefaultModel,
		seed:         deps.Seed,
		batchWorkers: deps.BatchWorkers,
		metrics:      deps.Metrics,
		log:          logger,
	}
	if d.policies == nil {
		d.policies = config.Default().Tasks
	}
	if d.dcf == nil {
		d.dcf = valuation.NewDCFModel(nil, 0, 0, logger)
	}
	if d.assessor == nil {
		d.assessor = risk.NewAssessor(risk.NewSimulator(risk.SimulationConfig{}, nil, logger), logger)
	}
	if d.batchWorkers <= 0 {
		d.batchWorkers = runtime.GOMAXPROCS(0)
	}
	d.tasks = d.handlers()
	return d
}

// NewFromConfig wires every module from configuration and registers metrics on reg.
func NewFromConfig(cfg config.Config, reg prometheus.Registerer, logger zerolog.Logger) *Dispatcher {
	fitted := make(map[string]predictor.Coefficients, len(cfg.Models))
	for id, m := range cfg.Models {
		fitted[strings.ToLower(id)] = predictor.Coefficients{Intercept: m.Intercept, Weights: m.Weights}
	}

	sim := risk.NewSimulator(risk.SimulationConfig{
		Paths:   cfg.MonteCarlo.Paths,
		Steps:   cfg.MonteCarlo.Steps,
		Workers: cfg.MonteCarlo.Workers,
	}, risk.PCGSource, logger)

	return New(Deps{
		Policies:     cfg.Tasks,
		DCF:          valuation.NewDCFModel(predictor.NewRidge(cfg.Analysis.RidgeLambda), cfg.Analysis.GrowthRate, cfg.Analysis.TerminalGrowthRate, logger),
		Assessor:     risk.NewAssessor(sim, logger),
		Scorer:       BaselineFromConfig(cfg.Anomaly),
		Predictor:    predictor.DefaultRegistry(fitted),
		DefaultModel: cfg.Analysis.DefaultModel,
		Seed:         cfg.MonteCarlo.Seed,
		BatchWorkers: cfg.Analysis.BatchWorkers,
		Metrics:      NewMetrics(reg),
	}, logger)
}

// BaselineFromConfig orders configured feature statistics into a Baseline.
// Any missing feature leaves the baseline untrained.
func BaselineFromConfig(cfg config.AnomalyBaseline) *anomaly.Baseline {
	means := make([]float64, 0, len(anomaly.FeatureNames))
	stds := make([]float64, 0, len(anomaly.FeatureNames))
	for _, name := range anomaly.FeatureNames {
		m, okM := cfg.Means[name]
		s, okS := cfg.StdDevs[name]
		if !okM || !okS {
			return anomaly.NewBaseline(nil, nil)
		}
		means = append(means, m)
		stds = append(stds, s)
	}
	return anomaly.NewBaseline(means, stds)
}

// Tasks lists the supported task names.
func (d *Dispatcher) Tasks() []string {
	return []string{
		config.TaskDCF, config.TaskPEAnalysis, config.TaskAbnormalFinding,
		config.TaskModelConsistency, config.TaskRiskMitigation,
	}
}

// Policies returns the task policies in effect.
func (d *Dispatcher) Policies() map[string]config.TaskPolicy {
	return d.policies
}

// Models lists the prediction models the predictor knows, when it can enumerate them.
func (d *Dispatcher) Models() []string {
	if lister, ok := d.predictor.(interface{ Models() []string }); ok {
		return lister.Models()
	}
	return nil
}

// DefaultModel is the model used when a request names none.
func (d *Dispatcher) DefaultModel() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.defaultModel
}

// SetDefaultModel switches the default model. Ids the predictor does not know
// are rejected with UnknownModel.
func (d *Dispatcher) SetDefaultModel(id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if models := d.Models(); models != nil && !slices.Contains(models, id) {
		return apperr.New(apperr.UnknownModel, "dispatch.SetDefaultModel", "unknown model: %s", id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.defaultModel = id
	d.log.Info().Str("model", id).Msg("default model switched")
	return nil
}

// Analyze runs one task. It never returns an error and never panics: every
// failure becomes an error record.
func (d *Dispatcher) Analyze(ctx context.Context, task, modelID string, ds dataset.Dataset) (res Result) {
	start := time.Now()
	chosen := VariantSimple
	h, ok := d.tasks[task]
	label := task
	if !ok {
		label = "unknown"
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("task", task).Interface("panic", r).Msg("analysis panicked")
			res = errorResult(apperr.New(apperr.ComputationError, "dispatch.Analyze", "analysis failed: %v", r))
		}
		d.metrics.observe(label, chosen, res.Failed(), time.Since(start))
	}()

	if !ok {
		return errorResult(apperr.New(apperr.UnknownTask, "dispatch.Analyze", "unknown task: %s", task))
	}
	if err := ctx.Err(); err != nil {
		return errorResult(err)
	}
	if ds == nil {
		ds = dataset.Dataset{}
	}

	// 1. Variant selection
	policy := d.policies[task]
	run := h.simple
	if missing := ds.Missing(policy.Required...); len(missing) == 0 {
		chosen, run = VariantEnhanced, h.enhanced
	} else {
		d.log.Debug().Str("task", task).Strs("missing", missing).Msg("using simple variant")
	}

	// 2. Execution with graceful degradation
	out, err := run(ctx, ds)
	var reason string
	if err != nil && chosen == VariantEnhanced && degradable(err) {
		reason = err.Error()
		d.log.Warn().Str("task", task).Err(err).Msg("enhanced analysis unavailable, degrading to simple")
		d.metrics.degraded(task)
		chosen = VariantSimple
		out, err = h.simple(ctx, ds)
	}
	if err != nil {
		d.log.Debug().Str("task", task).Err(err).Msg("analysis failed")
		return errorResult(err)
	}

	// 3. Shaping
	res, err = toResult(out)
	if err != nil {
		return errorResult(err)
	}
	res[KeyVariant] = chosen
	if reason != "" {
		res[KeyDegradedFrom] = VariantEnhanced
		res[KeyDegradationReason] = reason
	}

	// 4. Prediction merge
	if policy.Predict && d.predictor != nil {
		if _, taken := res[KeyPrediction]; !taken {
			res[KeyPrediction] = d.predict(ctx, modelID, ds)
		}
	}
	return res
}

// AnalyzeBatch runs the task over every record independently. Results keep the
// input order.
func (d *Dispatcher) AnalyzeBatch(ctx context.Context, task, modelID string, records []dataset.Dataset) []Result {
	results := make([]Result, len(records))
	var g errgroup.Group
	g.SetLimit(d.batchWorkers)
	for i, ds := range records {
		g.Go(func() error {
			results[i] = d.Analyze(ctx, task, modelID, ds)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) predict(ctx context.Context, modelID string, ds dataset.Dataset) map[string]any {
	if strings.TrimSpace(modelID) == "" {
		modelID = d.DefaultModel()
	}
	label := strings.ToLower(strings.TrimSpace(modelID))
	rec, err := d.predictor.Predict(ctx, modelID, ds)
	if apperr.IsKind(err, apperr.UnknownModel) {
		label = "unknown"
	}
	var out Result
	if err == nil {
		out, err = toResult(rec)
	}
	d.metrics.predicted(label, err != nil)
	if err != nil {
		d.log.Debug().Str("model", modelID).Err(err).Msg("prediction unavailable")
		return map[string]any{KeyError: err.Error()}
	}
	return out
}

func degradable(err error) bool {
	return apperr.IsKind(err, apperr.InsufficientData) || apperr.IsKind(err, apperr.ModelNotTrained)
}

func errorResult(err error) Result {
	return Result{KeyError: err.Error()}
}

// toResult flattens a typed module result into a generic record. Non-finite
// numbers cannot be represented and fail with ComputationError.
func toResult(v any) (Result, error) {
	const op = "dispatch.toResult"
	raw, err := json.Marshal(v)
	if err != nil {
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) {
			return nil, apperr.New(apperr.ComputationError, op, "result contains a non-finite number: %s", unsupported.Str)
		}
		return nil, apperr.Wrap(apperr.ComputationError, op, err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, apperr.Wrap(apperr.ComputationError, op, fmt.Errorf("result is not an object: %w", err))
	}
	return res, nil
}
