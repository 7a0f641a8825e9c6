package risk

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/dataset"
)

// statementFields are the financial-statement fields any assessment can start from.
var statementFields = []string{
	"total_assets", "total_liabilities", "net_income", "revenue", "sales", "ebit",
	"working_capital", "current_assets", "retained_earnings", "operating_cash_flow",
}

// Options select which parts of the assessment run.
type Options struct {
	Piotroski  bool
	Simulation bool
	Seed       uint64
}

// Assessment bundles the risk scores for one dataset.
type Assessment struct {
	ZScore     *ZScore            `json:"z_score,omitempty"`
	FScore     *FScore            `json:"f_score,omitempty"`
	Simulation *SimulationSummary `json:"monte_carlo,omitempty"`
	Rating     Rating             `json:"rating"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// Assessor runs risk assessments.
type Assessor struct {
	sim *Simulator
	log zerolog.Logger
}

func NewAssessor(sim *Simulator, logger zerolog.Logger) *Assessor {
	return &Assessor{sim: sim, log: logger.With().Str("component", "risk").Logger()}
}

// Assess scores a dataset. Components whose inputs are missing or invalid are
// skipped with a warning; a dataset without any statement data fails.
func (a *Assessor) Assess(ctx context.Context, ds dataset.Dataset, opts Options) (Assessment, error) {
	if !hasAny(ds, statementFields) {
		return Assessment{}, apperr.New(apperr.InsufficientData, "risk.Assess", "no financial statement data present")
	}

	var out Assessment

	// 1. Altman Z-score
	if in, ok := ZInputFromDataset(ds); ok {
		z, err := AltmanZ(in)
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("z-score unavailable: %v", err))
		} else {
			out.ZScore = &z
		}
	} else {
		out.Warnings = append(out.Warnings, "z-score unavailable: no balance sheet totals")
	}

	// 2. Piotroski F-score
	if opts.Piotroski {
		f := PiotroskiF(PeriodFromDataset(ds), PriorFromDataset(ds))
		out.FScore = &f
		if !f.HasPrior {
			out.Warnings = append(out.Warnings, "f-score computed without prior year; trend criteria scored 0")
		}
	}

	// 3. Monte Carlo
	if opts.Simulation && a.sim != nil {
		if prices, ok := ds.Floats("historical_prices"); ok {
			summary, err := a.sim.Simulate(ctx, prices, opts.Seed)
			if err != nil {
				if ctx.Err() != nil {
					return Assessment{}, ctx.Err()
				}
				out.Warnings = append(out.Warnings, fmt.Sprintf("simulation skipped: %v", err))
			} else {
				out.Simulation = &summary
			}
		}
	}

	out.Warnings = append(out.Warnings, IntegrityWarnings(ds)...)

	// 4. Synthesis
	out.Rating = Rate(out.ZScore, out.FScore, MacroFactors(ds))

	a.log.Debug().
		Str("level", out.Rating.Level).
		Int("warnings", len(out.Warnings)).
		Msg("risk assessed")
	return out, nil
}

func hasAny(ds dataset.Dataset, keys []string) bool {
	for _, k := range keys {
		if ds.Has(k) {
			return true
		}
	}
	return false
}
