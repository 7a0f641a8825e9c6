package risk

import (
	"context"
	"math/rand/v2"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
)

const (
	// MinPriceHistory yields the 30 returns needed to estimate drift and volatility.
	MinPriceHistory = 31

	DefaultPaths = 1000
	DefaultSteps = 252

	varPercentile = 5.0
)

// SimulationConfig sizes the simulation.
type SimulationConfig struct {
	Paths   int
	Steps   int
	Workers int
}

// SourceFunc returns the random source for one path. Paths get independent
// streams so results do not depend on worker scheduling.
type SourceFunc func(seed, stream uint64) rand.Source

// PCGSource is the default SourceFunc.
func PCGSource(seed, stream uint64) rand.Source {
	return rand.NewPCG(seed, stream)
}

// SimulationSummary describes the distribution of terminal prices.
type SimulationSummary struct {
	CurrentPrice        float64 `json:"current_price"`
	DailyMeanReturn     float64 `json:"daily_mean_return"`
	DailyVolatility     float64 `json:"daily_volatility"`
	Paths               int     `json:"paths"`
	Steps               int     `json:"steps"`
	ExpectedPrice       float64 `json:"expected_price"`
	MedianPrice         float64 `json:"median_price"`
	MinPrice            float64 `json:"min_price"`
	MaxPrice            float64 `json:"max_price"`
	Volatility          float64 `json:"volatility"`
	ExpectedReturnPct   float64 `json:"expected_return_pct"`
	VaR95               float64 `json:"var_95"`
	CVaR95              float64 `json:"cvar_95"`
	DownsideProbability float64 `json:"downside_probability"`
	RiskRewardRatio     float64 `json:"risk_reward_ratio"`
}

// Simulator runs Monte Carlo price paths.
type Simulator struct {
	cfg    SimulationConfig
	source SourceFunc
	log    zerolog.Logger
}

// NewSimulator creates a simulator; zero config fields take defaults and a nil
// source uses PCG.
func NewSimulator(cfg SimulationConfig, source SourceFunc, logger zerolog.Logger) *Simulator {
	if cfg.Paths <= 0 {
		cfg.Paths = DefaultPaths
	}
	if cfg.Steps <= 0 {
		cfg.Steps = DefaultSteps
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if source == nil {
		source = PCGSource
	}
	return &Simulator{
		cfg:    cfg,
		source: source,
		log:    logger.With().Str("component", "monte_carlo").Logger(),
	}
}

// Simulate estimates daily drift and volatility from prices and projects
// Paths × Steps price paths with price_t = price_{t-1} × (1 + N(μ, σ)).
func (s *Simulator) Simulate(ctx context.Context, prices []float64, seed uint64) (SimulationSummary, error) {
	const op = "risk.Simulate"
	if len(prices) < MinPriceHistory {
		return SimulationSummary{}, apperr.New(apperr.InsufficientData, op,
			"need at least %d historical prices, got %d", MinPriceHistory, len(prices))
	}
	current := prices[len(prices)-1]
	if current <= 0 {
		return SimulationSummary{}, apperr.New(apperr.InvalidInput, op, "current price must be positive")
	}

	returns := calc.Returns(prices)
	mu := calc.Mean(returns)
	sigma := calc.SampleStdDev(returns)

	terminal, err := s.run(ctx, current, mu, sigma, seed)
	if err != nil {
		return SimulationSummary{}, err
	}

	summary := summarize(terminal, current)
	summary.DailyMeanReturn = calc.Round(mu, 6)
	summary.DailyVolatility = calc.Round(sigma, 6)
	summary.Paths = s.cfg.Paths
	summary.Steps = s.cfg.Steps

	s.log.Debug().
		Int("paths", s.cfg.Paths).
		Float64("mu", mu).
		Float64("sigma", sigma).
		Float64("expected", summary.ExpectedPrice).
		Msg("simulation complete")
	return summary, nil
}

func (s *Simulator) run(ctx context.Context, current, mu, sigma float64, seed uint64) ([]float64, error) {
	terminal := make([]float64, s.cfg.Paths)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (s.cfg.Paths + s.cfg.Workers - 1) / s.cfg.Workers
	for start := 0; start < s.cfg.Paths; start += chunk {
		end := min(start+chunk, s.cfg.Paths)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rng := rand.New(s.source(seed, uint64(i)))
				price := current
				for step := 0; step < s.cfg.Steps; step++ {
					price *= 1 + mu + sigma*rng.NormFloat64()
				}
				terminal[i] = price
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return terminal, nil
}

func summarize(terminal []float64, current float64) SimulationSummary {
	mean := calc.Mean(terminal)
	varPrice := calc.Percentile(terminal, varPercentile)

	var tail []float64
	var below int
	lo, hi := terminal[0], terminal[0]
	for _, p := range terminal {
		if p <= varPrice {
			tail = append(tail, p)
		}
		if p < current {
			below++
		}
		lo = min(lo, p)
		hi = max(hi, p)
	}

	var rr float64
	if denom := current - varPrice; denom != 0 {
		rr = (mean - current) / denom
	}

	return SimulationSummary{
		CurrentPrice:        current,
		ExpectedPrice:       calc.Round(mean, 2),
		MedianPrice:         calc.Round(calc.Median(terminal), 2),
		MinPrice:            calc.Round(lo, 2),
		MaxPrice:            calc.Round(hi, 2),
		Volatility:          calc.Round(calc.PopStdDev(terminal), 2),
		ExpectedReturnPct:   calc.Round((mean-current)/current*100, 2),
		VaR95:               calc.Round(varPrice, 2),
		CVaR95:              calc.Round(calc.Mean(tail), 2),
		DownsideProbability: calc.Round(float64(below)/float64(len(terminal)), 4),
		RiskRewardRatio:     calc.Round(rr, 4),
	}
}
