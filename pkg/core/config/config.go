// Package config loads engine settings: built-in defaults, then an optional YAML
// file, then ENGINE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. ENGINE_SERVER_PORT.
	EnvPrefix = "ENGINE"
	// PathEnv names the variable holding the config file path.
	PathEnv     = "ENGINE_CONFIG"
	DefaultPath = "config/engine.yaml"
)

// Analysis task names.
const (
	TaskDCF              = "DCF"
	TaskPEAnalysis       = "PE Analysis"
	TaskAbnormalFinding  = "Abnormal Finding"
	TaskModelConsistency = "Model Consistency"
	TaskRiskMitigation   = "Risk Mitigation"
)

// Config is the complete engine configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Analysis   AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	MonteCarlo MonteCarloConfig `yaml:"monte_carlo" envconfig:"MONTE_CARLO"`

	Tasks   map[string]TaskPolicy        `yaml:"tasks" ignored:"true"`
	Models  map[string]ModelCoefficients `yaml:"models" ignored:"true"`
	Anomaly AnomalyBaseline              `yaml:"anomaly" ignored:"true"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxBatchSize    int           `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=console json"`
}

// AnalysisConfig holds valuation defaults.
type AnalysisConfig struct {
	GrowthRate         float64 `yaml:"growth_rate" envconfig:"GROWTH_RATE" validate:"gt=-1,lt=1"`
	TerminalGrowthRate float64 `yaml:"terminal_growth_rate" envconfig:"TERMINAL_GROWTH_RATE" validate:"gt=-1,lt=1"`
	DefaultModel       string  `yaml:"default_model" envconfig:"DEFAULT_MODEL" validate:"required"`
	RidgeLambda        float64 `yaml:"ridge_lambda" envconfig:"RIDGE_LAMBDA" validate:"gte=0"`
	BatchWorkers       int     `yaml:"batch_workers" envconfig:"BATCH_WORKERS" validate:"min=0"`
}

// MonteCarloConfig sizes the price simulation. Workers 0 means GOMAXPROCS; Seed
// 0 draws a fresh seed per call.
type MonteCarloConfig struct {
	Paths   int    `yaml:"paths" envconfig:"PATHS" validate:"min=1,max=1000000"`
	Steps   int    `yaml:"steps" envconfig:"STEPS" validate:"min=1,max=10000"`
	Workers int    `yaml:"workers" envconfig:"WORKERS" validate:"min=0"`
	Seed    uint64 `yaml:"seed" envconfig:"SEED"`
}

// TaskPolicy decides the variant of a task: the enhanced one runs only when every
// Required field is present. Predict merges a model prediction into the result.
type TaskPolicy struct {
	Required []string `yaml:"required" json:"required"`
	Predict  bool     `yaml:"predict" json:"predict"`
}

// ModelCoefficients are externally fitted parameters for one prediction model.
type ModelCoefficients struct {
	Intercept float64            `yaml:"intercept"`
	Weights   map[string]float64 `yaml:"weights"`
}

// AnomalyBaseline is the fitted per-feature mean and standard deviation of the
// anomaly scorer. Empty maps leave the scorer untrained.
type AnomalyBaseline struct {
	Means   map[string]float64 `yaml:"means"`
	StdDevs map[string]float64 `yaml:"std_devs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBatchSize:    500,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Analysis: AnalysisConfig{
			GrowthRate:         0.05,
			TerminalGrowthRate: 0.025,
			DefaultModel:       "randomforest",
			RidgeLambda:        1.0,
		},
		MonteCarlo: MonteCarloConfig{Paths: 1000, Steps: 252},
		Tasks: map[string]TaskPolicy{
			TaskDCF:              {Required: []string{"historical_cash_flows"}, Predict: true},
			TaskPEAnalysis:       {Required: []string{"price", "earnings", "sector_avg_pe"}, Predict: true},
			TaskAbnormalFinding:  {Required: []string{"historical_prices"}},
			TaskModelConsistency: {Required: []string{"model_predictions"}},
			TaskRiskMitigation:   {Required: []string{"total_assets", "total_liabilities", "net_income", "historical_prices"}},
		},
	}
}

// Load reads .env, then the YAML file named by ENGINE_CONFIG, then ENGINE_*
// variables, in that order of increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv(PathEnv))
}

// LoadFrom is Load with an explicit file path. An empty path tries
// config/engine.yaml and falls back to the defaults when it does not exist.
func LoadFrom(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	cfg, err := LoadFile(path)
	if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return Config{}, err
	}
	if err != nil {
		cfg = Default()
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays a YAML file on the defaults. Task policies named in the
// file replace the default policy of that task; other tasks keep theirs.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	defaults := cfg.Tasks
	cfg.Tasks = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Tasks == nil {
		cfg.Tasks = map[string]TaskPolicy{}
	}
	for task, policy := range defaults {
		if _, ok := cfg.Tasks[task]; !ok {
			cfg.Tasks[task] = policy
		}
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Policy returns the policy for a task and whether the task is configured.
func (c Config) Policy(task string) (TaskPolicy, bool) {
	p, ok := c.Tasks[task]
	return p, ok
}
