package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSystem    = "lorenz"
	DefaultPeriod    = 1.55865
	DefaultModes     = 33
	DefaultBackend   = "gonum"
	DefaultAmplitude = 3.0
	DefaultActive    = 6
	DefaultMaxIter   = 500
	DefaultGradTol   = 1e-8
	DefaultWorkers   = 4
)

// Initial guess methods.
const (
	InitRandom    = "random"
	InitIntegrate = "integrate"
)

// Config describes one orbit search. A zero Period or an empty Mean is
// estimated from a plain integration of the system.
type Config struct {
	System  string             `yaml:"system"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Period  float64            `yaml:"period"`
	Mean    []float64          `yaml:"mean,omitempty"`
	Modes   int                `yaml:"modes"`
	Backend string             `yaml:"fft_backend"`
	Seed    int64              `yaml:"seed"`
	Init    InitConfig         `yaml:"init"`
	Solver  OptimizerConfig    `yaml:"optimizer"`
}

type InitConfig struct {
	Method    string  `yaml:"method"`
	Amplitude float64 `yaml:"amplitude"`
	Active    int     `yaml:"active"`
}

type OptimizerConfig struct {
	Method   string  `yaml:"method"`
	MaxIter  int     `yaml:"max_iter"`
	GradTol  float64 `yaml:"grad_tol"`
	FreeFreq bool    `yaml:"free_freq"`
	Workers  int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		System:  DefaultSystem,
		Period:  DefaultPeriod,
		Modes:   DefaultModes,
		Backend: DefaultBackend,
		Seed:    1,
		Init: InitConfig{
			Method:    InitRandom,
			Amplitude: DefaultAmplitude,
			Active:    DefaultActive,
		},
		Solver: OptimizerConfig{
			Method:  "lbfgs",
			MaxIter: DefaultMaxIter,
			GradTol: DefaultGradTol,
			Workers: DefaultWorkers,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first field that cannot produce a search.
func (c *Config) Validate() error {
	switch {
	case c.System == "":
		return fmt.Errorf("system is required")
	case c.Period < 0:
		return fmt.Errorf("period must be positive, got %g", c.Period)
	case c.Modes < 2:
		return fmt.Errorf("modes must be at least 2, got %d", c.Modes)
	case c.Init.Method != InitRandom && c.Init.Method != InitIntegrate:
		return fmt.Errorf("unknown init method %q", c.Init.Method)
	case c.Init.Active < 0:
		return fmt.Errorf("active modes must be non-negative, got %d", c.Init.Active)
	case c.Solver.MaxIter < 0:
		return fmt.Errorf("max_iter must be non-negative, got %d", c.Solver.MaxIter)
	}
	return nil
}

// Clone returns a deep copy, so presets can be modified by callers.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Mean != nil {
		out.Mean = append([]float64(nil), c.Mean...)
	}
	return &out
}
