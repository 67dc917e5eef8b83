package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/resolvent/internal/config"
	"github.com/san-kum/resolvent/internal/experiment"
	"github.com/san-kum/resolvent/internal/optim"
)

// Scenario is a scripted sequence of orbit searches.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step overlays its non-zero fields on System's preset, or on the defaults
// for System when no preset is named.
type Step struct {
	Name    string             `yaml:"name"`
	Preset  string             `yaml:"preset"`
	System  string             `yaml:"system"`
	Params  map[string]float64 `yaml:"params"`
	Period  float64            `yaml:"period"`
	Modes   int                `yaml:"modes"`
	Method  string             `yaml:"method"`
	MaxIter int                `yaml:"max_iter"`
	Seed    int64              `yaml:"seed"`
	Init    string             `yaml:"init"`
	Sweep   *Sweep             `yaml:"sweep"`
}

// Sweep continues an orbit through Steps evenly spaced values of Param,
// warm-starting each search from the previous orbit.
type Sweep struct {
	Param string  `yaml:"param"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

// Outcome is one finished search.
type Outcome struct {
	Step       string
	ParamValue float64
	Experiment *experiment.Experiment
	Result     *optim.Result
}

// Sink receives every outcome as soon as it is available.
type Sink func(Outcome) error

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	for i, s := range scenario.Steps {
		if s.Sweep != nil {
			if err := s.Sweep.validate(); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return &scenario, nil
}

// Config resolves the step into a full search config.
func (s Step) Config() (*config.Config, error) {
	var cfg *config.Config
	if s.Preset != "" {
		system := s.System
		if system == "" {
			system = config.DefaultSystem
		}
		if cfg = config.GetPreset(system, s.Preset); cfg == nil {
			return nil, fmt.Errorf("preset %s/%s not found", system, s.Preset)
		}
	} else {
		cfg = config.DefaultConfig()
		if s.System != "" && s.System != cfg.System {
			cfg.System = s.System
			cfg.Period = 0
		}
	}
	if len(s.Params) > 0 {
		// A preset's mean belongs to the preset's parameters.
		cfg.Mean = nil
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(s.Params))
		}
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	if s.Period > 0 {
		cfg.Period = s.Period
	}
	if s.Modes > 0 {
		cfg.Modes = s.Modes
	}
	if s.Method != "" {
		cfg.Solver.Method = s.Method
	}
	if s.MaxIter > 0 {
		cfg.Solver.MaxIter = s.MaxIter
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Init != "" {
		cfg.Init.Method = s.Init
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order and hands each outcome to sink.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, log logrus.FieldLogger, sink Sink) ([]Outcome, error) {
	log = orDiscard(log)
	var out []Outcome
	for i, step := range sc.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log.WithFields(logrus.Fields{"step": name, "index": i + 1, "of": len(sc.Steps)}).Info("running scenario step")

		cfg, err := step.Config()
		if err != nil {
			return out, fmt.Errorf("step %s: %w", name, err)
		}
		named := func(o Outcome) error {
			o.Step = name
			if sink == nil {
				return nil
			}
			return sink(o)
		}
		var got []Outcome
		if step.Sweep != nil {
			got, err = RunSweep(ctx, cfg, *step.Sweep, reg, log, named)
		} else {
			var o Outcome
			if o, err = runOne(ctx, cfg, reg, log); err == nil {
				err = named(o)
				got = []Outcome{o}
			}
		}
		for k := range got {
			got[k].Step = name
		}
		out = append(out, got...)
		if err != nil {
			return out, fmt.Errorf("step %s: %w", name, err)
		}
	}
	return out, nil
}

func runOne(ctx context.Context, cfg *config.Config, reg *experiment.Registry, log logrus.FieldLogger) (Outcome, error) {
	exp, err := experiment.New(reg, cfg, log)
	if err != nil {
		return Outcome{}, err
	}
	p, x0, err := exp.Build(exp.Config().Period, exp.Config().Seed)
	if err != nil {
		return Outcome{}, err
	}
	res, err := optim.Minimize(ctx, p, x0, exp.Settings())
	return Outcome{Experiment: exp, Result: res}, err
}

func (s Sweep) validate() error {
	if s.Param == "" {
		return fmt.Errorf("sweep needs a parameter name")
	}
	if s.Steps < 1 {
		return fmt.Errorf("sweep needs at least one step, got %d", s.Steps)
	}
	return nil
}

// Values returns the parameter values visited by the sweep.
func (s Sweep) Values() []float64 {
	return optim.PeriodGrid(s.Min, s.Max, s.Steps)
}

// RunSweep performs natural continuation in one parameter. The first value
// starts from base's own guess; every later value starts from the previous
// orbit with the frequency left free. The mean is re-derived at every value.
func RunSweep(ctx context.Context, base *config.Config, sweep Sweep, reg *experiment.Registry, log logrus.FieldLogger, sink Sink) ([]Outcome, error) {
	if err := sweep.validate(); err != nil {
		return nil, err
	}
	log = orDiscard(log)
	var (
		out  []Outcome
		prev *optim.Result
	)
	for i, v := range sweep.Values() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, 1)
		}
		cfg.Params[sweep.Param] = v
		cfg.Solver.FreeFreq = true
		cfg.Mean = nil
		if prev != nil {
			cfg.Period = prev.Period()
		}

		exp, err := experiment.New(reg, cfg, log)
		if err != nil {
			return out, err
		}
		var (
			p  *optim.Problem
			x0 []float64
		)
		if prev == nil {
			p, x0, err = exp.Build(exp.Config().Period, exp.Config().Seed)
		} else {
			p, x0, err = warmStart(exp, prev)
		}
		if err != nil {
			return out, err
		}
		res, err := optim.Minimize(ctx, p, x0, exp.Settings())
		if err != nil {
			return out, err
		}
		log.WithFields(logrus.Fields{
			sweep.Param: v,
			"step":      i + 1,
			"period":    res.Period(),
			"residual":  res.Residual,
		}).Info("sweep step finished")

		o := Outcome{ParamValue: v, Experiment: exp, Result: res}
		if sink != nil {
			if err := sink(o); err != nil {
				return out, err
			}
		}
		out = append(out, o)
		prev = res
	}
	return out, nil
}

func warmStart(exp *experiment.Experiment, prev *optim.Result) (*optim.Problem, []float64, error) {
	eval, err := exp.Evaluator(prev.Period())
	if err != nil {
		return nil, nil, err
	}
	p := optim.NewProblem(eval, optim.WithFreeFrequency(true), optim.WithLogger(exp.Logger()))
	x0, err := p.Encode(prev.Trajectory)
	if err != nil {
		return nil, nil, err
	}
	return p, x0, nil
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
