package experiment

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/resolvent/internal/analysis"
	"github.com/san-kum/resolvent/internal/config"
	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/optim"
	"github.com/san-kum/resolvent/internal/residual"
	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// Experiment turns a Config into optimization problems.
type Experiment struct {
	cfg *config.Config
	sys dynamo.System
	log logrus.FieldLogger

	// sampledMean: integrated guesses bring their own mean because the
	// config did not pin one.
	sampledMean bool
}

// New resolves the config's system. A missing period or mean is estimated
// by integrating the system; the system's default mean is used when it
// knows one for its parameters.
func New(reg *Registry, cfg *config.Config, log logrus.FieldLogger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := reg.GetSystem(cfg.System, cfg.Params)
	if err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	cfg = cfg.Clone()
	sampled := cfg.Mean == nil && cfg.Init.Method == config.InitIntegrate
	if cfg.Mean == nil {
		cfg.Mean = DefaultMean(sys)
	}
	if cfg.Period == 0 || cfg.Mean == nil {
		est, err := analysis.EstimateOrbit(sys, DefaultState(sys), analysis.DefaultEstimate())
		if err != nil {
			return nil, fmt.Errorf("estimate orbit: %w", err)
		}
		log.WithFields(logrus.Fields{"period": est.Period, "mean": est.Mean}).Info("estimated orbit")
		if cfg.Period == 0 {
			cfg.Period = est.Period
		}
		if cfg.Mean == nil {
			cfg.Mean = est.Mean
		}
	}
	if err := dynamo.CheckDim("mean", sys.Dim(), len(cfg.Mean)); err != nil {
		return nil, err
	}
	return &Experiment{cfg: cfg, sys: sys, log: log, sampledMean: sampled}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) System() dynamo.System  { return e.sys }
func (e *Experiment) Logger() logrus.FieldLogger {
	return e.log
}

// Settings returns the optimizer settings the config asks for.
func (e *Experiment) Settings() optim.Settings {
	s := optim.DefaultSettings()
	if e.cfg.Solver.Method != "" {
		s.Method = e.cfg.Solver.Method
	}
	if e.cfg.Solver.MaxIter > 0 {
		s.MaxIterations = e.cfg.Solver.MaxIter
	}
	if e.cfg.Solver.GradTol > 0 {
		s.GradTol = e.cfg.Solver.GradTol
	}
	return s
}

// Evaluator builds a fresh cache and evaluator at the given period about
// the config's mean.
func (e *Experiment) Evaluator(period float64) (*residual.Evaluator, error) {
	cache, err := e.cache(period)
	if err != nil {
		return nil, err
	}
	return residual.NewEvaluator(e.sys, cache, 2*math.Pi/period, e.cfg.Mean)
}

func (e *Experiment) cache(period float64) (*residual.Cache, error) {
	if !(period > 0) || math.IsInf(period, 0) {
		return nil, fmt.Errorf("%w: period %g", dynamo.ErrInvalidParam, period)
	}
	return residual.NewCacheFor(e.cfg.Backend, e.cfg.Modes, e.sys.Dim())
}

// Guess builds the initial trajectory for one run and returns the mean it
// is a fluctuation about.
func (e *Experiment) Guess(tr spectral.Transformer, period float64, seed int64) (*trajectory.Trajectory, []float64, error) {
	switch e.cfg.Init.Method {
	case config.InitIntegrate:
		u, mean, err := IntegratedGuess(e.sys, tr, DefaultState(e.sys), period)
		if err != nil {
			return nil, nil, err
		}
		if !e.sampledMean {
			mean = e.cfg.Mean
		}
		return u, mean, nil
	default:
		rng := rand.New(rand.NewSource(seed))
		return RandomGuess(rng, e.cfg.Modes, e.sys.Dim(), e.cfg.Init.Active, e.cfg.Init.Amplitude), e.cfg.Mean, nil
	}
}

// Build is an optim.Builder: every call owns its cache and problem.
func (e *Experiment) Build(period float64, seed int64) (*optim.Problem, []float64, error) {
	cache, err := e.cache(period)
	if err != nil {
		return nil, nil, err
	}
	u, mean, err := e.Guess(cache.Transformer(), period, seed)
	if err != nil {
		return nil, nil, err
	}
	eval, err := residual.NewEvaluator(e.sys, cache, 2*math.Pi/period, mean)
	if err != nil {
		return nil, nil, err
	}
	p := optim.NewProblem(eval,
		optim.WithFreeFrequency(e.cfg.Solver.FreeFreq),
		optim.WithLogger(e.log.WithFields(logrus.Fields{"period": period, "seed": seed})),
	)
	x0, err := p.Encode(u)
	if err != nil {
		return nil, nil, err
	}
	return p, x0, nil
}
