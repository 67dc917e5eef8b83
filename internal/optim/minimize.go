package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/resolvent/internal/trajectory"
)

// Method names accepted by Minimize.
const (
	MethodLBFGS    = "lbfgs"
	MethodBFGS     = "bfgs"
	MethodCG       = "cg"
	MethodGD       = "gd"
	MethodNewton   = "newton"
	MethodNewtonCG = "newton-cg"
)

// Methods lists the supported method names.
func Methods() []string {
	return []string{MethodLBFGS, MethodBFGS, MethodCG, MethodGD, MethodNewton, MethodNewtonCG}
}

type Settings struct {
	Method        string
	MaxIterations int
	GradTol       float64
	Runtime       time.Duration
	// LogEvery logs one line per LogEvery major iterations; 0 disables it.
	LogEvery int
	// Progress, when set, is called after every major iteration.
	Progress func(Progress)
}

func DefaultSettings() Settings {
	return Settings{
		Method:        MethodLBFGS,
		MaxIterations: 500,
		GradTol:       1e-8,
		LogEvery:      50,
	}
}

type Result struct {
	X          []float64
	Trajectory *trajectory.Trajectory
	Freq       float64
	Mean       []float64
	Residual   float64
	GradNorm   float64
	Iterations int
	FuncEvals  int
	GradEvals  int
	Status     string
	History    []float64
	Runtime    time.Duration
}

// Period returns 2π/Freq.
func (r *Result) Period() float64 { return 2 * math.Pi / r.Freq }

// Minimize drives p from x0 towards a zero of the global residual.
func Minimize(ctx context.Context, p *Problem, x0 []float64, s Settings) (*Result, error) {
	if len(x0) != p.Len() {
		return nil, fmt.Errorf("initial vector has length %d, want %d", len(x0), p.Len())
	}
	rec := &recorder{
		ctx:      ctx,
		log:      p.log,
		every:    s.LogEvery,
		progress: s.Progress,
		freq:     p.freqOf,
	}
	p.log.WithFields(logrus.Fields{
		"method":   s.Method,
		"vars":     p.Len(),
		"max_iter": s.MaxIterations,
	}).Debug("starting optimization")

	var (
		res *Result
		err error
	)
	if s.Method == MethodNewtonCG {
		res, err = (&NewtonCG{}).minimize(ctx, p, x0, s, rec)
	} else {
		res, err = minimizeGonum(p, x0, s, rec)
	}
	if err != nil {
		return res, err
	}
	res.Trajectory, res.Freq, err = p.Decode(res.X)
	if err != nil {
		return res, err
	}
	res.Mean = append([]float64(nil), p.eval.Mean()...)
	p.log.WithFields(logrus.Fields{
		"status":     res.Status,
		"iterations": res.Iterations,
		"residual":   res.Residual,
		"grad_norm":  res.GradNorm,
		"runtime":    res.Runtime.Round(time.Millisecond),
	}).Info("optimization finished")
	return res, nil
}

func gonumMethod(name string) (optimize.Method, bool, error) {
	switch name {
	case "", MethodLBFGS:
		return &optimize.LBFGS{}, false, nil
	case MethodBFGS:
		return &optimize.BFGS{}, false, nil
	case MethodCG:
		return &optimize.CG{}, false, nil
	case MethodGD:
		return &optimize.GradientDescent{}, false, nil
	case MethodNewton:
		return &optimize.Newton{}, true, nil
	default:
		return nil, false, fmt.Errorf("unknown optimization method: %s", name)
	}
}

func minimizeGonum(p *Problem, x0 []float64, s Settings, rec *recorder) (*Result, error) {
	method, needsHess, err := gonumMethod(s.Method)
	if err != nil {
		return nil, err
	}
	settings := &optimize.Settings{
		GradientThreshold: s.GradTol,
		MajorIterations:   s.MaxIterations,
		Runtime:           s.Runtime,
		Recorder:          rec,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-12,
			Iterations: 50,
		},
	}
	r, err := optimize.Minimize(p.Gonum(needsHess), x0, settings, method)
	if r == nil {
		return nil, err
	}
	res := &Result{
		X:          r.X,
		Residual:   r.F,
		Iterations: r.Stats.MajorIterations,
		FuncEvals:  r.Stats.FuncEvaluations,
		GradEvals:  r.Stats.GradEvaluations,
		Status:     r.Status.String(),
		History:    append([]float64(nil), rec.history...),
		Runtime:    r.Stats.Runtime,
	}
	if r.Gradient != nil {
		res.GradNorm = floats.Norm(r.Gradient, 2)
	}
	if perr := p.Err(); perr != nil {
		return res, perr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		// A failed line search still leaves the best point found.
		p.log.WithError(err).Warn("optimizer stopped early")
	}
	return res, nil
}

// freqOf reads the frequency encoded in x without touching the evaluator.
func (p *Problem) freqOf(x []float64) float64 {
	if p.freeFreq && len(x) == p.Len() {
		return x[len(x)-1]
	}
	return p.fixedFreq
}
