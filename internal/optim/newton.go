package optim

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// NewtonCG is a matrix-free truncated Newton method. Each step solves
// H·d = −g approximately by conjugate gradients on Hessian-vector products
// and backtracks along d until the Armijo condition holds.
type NewtonCG struct {
	// MaxCG bounds the inner conjugate-gradient iterations. Default 50.
	MaxCG int
	// Eps is the step length of the Hessian-vector products. Default 1e-6.
	Eps float64
	// Decrease is the Armijo sufficient-decrease constant. Default 1e-4.
	Decrease float64
	// MaxBacktrack bounds the step halvings per iteration. Default 40.
	MaxBacktrack int
	// MaxStep caps the step length relative to max(1, |x|). Default 0.5.
	MaxStep float64
}

func (m *NewtonCG) defaults() {
	if m.MaxCG == 0 {
		m.MaxCG = 50
	}
	if m.Eps == 0 {
		m.Eps = 1e-6
	}
	if m.Decrease == 0 {
		m.Decrease = 1e-4
	}
	if m.MaxBacktrack == 0 {
		m.MaxBacktrack = 40
	}
	if m.MaxStep == 0 {
		m.MaxStep = 0.5
	}
}

func (m *NewtonCG) minimize(ctx context.Context, p *Problem, x0 []float64, s Settings, rec *recorder) (*Result, error) {
	m.defaults()
	if err := rec.Init(); err != nil {
		return nil, err
	}
	start := time.Now()
	n := len(x0)
	x := append([]float64(nil), x0...)
	g := make([]float64, n)
	xn := make([]float64, n)
	d := make([]float64, n)

	f := p.Func(x)
	p.Grad(g, x)
	stats := &optimize.Stats{FuncEvaluations: 1, GradEvaluations: 1}
	status := optimize.NotTerminated

	res := func() *Result {
		return &Result{
			X:          x,
			Residual:   f,
			GradNorm:   floats.Norm(g, 2),
			Iterations: stats.MajorIterations,
			FuncEvals:  stats.FuncEvaluations,
			GradEvals:  stats.GradEvaluations,
			Status:     status.String(),
			History:    append([]float64(nil), rec.history...),
			Runtime:    time.Since(start),
		}
	}

	for {
		if _, err := p.Status(); err != nil {
			status = optimize.Failure
			return res(), p.Err()
		}
		if err := ctx.Err(); err != nil {
			status = optimize.Failure
			return res(), err
		}
		gnorm := floats.Norm(g, 2)
		switch {
		case gnorm <= s.GradTol:
			status = optimize.GradientThreshold
		case s.MaxIterations > 0 && stats.MajorIterations >= s.MaxIterations:
			status = optimize.IterationLimit
		case s.Runtime > 0 && time.Since(start) >= s.Runtime:
			status = optimize.RuntimeLimit
		}
		if status != optimize.NotTerminated {
			return res(), nil
		}

		hv := newHessianOperator(p, x, g)
		cgIters := m.direction(d, hv, g, gnorm)
		stats.GradEvaluations += cgIters

		if dn, limit := floats.Norm(d, 2), m.MaxStep*math.Max(1, floats.Norm(x, 2)); dn > limit {
			floats.Scale(limit/dn, d)
		}
		slope := floats.Dot(g, d)
		if slope >= 0 {
			floats.ScaleTo(d, -1, g)
			slope = -gnorm * gnorm
		}

		step := 1.0
		accepted := false
		var fn float64
		for k := 0; k < m.MaxBacktrack; k++ {
			floats.AddScaledTo(xn, x, step, d)
			fn = p.Func(xn)
			stats.FuncEvaluations++
			if optimize.ArmijoConditionMet(fn, f, slope, step, m.Decrease) {
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			status = optimize.StepConvergence
			return res(), nil
		}

		copy(x, xn)
		f = fn
		p.Grad(g, x)
		stats.GradEvaluations++
		stats.MajorIterations++
		stats.Runtime = time.Since(start)

		loc := &optimize.Location{X: x, F: f, Gradient: g}
		if err := rec.Record(loc, optimize.MajorIteration, stats); err != nil {
			status = optimize.Failure
			return res(), err
		}
	}
}

// direction approximately solves H·d = −g by conjugate gradients, stopping
// at the forcing tolerance min(½, √|g|)·|g| or at negative curvature. It
// returns the number of Hessian-vector products spent.
func (m *NewtonCG) direction(d []float64, h *HessianOperator, g []float64, gnorm float64) int {
	n := len(g)
	tol := math.Min(0.5, math.Sqrt(gnorm)) * gnorm
	r := make([]float64, n)
	dir := make([]float64, n)
	hp := make([]float64, n)

	for i := range d {
		d[i] = 0
	}
	floats.ScaleTo(r, -1, g)
	copy(dir, r)
	rr := floats.Dot(r, r)

	iters := 0
	for j := 0; j < m.MaxCG; j++ {
		h.Apply(hp, dir, m.Eps)
		iters++
		curv := floats.Dot(dir, hp)
		if curv <= 0 {
			if j == 0 {
				floats.ScaleTo(d, -1, g)
			}
			break
		}
		alpha := rr / curv
		floats.AddScaled(d, alpha, dir)
		floats.AddScaled(r, -alpha, hp)
		rrNew := floats.Dot(r, r)
		if math.Sqrt(rrNew) <= tol {
			break
		}
		floats.AddScaledTo(dir, r, rrNew/rr, dir)
		rr = rrNew
	}
	return iters
}
