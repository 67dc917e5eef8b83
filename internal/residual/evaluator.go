package residual

import (
	"fmt"
	"math"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// Evaluator binds a system, a mean state and a frequency to a Cache so that
// repeated residual and gradient evaluations share one resolvent. It is not
// safe for concurrent use.
type Evaluator struct {
	sys   dynamo.System
	cache *Cache
	mean  []float64
	freq  float64
	hInv  *trajectory.Matrices

	lr *trajectory.Trajectory
}

func NewEvaluator(sys dynamo.System, cache *Cache, freq float64, mean []float64) (*Evaluator, error) {
	if err := cache.fitsSystem(sys); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDim("mean length", sys.Dim(), len(mean)); err != nil {
		return nil, err
	}
	e := &Evaluator{
		sys:   sys,
		cache: cache,
		mean:  append([]float64(nil), mean...),
		lr:    trajectory.New(cache.n, cache.dim),
	}
	if err := e.SetFreq(freq); err != nil {
		return nil, err
	}
	return e, nil
}

// SetFreq rebuilds the resolvent for a new fundamental frequency.
func (e *Evaluator) SetFreq(freq float64) error {
	if math.IsNaN(freq) || math.IsInf(freq, 0) {
		return fmt.Errorf("frequency %v: %w", freq, dynamo.ErrNonFinite)
	}
	c := e.cache
	e.sys.Jacobian(c.jMean, e.mean, 1)
	h, err := ResolventInv(c.n, freq, c.jMean, c.dim)
	if err != nil {
		return err
	}
	e.freq = freq
	e.hInv = h
	return nil
}

func (e *Evaluator) Freq() float64                   { return e.freq }
func (e *Evaluator) Mean() []float64                 { return e.mean }
func (e *Evaluator) System() dynamo.System           { return e.sys }
func (e *Evaluator) Cache() *Cache                   { return e.cache }
func (e *Evaluator) Resolvent() *trajectory.Matrices { return e.hInv }

// LocalResidual returns the evaluator's local residual buffer, filled for traj.
// The buffer is overwritten by the next call.
func (e *Evaluator) LocalResidual(traj *trajectory.Trajectory) (*trajectory.Trajectory, error) {
	if err := LocalResidual(e.cache, e.sys, e.hInv, traj, e.mean, e.lr); err != nil {
		return nil, err
	}
	return e.lr, nil
}

// Residual returns the global residual of traj.
func (e *Evaluator) Residual(traj *trajectory.Trajectory) (float64, error) {
	lr, err := e.LocalResidual(traj)
	if err != nil {
		return 0, err
	}
	return GlobalResidual(lr), nil
}

// Gradient returns the global residual of traj and writes its trajectory
// gradient into dst. The local residual stays available through LastResidual.
func (e *Evaluator) Gradient(traj, dst *trajectory.Trajectory) (float64, error) {
	lr, err := e.LocalResidual(traj)
	if err != nil {
		return 0, err
	}
	if err := e.cache.Fits(dst); err != nil {
		return 0, err
	}
	e.cache.gradTraj(e.sys, traj, lr, e.freq, e.mean, dst)
	return GlobalResidual(lr), nil
}

// LastResidual is the local residual of the most recent evaluation.
func (e *Evaluator) LastResidual() *trajectory.Trajectory { return e.lr }

// GradFreq returns ∂GR/∂freq at traj.
func (e *Evaluator) GradFreq(traj *trajectory.Trajectory) (float64, error) {
	lr, err := e.LocalResidual(traj)
	if err != nil {
		return 0, err
	}
	return GradFreq(traj, lr), nil
}
