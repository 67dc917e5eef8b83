package integrators

import (
	"fmt"

	"github.com/san-kum/resolvent/internal/dynamo"
)

// RK4 is a classic fourth-order Runge-Kutta stepper for autonomous systems.
// It keeps its stage buffers between steps and is not safe for concurrent use.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// Step advances x by dt in place.
func (r *RK4) Step(sys dynamo.System, x dynamo.State, dt float64) {
	n := len(x)
	r.ensureScratch(n)

	sys.Response(r.k1, x, 1)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	sys.Response(r.k2, r.scratch, 1)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	sys.Response(r.k3, r.scratch, 1)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	sys.Response(r.k4, r.scratch, 1)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		x[i] += dt6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
}

// Integrate advances x0 by steps steps of size dt and returns the final state.
func (r *RK4) Integrate(sys dynamo.System, x0 dynamo.State, dt float64, steps int) (dynamo.State, error) {
	x := x0.Clone()
	for i := 0; i < steps; i++ {
		r.Step(sys, x, dt)
		if !x.IsValid() {
			return nil, fmt.Errorf("step %d: %w", i, dynamo.ErrNonFinite)
		}
	}
	return x, nil
}

// Sample integrates from x0 over duration and records n evenly spaced
// states, the first being x0 itself. Each interval is split into substeps
// RK4 steps.
func (r *RK4) Sample(sys dynamo.System, x0 dynamo.State, duration float64, n, substeps int) ([][]float64, error) {
	if err := dynamo.CheckDim("initial state", sys.Dim(), len(x0)); err != nil {
		return nil, err
	}
	if n < 1 || substeps < 1 {
		return nil, fmt.Errorf("invalid sampling: %d samples, %d substeps", n, substeps)
	}
	dt := duration / float64(n*substeps)
	x := x0.Clone()
	out := make([][]float64, n)
	for k := 0; k < n; k++ {
		out[k] = x.Clone()
		for s := 0; s < substeps; s++ {
			r.Step(sys, x, dt)
		}
		if !x.IsValid() {
			return nil, fmt.Errorf("sample %d: %w", k, dynamo.ErrNonFinite)
		}
	}
	return out, nil
}
