package experiment

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/integrators"
	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// integrateTransient is how long IntegratedGuess runs before sampling.
const integrateTransient = 50.0

// RandomGuess fills modes 1..active with Gaussian coefficients whose
// amplitude decays as amp/n. Mean and Nyquist modes stay zero.
func RandomGuess(rng *rand.Rand, n, dim, active int, amp float64) *trajectory.Trajectory {
	u := trajectory.New(n, dim)
	for k := 1; k <= active && k < n-1; k++ {
		s := amp / float64(k)
		for i := 0; i < dim; i++ {
			u.Set(k, i, complex(s*rng.NormFloat64(), s*rng.NormFloat64()))
		}
	}
	return u
}

// IntegratedGuess integrates sys from x0 past a transient, samples one
// period on the transform's grid and returns its fluctuation about the
// sampled mean. The second return value is that mean.
func IntegratedGuess(sys dynamo.System, tr spectral.Transformer, x0 dynamo.State, period float64) (*trajectory.Trajectory, dynamo.State, error) {
	if period <= 0 {
		return nil, nil, fmt.Errorf("%w: period %g", dynamo.ErrInvalidParam, period)
	}
	if err := dynamo.CheckDim("transform", sys.Dim(), tr.Dim()); err != nil {
		return nil, nil, err
	}
	rk := integrators.NewRK4()
	x, err := rk.Integrate(sys, x0, 0.01, int(integrateTransient/0.01))
	if err != nil {
		return nil, nil, fmt.Errorf("transient: %w", err)
	}
	samples, err := rk.Sample(sys, x, period, tr.Len(), 16)
	if err != nil {
		return nil, nil, err
	}
	u, err := trajectory.FromTime(tr, samples)
	if err != nil {
		return nil, nil, err
	}
	mean := make(dynamo.State, sys.Dim())
	for i := range mean {
		mean[i] = real(u.At(0, i))
	}
	zero := make([]float64, sys.Dim())
	u.SetModeReal(0, zero)
	u.SetModeReal(u.Modes()-1, zero)
	return u, mean, nil
}
