package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/integrators"
)

var ErrNoPeak = errors.New("analysis: no spectral peak")

// PowerSpectrum returns |c_k|² of the mean-removed signal for k = 0..len/2.
func PowerSpectrum(data []float64) []float64 {
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}
	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		a := cmplx.Abs(c)
		ps[i] = a * a
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-constant component
// of data sampled every dt. The peak is refined by parabolic interpolation.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: %d samples", ErrNoPeak, len(data))
	}
	ps := PowerSpectrum(data)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] == 0 {
		return 0, ErrNoPeak
	}
	k := float64(best)
	if best > 1 && best < len(ps)-1 {
		a, b, c := ps[best-1], ps[best], ps[best+1]
		if den := a - 2*b + c; den != 0 {
			k += 0.5 * (a - c) / den
		}
	}
	return float64(len(data)) * dt / k, nil
}

// EstimateConfig controls EstimateOrbit.
type EstimateConfig struct {
	Dt        float64 `yaml:"dt"`
	Transient float64 `yaml:"transient"`
	Duration  float64 `yaml:"duration"`
	Component int     `yaml:"component"`
}

func DefaultEstimate() EstimateConfig {
	return EstimateConfig{Dt: 0.01, Transient: 50, Duration: 400, Component: 0}
}

type Estimate struct {
	Period float64
	Mean   dynamo.State
}

// EstimateOrbit integrates sys past a transient and measures the dominant
// period of one component together with the time-averaged state.
func EstimateOrbit(sys dynamo.System, x0 dynamo.State, cfg EstimateConfig) (*Estimate, error) {
	if cfg.Dt <= 0 || cfg.Duration <= 0 {
		return nil, fmt.Errorf("invalid estimate window: dt=%v duration=%v", cfg.Dt, cfg.Duration)
	}
	if cfg.Component < 0 || cfg.Component >= sys.Dim() {
		return nil, fmt.Errorf("component %d out of range for %s", cfg.Component, sys.Name())
	}
	rk := integrators.NewRK4()
	x, err := rk.Integrate(sys, x0, cfg.Dt, int(cfg.Transient/cfg.Dt))
	if err != nil {
		return nil, fmt.Errorf("transient: %w", err)
	}

	n := int(cfg.Duration / cfg.Dt)
	signal := make([]float64, n)
	mean := make(dynamo.State, sys.Dim())
	for k := 0; k < n; k++ {
		rk.Step(sys, x, cfg.Dt)
		if !x.IsValid() {
			return nil, fmt.Errorf("step %d: %w", k, dynamo.ErrNonFinite)
		}
		signal[k] = x[cfg.Component]
		for i, v := range x {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(n)
	}
	period, err := DominantPeriod(signal, cfg.Dt)
	if err != nil {
		return nil, err
	}
	return &Estimate{Period: period, Mean: mean}, nil
}
