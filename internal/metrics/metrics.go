package metrics

import (
	"math"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// Metric accumulates a scalar over the sampled states of one orbit.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Amplitude is the largest distance of any sample from a reference point.
type Amplitude struct {
	name   string
	centre []float64
	max    float64
}

func NewAmplitude(centre []float64) *Amplitude {
	return &Amplitude{name: "amplitude", centre: centre}
}

func (a *Amplitude) Name() string { return a.name }

func (a *Amplitude) Observe(x dynamo.State, t float64) {
	sum := 0.0
	for i, v := range x {
		if i < len(a.centre) {
			v -= a.centre[i]
		}
		sum += v * v
	}
	a.max = math.Max(a.max, math.Sqrt(sum))
}

func (a *Amplitude) Value() float64 { return a.max }
func (a *Amplitude) Reset()         { a.max = 0 }

// ArcLength estimates the orbit length as period times the mean speed |f(x)|.
type ArcLength struct {
	name    string
	sys     dynamo.System
	period  float64
	buf     []float64
	speed   float64
	samples int
}

func NewArcLength(sys dynamo.System, period float64) *ArcLength {
	return &ArcLength{name: "arc_length", sys: sys, period: period, buf: make([]float64, sys.Dim())}
}

func (a *ArcLength) Name() string { return a.name }

func (a *ArcLength) Observe(x dynamo.State, t float64) {
	if len(x) != len(a.buf) {
		return
	}
	a.sys.Response(a.buf, x, 1)
	a.speed += dynamo.State(a.buf).Norm()
	a.samples++
}

func (a *ArcLength) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.period * a.speed / float64(a.samples)
}

func (a *ArcLength) Reset() {
	a.speed = 0
	a.samples = 0
}

// Default returns the metrics recorded for every stored orbit.
func Default(sys dynamo.System, period float64, mean []float64) []Metric {
	return []Metric{
		NewAmplitude(mean),
		NewArcLength(sys, period),
	}
}

// Evaluate resets every metric, feeds it all samples and collects the values.
func Evaluate(ms []Metric, times []float64, states [][]float64) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for k, s := range states {
			m.Observe(s, times[k])
		}
		out[m.Name()] = m.Value()
	}
	return out
}

// TailEnergy is the fraction of the fluctuation energy carried by the top
// frac of the modes. A large tail means the truncation is too coarse.
func TailEnergy(u *trajectory.Trajectory, frac float64) float64 {
	start := u.Modes() - int(math.Ceil(frac*float64(u.Modes()-1)))
	if start < 1 {
		start = 1
	}
	var total, tail float64
	for n := 1; n < u.Modes(); n++ {
		for i := 0; i < u.Dim(); i++ {
			c := u.At(n, i)
			e := real(c)*real(c) + imag(c)*imag(c)
			total += e
			if n >= start {
				tail += e
			}
		}
	}
	if total == 0 {
		return 0
	}
	return tail / total
}
