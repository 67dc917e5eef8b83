package physics

import (
	"fmt"

	"github.com/san-kum/resolvent/internal/dynamo"
)

type VanDerPolParams struct {
	Mu float64 `yaml:"mu" json:"mu"` // nonlinearity
}

func DefaultVanDerPolParams() VanDerPolParams { return VanDerPolParams{Mu: 1.0} }

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol struct{ p VanDerPolParams }

func NewVanDerPol(p VanDerPolParams) VanDerPol { return VanDerPol{p} }

func (v VanDerPol) Name() string               { return "vanderpol" }
func (v VanDerPol) Dim() int                   { return 2 }
func (v VanDerPol) Config() VanDerPolParams    { return v.p }
func (v VanDerPol) DefaultState() dynamo.State { return dynamo.State{2.0, 0.0} }
func (v VanDerPol) DefaultMean() dynamo.State  { return dynamo.State{0, 0} }
func (v VanDerPol) Params() dynamo.Params      { return dynamo.Params{"mu": v.p.Mu} }

func (v VanDerPol) WithParam(name string, value float64) (dynamo.System, error) {
	if name != "mu" {
		return nil, unknownParam(v.Name(), name)
	}
	if err := checkFinite(name, value); err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, fmt.Errorf("%w: mu=%v must be non-negative", dynamo.ErrInvalidParam, value)
	}
	return VanDerPol{VanDerPolParams{Mu: value}}, nil
}

func (v VanDerPol) Response(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y := s[2*k], s[2*k+1]
		dst[2*k] = y
		dst[2*k+1] = v.p.Mu*(1-x*x)*y - x
	}
}

func (v VanDerPol) Jacobian(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y := s[2*k], s[2*k+1]
		j := dst[4*k : 4*k+4]
		j[0], j[1] = 0, 1
		j[2], j[3] = -2*v.p.Mu*x*y-1, v.p.Mu*(1-x*x)
	}
}

func (v VanDerPol) NLFactor(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y := s[2*k], s[2*k+1]
		dst[2*k] = 0
		dst[2*k+1] = -v.p.Mu * x * x * y
	}
}

func (v VanDerPol) JacConvAdjoint(dst, s, r []float64, n int) {
	for k := 0; k < n; k++ {
		x, y := s[2*k], s[2*k+1]
		r0, r1 := r[2*k], r[2*k+1]
		dst[2*k] = (-2*v.p.Mu*x*y - 1) * r1
		dst[2*k+1] = r0 + v.p.Mu*(1-x*x)*r1
	}
}
