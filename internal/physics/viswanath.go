package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/resolvent/internal/dynamo"
)

type ViswanathParams struct {
	Mu float64 `yaml:"mu" json:"mu"` // attraction towards the cycle
	R  float64 `yaml:"r" json:"r"`   // cycle radius
}

func DefaultViswanathParams() ViswanathParams { return ViswanathParams{Mu: 1, R: 1} }

// Viswanath is the planar system with an exact circular limit cycle of
// radius R traversed at unit angular frequency:
//
//	dx/dt =  y + μx(R − r)
//	dy/dt = −x + μy(R − r),  r = √(x² + y²)
type Viswanath struct{ p ViswanathParams }

func NewViswanath(p ViswanathParams) Viswanath { return Viswanath{p} }

func (v Viswanath) Name() string               { return "viswanath" }
func (v Viswanath) Dim() int                   { return 2 }
func (v Viswanath) Config() ViswanathParams    { return v.p }
func (v Viswanath) DefaultState() dynamo.State { return dynamo.State{0.5 * v.p.R, 0} }
func (v Viswanath) DefaultMean() dynamo.State  { return dynamo.State{0, 0} }
func (v Viswanath) Params() dynamo.Params {
	return dynamo.Params{"mu": v.p.Mu, "r": v.p.R}
}

func (v Viswanath) WithParam(name string, value float64) (dynamo.System, error) {
	if err := checkFinite(name, value); err != nil {
		return nil, err
	}
	p := v.p
	switch name {
	case "mu":
		p.Mu = value
	case "r":
		if value <= 0 {
			return nil, fmt.Errorf("%w: r=%v must be positive", dynamo.ErrInvalidParam, value)
		}
		p.R = value
	default:
		return nil, unknownParam(v.Name(), name)
	}
	return Viswanath{p}, nil
}

func (v Viswanath) Response(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y := s[2*k], s[2*k+1]
		g := v.p.Mu * (v.p.R - math.Hypot(x, y))
		dst[2*k] = y + g*x
		dst[2*k+1] = -x + g*y
	}
}

// jacobian writes the 2×2 block at (x, y). The radial terms vanish at the
// origin, where r is not differentiable but the limit exists.
func (v Viswanath) jacobian(j []float64, x, y float64) {
	mu, R := v.p.Mu, v.p.R
	r := math.Hypot(x, y)
	if r == 0 {
		j[0], j[1] = mu*R, 1
		j[2], j[3] = -1, mu*R
		return
	}
	j[0] = mu * (R - (2*x*x+y*y)/r)
	j[1] = 1 - mu*x*y/r
	j[2] = -1 - mu*x*y/r
	j[3] = mu * (R - (x*x+2*y*y)/r)
}

func (v Viswanath) Jacobian(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		v.jacobian(dst[4*k:4*k+4], s[2*k], s[2*k+1])
	}
}

// NLFactor is f(x) − J(0)·x = −μ·r·(x, y).
func (v Viswanath) NLFactor(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y := s[2*k], s[2*k+1]
		r := math.Hypot(x, y)
		dst[2*k] = -v.p.Mu * x * r
		dst[2*k+1] = -v.p.Mu * y * r
	}
}

func (v Viswanath) JacConvAdjoint(dst, s, r []float64, n int) {
	var j [4]float64
	for k := 0; k < n; k++ {
		v.jacobian(j[:], s[2*k], s[2*k+1])
		r0, r1 := r[2*k], r[2*k+1]
		dst[2*k] = j[0]*r0 + j[2]*r1
		dst[2*k+1] = j[1]*r0 + j[3]*r1
	}
}
