package physics

import "github.com/san-kum/resolvent/internal/dynamo"

type LorenzParams struct {
	Sigma float64 `yaml:"sigma" json:"sigma"`
	Rho   float64 `yaml:"rho" json:"rho"`
	Beta  float64 `yaml:"beta" json:"beta"`
}

func DefaultLorenzParams() LorenzParams {
	return LorenzParams{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0}
}

// Lorenz is dx/dt = σ(y−x), dy/dt = x(ρ−z) − y, dz/dt = xy − βz.
type Lorenz struct{ p LorenzParams }

func NewLorenz(p LorenzParams) Lorenz { return Lorenz{p} }

func (l Lorenz) Name() string               { return "lorenz" }
func (l Lorenz) Dim() int                   { return 3 }
func (l Lorenz) Config() LorenzParams       { return l.p }
func (l Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

// DefaultMean is the attractor mean at the classic parameters and nil
// otherwise.
func (l Lorenz) DefaultMean() dynamo.State {
	if l.p != DefaultLorenzParams() {
		return nil
	}
	return dynamo.State{0, 0, 23.64}
}

func (l Lorenz) Params() dynamo.Params {
	return dynamo.Params{"sigma": l.p.Sigma, "rho": l.p.Rho, "beta": l.p.Beta}
}

func (l Lorenz) WithParam(name string, v float64) (dynamo.System, error) {
	if err := checkFinite(name, v); err != nil {
		return nil, err
	}
	p := l.p
	switch name {
	case "sigma":
		p.Sigma = v
	case "rho":
		p.Rho = v
	case "beta":
		p.Beta = v
	default:
		return nil, unknownParam(l.Name(), name)
	}
	return Lorenz{p}, nil
}

func (l Lorenz) Response(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y, z := s[3*k], s[3*k+1], s[3*k+2]
		dst[3*k] = l.p.Sigma * (y - x)
		dst[3*k+1] = x*(l.p.Rho-z) - y
		dst[3*k+2] = x*y - l.p.Beta*z
	}
}

func (l Lorenz) Jacobian(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y, z := s[3*k], s[3*k+1], s[3*k+2]
		j := dst[9*k : 9*k+9]
		j[0], j[1], j[2] = -l.p.Sigma, l.p.Sigma, 0
		j[3], j[4], j[5] = l.p.Rho-z, -1, -x
		j[6], j[7], j[8] = y, x, -l.p.Beta
	}
}

func (l Lorenz) NLFactor(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y, z := s[3*k], s[3*k+1], s[3*k+2]
		dst[3*k] = 0
		dst[3*k+1] = -x * z
		dst[3*k+2] = x * y
	}
}

func (l Lorenz) JacConvAdjoint(dst, s, r []float64, n int) {
	for k := 0; k < n; k++ {
		x, y, z := s[3*k], s[3*k+1], s[3*k+2]
		r0, r1, r2 := r[3*k], r[3*k+1], r[3*k+2]
		dst[3*k] = -l.p.Sigma*r0 + (l.p.Rho-z)*r1 + y*r2
		dst[3*k+1] = l.p.Sigma*r0 - r1 + x*r2
		dst[3*k+2] = -x*r1 - l.p.Beta*r2
	}
}
