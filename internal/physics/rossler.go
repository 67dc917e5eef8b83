package physics

import "github.com/san-kum/resolvent/internal/dynamo"

type RosslerParams struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

func DefaultRosslerParams() RosslerParams { return RosslerParams{A: 0.2, B: 0.2, C: 5.7} }

// Rossler is dx/dt = −y − z, dy/dt = x + ay, dz/dt = b + z(x − c).
type Rossler struct{ p RosslerParams }

func NewRossler(p RosslerParams) Rossler { return Rossler{p} }

func (r Rossler) Name() string               { return "rossler" }
func (r Rossler) Dim() int                   { return 3 }
func (r Rossler) Config() RosslerParams      { return r.p }
func (r Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

// DefaultMean is only known at the default parameters.
func (r Rossler) DefaultMean() dynamo.State {
	if r.p != DefaultRosslerParams() {
		return nil
	}
	return dynamo.State{0.2, -1, 1}
}

func (r Rossler) Params() dynamo.Params {
	return dynamo.Params{"a": r.p.A, "b": r.p.B, "c": r.p.C}
}

func (r Rossler) WithParam(name string, v float64) (dynamo.System, error) {
	if err := checkFinite(name, v); err != nil {
		return nil, err
	}
	p := r.p
	switch name {
	case "a":
		p.A = v
	case "b":
		p.B = v
	case "c":
		p.C = v
	default:
		return nil, unknownParam(r.Name(), name)
	}
	return Rossler{p}, nil
}

func (r Rossler) Response(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, y, z := s[3*k], s[3*k+1], s[3*k+2]
		dst[3*k] = -y - z
		dst[3*k+1] = x + r.p.A*y
		dst[3*k+2] = r.p.B + z*(x-r.p.C)
	}
}

func (r Rossler) Jacobian(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		x, z := s[3*k], s[3*k+2]
		j := dst[9*k : 9*k+9]
		j[0], j[1], j[2] = 0, -1, -1
		j[3], j[4], j[5] = 1, r.p.A, 0
		j[6], j[7], j[8] = z, 0, x-r.p.C
	}
}

func (r Rossler) NLFactor(dst, s []float64, n int) {
	for k := 0; k < n; k++ {
		dst[3*k] = 0
		dst[3*k+1] = 0
		dst[3*k+2] = s[3*k] * s[3*k+2]
	}
}

func (r Rossler) JacConvAdjoint(dst, s, rr []float64, n int) {
	for k := 0; k < n; k++ {
		x, z := s[3*k], s[3*k+2]
		r0, r1, r2 := rr[3*k], rr[3*k+1], rr[3*k+2]
		dst[3*k] = r1 + z*r2
		dst[3*k+1] = -r0 + r.p.A*r1
		dst[3*k+2] = -r0 + (x-r.p.C)*r2
	}
}
