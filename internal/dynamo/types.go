package dynamo

import (
	"fmt"
	"math"
	"sort"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is an autonomous dynamical system evaluated over row-major batches.
// Implementations must be pure: the same batch always yields the same output.
type System interface {
	Name() string
	Dim() int
	Params() Params

	// Response writes f(x_k) for each of the n states.
	Response(dst, states []float64, n int)
	// Jacobian writes the n Jacobian blocks ∂f/∂x at each state.
	Jacobian(dst, states []float64, n int)
	// NLFactor writes the nonlinear part of f, i.e. f(x) minus its linearisation at the origin.
	NLFactor(dst, states []float64, n int)
}

// JacConvAdjointer is implemented by systems that can apply J(x_k)ᵀ to r_k
// without materialising the Jacobian blocks.
type JacConvAdjointer interface {
	JacConvAdjoint(dst, states, r []float64, n int)
}

// Reparameterizable systems return a modified copy instead of mutating themselves.
type Reparameterizable interface {
	WithParam(name string, value float64) (System, error)
}

// Params is a read-only view of a system's named parameters.
type Params map[string]float64

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (p Params) String() string {
	s := ""
	for i, k := range p.Names() {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%g", k, p[k])
	}
	return s
}

// ApplyParams folds every entry of params into sys through WithParam.
func ApplyParams(sys System, params map[string]float64) (System, error) {
	if len(params) == 0 {
		return sys, nil
	}
	rp, ok := sys.(Reparameterizable)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no parameters", ErrInvalidParam, sys.Name())
	}
	names := Params(params).Names()
	var err error
	for _, name := range names {
		if sys, err = rp.WithParam(name, params[name]); err != nil {
			return nil, err
		}
		rp = sys.(Reparameterizable)
	}
	return sys, nil
}

// TransposeApply writes J_kᵀ r_k for every block of a Jacobian batch.
func TransposeApply(dst, jac, r []float64, n, dim int) {
	for k := 0; k < n; k++ {
		jk := jac[k*dim*dim : (k+1)*dim*dim]
		rk := r[k*dim : (k+1)*dim]
		dk := dst[k*dim : (k+1)*dim]
		for j := 0; j < dim; j++ {
			sum := 0.0
			for i := 0; i < dim; i++ {
				sum += jk[i*dim+j] * rk[i]
			}
			dk[j] = sum
		}
	}
}
