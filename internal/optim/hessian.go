package optim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// HessianOperator is the matrix-free Hessian of a Problem at a fixed base
// point. The base gradient is evaluated once at construction.
type HessianOperator struct {
	p    *Problem
	x    []float64
	base []float64
	xp   []float64
	dir  []float64
}

func NewHessianOperator(p *Problem, x []float64) *HessianOperator {
	h := newHessianOperator(p, x, nil)
	p.Grad(h.base, h.x)
	return h
}

// newHessianOperator reuses grad as the base gradient when it is non-nil.
func newHessianOperator(p *Problem, x, grad []float64) *HessianOperator {
	n := len(x)
	h := &HessianOperator{
		p:    p,
		x:    append([]float64(nil), x...),
		base: make([]float64, n),
		xp:   make([]float64, n),
		dir:  make([]float64, n),
	}
	if grad != nil {
		copy(h.base, grad)
	}
	return h
}

func (h *HessianOperator) Len() int { return len(h.x) }

// MatVec writes grad(x+v) − grad(x) into dst. Components of v on pinned
// slots are ignored, so the operator acts on the search variables only.
func (h *HessianOperator) MatVec(dst, v []float64) {
	for k, vk := range v {
		h.xp[k] = h.x[k]
		if h.p.free(k) {
			h.xp[k] += vk
		}
	}
	h.p.Grad(dst, h.xp)
	floats.Sub(dst, h.base)
}

// RMatVec is MatVec: the Hessian of a scalar functional is symmetric.
func (h *HessianOperator) RMatVec(dst, v []float64) {
	h.MatVec(dst, v)
}

// Apply writes the directional derivative of the gradient along v into dst,
// probing with a step of length eps and rescaling.
func (h *HessianOperator) Apply(dst, v []float64, eps float64) {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	s := eps / norm
	floats.ScaleTo(h.dir, s, v)
	h.MatVec(dst, h.dir)
	floats.Scale(1/s, dst)
}

// Dense assembles the finite-difference Hessian column by column with unit
// steps of length eps. It costs one gradient per search variable and is
// meant for debugging. The symmetric part and the raw matrix are returned.
func (h *HessianOperator) Dense(eps float64) (*mat.SymDense, *mat.Dense) {
	n := h.Len()
	raw := mat.NewDense(n, n, nil)
	e := make([]float64, n)
	col := make([]float64, n)
	for j := 0; j < n; j++ {
		if !h.p.free(j) {
			continue
		}
		e[j] = eps
		h.MatVec(col, e)
		e[j] = 0
		for i, v := range col {
			raw.Set(i, j, v/eps)
		}
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(raw.At(i, j)+raw.At(j, i)))
		}
	}
	return sym, raw
}

// Asymmetry returns max |H_ij − H_ji| of a raw dense Hessian.
func Asymmetry(raw *mat.Dense) float64 {
	r, _ := raw.Dims()
	worst := 0.0
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			d := raw.At(i, j) - raw.At(j, i)
			if d < 0 {
				d = -d
			}
			if d > worst {
				worst = d
			}
		}
	}
	return worst
}

const denseHessStep = 1e-6

func (p *Problem) denseHess(dst *mat.SymDense, x []float64) {
	sym, _ := NewHessianOperator(p, x).Dense(denseHessStep)
	dst.CopySym(sym)
}
