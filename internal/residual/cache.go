package residual

import (
	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// Cache is the working set of one evaluation context. It is sized once for
// N modes of dimension D and is not safe for concurrent use.
type Cache struct {
	n, dim int
	tr     spectral.Transformer

	x   []float64 // time samples of the trajectory
	r   []float64 // time samples of the adjoint operand
	out []float64 // kernel output
	jac []float64 // Jacobian batch for systems without a fused adjoint

	sub  *trajectory.Trajectory // trajectory with the mean substituted
	nl   *trajectory.Trajectory
	lrw  *trajectory.Trajectory // Parseval-weighted local residual
	dlr  *trajectory.Trajectory
	conv *trajectory.Trajectory

	fMean []float64
	jMean []float64
}

// NewCache allocates a cache for the transformer's shape. tr must have
// tr.Modes() == n and tr.Dim() == dim.
func NewCache(n, dim int, tr spectral.Transformer) (*Cache, error) {
	if err := dynamo.CheckDim("transformer modes", n, tr.Modes()); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDim("transformer dimension", dim, tr.Dim()); err != nil {
		return nil, err
	}
	t := tr.Len()
	return &Cache{
		n:     n,
		dim:   dim,
		tr:    tr,
		x:     make([]float64, t*dim),
		r:     make([]float64, t*dim),
		out:   make([]float64, t*dim),
		sub:   trajectory.New(n, dim),
		nl:    trajectory.New(n, dim),
		lrw:   trajectory.New(n, dim),
		dlr:   trajectory.New(n, dim),
		conv:  trajectory.New(n, dim),
		fMean: make([]float64, dim),
		jMean: make([]float64, dim*dim),
	}, nil
}

// NewCacheFor builds the transformer and cache in one step.
func NewCacheFor(backend string, n, dim int) (*Cache, error) {
	tr, err := spectral.ForModes(backend, n, dim)
	if err != nil {
		return nil, err
	}
	return NewCache(n, dim, tr)
}

func (c *Cache) Modes() int                        { return c.n }
func (c *Cache) Dim() int                          { return c.dim }
func (c *Cache) Transformer() spectral.Transformer { return c.tr }

// Fits reports whether t has the shape the cache was sized for.
func (c *Cache) Fits(t *trajectory.Trajectory) error {
	return t.CheckShape(c.n, c.dim)
}

func (c *Cache) fitsSystem(sys dynamo.System) error {
	return dynamo.CheckDim("system dimension", c.dim, sys.Dim())
}

// adjoint returns the J(x_k)ᵀr_k kernel for sys, using the fused kernel
// when the system provides one.
func (c *Cache) adjoint(sys dynamo.System) AdjointKernel {
	if a, ok := sys.(dynamo.JacConvAdjointer); ok {
		return a.JacConvAdjoint
	}
	return func(dst, states, r []float64, n int) {
		if len(c.jac) != n*c.dim*c.dim {
			c.jac = make([]float64, n*c.dim*c.dim)
		}
		sys.Jacobian(c.jac, states, n)
		dynamo.TransposeApply(dst, c.jac, r, n, c.dim)
	}
}
