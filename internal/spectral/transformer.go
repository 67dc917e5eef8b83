package spectral

import (
	"fmt"

	"github.com/san-kum/resolvent/internal/dynamo"
)

// Backend names accepted by New.
const (
	BackendGonum = "gonum"
	BackendDSP   = "dsp"
)

type Transformer interface {
	// Len is the number of time samples T.
	Len() int
	// Dim is the number of signal components D.
	Dim() int
	// Modes is the number of stored modes, T/2+1.
	Modes() int
	Forward(dst []complex128, src []float64)
	Inverse(dst []float64, src []complex128)
}

// New builds a transformer for the named backend. T must be even and positive.
func New(backend string, t, dim int) (Transformer, error) {
	if t < 2 || t%2 != 0 {
		return nil, fmt.Errorf("%w: time length %d must be even and >= 2", dynamo.ErrDimensionMismatch, t)
	}
	if dim < 1 {
		return nil, fmt.Errorf("%w: dimension %d", dynamo.ErrDimensionMismatch, dim)
	}
	switch backend {
	case "", BackendGonum:
		return NewGonum(t, dim), nil
	case BackendDSP:
		return NewDSP(t, dim), nil
	default:
		return nil, fmt.Errorf("unknown fft backend: %s", backend)
	}
}

// ForModes builds a transformer whose Modes() equals n.
func ForModes(backend string, n, dim int) (Transformer, error) {
	return New(backend, 2*(n-1), dim)
}

// columns holds the per-component gather/scatter buffers shared by backends.
type columns struct {
	t, dim int
	seq    []float64
	coeff  []complex128
}

func newColumns(t, dim int) columns {
	return columns{
		t:     t,
		dim:   dim,
		seq:   make([]float64, t),
		coeff: make([]complex128, t/2+1),
	}
}

func (c *columns) Len() int   { return c.t }
func (c *columns) Dim() int   { return c.dim }
func (c *columns) Modes() int { return c.t/2 + 1 }

func (c *columns) check(nTime, nModes int) {
	if nTime != c.t*c.dim {
		panic(fmt.Sprintf("spectral: time buffer length %d, want %d", nTime, c.t*c.dim))
	}
	if nModes != c.Modes()*c.dim {
		panic(fmt.Sprintf("spectral: mode buffer length %d, want %d", nModes, c.Modes()*c.dim))
	}
}

func (c *columns) gatherTime(src []float64, i int) {
	for k := range c.seq {
		c.seq[k] = src[k*c.dim+i]
	}
}

func (c *columns) scatterTime(dst []float64, i int) {
	for k, v := range c.seq {
		dst[k*c.dim+i] = v
	}
}

func (c *columns) gatherModes(src []complex128, i int) {
	for n := range c.coeff {
		c.coeff[n] = src[n*c.dim+i]
	}
}

func (c *columns) scatterModes(dst []complex128, i int, scale float64) {
	s := complex(scale, 0)
	for n, v := range c.coeff {
		dst[n*c.dim+i] = v * s
	}
}
