package trajectory

import (
	"fmt"
	"math/cmplx"
)

// Matrices is a stack of N complex D×D blocks, one per mode.
type Matrices struct {
	n, dim int
	data   []complex128
}

// NewMatrices returns n zero blocks of size dim×dim.
func NewMatrices(n, dim int) *Matrices {
	if n < 1 || dim < 1 {
		panic(fmt.Sprintf("trajectory: invalid matrix stack %d×%d×%d", n, dim, dim))
	}
	return &Matrices{n: n, dim: dim, data: make([]complex128, n*dim*dim)}
}

func (m *Matrices) Modes() int { return m.n }
func (m *Matrices) Dim() int   { return m.dim }

// Block returns a row-major view of the block for mode n.
func (m *Matrices) Block(n int) []complex128 {
	s := m.dim * m.dim
	return m.data[n*s : (n+1)*s]
}

func (m *Matrices) At(n, i, j int) complex128 {
	return m.data[n*m.dim*m.dim+i*m.dim+j]
}

func (m *Matrices) Set(n, i, j int, v complex128) {
	m.data[n*m.dim*m.dim+i*m.dim+j] = v
}

// Transpose sets m to the blockwise transpose of a.
func (m *Matrices) Transpose(a *Matrices) {
	if m.n != a.n || m.dim != a.dim {
		panic("trajectory: matrix stack shape mismatch")
	}
	d := m.dim
	for n := 0; n < m.n; n++ {
		src := a.Block(n)
		dst := m.Block(n)
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				dst[j*d+i] = src[i*d+j]
			}
		}
	}
}

// ConjTranspose sets m to the blockwise conjugate transpose of a.
func (m *Matrices) ConjTranspose(a *Matrices) {
	m.Transpose(a)
	for i, v := range m.data {
		m.data[i] = cmplx.Conj(v)
	}
}

func (m *Matrices) EqualApprox(b *Matrices, tol float64) bool {
	if m.n != b.n || m.dim != b.dim {
		return false
	}
	for i, v := range m.data {
		if cmplx.Abs(v-b.data[i]) > tol {
			return false
		}
	}
	return true
}
