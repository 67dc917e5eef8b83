package trajectory

import (
	"fmt"

	"github.com/san-kum/resolvent/internal/dynamo"
)

// Vectorizer maps trajectories to flat real vectors and back.
//
// Layout for N modes of dimension D:
//
//	[ Re u_0 (D) | Re u_1 (D), Im u_1 (D) | ... | Re u_{N-2}, Im u_{N-2} | Re u_{N-1} (D) ]
//
// The imaginary parts of the mean and Nyquist modes are omitted, so the
// length is 2D(N-1), the same as the number of real time samples.
type Vectorizer struct {
	n, dim int
}

func NewVectorizer(n, dim int) Vectorizer {
	if n < 2 || dim < 1 {
		panic(fmt.Sprintf("trajectory: invalid vectorizer shape %d×%d", n, dim))
	}
	return Vectorizer{n: n, dim: dim}
}

// VectorizerFor returns the vectorizer matching t's shape.
func VectorizerFor(t *Trajectory) Vectorizer {
	return Vectorizer{n: t.n, dim: t.dim}
}

func (v Vectorizer) Len() int   { return 2 * v.dim * (v.n - 1) }
func (v Vectorizer) Modes() int { return v.n }
func (v Vectorizer) Dim() int   { return v.dim }

// Pack flattens t into dst, allocating when dst is nil. Imaginary parts of
// the mean and Nyquist modes are ignored.
func (v Vectorizer) Pack(dst []float64, t *Trajectory) []float64 {
	t.mustMatch(v.n, v.dim)
	dst = v.buffer(dst)
	d := v.dim
	for i, c := range t.Mode(0) {
		dst[i] = real(c)
	}
	off := d
	for n := 1; n < v.n-1; n++ {
		for i, c := range t.Mode(n) {
			dst[off+i] = real(c)
			dst[off+d+i] = imag(c)
		}
		off += 2 * d
	}
	for i, c := range t.Mode(v.n - 1) {
		dst[off+i] = real(c)
	}
	return dst
}

// Unpack fills dst from a packed vector. The mean and Nyquist modes come out real.
func (v Vectorizer) Unpack(dst *Trajectory, x []float64) error {
	if err := dst.CheckShape(v.n, v.dim); err != nil {
		return err
	}
	if err := dynamo.CheckDim("packed vector", v.Len(), len(x)); err != nil {
		return err
	}
	d := v.dim
	m := dst.Mode(0)
	for i := range m {
		m[i] = complex(x[i], 0)
	}
	off := d
	for n := 1; n < v.n-1; n++ {
		m = dst.Mode(n)
		for i := range m {
			m[i] = complex(x[off+i], x[off+d+i])
		}
		off += 2 * d
	}
	m = dst.Mode(v.n - 1)
	for i := range m {
		m[i] = complex(x[off+i], 0)
	}
	return nil
}

// PackGradient flattens the Wirtinger gradient g = ∂L/∂conj(u) into the
// gradient of L with respect to the packed real coordinates. Interior modes
// contribute 2·Re g_n and 2·Im g_n. The mean and Nyquist entries are zero:
// the mean is pinned by the mean-balance equation and the Nyquist slot is
// aliased on the time grid, so neither is a free variable of the search.
func (v Vectorizer) PackGradient(dst []float64, g *Trajectory) []float64 {
	g.mustMatch(v.n, v.dim)
	dst = v.buffer(dst)
	d := v.dim
	for i := 0; i < d; i++ {
		dst[i] = 0
	}
	off := d
	for n := 1; n < v.n-1; n++ {
		for i, c := range g.Mode(n) {
			dst[off+i] = 2 * real(c)
			dst[off+d+i] = 2 * imag(c)
		}
		off += 2 * d
	}
	for i := 0; i < d; i++ {
		dst[off+i] = 0
	}
	return dst
}

// Free reports whether packed index k is a search variable, i.e. not a
// mean or Nyquist slot.
func (v Vectorizer) Free(k int) bool {
	return k >= v.dim && k < v.Len()-v.dim
}

func (v Vectorizer) buffer(dst []float64) []float64 {
	if dst == nil {
		return make([]float64, v.Len())
	}
	if len(dst) != v.Len() {
		panic(&dynamo.DimensionError{What: "packed vector", Want: v.Len(), Got: len(dst)})
	}
	return dst
}
