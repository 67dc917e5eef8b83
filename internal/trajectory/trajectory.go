package trajectory

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/spectral"
)

// Trajectory holds the non-negative Fourier modes of a real periodic orbit,
// n modes of dim components each, stored mode-major. Mode 0 and the Nyquist
// mode n−1 are real.
type Trajectory struct {
	n, dim int
	data   []complex128
}

// New returns a zero trajectory with n modes of dimension dim.
func New(n, dim int) *Trajectory {
	if n < 2 || dim < 1 {
		panic(fmt.Sprintf("trajectory: invalid shape %d×%d", n, dim))
	}
	return &Trajectory{n: n, dim: dim, data: make([]complex128, n*dim)}
}

// FromModes copies per-mode coefficient vectors into a new trajectory.
func FromModes(modes [][]complex128) (*Trajectory, error) {
	if len(modes) < 2 {
		return nil, &dynamo.DimensionError{What: "mode count", Want: 2, Got: len(modes)}
	}
	dim := len(modes[0])
	if dim == 0 {
		return nil, &dynamo.DimensionError{What: "state dimension", Want: 1, Got: 0}
	}
	t := New(len(modes), dim)
	for n, m := range modes {
		if err := dynamo.CheckDim(fmt.Sprintf("mode %d length", n), dim, len(m)); err != nil {
			return nil, err
		}
		copy(t.Mode(n), m)
	}
	return t, nil
}

// FromTime forward-transforms T time samples of a D-dimensional signal.
func FromTime(tr spectral.Transformer, samples [][]float64) (*Trajectory, error) {
	if err := dynamo.CheckDim("time samples", tr.Len(), len(samples)); err != nil {
		return nil, err
	}
	dim := tr.Dim()
	flat := make([]float64, tr.Len()*dim)
	for k, s := range samples {
		if err := dynamo.CheckDim(fmt.Sprintf("sample %d length", k), dim, len(s)); err != nil {
			return nil, err
		}
		copy(flat[k*dim:], s)
	}
	t := New(tr.Modes(), dim)
	tr.Forward(t.data, flat)
	t.clearNyquistImag()
	return t, nil
}

// ToTime writes the T×D time samples of t into dst (row-major).
func (t *Trajectory) ToTime(tr spectral.Transformer, dst []float64) {
	t.mustMatch(tr.Modes(), tr.Dim())
	tr.Inverse(dst, t.data)
}

// Samples returns the time samples as a slice of states.
func (t *Trajectory) Samples(tr spectral.Transformer) [][]float64 {
	flat := make([]float64, tr.Len()*t.dim)
	t.ToTime(tr, flat)
	out := make([][]float64, tr.Len())
	for k := range out {
		out[k] = flat[k*t.dim : (k+1)*t.dim]
	}
	return out
}

func (t *Trajectory) Modes() int { return t.n }
func (t *Trajectory) Dim() int   { return t.dim }

// Raw exposes the row-major backing slice.
func (t *Trajectory) Raw() []complex128 { return t.data }

// Mode returns a view of mode n.
func (t *Trajectory) Mode(n int) []complex128 { return t.data[n*t.dim : (n+1)*t.dim] }

func (t *Trajectory) At(n, i int) complex128 { return t.data[n*t.dim+i] }

func (t *Trajectory) Set(n, i int, v complex128) { t.data[n*t.dim+i] = v }

// SetMode overwrites mode n with v.
func (t *Trajectory) SetMode(n int, v []complex128) {
	if len(v) != t.dim {
		panic(&dynamo.DimensionError{What: "mode length", Want: t.dim, Got: len(v)})
	}
	copy(t.Mode(n), v)
}

// SetModeReal overwrites mode n with the real vector v.
func (t *Trajectory) SetModeReal(n int, v []float64) {
	if len(v) != t.dim {
		panic(&dynamo.DimensionError{What: "mode length", Want: t.dim, Got: len(v)})
	}
	m := t.Mode(n)
	for i, x := range v {
		m[i] = complex(x, 0)
	}
}

func (t *Trajectory) Clone() *Trajectory {
	c := New(t.n, t.dim)
	copy(c.data, t.data)
	return c
}

// CopyFrom copies a into t.
func (t *Trajectory) CopyFrom(a *Trajectory) {
	t.mustMatch(a.n, a.dim)
	copy(t.data, a.data)
}

func (t *Trajectory) Zero() {
	for i := range t.data {
		t.data[i] = 0
	}
}

// SameShape reports whether a has the same mode count and dimension as t.
func (t *Trajectory) SameShape(a *Trajectory) bool {
	return t.n == a.n && t.dim == a.dim
}

// CheckShape returns a *dynamo.DimensionError describing the first mismatch.
func (t *Trajectory) CheckShape(n, dim int) error {
	if err := dynamo.CheckDim("mode count", n, t.n); err != nil {
		return err
	}
	return dynamo.CheckDim("state dimension", dim, t.dim)
}

func (t *Trajectory) mustMatch(n, dim int) {
	if err := t.CheckShape(n, dim); err != nil {
		panic(err)
	}
}

// Add sets t = a + b.
func (t *Trajectory) Add(a, b *Trajectory) {
	t.mustMatch(a.n, a.dim)
	t.mustMatch(b.n, b.dim)
	for i := range t.data {
		t.data[i] = a.data[i] + b.data[i]
	}
}

// Sub sets t = a - b.
func (t *Trajectory) Sub(a, b *Trajectory) {
	t.mustMatch(a.n, a.dim)
	t.mustMatch(b.n, b.dim)
	for i := range t.data {
		t.data[i] = a.data[i] - b.data[i]
	}
}

// Scale sets t = s·a.
func (t *Trajectory) Scale(s complex128, a *Trajectory) {
	t.mustMatch(a.n, a.dim)
	for i := range t.data {
		t.data[i] = s * a.data[i]
	}
}

// AddScaled sets t = a + s·b.
func (t *Trajectory) AddScaled(a *Trajectory, s complex128, b *Trajectory) {
	t.mustMatch(a.n, a.dim)
	t.mustMatch(b.n, b.dim)
	for i := range t.data {
		t.data[i] = a.data[i] + s*b.data[i]
	}
}

// Conj sets t to the elementwise conjugate of a.
func (t *Trajectory) Conj(a *Trajectory) {
	t.mustMatch(a.n, a.dim)
	for i := range t.data {
		t.data[i] = cmplx.Conj(a.data[i])
	}
}

// MatMul sets t_n = m_n · a_n for every mode. t must not alias a.
func (t *Trajectory) MatMul(m *Matrices, a *Trajectory) {
	t.mustMatch(a.n, a.dim)
	t.mustMatch(m.n, m.dim)
	d := t.dim
	for n := 0; n < t.n; n++ {
		block := m.Block(n)
		an := a.Mode(n)
		tn := t.Mode(n)
		for i := 0; i < d; i++ {
			var sum complex128
			row := block[i*d : (i+1)*d]
			for j, v := range row {
				sum += v * an[j]
			}
			tn[i] = sum
		}
	}
}

// Differentiate sets t_n = i·n·freq·a_n, the exact time derivative.
func (t *Trajectory) Differentiate(freq float64, a *Trajectory) {
	t.mustMatch(a.n, a.dim)
	for n := 0; n < t.n; n++ {
		w := complex(0, float64(n)*freq)
		an := a.Mode(n)
		tn := t.Mode(n)
		for i := range tn {
			tn[i] = w * an[i]
		}
	}
}

// InnerModes writes conj(t_n)·b_n for every mode into dst (length N).
func (t *Trajectory) InnerModes(dst []complex128, b *Trajectory) {
	t.mustMatch(b.n, b.dim)
	if len(dst) != t.n {
		panic(&dynamo.DimensionError{What: "inner product buffer", Want: t.n, Got: len(dst)})
	}
	for n := 0; n < t.n; n++ {
		var sum complex128
		bn := b.Mode(n)
		for i, v := range t.Mode(n) {
			sum += cmplx.Conj(v) * bn[i]
		}
		dst[n] = sum
	}
}

// Inner returns Σ_n w_n conj(t_n)·b_n with w_0 = 1/2 and w_n = 1 otherwise.
// The half weight on the mean accounts for the missing negative half of the
// spectrum, so Inner(t, t) equals half the mean square of the time signal
// up to the Nyquist term.
func (t *Trajectory) Inner(b *Trajectory) complex128 {
	t.mustMatch(b.n, b.dim)
	var sum complex128
	for n := 0; n < t.n; n++ {
		var m complex128
		bn := b.Mode(n)
		for i, v := range t.Mode(n) {
			m += cmplx.Conj(v) * bn[i]
		}
		if n == 0 {
			m *= 0.5
		}
		sum += m
	}
	return sum
}

// EqualApprox reports whether every coefficient of t and b differs by at
// most tol in absolute value. Trajectories of different shape are never equal.
func (t *Trajectory) EqualApprox(b *Trajectory, tol float64) bool {
	if !t.SameShape(b) {
		return false
	}
	for i, v := range t.data {
		if cmplx.Abs(v-b.data[i]) > tol {
			return false
		}
	}
	return true
}

// Validate reports a mean or Nyquist mode that carries an imaginary part.
// It never modifies t.
func (t *Trajectory) Validate() error {
	for _, n := range []int{0, t.n - 1} {
		for i, v := range t.Mode(n) {
			if imag(v) != 0 {
				return fmt.Errorf("%w: mode %d component %d = %v", dynamo.ErrNotReal, n, i, v)
			}
		}
	}
	return nil
}

// IsFinite reports whether every coefficient is free of NaN and Inf.
func (t *Trajectory) IsFinite() bool {
	for _, v := range t.data {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest coefficient magnitude.
func (t *Trajectory) MaxAbs() float64 {
	m := 0.0
	for _, v := range t.data {
		m = math.Max(m, cmplx.Abs(v))
	}
	return m
}

// clearNyquistImag drops the rounding residue a forward transform leaves in
// the imaginary parts of the mean and Nyquist modes.
func (t *Trajectory) clearNyquistImag() {
	for _, n := range []int{0, t.n - 1} {
		m := t.Mode(n)
		for i := range m {
			m[i] = complex(real(m[i]), 0)
		}
	}
}

func (t *Trajectory) String() string {
	return fmt.Sprintf("Trajectory(%d modes × %d)", t.n, t.dim)
}
