package spectral

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/resolvent/internal/dynamo"
)

func randomSignal(rng *rand.Rand, t, dim int) []float64 {
	x := make([]float64, t*dim)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	return x
}

func TestNew_RejectsBadShapes(t *testing.T) {
	g := NewWithT(t)

	_, err := New(BackendGonum, 7, 2)
	g.Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())

	_, err = New(BackendGonum, 8, 0)
	g.Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())

	_, err = New("fftw", 8, 2)
	g.Expect(err).To(HaveOccurred())
}

func TestForward_CosineCoefficients(t *testing.T) {
	for _, backend := range []string{BackendGonum, BackendDSP} {
		t.Run(backend, func(t *testing.T) {
			g := NewWithT(t)
			const T, dim = 16, 2
			tr, err := New(backend, T, dim)
			g.Expect(err).NotTo(HaveOccurred())

			x := make([]float64, T*dim)
			for k := 0; k < T; k++ {
				s := 2 * math.Pi * float64(k) / T
				x[k*dim] = 3 + math.Cos(s)
				x[k*dim+1] = -math.Sin(2 * s)
			}
			c := make([]complex128, tr.Modes()*dim)
			tr.Forward(c, x)

			g.Expect(cmplx.Abs(c[0] - 3)).To(BeNumerically("<", 1e-12))
			g.Expect(cmplx.Abs(c[1*dim] - 0.5)).To(BeNumerically("<", 1e-12))
			g.Expect(cmplx.Abs(c[2*dim+1] - 0.5i)).To(BeNumerically("<", 1e-12))
			g.Expect(cmplx.Abs(c[3*dim])).To(BeNumerically("<", 1e-12))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, backend := range []string{BackendGonum, BackendDSP} {
		for _, T := range []int{2, 8, 30, 64} {
			g := NewWithT(t)
			tr, err := New(backend, T, 3)
			g.Expect(err).NotTo(HaveOccurred())

			x := randomSignal(rng, T, 3)
			c := make([]complex128, tr.Modes()*3)
			y := make([]float64, T*3)
			tr.Forward(c, x)
			tr.Inverse(y, c)

			for i := range x {
				g.Expect(y[i]).To(BeNumerically("~", x[i], 1e-10), "backend %s T=%d", backend, T)
			}
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(11))
	const T, dim = 24, 3

	gn, _ := New(BackendGonum, T, dim)
	ds, _ := New(BackendDSP, T, dim)

	x := randomSignal(rng, T, dim)
	a := make([]complex128, gn.Modes()*dim)
	b := make([]complex128, ds.Modes()*dim)
	gn.Forward(a, x)
	ds.Forward(b, x)
	for i := range a {
		g.Expect(cmplx.Abs(a[i] - b[i])).To(BeNumerically("<", 1e-10))
	}

	ya := make([]float64, T*dim)
	yb := make([]float64, T*dim)
	gn.Inverse(ya, a)
	ds.Inverse(yb, a)
	for i := range ya {
		g.Expect(ya[i]).To(BeNumerically("~", yb[i], 1e-10))
	}
}

func TestForward_PanicsOnWrongBuffers(t *testing.T) {
	g := NewWithT(t)
	tr := NewGonum(8, 2)
	g.Expect(func() { tr.Forward(make([]complex128, 5), make([]float64, 16)) }).To(Panic())
	g.Expect(func() { tr.Inverse(make([]float64, 15), make([]complex128, 10)) }).To(Panic())
}

func BenchmarkGonumForward(b *testing.B) {
	tr := NewGonum(256, 3)
	x := randomSignal(rand.New(rand.NewSource(1)), 256, 3)
	c := make([]complex128, tr.Modes()*3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Forward(c, x)
	}
}

func BenchmarkDSPForward(b *testing.B) {
	tr := NewDSP(256, 3)
	x := randomSignal(rand.New(rand.NewSource(1)), 256, 3)
	c := make([]complex128, tr.Modes()*3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Forward(c, x)
	}
}
