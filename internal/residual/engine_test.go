package residual

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/physics"
	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/trajectory"
)

var lorenzMean = []float64{0, 0, 23.64}

func TestResolventInv_MeanModeIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, dim := range []int{1, 2, 3, 5} {
		g := NewWithT(t)
		jac := make([]float64, dim*dim)
		for i := range jac {
			jac[i] = rng.NormFloat64()
		}
		freq := 10 * rng.Float64()
		h, err := ResolventInv(7, freq, jac, dim)
		g.Expect(err).NotTo(HaveOccurred())
		for _, v := range h.Block(0) {
			g.Expect(v).To(BeZero())
		}
		g.Expect(h.At(3, 0, 0)).To(Equal(complex(-jac[0], 3*freq)))
		if dim > 1 {
			g.Expect(h.At(2, 0, 1)).To(Equal(complex(-jac[1], 0)))
		}
	}
}

func TestResolventInv_RejectsBadJacobian(t *testing.T) {
	g := NewWithT(t)
	_, err := ResolventInv(4, 1, make([]float64, 5), 2)
	g.Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
}

func TestLocalResidual_ZeroAtEquilibrium(t *testing.T) {
	p := physics.DefaultLorenzParams()
	c := math.Sqrt(p.Beta * (p.Rho - 1))
	equilibria := [][]float64{{0, 0, 0}, {c, c, p.Rho - 1}, {-c, -c, p.Rho - 1}}
	sys := physics.NewLorenz(p)
	for _, eq := range equilibria {
		for _, freq := range []float64{0.1, 1, 4.2, 37} {
			g := NewWithT(t)
			e := mustEvaluator(sys, spectral.BackendGonum, 8, freq, eq)
			gr, err := e.Residual(trajectory.New(8, 3))
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(gr).To(BeNumerically("~", 0, 1e-20), "eq %v freq %v", eq, freq)
		}
	}
}

func TestGlobalResidual_VanDerPolUnitCircle(t *testing.T) {
	tests := []struct {
		mu, freq float64
	}{
		{0, 1},
		{1, 1},
		{0.5, 1.3},
		{2, 0.8},
	}
	for _, backend := range []string{spectral.BackendGonum, spectral.BackendDSP} {
		for _, tt := range tests {
			g := NewWithT(t)
			sys := physics.NewVanDerPol(physics.VanDerPolParams{Mu: tt.mu})
			e := mustEvaluator(sys, backend, 9, tt.freq, []float64{0, 0})
			u := trajectory.New(9, 2)
			u.Set(1, 0, 0.5)
			u.Set(1, 1, 0.5i)

			gr, err := e.Residual(u)
			g.Expect(err).NotTo(HaveOccurred())
			want := (tt.freq-1)*(tt.freq-1)/2 + 5*tt.mu*tt.mu/32
			g.Expect(gr).To(BeNumerically("~", want, 1e-12), "%s mu=%v freq=%v", backend, tt.mu, tt.freq)
		}
	}
}

// The circle of radius R is an exact orbit at unit frequency; away from it
// only the rotation mismatch remains: GR = (ω−1)²R²/2.
func TestGlobalResidual_ViswanathCycle(t *testing.T) {
	tests := []struct {
		mu, r, freq float64
	}{
		{1, 1, 1},
		{0.3, 2.5, 1},
		{1, 1, 1.2},
		{2, 0.5, 0.7},
	}
	for _, backend := range []string{spectral.BackendGonum, spectral.BackendDSP} {
		for _, tt := range tests {
			g := NewWithT(t)
			sys := physics.NewViswanath(physics.ViswanathParams{Mu: tt.mu, R: tt.r})
			e := mustEvaluator(sys, backend, 9, tt.freq, []float64{0, 0})
			u := trajectory.New(9, 2)
			u.Set(1, 0, complex(tt.r/2, 0))
			u.Set(1, 1, complex(0, tt.r/2))

			grad := trajectory.New(9, 2)
			gr, err := e.Gradient(u, grad)
			g.Expect(err).NotTo(HaveOccurred())
			want := (tt.freq - 1) * (tt.freq - 1) * tt.r * tt.r / 2
			g.Expect(gr).To(BeNumerically("~", want, 1e-12), "%s %+v", backend, tt)
			if tt.freq == 1 {
				g.Expect(real(grad.Inner(grad))).To(BeNumerically("~", 0, 1e-20), "%s %+v", backend, tt)
			}
		}
	}
}

func TestGlobalResidual_NonNegative(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(2))
	e := mustEvaluator(physics.NewLorenz(physics.DefaultLorenzParams()), spectral.BackendGonum, 16, 4, lorenzMean)
	for i := 0; i < 10; i++ {
		gr, err := e.Residual(randomModes(rng, 16, 3, 6, 5))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(gr).To(BeNumerically(">=", 0))
	}
}

func TestLocalResidual_ShapeErrors(t *testing.T) {
	g := NewWithT(t)
	sys := physics.NewLorenz(physics.DefaultLorenzParams())
	c, err := NewCacheFor(spectral.BackendGonum, 8, 3)
	g.Expect(err).NotTo(HaveOccurred())
	h, _ := ResolventAt(sys, 8, 1, lorenzMean)

	err = LocalResidual(c, sys, h, trajectory.New(6, 3), lorenzMean, trajectory.New(8, 3))
	g.Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

	err = LocalResidual(c, sys, h, trajectory.New(8, 3), []float64{0, 0}, trajectory.New(8, 3))
	g.Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

	vdp := physics.NewVanDerPol(physics.DefaultVanDerPolParams())
	err = LocalResidual(c, vdp, h, trajectory.New(8, 2), []float64{0, 0}, trajectory.New(8, 2))
	g.Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

	tr, _ := spectral.ForModes(spectral.BackendGonum, 5, 3)
	_, err = NewCache(8, 3, tr)
	g.Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
}

func checkGradient(t *testing.T, sys dynamo.System, mean []float64, freq float64, seed int64, tol float64) {
	t.Helper()
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(seed))
	const n = 10
	e := mustEvaluator(sys, spectral.BackendGonum, n, freq, mean)
	u := randomModes(rng, n, sys.Dim(), 4, 1)
	before := u.Clone()

	grad := trajectory.New(n, sys.Dim())
	_, err := e.Gradient(u, grad)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.EqualApprox(before, 0)).To(BeTrue(), "gradient must not modify the trajectory")

	v := trajectory.VectorizerFor(u)
	packed := v.PackGradient(nil, grad)
	f := packedResidual(e, v)
	x := v.Pack(nil, u)
	const h = 1e-5
	for k := range x {
		if !v.Free(k) {
			continue
		}
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[k] += h
		xm[k] -= h
		fd := (f(xp) - f(xm)) / (2 * h)
		g.Expect(packed[k]).To(BeNumerically("~", fd, tol*math.Max(1, math.Abs(fd))), "index %d", k)
	}
}

func TestGradTraj_FiniteDifference(t *testing.T) {
	t.Run("lorenz", func(t *testing.T) {
		checkGradient(t, physics.NewLorenz(physics.DefaultLorenzParams()), lorenzMean, 4.1, 3, 1e-5)
	})
	t.Run("lorenz off attractor mean", func(t *testing.T) {
		checkGradient(t, physics.NewLorenz(physics.DefaultLorenzParams()), []float64{1.5, -2, 10}, 2.5, 4, 1e-5)
	})
	t.Run("rossler", func(t *testing.T) {
		checkGradient(t, physics.NewRossler(physics.DefaultRosslerParams()), []float64{0.2, -1, 1}, 1.1, 5, 1e-5)
	})
	t.Run("vanderpol", func(t *testing.T) {
		checkGradient(t, physics.NewVanDerPol(physics.VanDerPolParams{Mu: 0.8}), []float64{0, 0}, 1.2, 6, 1e-4)
	})
	t.Run("lorenz without fused adjoint", func(t *testing.T) {
		checkGradient(t, plainSystem{physics.NewLorenz(physics.DefaultLorenzParams())}, lorenzMean, 4.1, 7, 1e-5)
	})
}

func TestGradTraj_FallbackMatchesFused(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(8))
	sys := physics.NewRossler(physics.DefaultRosslerParams())
	u := randomModes(rng, 12, 3, 5, 2)

	fused := mustEvaluator(sys, spectral.BackendGonum, 12, 1, []float64{0.2, -1, 1})
	plain := mustEvaluator(plainSystem{sys}, spectral.BackendGonum, 12, 1, []float64{0.2, -1, 1})
	a := trajectory.New(12, 3)
	b := trajectory.New(12, 3)
	_, err := fused.Gradient(u, a)
	g.Expect(err).NotTo(HaveOccurred())
	_, err = plain.Gradient(u, b)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.EqualApprox(b, 1e-12)).To(BeTrue())
}

func TestGradFreq_FiniteDifference(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(9))
	sys := physics.NewLorenz(physics.DefaultLorenzParams())
	u := randomModes(rng, 10, 3, 4, 2)
	const freq, h = 3.3, 1e-6

	e := mustEvaluator(sys, spectral.BackendGonum, 10, freq, lorenzMean)
	got, err := e.GradFreq(u)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(e.SetFreq(freq + h)).To(Succeed())
	fp, _ := e.Residual(u)
	g.Expect(e.SetFreq(freq - h)).To(Succeed())
	fm, _ := e.Residual(u)
	fd := (fp - fm) / (2 * h)
	g.Expect(got).To(BeNumerically("~", fd, 1e-5*math.Max(1, math.Abs(fd))))
}

func TestBackends_AgreeOnGradient(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(10))
	sys := physics.NewLorenz(physics.DefaultLorenzParams())
	u := randomModes(rng, 17, 3, 6, 3)

	var grads []*trajectory.Trajectory
	var values []float64
	for _, backend := range []string{spectral.BackendGonum, spectral.BackendDSP} {
		e := mustEvaluator(sys, backend, 17, 2.2, lorenzMean)
		grad := trajectory.New(17, 3)
		gr, err := e.Gradient(u, grad)
		g.Expect(err).NotTo(HaveOccurred())
		grads = append(grads, grad)
		values = append(values, gr)
	}
	g.Expect(values[1]).To(BeNumerically("~", values[0], 1e-9*values[0]))
	g.Expect(grads[1].EqualApprox(grads[0], 1e-9)).To(BeTrue())
}

func TestSetFreq_RejectsNonFinite(t *testing.T) {
	g := NewWithT(t)
	e := mustEvaluator(physics.NewLorenz(physics.DefaultLorenzParams()), "", 4, 1, lorenzMean)
	g.Expect(e.SetFreq(math.NaN())).To(MatchError(dynamo.ErrNonFinite))
	g.Expect(e.Freq()).To(Equal(1.0))
}

func BenchmarkResidual(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	sys := physics.NewLorenz(physics.DefaultLorenzParams())
	e := mustEvaluator(sys, spectral.BackendGonum, 129, 4, lorenzMean)
	u := randomModes(rng, 129, 3, 40, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Residual(u)
	}
}

func BenchmarkGradient(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	sys := physics.NewLorenz(physics.DefaultLorenzParams())
	e := mustEvaluator(sys, spectral.BackendGonum, 129, 4, lorenzMean)
	u := randomModes(rng, 129, 3, 40, 5)
	grad := trajectory.New(129, 3)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Gradient(u, grad)
	}
}
