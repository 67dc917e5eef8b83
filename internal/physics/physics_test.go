package physics

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/resolvent/internal/dynamo"
)

type batchSystem interface {
	dynamo.System
	dynamo.JacConvAdjointer
	dynamo.Reparameterizable
}

func systems() []batchSystem {
	return []batchSystem{
		NewLorenz(DefaultLorenzParams()),
		NewVanDerPol(VanDerPolParams{Mu: 1.7}),
		NewRossler(DefaultRosslerParams()),
		NewViswanath(ViswanathParams{Mu: 0.8, R: 1.5}),
	}
}

func randomBatch(rng *rand.Rand, n, dim int) []float64 {
	b := make([]float64, n*dim)
	for i := range b {
		b[i] = 3 * rng.NormFloat64()
	}
	return b
}

func TestJacobian_MatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const h = 1e-6
	for _, sys := range systems() {
		t.Run(sys.Name(), func(t *testing.T) {
			g := NewWithT(t)
			d := sys.Dim()
			x := randomBatch(rng, 1, d)
			jac := make([]float64, d*d)
			sys.Jacobian(jac, x, 1)

			fp := make([]float64, d)
			fm := make([]float64, d)
			for j := 0; j < d; j++ {
				xp := append([]float64(nil), x...)
				xm := append([]float64(nil), x...)
				xp[j] += h
				xm[j] -= h
				sys.Response(fp, xp, 1)
				sys.Response(fm, xm, 1)
				for i := 0; i < d; i++ {
					fd := (fp[i] - fm[i]) / (2 * h)
					g.Expect(jac[i*d+j]).To(BeNumerically("~", fd, 1e-5*math.Max(1, math.Abs(fd))), "∂f%d/∂x%d", i, j)
				}
			}
		})
	}
}

func TestNLFactor_IsResponseMinusLinearisation(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const n = 4
	for _, sys := range systems() {
		t.Run(sys.Name(), func(t *testing.T) {
			g := NewWithT(t)
			d := sys.Dim()
			x := randomBatch(rng, n, d)
			f := make([]float64, n*d)
			nl := make([]float64, n*d)
			sys.Response(f, x, n)
			sys.NLFactor(nl, x, n)

			zero := make([]float64, d)
			f0 := make([]float64, d)
			j0 := make([]float64, d*d)
			sys.Response(f0, zero, 1)
			sys.Jacobian(j0, zero, 1)

			for k := 0; k < n; k++ {
				for i := 0; i < d; i++ {
					lin := f0[i]
					for j := 0; j < d; j++ {
						lin += j0[i*d+j] * x[k*d+j]
					}
					g.Expect(nl[k*d+i]).To(BeNumerically("~", f[k*d+i]-lin, 1e-10))
				}
			}
		})
	}
}

func TestJacConvAdjoint_MatchesTranspose(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 5
	for _, sys := range systems() {
		t.Run(sys.Name(), func(t *testing.T) {
			g := NewWithT(t)
			d := sys.Dim()
			x := randomBatch(rng, n, d)
			r := randomBatch(rng, n, d)
			jac := make([]float64, n*d*d)
			sys.Jacobian(jac, x, n)

			want := make([]float64, n*d)
			dynamo.TransposeApply(want, jac, r, n, d)
			got := make([]float64, n*d)
			sys.JacConvAdjoint(got, x, r, n)
			for i := range want {
				g.Expect(got[i]).To(BeNumerically("~", want[i], 1e-12))
			}
		})
	}
}

func TestWithParam_ReturnsCopy(t *testing.T) {
	g := NewWithT(t)
	base := NewLorenz(DefaultLorenzParams())
	changed, err := base.WithParam("rho", 24.74)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(changed.Params()["rho"]).To(Equal(24.74))
	g.Expect(base.Params()["rho"]).To(Equal(28.0))
}

func TestWithParam_Errors(t *testing.T) {
	tests := []struct {
		name  string
		sys   dynamo.Reparameterizable
		param string
		value float64
	}{
		{"unknown lorenz", NewLorenz(DefaultLorenzParams()), "gamma", 1},
		{"unknown rossler", NewRossler(DefaultRosslerParams()), "mu", 1},
		{"nan", NewRossler(DefaultRosslerParams()), "a", math.NaN()},
		{"negative mu", NewVanDerPol(DefaultVanDerPolParams()), "mu", -1},
		{"inf mu", NewVanDerPol(DefaultVanDerPolParams()), "mu", math.Inf(1)},
		{"zero radius", NewViswanath(DefaultViswanathParams()), "r", 0},
		{"unknown viswanath", NewViswanath(DefaultViswanathParams()), "rho", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			_, err := tt.sys.WithParam(tt.param, tt.value)
			g.Expect(err).To(MatchError(dynamo.ErrInvalidParam))
		})
	}
}

func TestApplyParams(t *testing.T) {
	g := NewWithT(t)
	sys, err := dynamo.ApplyParams(NewRossler(DefaultRosslerParams()), map[string]float64{"a": 0.1, "c": 9})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sys.Params()).To(Equal(dynamo.Params{"a": 0.1, "b": 0.2, "c": 9.0}))
}

func TestLorenz_Equilibrium(t *testing.T) {
	g := NewWithT(t)
	p := DefaultLorenzParams()
	c := math.Sqrt(p.Beta * (p.Rho - 1))
	f := make([]float64, 3)
	NewLorenz(p).Response(f, []float64{c, c, p.Rho - 1}, 1)
	for _, v := range f {
		g.Expect(v).To(BeNumerically("~", 0, 1e-12))
	}
}

func TestViswanath_CircleIsOrbit(t *testing.T) {
	g := NewWithT(t)
	sys := NewViswanath(ViswanathParams{Mu: 2, R: 1.5})
	const n = 16
	s := make([]float64, 2*n)
	for k := 0; k < n; k++ {
		th := 2 * math.Pi * float64(k) / n
		s[2*k], s[2*k+1] = 1.5*math.Cos(th), -1.5*math.Sin(th)
	}
	f := make([]float64, 2*n)
	sys.Response(f, s, n)
	for k := 0; k < n; k++ {
		// On the cycle f is the unit-rate rotation (y, −x).
		g.Expect(f[2*k]).To(BeNumerically("~", s[2*k+1], 1e-12))
		g.Expect(f[2*k+1]).To(BeNumerically("~", -s[2*k], 1e-12))
	}
}

func TestViswanath_JacobianAtOrigin(t *testing.T) {
	g := NewWithT(t)
	jac := make([]float64, 4)
	NewViswanath(ViswanathParams{Mu: 0.5, R: 2}).Jacobian(jac, []float64{0, 0}, 1)
	g.Expect(jac).To(Equal([]float64{1, 1, -1, 1}))
}
