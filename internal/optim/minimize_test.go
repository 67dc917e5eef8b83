package optim

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/resolvent/internal/spectral"
)

const lorenzPeriod = 1.55

func expectDescent(history []float64, initial float64) {
	GinkgoHelper()
	Expect(history).NotTo(BeEmpty())
	prev := initial
	for i, f := range history {
		Expect(f).To(BeNumerically("<=", prev*(1+1e-12)), "iteration %d", i)
		prev = f
	}
	Expect(history[len(history)-1]).To(BeNumerically("<", 0.5*initial))
}

func expectBoundedLorenz(res *Result) {
	GinkgoHelper()
	tr, err := spectral.ForModes(spectral.BackendGonum, res.Trajectory.Modes(), 3)
	Expect(err).NotTo(HaveOccurred())
	for _, s := range res.Trajectory.Samples(tr) {
		x, y, z := s[0]+lorenzMean[0], s[1]+lorenzMean[1], s[2]+lorenzMean[2]
		Expect(math.Abs(x)).To(BeNumerically("<=", 30))
		Expect(math.Abs(y)).To(BeNumerically("<=", 40))
		Expect(z).To(BeNumerically(">=", -10))
		Expect(z).To(BeNumerically("<=", 60))
	}
}

var _ = Describe("Minimize", func() {
	var settings Settings

	BeforeEach(func() {
		settings = DefaultSettings()
		settings.MaxIterations = 250
		settings.LogEvery = 0
	})

	Context("on the Lorenz system", func() {
		DescribeTable("decreases the residual and stays on the attractor",
			func(method string, iters int) {
				settings.Method = method
				settings.MaxIterations = iters
				p, x0 := lorenzStart(24, lorenzPeriod, 42)
				initial := p.Func(x0)

				res, err := Minimize(context.Background(), p, x0, settings)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Trajectory.Validate()).To(Succeed())
				Expect(res.Freq).To(BeNumerically("~", 2*math.Pi/lorenzPeriod, 1e-12))
				expectDescent(res.History, initial)
				Expect(res.Residual).To(Equal(res.History[len(res.History)-1]))
				expectBoundedLorenz(res)
			},
			Entry("lbfgs", MethodLBFGS, 250),
			Entry("cg", MethodCG, 250),
			Entry("newton-cg", MethodNewtonCG, 40),
		)

		It("reports progress after every iteration", func() {
			var seen []Progress
			settings.MaxIterations = 20
			settings.Progress = func(pr Progress) { seen = append(seen, pr) }
			p, x0 := lorenzStart(16, lorenzPeriod, 7)

			res, err := Minimize(context.Background(), p, x0, settings)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(len(res.History)))
			for i, pr := range seen {
				Expect(pr.Residual).To(Equal(res.History[i]))
				Expect(pr.Freq).To(BeNumerically("~", 2*math.Pi/lorenzPeriod, 1e-12))
			}
		})

		It("moves the frequency when it is free", func() {
			settings.MaxIterations = 60
			p, x0 := lorenzStart(16, lorenzPeriod, 9, WithFreeFrequency(true))
			initial := p.Func(x0)

			res, err := Minimize(context.Background(), p, x0, settings)
			Expect(err).NotTo(HaveOccurred())
			expectDescent(res.History, initial)
			Expect(res.Freq).To(Equal(res.X[len(res.X)-1]))
			Expect(res.Freq).NotTo(Equal(x0[len(x0)-1]))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			p, x0 := lorenzStart(16, lorenzPeriod, 3)
			_, err := Minimize(ctx, p, x0, settings)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("rejects unknown methods and bad starting vectors", func() {
			p, x0 := lorenzStart(8, lorenzPeriod, 1)
			settings.Method = "simplex"
			_, err := Minimize(context.Background(), p, x0, settings)
			Expect(err).To(HaveOccurred())

			settings.Method = MethodLBFGS
			_, err = Minimize(context.Background(), p, x0[:3], settings)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("ScanPeriods", func() {
	build := func(period float64, seed int64) (*Problem, []float64, error) {
		p, x := lorenzStart(12, period, seed)
		return p, x, nil
	}

	It("returns every run ordered by residual", func() {
		s := DefaultSettings()
		s.MaxIterations = 15
		s.LogEvery = 0
		periods := PeriodGrid(1.3, 1.8, 6)
		Expect(periods).To(HaveLen(6))
		Expect(periods[5]).To(BeNumerically("~", 1.8, 1e-12))

		runs, err := ScanPeriods(context.Background(), periods, 5, build, s, 3, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(6))
		for i := 1; i < len(runs); i++ {
			Expect(runs[i].Residual()).To(BeNumerically(">=", runs[i-1].Residual()))
		}
		for _, r := range runs {
			Expect(r.Err).NotTo(HaveOccurred())
			Expect(r.Result.Period()).To(BeNumerically("~", r.Period, 1e-9))
		}
	})

	It("matches a sequential run of the same period", func() {
		s := DefaultSettings()
		s.MaxIterations = 10
		s.LogEvery = 0
		runs, err := MultiStart(context.Background(), 1.55, []int64{1, 2, 3, 4}, build, s, 4, nil)
		Expect(err).NotTo(HaveOccurred())

		for _, r := range runs {
			p, x0 := lorenzStart(12, 1.55, r.Seed)
			res, err := Minimize(context.Background(), p, x0, s)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Result.Residual).To(Equal(res.Residual))
		}
	})

	It("keeps failed builds as failed runs", func() {
		s := DefaultSettings()
		s.MaxIterations = 2
		failing := func(period float64, seed int64) (*Problem, []float64, error) {
			if seed == 2 {
				return nil, nil, context.DeadlineExceeded
			}
			return build(period, seed)
		}
		runs, err := MultiStart(context.Background(), 1.55, []int64{1, 2}, failing, s, 2, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs[1].Err).To(HaveOccurred())
		Expect(math.IsInf(runs[1].Residual(), 1)).To(BeTrue())
	})
})
