package optim

import (
	"math/rand"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/physics"
	"github.com/san-kum/resolvent/internal/residual"
	"github.com/san-kum/resolvent/internal/trajectory"
)

var lorenzMean = []float64{0, 0, 23.64}

func lorenz() dynamo.System { return physics.NewLorenz(physics.DefaultLorenzParams()) }

func randomTrajectory(rng *rand.Rand, n, dim, active int, amp float64) *trajectory.Trajectory {
	u := trajectory.New(n, dim)
	for k := 1; k <= active && k < n-1; k++ {
		for i := 0; i < dim; i++ {
			s := amp / float64(k)
			u.Set(k, i, complex(s*rng.NormFloat64(), s*rng.NormFloat64()))
		}
	}
	return u
}

func newProblem(sys dynamo.System, n int, freq float64, mean []float64, opts ...Option) *Problem {
	c, err := residual.NewCacheFor("", n, sys.Dim())
	if err != nil {
		panic(err)
	}
	e, err := residual.NewEvaluator(sys, c, freq, mean)
	if err != nil {
		panic(err)
	}
	return NewProblem(e, opts...)
}

// lorenzStart builds a problem and a random start vector around the Lorenz mean.
func lorenzStart(n int, period float64, seed int64, opts ...Option) (*Problem, []float64) {
	p := newProblem(lorenz(), n, 2*3.141592653589793/period, lorenzMean, opts...)
	u := randomTrajectory(rand.New(rand.NewSource(seed)), n, 3, 5, 3)
	x, err := p.Encode(u)
	if err != nil {
		panic(err)
	}
	return p, x
}
