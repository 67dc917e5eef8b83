package residual

import (
	"math/rand"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// randomModes fills modes 1..active with amp/n-scaled complex noise. Mean
// and Nyquist modes stay zero.
func randomModes(rng *rand.Rand, n, dim, active int, amp float64) *trajectory.Trajectory {
	u := trajectory.New(n, dim)
	for k := 1; k <= active && k < n-1; k++ {
		for i := 0; i < dim; i++ {
			s := amp / float64(k)
			u.Set(k, i, complex(s*rng.NormFloat64(), s*rng.NormFloat64()))
		}
	}
	return u
}

func mustEvaluator(sys dynamo.System, backend string, n int, freq float64, mean []float64) *Evaluator {
	c, err := NewCacheFor(backend, n, sys.Dim())
	if err != nil {
		panic(err)
	}
	e, err := NewEvaluator(sys, c, freq, mean)
	if err != nil {
		panic(err)
	}
	return e
}

// packedResidual returns the global residual as a function of the packed vector.
func packedResidual(e *Evaluator, v trajectory.Vectorizer) func([]float64) float64 {
	w := trajectory.New(v.Modes(), v.Dim())
	return func(x []float64) float64 {
		if err := v.Unpack(w, x); err != nil {
			panic(err)
		}
		gr, err := e.Residual(w)
		if err != nil {
			panic(err)
		}
		return gr
	}
}

// plainSystem hides the fused adjoint kernel of the wrapped system.
type plainSystem struct{ dynamo.System }
