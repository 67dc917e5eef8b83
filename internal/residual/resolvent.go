package residual

import (
	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// ResolventInv returns the per-mode operator i·n·freq·I − J for n ≥ 1, with
// the zero matrix at mode 0. jac is a row-major dim×dim Jacobian.
func ResolventInv(n int, freq float64, jac []float64, dim int) (*trajectory.Matrices, error) {
	if err := dynamo.CheckDim("jacobian length", dim*dim, len(jac)); err != nil {
		return nil, err
	}
	m := trajectory.NewMatrices(n, dim)
	for k := 1; k < n; k++ {
		b := m.Block(k)
		for i, v := range jac {
			b[i] = complex(-v, 0)
		}
		for i := 0; i < dim; i++ {
			b[i*dim+i] += complex(0, float64(k)*freq)
		}
	}
	return m, nil
}

// ResolventAt evaluates the Jacobian of sys at mean and builds ResolventInv from it.
func ResolventAt(sys dynamo.System, n int, freq float64, mean []float64) (*trajectory.Matrices, error) {
	dim := sys.Dim()
	if err := dynamo.CheckDim("mean length", dim, len(mean)); err != nil {
		return nil, err
	}
	jac := make([]float64, dim*dim)
	sys.Jacobian(jac, mean, 1)
	return ResolventInv(n, freq, jac, dim)
}
