package residual

import (
	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// LocalResidual writes the per-mode defect of traj into dst. Mode 0 carries
// the mean-balance row −(f(mean) + F[N(traj)]_0) in place of the zeroed
// linear row. dst must not alias traj.
func LocalResidual(c *Cache, sys dynamo.System, hInv *trajectory.Matrices, traj *trajectory.Trajectory, mean []float64, dst *trajectory.Trajectory) error {
	if err := checkInputs(c, sys, traj, mean, dst); err != nil {
		return err
	}
	if err := dynamo.CheckDim("resolvent modes", c.n, hInv.Modes()); err != nil {
		return err
	}
	if err := dynamo.CheckDim("resolvent dimension", c.dim, hInv.Dim()); err != nil {
		return err
	}
	c.localResidual(sys, hInv, traj, mean, dst)
	return nil
}

func (c *Cache) localResidual(sys dynamo.System, hInv *trajectory.Matrices, traj *trajectory.Trajectory, mean []float64, dst *trajectory.Trajectory) {
	c.response(traj, sys.NLFactor, c.nl)
	dst.MatMul(hInv, traj)
	dst.Sub(dst, c.nl)

	sys.Response(c.fMean, mean, 1)
	m0 := dst.Mode(0)
	nl0 := c.nl.Mode(0)
	for i := range m0 {
		m0[i] = -(complex(c.fMean[i], 0) + nl0[i])
	}
}

// GlobalResidual returns ½|r_0|² + Σ_{n≥1}|r_n|².
func GlobalResidual(lr *trajectory.Trajectory) float64 {
	return real(lr.Inner(lr))
}

// GradTraj writes the Wirtinger gradient ∂GR/∂conj(u_n) into dst:
//
//	G_n = −i·n·freq·r_n − F[J(x_k)ᵀ r̃_k]_n
//
// with x the time samples of traj after its mode 0 is replaced by mean and
// r̃ the time samples of lr with its Nyquist row doubled. traj is not modified.
func GradTraj(c *Cache, sys dynamo.System, traj, lr *trajectory.Trajectory, freq float64, mean []float64, dst *trajectory.Trajectory) error {
	if err := checkInputs(c, sys, traj, mean, dst); err != nil {
		return err
	}
	if err := c.Fits(lr); err != nil {
		return err
	}
	c.gradTraj(sys, traj, lr, freq, mean, dst)
	return nil
}

func (c *Cache) gradTraj(sys dynamo.System, traj, lr *trajectory.Trajectory, freq float64, mean []float64, dst *trajectory.Trajectory) {
	c.sub.CopyFrom(traj)
	c.sub.SetModeReal(0, mean)

	// The half spectrum stores the Nyquist mode once but the residual
	// weights it as a full interior mode.
	c.lrw.CopyFrom(lr)
	ny := c.lrw.Mode(c.n - 1)
	for i := range ny {
		ny[i] *= 2
	}

	c.convAdjoint(c.sub, c.lrw, c.adjoint(sys), c.conv)
	c.dlr.Differentiate(freq, lr)
	dst.Add(c.dlr, c.conv)
	dst.Scale(-1, dst)
}

// GradFreq returns ∂GR/∂freq = 2·Σ_{n≥1} n·Im(conj(u_n)·r_n).
func GradFreq(traj, lr *trajectory.Trajectory) float64 {
	if !traj.SameShape(lr) {
		panic(&dynamo.DimensionError{What: "residual modes", Want: traj.Modes(), Got: lr.Modes()})
	}
	sum := 0.0
	for n := 1; n < traj.Modes(); n++ {
		var p complex128
		rn := lr.Mode(n)
		for i, u := range traj.Mode(n) {
			p += complex(real(u), -imag(u)) * rn[i]
		}
		sum += float64(n) * imag(p)
	}
	return 2 * sum
}

func checkInputs(c *Cache, sys dynamo.System, traj *trajectory.Trajectory, mean []float64, dst *trajectory.Trajectory) error {
	if err := c.fitsSystem(sys); err != nil {
		return err
	}
	if err := c.Fits(traj); err != nil {
		return err
	}
	if err := c.Fits(dst); err != nil {
		return err
	}
	return dynamo.CheckDim("mean length", c.dim, len(mean))
}
