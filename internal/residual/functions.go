package residual

import (
	"github.com/san-kum/resolvent/internal/trajectory"
)

// Kernel is a pointwise map over a row-major batch of n states.
type Kernel func(dst, states []float64, n int)

// AdjointKernel is a pointwise map of a state batch paired with an operand batch.
type AdjointKernel func(dst, states, r []float64, n int)

// Response evaluates kernel along traj's time samples and writes the
// spectrum of the result into dst.
func Response(c *Cache, traj *trajectory.Trajectory, kernel Kernel, dst *trajectory.Trajectory) error {
	if err := c.Fits(traj); err != nil {
		return err
	}
	if err := c.Fits(dst); err != nil {
		return err
	}
	c.response(traj, kernel, dst)
	return nil
}

func (c *Cache) response(traj *trajectory.Trajectory, kernel Kernel, dst *trajectory.Trajectory) {
	traj.ToTime(c.tr, c.x)
	kernel(c.out, c.x, c.tr.Len())
	c.tr.Forward(dst.Raw(), c.out)
}

// ConvAdjoint evaluates kernel on traj's time samples paired with other's
// time samples and writes the spectrum of the result into dst.
func ConvAdjoint(c *Cache, traj, other *trajectory.Trajectory, kernel AdjointKernel, dst *trajectory.Trajectory) error {
	for _, t := range []*trajectory.Trajectory{traj, other, dst} {
		if err := c.Fits(t); err != nil {
			return err
		}
	}
	c.convAdjoint(traj, other, kernel, dst)
	return nil
}

func (c *Cache) convAdjoint(traj, other *trajectory.Trajectory, kernel AdjointKernel, dst *trajectory.Trajectory) {
	traj.ToTime(c.tr, c.x)
	other.ToTime(c.tr, c.r)
	kernel(c.out, c.x, c.r, c.tr.Len())
	c.tr.Forward(dst.Raw(), c.out)
}

// Grad writes the exact time derivative of traj at frequency freq into dst.
func Grad(dst, traj *trajectory.Trajectory, freq float64) {
	dst.Differentiate(freq, traj)
}
