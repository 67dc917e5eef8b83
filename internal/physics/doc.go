// Package physics provides the dynamical systems whose periodic orbits are
// searched for.
//
// Each model implements [dynamo.System] over row-major batches and the
// fused [dynamo.JacConvAdjointer] kernel:
//
//   - [Lorenz]: butterfly attractor, quadratic
//   - [VanDerPol]: relaxation oscillator, cubic
//   - [Rossler]: spiral attractor, quadratic
//   - [Viswanath]: planar system with an exact circular cycle, non-polynomial
//
// Parameters are value records. WithParam returns a new system and leaves
// the receiver untouched:
//
//	sys := physics.NewLorenz(physics.DefaultLorenzParams())
//	sys2, err := sys.WithParam("rho", 24.74)
//
// # Nonlinear factor
//
// NLFactor is f(x) − f(0) − J(0)·x. For quadratic systems the Jacobian of
// f at mean+u then splits exactly into J(mean) plus the Jacobian of the
// nonlinear factor at u, which is what makes the trajectory gradient exact
// for any mean. For Van der Pol and Viswanath the split holds only at zero
// mean.
package physics
