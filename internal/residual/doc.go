// Package residual evaluates the frequency-domain residual of a candidate
// periodic orbit and its exact derivatives.
//
// For a system dx/dt = f(x) with mean state m and fundamental frequency ω,
// a trajectory u with modes u_n is judged by the local residual
//
//	r_n = (i·n·ω·I − J(m))·u_n − F[N(u)]_n        n ≥ 1
//	r_0 = −(f(m) + F[N(u)]_0)
//
// where N is the nonlinear factor of f and F the forward transform. The
// global residual is ½|r_0|² + Σ_{n≥1} |r_n|².
//
// Nonlinear terms and their adjoint convolutions are computed on the time
// grid through a [spectral.Transformer] rather than by direct convolution.
// All temporaries live in a [Cache] owned by exactly one caller.
package residual
