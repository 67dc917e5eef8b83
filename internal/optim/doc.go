// Package optim turns the residual of a candidate orbit into an
// unconstrained optimization problem and drives it to a minimum.
//
// A [Problem] exposes Func, Grad and HessVec over the packed real vector of
// a trajectory (see trajectory.Vectorizer), optionally extended by the
// frequency as a last entry. [Minimize] runs either one of the gonum
// optimize methods or the matrix-free Newton-CG driver of this package.
//
// [ScanPeriods] and [MultiStart] run several independent problems
// concurrently. Each goroutine owns its own Problem; nothing is shared.
package optim
