// Package dynamo provides the core primitives shared by the orbit search.
//
// The package defines the contracts every other package builds on:
//
//   - [System]: autonomous ODE dX/dt = f(X) evaluated over batches of states
//   - [JacConvAdjointer]: optional fused kernel J(X)ᵀr used by the gradient
//   - [Params]: immutable, named parameter record of a system
//   - [State]: a single time-domain state vector
//
// # Batches
//
// Systems are evaluated on row-major batches: sample k of a batch of n
// states of dimension D occupies states[k*D:(k+1)*D]. Jacobian batches hold
// n consecutive D×D blocks with entry (i, j) = ∂f_i/∂x_j at k*D*D+i*D+j.
//
// # Thread Safety
//
// System implementations are pure and safe for concurrent use. Everything
// that owns buffers (caches, transformers, problems) is NOT; give each
// goroutine its own.
package dynamo
