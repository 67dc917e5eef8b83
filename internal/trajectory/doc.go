// Package trajectory holds the half-spectrum representation of a periodic
// trajectory and the per-mode linear algebra acting on it.
//
// A [Trajectory] stores N complex mode vectors of dimension D. Mode 0 is the
// mean slot and mode N-1 the Nyquist slot; both must be real for the time
// signal to be real. Negative frequencies follow from conjugate symmetry and
// are never stored. The matching time grid has T = 2(N-1) samples.
//
// Arithmetic follows the gonum convention of writing into the receiver:
//
//	dst.Add(a, b)          // dst = a + b
//	dst.MatMul(hInv, a)    // dst_n = hInv_n · a_n
//	dst.Differentiate(w, a) // dst_n = i·n·w·a_n
//
// Shape mismatches in arithmetic panic with a *dynamo.DimensionError;
// entry points that take user data (FromModes, FromTime, Vectorizer.Unpack)
// return the error instead.
package trajectory
