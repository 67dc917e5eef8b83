// Package spectral provides fixed-size real FFT plans for multi-component
// periodic signals.
//
// A [Transformer] maps T time samples of a D-dimensional real signal to the
// T/2+1 non-negative frequency modes and back:
//
//   - Forward is normalised by 1/T, so mode n is the Fourier coefficient
//     c_n = (1/T) Σ_k x_k exp(-2πi nk/T)
//   - Inverse is unnormalised, x_k = c_0 + 2 Σ Re(c_n exp(2πi nk/T)) + c_{T/2}(-1)^k
//
// Both directions use row-major buffers: time sample k, component i at
// k*D+i; mode n, component i at n*D+i.
//
// Two backends are available: [NewGonum] (default, gonum dsp/fourier plans)
// and [NewDSP] (github.com/mjibson/go-dsp). Transformers own scratch buffers
// and are not safe for concurrent use.
package spectral
