package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// DSP is a Transformer backed by go-dsp. go-dsp allocates on every call and
// works on the full two-sided spectrum, so it is slower than Gonum; it is
// kept as an independent implementation to cross-check the default backend.
type DSP struct {
	columns
	full []complex128
}

func NewDSP(t, dim int) *DSP {
	return &DSP{
		columns: newColumns(t, dim),
		full:    make([]complex128, t),
	}
}

func (d *DSP) Forward(dst []complex128, src []float64) {
	d.check(len(src), len(dst))
	scale := 1 / float64(d.t)
	for i := 0; i < d.dim; i++ {
		d.gatherTime(src, i)
		spec := fft.FFTReal(d.seq)
		copy(d.coeff, spec[:len(d.coeff)])
		d.scatterModes(dst, i, scale)
	}
}

func (d *DSP) Inverse(dst []float64, src []complex128) {
	d.check(len(dst), len(src))
	half := d.t / 2
	for i := 0; i < d.dim; i++ {
		d.gatherModes(src, i)
		d.full[0] = complex(real(d.coeff[0]), 0)
		d.full[half] = complex(real(d.coeff[half]), 0)
		for n := 1; n < half; n++ {
			d.full[n] = d.coeff[n]
			d.full[d.t-n] = cmplx.Conj(d.coeff[n])
		}
		// go-dsp normalises its inverse by 1/T.
		seq := fft.IFFT(d.full)
		for k, v := range seq {
			d.seq[k] = real(v) * float64(d.t)
		}
		d.scatterTime(dst, i)
	}
}
