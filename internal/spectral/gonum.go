package spectral

import "gonum.org/v1/gonum/dsp/fourier"

// Gonum is a Transformer backed by a single reusable gonum real FFT plan.
type Gonum struct {
	columns
	fft *fourier.FFT
}

func NewGonum(t, dim int) *Gonum {
	return &Gonum{
		columns: newColumns(t, dim),
		fft:     fourier.NewFFT(t),
	}
}

func (g *Gonum) Forward(dst []complex128, src []float64) {
	g.check(len(src), len(dst))
	scale := 1 / float64(g.t)
	for i := 0; i < g.dim; i++ {
		g.gatherTime(src, i)
		g.fft.Coefficients(g.coeff, g.seq)
		g.scatterModes(dst, i, scale)
	}
}

func (g *Gonum) Inverse(dst []float64, src []complex128) {
	g.check(len(dst), len(src))
	for i := 0; i < g.dim; i++ {
		g.gatherModes(src, i)
		g.fft.Sequence(g.seq, g.coeff)
		g.scatterTime(dst, i)
	}
}
