package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
)

// LogHistory returns log10 of every positive entry of a residual history.
// Zero residuals are clamped to the smallest positive value seen.
func LogHistory(history []float64) []float64 {
	floor := math.Inf(1)
	for _, v := range history {
		if v > 0 && v < floor {
			floor = v
		}
	}
	if math.IsInf(floor, 1) {
		return nil
	}
	out := make([]float64, 0, len(history))
	for _, v := range history {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			continue
		case v <= 0:
			v = floor
		}
		out = append(out, math.Log10(v))
	}
	return out
}

// PlotHistory draws the residual history on a log scale.
func PlotHistory(history []float64, width, height int) string {
	data := LogHistory(history)
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10 residual"),
	)
}

// PlotComponents draws each state component over one period.
func PlotComponents(states [][]float64, width, height int) string {
	if len(states) < 2 {
		return ""
	}
	dim := len(states[0])
	series := make([][]float64, dim)
	for i := range series {
		series[i] = make([]float64, len(states))
		for k, s := range states {
			series[i][k] = s[i]
		}
	}
	colors := []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow}
	caption := "components:"
	for i := 0; i < dim; i++ {
		caption += fmt.Sprintf(" x%d", i)
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors[:min(dim, len(colors))]...),
		asciigraph.Caption(caption),
	)
}
