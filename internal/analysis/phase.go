package analysis

import (
	"fmt"
	"math"
	"strings"
)

type Point struct{ X, Y float64 }

// Projection is a 2D view of an orbit's state samples.
type Projection struct {
	XIndex, YIndex int
	Points         []Point
}

// Project picks components xIdx and yIdx of every sample, offset by mean
// when it is non-nil.
func Project(samples [][]float64, mean []float64, xIdx, yIdx int) (*Projection, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to project")
	}
	dim := len(samples[0])
	if xIdx < 0 || xIdx >= dim || yIdx < 0 || yIdx >= dim {
		return nil, fmt.Errorf("projection axes (%d, %d) out of range for dimension %d", xIdx, yIdx, dim)
	}
	off := func(i int) float64 {
		if mean == nil {
			return 0
		}
		return mean[i]
	}
	p := &Projection{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, len(samples))}
	for k, s := range samples {
		p.Points[k] = Point{X: s[xIdx] + off(xIdx), Y: s[yIdx] + off(yIdx)}
	}
	return p, nil
}

// Bounds returns the extent of the points.
func (p *Projection) Bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = math.Inf(1), math.Inf(-1)
	minY, maxY = math.Inf(1), math.Inf(-1)
	for _, q := range p.Points {
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	return
}

// ASCII renders the projection on a width×height character canvas.
func (p *Projection) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	minX, maxX, minY, maxY := p.Bounds()

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	cell := func(x, y float64) (int, int) {
		return height - 1 - int((y-minY)/rangeY*float64(height-1)), int((x - minX) / rangeX * float64(width-1))
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		_, col := cell(0, minY)
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row, _ := cell(minX, 0)
		for col := 0; col < width; col++ {
			canvas[row][col] = '─'
		}
	}
	for _, q := range p.Points {
		row, col := cell(q.X, q.Y)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Section records where a closed orbit crosses component crossIdx = threshold
// upwards, linearly interpolating between samples. The orbit wraps around,
// so the segment from the last sample back to the first is included.
func Section(samples [][]float64, crossIdx int, threshold float64, recX, recY int) (*Projection, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("section needs at least 2 samples, got %d", len(samples))
	}
	dim := len(samples[0])
	for _, idx := range []int{crossIdx, recX, recY} {
		if idx < 0 || idx >= dim {
			return nil, fmt.Errorf("section index %d out of range for dimension %d", idx, dim)
		}
	}
	sec := &Projection{XIndex: recX, YIndex: recY}
	n := len(samples)
	for k := 0; k < n; k++ {
		a, b := samples[k], samples[(k+1)%n]
		prev, curr := a[crossIdx], b[crossIdx]
		if !(prev < threshold && curr >= threshold) {
			continue
		}
		frac := (threshold - prev) / (curr - prev)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		sec.Points = append(sec.Points, Point{
			X: a[recX] + frac*(b[recX]-a[recX]),
			Y: a[recY] + frac*(b[recY]-a[recY]),
		})
	}
	return sec, nil
}
