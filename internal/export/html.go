package export

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/san-kum/resolvent/internal/analysis"
)

// Report is everything an HTML orbit report shows.
type Report struct {
	Title    string
	Subtitle string
	// History is the residual after each optimizer iteration.
	History []float64
	Times   []float64
	States  [][]float64
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "500px"})
}

func historyChart(r Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Residual history", Subtitle: r.Subtitle}),
		initOpts(r.Title),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "residual", Type: "log"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	xs := make([]int, len(r.History))
	items := make([]opts.LineData, len(r.History))
	for i, v := range r.History {
		xs[i] = i
		items[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xs).AddSeries("residual", items)
	return line
}

func componentsChart(r Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Orbit components", Subtitle: "one period"}),
		initOpts(r.Title),
		charts.WithXAxisOpts(opts.XAxis{Name: "t"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	labels := make([]string, len(r.Times))
	for k, t := range r.Times {
		labels[k] = strconv.FormatFloat(t, 'f', 3, 64)
	}
	line.SetXAxis(labels)
	for i := range r.States[0] {
		items := make([]opts.LineData, len(r.States))
		for k, s := range r.States {
			items[k] = opts.LineData{Value: s[i]}
		}
		line.AddSeries(fmt.Sprintf("x%d", i), items)
	}
	return line
}

func projectionChart(r Report, p *analysis.Projection) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Projection x%d-x%d", p.XIndex, p.YIndex)}),
		initOpts(r.Title),
		charts.WithXAxisOpts(opts.XAxis{Name: fmt.Sprintf("x%d", p.XIndex), Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("x%d", p.YIndex), Type: "value"}),
	)
	items := make([]opts.ScatterData, len(p.Points))
	for k, q := range p.Points {
		items[k] = opts.ScatterData{Value: []float64{q.X, q.Y}, SymbolSize: 4}
	}
	sc.AddSeries("orbit", items)
	return sc
}

// WriteHTML renders r as a single page of charts.
func WriteHTML(w io.Writer, r Report) error {
	page := components.NewPage()
	page.PageTitle = r.Title
	if len(r.History) > 0 {
		page.AddCharts(historyChart(r))
	}
	if len(r.States) > 1 {
		page.AddCharts(componentsChart(r))
		dim := len(r.States[0])
		for i := 0; i < dim; i++ {
			for j := i + 1; j < dim; j++ {
				p, err := analysis.Project(r.States, nil, i, j)
				if err != nil {
					return err
				}
				page.AddCharts(projectionChart(r, p))
			}
		}
	}
	return page.Render(w)
}

func ExportHTML(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHTML(f, r); err != nil {
		f.Close()
		return fmt.Errorf("render html: %w", err)
	}
	return f.Close()
}
