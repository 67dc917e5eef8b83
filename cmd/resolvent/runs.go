package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/resolvent/internal/analysis"
	"github.com/san-kum/resolvent/internal/config"
	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/experiment"
	"github.com/san-kum/resolvent/internal/export"
	"github.com/san-kum/resolvent/internal/optim"
	"github.com/san-kum/resolvent/internal/residual"
	"github.com/san-kum/resolvent/internal/storage"
	"github.com/san-kum/resolvent/internal/trajectory"
	"github.com/san-kum/resolvent/internal/viz"
)

// loadOrbit rebuilds the evaluator a stored orbit was found with.
func loadOrbit(id string) (*storage.OrbitMetadata, *trajectory.Trajectory, *residual.Evaluator, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, nil, err
	}
	traj, err := st.LoadTrajectory(id)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg := config.DefaultConfig()
	cfg.System = meta.System
	cfg.Params = meta.Params
	cfg.Period = meta.Period
	cfg.Mean = meta.Mean
	cfg.Modes = meta.Modes
	cfg.Backend = meta.Backend
	e, err := experiment.New(experiment.NewRegistry(), cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	eval, err := e.Evaluator(meta.Period)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, traj, eval, nil
}

func residualRun(cmd *cobra.Command, args []string) error {
	meta, traj, eval, err := loadOrbit(args[0])
	if err != nil {
		return err
	}
	grad := trajectory.New(traj.Modes(), traj.Dim())
	gr, err := eval.Gradient(traj, grad)
	if err != nil {
		return err
	}
	gradFreq, err := eval.GradFreq(traj)
	if err != nil {
		return err
	}
	lr := eval.LastResidual()

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Println(viz.Metric("Period", "%.8f", meta.Period))
	fmt.Println(viz.Metric("Residual", "%.6e", gr))
	fmt.Println(viz.Metric("Stored", "%.6e", meta.Residual))
	fmt.Println(viz.Metric("Grad norm", "%.6e", floats.Norm(trajectory.VectorizerFor(grad).PackGradient(nil, grad), 2)))
	fmt.Println(viz.Metric("dGR/dfreq", "%.6e", gradFreq))
	fmt.Println(viz.Separator(40))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\t|r_n|\t|u_n|")
	for n := 0; n < lr.Modes(); n++ {
		var rn, un float64
		for i := 0; i < lr.Dim(); i++ {
			rn += sq(lr.At(n, i))
			un += sq(traj.At(n, i))
		}
		fmt.Fprintf(w, "%d\t%.3e\t%.3e\n", n, math.Sqrt(rn), math.Sqrt(un))
	}
	return w.Flush()
}

func sq(c complex128) float64 { return real(c)*real(c) + imag(c)*imag(c) }

func hessianRun(cmd *cobra.Command, args []string) error {
	meta, traj, eval, err := loadOrbit(args[0])
	if err != nil {
		return err
	}
	p := optim.NewProblem(eval, optim.WithLogger(log))
	x, err := p.Encode(traj)
	if err != nil {
		return err
	}
	log.WithField("vars", len(x)).Info("assembling dense hessian")
	sym, raw := optim.NewHessianOperator(p, x).Dense(hessEps)
	if err := p.Err(); err != nil {
		return err
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return fmt.Errorf("eigen decomposition did not converge")
	}
	vals := eig.Values(nil)
	sort.Float64s(vals)

	scale := math.Max(math.Abs(vals[0]), math.Abs(vals[len(vals)-1]))
	var negative, nearZero int
	for _, v := range vals {
		switch {
		case math.Abs(v) <= 1e-8*scale:
			nearZero++
		case v < 0:
			negative++
		}
	}

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Println(viz.Metric("Size", "%d", len(vals)))
	fmt.Println(viz.Metric("Asymmetry", "%.3e", optim.Asymmetry(raw)))
	fmt.Println(viz.Metric("Min eig", "%.6e", vals[0]))
	fmt.Println(viz.Metric("Max eig", "%.6e", vals[len(vals)-1]))
	fmt.Println(viz.Metric("Negative", "%d", negative))
	fmt.Println(viz.Metric("Near zero", "%d", nearZero))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEIGENVALUE")
	for i, v := range vals {
		if i == 10 {
			break
		}
		fmt.Fprintf(w, "%d\t%.6e\n", i, v)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no orbits found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tPERIOD\tMODES\tRESIDUAL\tMETHOD\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%d\t%.3e\t%s\t%s\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Period,
			run.Modes,
			run.Residual,
			run.Method,
			run.Status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("orbit: %s\n", meta.ID)
	fmt.Printf("system: %s (%s)\n", meta.System, dynamo.Params(meta.Params))
	fmt.Printf("period: %.8f  residual: %.3e\n", meta.Period, meta.Residual)
	for _, name := range dynamo.Params(meta.Metrics).Names() {
		fmt.Printf("%s: %.5g\n", name, meta.Metrics[name])
	}
	fmt.Println()

	if chart := viz.PlotHistory(meta.History, 70, 8); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}
	fmt.Println(viz.PlotComponents(states, 70, 10))
	fmt.Println(viz.Separator(70))

	proj, err := analysis.Project(states, nil, xAxis, yAxis)
	if err != nil {
		return err
	}
	canvas := viz.NewCanvas(60, 20)
	canvas.DrawLoop(proj)
	fmt.Printf("phase projection x%d vs x%d\n", xAxis, yAxis)
	fmt.Println(canvas.String())

	// Poincaré section through the mean of the first component off the plot plane.
	if cross := sectionIndex(len(states[0])); cross >= 0 {
		threshold := 0.0
		for _, s := range states {
			threshold += s[cross]
		}
		threshold /= float64(len(states))
		sec, err := analysis.Section(states, cross, threshold, xAxis, yAxis)
		if err != nil {
			return err
		}
		fmt.Printf("section x%d = %.4f upward: %d crossing(s)\n", cross, threshold, len(sec.Points))
		for _, q := range sec.Points {
			fmt.Printf("  (%.5f, %.5f)\n", q.X, q.Y)
		}
	}

	if svgPath != "" {
		svg := export.ProjectionToSVG(proj, 800, 600, "#00ffff")
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nsvg written to %s\n", svgPath)
	}
	return nil
}

// sectionIndex picks the first component not on a plot axis, or -1.
func sectionIndex(dim int) int {
	for i := 0; i < dim; i++ {
		if i != xAxis && i != yAxis {
			return i
		}
	}
	return -1
}

func exportJSON(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		return storage.ExportJSONStdout(data)
	}
	if err := storage.ExportJSON(outPath, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}

func exportHTML(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = data.ID + ".html"
	}
	report := export.Report{
		Title:    data.ID,
		Subtitle: fmt.Sprintf("%s T=%.6f residual=%.3e", data.System, data.Period, data.Residual),
		History:  data.History,
		Times:    data.Times,
		States:   data.States,
	}
	if err := export.ExportHTML(path, report); err != nil {
		return err
	}
	fmt.Printf("report written to %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for system: %s\n", args[0])
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPERIOD\tMODES\tPARAMS")
	for _, name := range presets {
		p := config.GetPreset(args[0], name)
		fmt.Fprintf(w, "%s\t%.5f\t%d\t%s\n", name, p.Period, p.Modes, dynamo.Params(p.Params))
	}
	return w.Flush()
}

func listSystems(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYSTEM\tDIM\tPARAMS")
	for _, name := range reg.ListSystems() {
		sys, err := reg.GetSystem(name, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, sys.Dim(), sys.Params())
	}
	return w.Flush()
}
