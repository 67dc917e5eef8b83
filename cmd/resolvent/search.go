package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/resolvent/internal/automation"
	"github.com/san-kum/resolvent/internal/config"
	"github.com/san-kum/resolvent/internal/experiment"
	"github.com/san-kum/resolvent/internal/metrics"
	"github.com/san-kum/resolvent/internal/optim"
	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/storage"
	"github.com/san-kum/resolvent/internal/viz"
)

func methodNames() []string { return optim.Methods() }

// buildConfig layers defaults, preset, config file and changed flags, in
// that order of increasing precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	system := cfg.System
	if len(args) > 0 {
		system = args[0]
	}

	if preset != "" {
		p := config.GetPreset(system, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
		cfg = p
	} else if len(args) > 0 && args[0] != cfg.System {
		// Default period and mean belong to the default system.
		cfg.System = system
		cfg.Period = 0
		cfg.Mean = nil
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 && args[0] != cfg.System {
			cfg.System = args[0]
			cfg.Period = 0
			cfg.Mean = nil
		}
	}

	flags := cmd.Flags()
	if flags.Changed("period") {
		cfg.Period = period
	}
	if flags.Changed("modes") {
		cfg.Modes = modes
	}
	if flags.Changed("fft") {
		cfg.Backend = backend
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("init") {
		cfg.Init.Method = initMethod
	}
	if flags.Changed("amplitude") {
		cfg.Init.Amplitude = amplitude
	}
	if flags.Changed("active") {
		cfg.Init.Active = active
	}
	if flags.Changed("method") {
		cfg.Solver.Method = method
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIter = maxIter
	}
	if flags.Changed("grad-tol") {
		cfg.Solver.GradTol = gradTol
	}
	if flags.Changed("free-freq") {
		cfg.Solver.FreeFreq = freeFreq
	}
	if flags.Changed("workers") {
		cfg.Solver.Workers = workers
	}
	return cfg, cfg.Validate()
}

func newExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, optim.Settings, error) {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return nil, optim.Settings{}, err
	}
	e, err := experiment.New(experiment.NewRegistry(), cfg, log)
	if err != nil {
		return nil, optim.Settings{}, err
	}
	s := e.Settings()
	s.LogEvery = logEvery
	return e, s, nil
}

func solveOrbit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, s, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := e.Config()
	tr, err := spectral.ForModes(cfg.Backend, cfg.Modes, e.System().Dim())
	if err != nil {
		return err
	}

	bestSeed := cfg.Seed
	var res *optim.Result
	switch {
	case starts > 1:
		seeds := make([]int64, starts)
		for i := range seeds {
			seeds[i] = cfg.Seed + int64(i)
		}
		runs, err := optim.MultiStart(ctx, cfg.Period, seeds, e.Build, s, cfg.Solver.Workers, log)
		if err != nil {
			return err
		}
		printRuns(runs)
		if runs[0].Err != nil {
			return fmt.Errorf("all starts failed: %w", runs[0].Err)
		}
		res, bestSeed = runs[0].Result, runs[0].Seed
	case live:
		title := fmt.Sprintf("%s  T=%.4f  N=%d", cfg.System, cfg.Period, cfg.Modes)
		res, err = viz.RunLive(ctx, title, s.MaxIterations, func(ctx context.Context, progress func(optim.Progress)) (*optim.Result, [][]float64, error) {
			s.Progress = progress
			p, x0, err := e.Build(cfg.Period, cfg.Seed)
			if err != nil {
				return nil, nil, err
			}
			res, err := optim.Minimize(ctx, p, x0, s)
			if err != nil || res.Trajectory == nil {
				return res, nil, err
			}
			_, states := storage.Physical(res.Trajectory, tr, res.Period(), res.Mean)
			return res, states, nil
		})
		if err != nil {
			return err
		}
	default:
		p, x0, err := e.Build(cfg.Period, cfg.Seed)
		if err != nil {
			return err
		}
		if res, err = optim.Minimize(ctx, p, x0, s); err != nil {
			return err
		}
	}

	printResult(res)
	if noSave {
		return nil
	}
	id, err := saveResult(e, tr, res, bestSeed)
	if err != nil {
		return err
	}
	fmt.Println(viz.Metric("Run id", "%s", id))
	return nil
}

func scanPeriods(cmd *cobra.Command, args []string) error {
	e, s, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := e.Config()
	if !cmd.Flags().Changed("max-iter") {
		s.MaxIterations = 100
	}
	periods := optim.PeriodGrid(scanFrom, scanTo, scanSteps)
	runs, err := optim.ScanPeriods(cmd.Context(), periods, cfg.Seed, e.Build, s, cfg.Solver.Workers, log)
	if err != nil {
		return err
	}
	printRuns(runs)
	if noSave || runs[0].Err != nil {
		return nil
	}
	tr, err := spectral.ForModes(cfg.Backend, cfg.Modes, e.System().Dim())
	if err != nil {
		return err
	}
	id, err := saveResult(e, tr, runs[0].Result, runs[0].Seed)
	if err != nil {
		return err
	}
	fmt.Printf("\nbest run saved: %s\n", id)
	return nil
}

func saveResult(e *experiment.Experiment, tr spectral.Transformer, res *optim.Result, seed int64) (string, error) {
	cfg := e.Config()
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	meta := &storage.OrbitMetadata{
		System:     cfg.System,
		Params:     map[string]float64(e.System().Params()),
		Seed:       seed,
		Backend:    cfg.Backend,
		Period:     res.Period(),
		Mean:       res.Mean,
		Method:     e.Settings().Method,
		Status:     res.Status,
		Residual:   res.Residual,
		GradNorm:   res.GradNorm,
		Iterations: res.Iterations,
		History:    res.History,
	}
	times, states := storage.Physical(res.Trajectory, tr, res.Period(), res.Mean)
	meta.Metrics = metrics.Evaluate(metrics.Default(e.System(), res.Period(), res.Mean), times, states)
	meta.Metrics["tail_energy"] = metrics.TailEnergy(res.Trajectory, 0.25)
	return st.Save(meta, res.Trajectory, tr)
}

func printResult(res *optim.Result) {
	fmt.Println(viz.Title.Render("orbit search finished"))
	fmt.Println(viz.Metric("Status", "%s", res.Status))
	fmt.Println(viz.Metric("Period", "%.8f", res.Period()))
	fmt.Println(viz.Metric("Residual", "%.6e", res.Residual))
	fmt.Println(viz.Metric("Grad norm", "%.6e", res.GradNorm))
	fmt.Println(viz.Metric("Iterations", "%d", res.Iterations))
	fmt.Println(viz.Metric("Evaluations", "%d f, %d grad", res.FuncEvals, res.GradEvals))
	fmt.Println(viz.Metric("Runtime", "%s", res.Runtime))
	if chart := viz.PlotHistory(res.History, 60, 8); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}
	fmt.Println()
}

func printRuns(runs []optim.Run) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tSEED\tRESIDUAL\tITER\tSTATUS")
	for _, r := range runs {
		if r.Err != nil {
			fmt.Fprintf(w, "%.5f\t%d\t-\t-\t%v\n", r.Period, r.Seed, r.Err)
			continue
		}
		fmt.Fprintf(w, "%.5f\t%d\t%.4e\t%d\t%s\n", r.Result.Period(), r.Seed, r.Result.Residual, r.Result.Iterations, r.Result.Status)
	}
	w.Flush()
	fmt.Println()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"scenario": sc.Name, "steps": len(sc.Steps)}).Info("loaded scenario")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPARAM\tPERIOD\tRESIDUAL\tSTATUS\tID")
	_, err = automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), log, func(o automation.Outcome) error {
		id := "-"
		if !noSave {
			cfg := o.Experiment.Config()
			tr, err := spectral.ForModes(cfg.Backend, cfg.Modes, o.Experiment.System().Dim())
			if err != nil {
				return err
			}
			if id, err = saveResult(o.Experiment, tr, o.Result, cfg.Seed); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.6f\t%.3e\t%s\t%s\n", o.Step, o.ParamValue, o.Result.Period(), o.Result.Residual, o.Result.Status, id)
		return nil
	})
	w.Flush()
	return err
}
