package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	// Search setup
	configFile string
	preset     string
	period     float64
	modes      int
	backend    string
	seed       int64
	initMethod string
	amplitude  float64
	active     int
	// Optimizer
	method   string
	maxIter  int
	gradTol  float64
	freeFreq bool
	workers  int
	logEvery int
	starts   int
	live     bool
	noSave   bool
	// Scan
	scanFrom  float64
	scanTo    float64
	scanSteps int
	// Output
	xAxis   int
	yAxis   int
	outPath string
	svgPath string
	hessEps float64
)

var log = logrus.New()

// main is the entry point for the resolvent CLI.
// It exits the process with status 1 if command execution returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "resolvent",
		Short:         "periodic orbit search in the frequency domain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".resolvent", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	solveCmd := &cobra.Command{
		Use:   "solve [system]",
		Short: "search for a periodic orbit",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solveOrbit,
	}
	addSearchFlags(solveCmd)
	solveCmd.Flags().IntVar(&starts, "starts", 1, "independent random starts; the best one is kept")
	solveCmd.Flags().BoolVar(&live, "live", false, "show live optimization progress")

	scanCmd := &cobra.Command{
		Use:   "scan [system]",
		Short: "short searches over a grid of periods",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanPeriods,
	}
	addSearchFlags(scanCmd)
	scanCmd.Flags().Float64Var(&scanFrom, "from", 1.0, "shortest period")
	scanCmd.Flags().Float64Var(&scanTo, "to", 3.0, "longest period")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 9, "number of periods")

	residualCmd := &cobra.Command{
		Use:   "residual [run_id]",
		Short: "re-evaluate the residual of a stored orbit",
		Args:  cobra.ExactArgs(1),
		RunE:  residualRun,
	}

	hessianCmd := &cobra.Command{
		Use:   "hessian [run_id]",
		Short: "dense Hessian spectrum of a stored orbit",
		Args:  cobra.ExactArgs(1),
		RunE:  hessianRun,
	}
	hessianCmd.Flags().Float64Var(&hessEps, "eps", 1e-6, "finite difference step")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored orbits",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored orbit",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	plotCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the projection as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export an orbit to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	exportHTMLCmd := &cobra.Command{
		Use:   "export-html [run_id]",
		Short: "export an HTML report of an orbit",
		Args:  cobra.ExactArgs(1),
		RunE:  exportHTML,
	}
	exportHTMLCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default <run_id>.html)")

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets for a system",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list available systems",
		RunE:  listSystems,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of searches and parameter sweeps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the results")

	rootCmd.AddCommand(solveCmd, scanCmd, scenarioCmd, residualCmd, hessianCmd, listCmd, plotCmd, exportJSONCmd, exportHTMLCmd, presetsCmd, systemsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&period, "period", 0, "orbit period guess (0 estimates it)")
	cmd.Flags().IntVar(&modes, "modes", 33, "number of Fourier modes")
	cmd.Flags().StringVar(&backend, "fft", "gonum", "fft backend (gonum, dsp)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&initMethod, "init", "random", "initial guess (random, integrate)")
	cmd.Flags().Float64Var(&amplitude, "amplitude", 3.0, "random guess amplitude")
	cmd.Flags().IntVar(&active, "active", 6, "random guess active modes")
	cmd.Flags().StringVar(&method, "method", "lbfgs", "optimizer ("+strings.Join(methodNames(), ", ")+")")
	cmd.Flags().IntVar(&maxIter, "max-iter", 500, "maximum iterations")
	cmd.Flags().Float64Var(&gradTol, "grad-tol", 1e-8, "gradient norm threshold")
	cmd.Flags().BoolVar(&freeFreq, "free-freq", false, "optimize the period too")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent searches")
	cmd.Flags().IntVar(&logEvery, "log-every", 50, "log every n iterations (0 disables)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the result")
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	switch logFormat {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format: %s", logFormat)
	}
	return nil
}
