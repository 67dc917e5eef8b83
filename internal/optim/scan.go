package optim

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run is one independent optimization of a scan or multi-start.
type Run struct {
	Period float64
	Seed   int64
	Result *Result
	Err    error
}

// Residual returns the final residual, or +Inf for failed runs.
func (r Run) Residual() float64 {
	if r.Err != nil || r.Result == nil || math.IsNaN(r.Result.Residual) {
		return math.Inf(1)
	}
	return r.Result.Residual
}

// Builder constructs a fresh Problem and starting vector for one run. It is
// called from worker goroutines and must not share mutable state.
type Builder func(period float64, seed int64) (*Problem, []float64, error)

// PeriodGrid returns n periods evenly spaced over [lo, hi].
func PeriodGrid(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// ScanPeriods runs one short optimization per candidate period and returns
// all runs ordered by final residual, best first.
func ScanPeriods(ctx context.Context, periods []float64, seed int64, build Builder, s Settings, workers int, log logrus.FieldLogger) ([]Run, error) {
	runs := make([]Run, len(periods))
	for i, T := range periods {
		runs[i] = Run{Period: T, Seed: seed}
	}
	return runAll(ctx, runs, build, s, workers, log)
}

// MultiStart runs the same period from several seeds.
func MultiStart(ctx context.Context, period float64, seeds []int64, build Builder, s Settings, workers int, log logrus.FieldLogger) ([]Run, error) {
	runs := make([]Run, len(seeds))
	for i, seed := range seeds {
		runs[i] = Run{Period: period, Seed: seed}
	}
	return runAll(ctx, runs, build, s, workers, log)
}

func runAll(ctx context.Context, runs []Run, build Builder, s Settings, workers int, log logrus.FieldLogger) ([]Run, error) {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = discardLogger()
	}
	// Progress callbacks are not safe across goroutines.
	s.Progress = nil

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range runs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := &runs[i]
			p, x0, err := build(run.Period, run.Seed)
			if err != nil {
				run.Err = err
				return nil
			}
			run.Result, run.Err = Minimize(ctx, p, x0, s)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithFields(logrus.Fields{
				"period":   run.Period,
				"seed":     run.Seed,
				"residual": run.Residual(),
			}).Debug("run finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(a, b int) bool {
		return runs[a].Residual() < runs[b].Residual()
	})
	return runs, nil
}
