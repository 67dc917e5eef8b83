package optim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Progress is a snapshot of an optimization run after one major iteration.
type Progress struct {
	Iteration int
	Residual  float64
	GradNorm  float64
	Freq      float64
	Elapsed   time.Duration
}

// recorder collects the residual history, logs progress and aborts the run
// when its context is done.
type recorder struct {
	ctx      context.Context
	log      logrus.FieldLogger
	every    int
	progress func(Progress)
	freq     func(x []float64) float64

	history []float64
	start   time.Time
}

var _ optimize.Recorder = (*recorder)(nil)

func (r *recorder) Init() error {
	r.start = time.Now()
	r.history = r.history[:0]
	return nil
}

func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if op != optimize.MajorIteration {
		return nil
	}
	r.history = append(r.history, loc.F)
	pr := Progress{
		Iteration: stats.MajorIterations,
		Residual:  loc.F,
		Elapsed:   time.Since(r.start),
	}
	if loc.Gradient != nil {
		pr.GradNorm = floats.Norm(loc.Gradient, 2)
	}
	if r.freq != nil {
		pr.Freq = r.freq(loc.X)
	}
	if r.every > 0 && stats.MajorIterations%r.every == 0 {
		r.log.WithFields(logrus.Fields{
			"iter":      pr.Iteration,
			"residual":  pr.Residual,
			"grad_norm": pr.GradNorm,
		}).Info("iteration")
	}
	if r.progress != nil {
		r.progress(pr)
	}
	return nil
}
