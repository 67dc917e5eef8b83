package optim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/residual"
	"github.com/san-kum/resolvent/internal/trajectory"
)

// Problem is the packed-vector view of a residual Evaluator. It is not safe
// for concurrent use.
type Problem struct {
	eval      *residual.Evaluator
	vec       trajectory.Vectorizer
	freeFreq  bool
	fixedFreq float64
	log       logrus.FieldLogger

	u    *trajectory.Trajectory
	grad *trajectory.Trajectory
	err  error
}

type Option func(*Problem)

// WithFreeFrequency appends the frequency to the search vector. The
// frequency gradient is then ∂GR/∂freq instead of a fixed period.
func WithFreeFrequency(free bool) Option {
	return func(p *Problem) { p.freeFreq = free }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Problem) { p.log = log }
}

func NewProblem(eval *residual.Evaluator, opts ...Option) *Problem {
	c := eval.Cache()
	p := &Problem{
		eval:      eval,
		vec:       trajectory.NewVectorizer(c.Modes(), c.Dim()),
		fixedFreq: eval.Freq(),
		log:       discardLogger(),
		u:         trajectory.New(c.Modes(), c.Dim()),
		grad:      trajectory.New(c.Modes(), c.Dim()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Len is the length of the search vector.
func (p *Problem) Len() int {
	if p.freeFreq {
		return p.vec.Len() + 1
	}
	return p.vec.Len()
}

func (p *Problem) FreeFrequency() bool            { return p.freeFreq }
func (p *Problem) Evaluator() *residual.Evaluator { return p.eval }
func (p *Problem) Logger() logrus.FieldLogger     { return p.log }

// free reports whether entry k of the search vector is a search variable.
func (p *Problem) free(k int) bool {
	if k >= p.vec.Len() {
		return p.freeFreq
	}
	return p.vec.Free(k)
}

// Encode packs traj, and the evaluator's frequency when it is free.
func (p *Problem) Encode(traj *trajectory.Trajectory) ([]float64, error) {
	if err := p.eval.Cache().Fits(traj); err != nil {
		return nil, err
	}
	x := make([]float64, p.Len())
	p.vec.Pack(x[:p.vec.Len()], traj)
	if p.freeFreq {
		x[len(x)-1] = p.eval.Freq()
	}
	return x, nil
}

// Decode unpacks x into a new trajectory and returns the frequency it encodes.
func (p *Problem) Decode(x []float64) (*trajectory.Trajectory, float64, error) {
	c := p.eval.Cache()
	t := trajectory.New(c.Modes(), c.Dim())
	freq, err := p.load(t, x)
	if err != nil {
		return nil, 0, err
	}
	return t, freq, nil
}

func (p *Problem) load(dst *trajectory.Trajectory, x []float64) (float64, error) {
	if err := dynamo.CheckDim("search vector", p.Len(), len(x)); err != nil {
		return 0, err
	}
	if err := p.vec.Unpack(dst, x[:p.vec.Len()]); err != nil {
		return 0, err
	}
	if p.freeFreq {
		return x[len(x)-1], nil
	}
	return p.eval.Freq(), nil
}

// prepare unpacks x into the working trajectory and moves the evaluator to
// the encoded frequency.
func (p *Problem) prepare(x []float64) error {
	freq, err := p.load(p.u, x)
	if err != nil {
		return err
	}
	if p.freeFreq && freq != p.eval.Freq() {
		return p.eval.SetFreq(freq)
	}
	return nil
}

func (p *Problem) fail(err error) {
	if p.err == nil {
		p.err = err
		p.log.WithError(err).Error("evaluation failed")
	}
}

// Func returns the global residual at x. Failures are reported through
// Status and yield NaN.
func (p *Problem) Func(x []float64) float64 {
	if err := p.prepare(x); err != nil {
		p.fail(err)
		return math.NaN()
	}
	gr, err := p.eval.Residual(p.u)
	if err != nil {
		p.fail(err)
		return math.NaN()
	}
	if math.IsNaN(gr) || math.IsInf(gr, 0) {
		p.fail(fmt.Errorf("global residual %v: %w", gr, dynamo.ErrNonFinite))
	}
	return gr
}

// Grad writes the gradient of Func at x into dst.
func (p *Problem) Grad(dst, x []float64) {
	if len(dst) != p.Len() {
		panic(&dynamo.DimensionError{What: "gradient buffer", Want: p.Len(), Got: len(dst)})
	}
	if err := p.prepare(x); err != nil {
		p.fail(err)
		fillNaN(dst)
		return
	}
	if _, err := p.eval.Gradient(p.u, p.grad); err != nil {
		p.fail(err)
		fillNaN(dst)
		return
	}
	if !p.grad.IsFinite() {
		p.fail(fmt.Errorf("trajectory gradient: %w", dynamo.ErrNonFinite))
	}
	p.vec.PackGradient(dst[:p.vec.Len()], p.grad)
	if p.freeFreq {
		dst[len(dst)-1] = residual.GradFreq(p.u, p.eval.LastResidual())
	}
}

// HessVec writes grad(x+v) − grad(x) into dst.
func (p *Problem) HessVec(dst, x, v []float64) {
	NewHessianOperator(p, x).MatVec(dst, v)
}

// Status reports the first evaluation failure, if any.
func (p *Problem) Status() (optimize.Status, error) {
	if p.err != nil {
		return optimize.Failure, p.err
	}
	return optimize.NotTerminated, nil
}

// Err returns the first evaluation failure and clears it.
func (p *Problem) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Gonum adapts p to gonum's optimize.Problem. withHess adds a dense
// finite-difference Hessian for methods that need one.
func (p *Problem) Gonum(withHess bool) optimize.Problem {
	op := optimize.Problem{
		Func:   p.Func,
		Grad:   p.Grad,
		Status: p.Status,
	}
	if withHess {
		op.Hess = p.denseHess
	}
	return op
}

func fillNaN(dst []float64) {
	for i := range dst {
		dst[i] = math.NaN()
	}
}
