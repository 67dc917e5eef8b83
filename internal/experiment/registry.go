package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/resolvent/internal/dynamo"
	"github.com/san-kum/resolvent/internal/physics"
)

// Factory returns a system with its default parameters.
type Factory func() dynamo.System

type Registry struct {
	systems map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{systems: make(map[string]Factory)}

	r.Register("lorenz", func() dynamo.System { return physics.NewLorenz(physics.DefaultLorenzParams()) })
	r.Register("vanderpol", func() dynamo.System { return physics.NewVanDerPol(physics.DefaultVanDerPolParams()) })
	r.Register("rossler", func() dynamo.System { return physics.NewRossler(physics.DefaultRosslerParams()) })
	r.Register("viswanath", func() dynamo.System { return physics.NewViswanath(physics.DefaultViswanathParams()) })

	return r
}

func (r *Registry) Register(name string, fn Factory) {
	r.systems[name] = fn
}

// GetSystem returns the named system with params applied on top of its defaults.
func (r *Registry) GetSystem(name string, params map[string]float64) (dynamo.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownSystem, name)
	}
	return dynamo.ApplyParams(fn(), params)
}

func (r *Registry) ListSystems() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type defaultStater interface{ DefaultState() dynamo.State }
type defaultMeaner interface{ DefaultMean() dynamo.State }

// DefaultState is a point in the basin of the system's attractor, or the
// unit vector when the system does not provide one.
func DefaultState(sys dynamo.System) dynamo.State {
	if d, ok := sys.(defaultStater); ok {
		return d.DefaultState()
	}
	x := make(dynamo.State, sys.Dim())
	for i := range x {
		x[i] = 1
	}
	return x
}

// DefaultMean is a typical time-averaged state, or nil when unknown.
func DefaultMean(sys dynamo.System) dynamo.State {
	if d, ok := sys.(defaultMeaner); ok {
		return d.DefaultMean()
	}
	return nil
}
