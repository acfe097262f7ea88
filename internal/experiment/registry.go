package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/integrators"
	"github.com/san-kum/goalseek/internal/logging"
	"github.com/san-kum/goalseek/internal/metrics"
)

// Registry maps config names to constructors. Every Get call returns a fresh
// value; integrators and controllers carry state and are never shared.
type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func(dynamo.Gains, logging.Logger) dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func(dynamo.Gains, logging.Logger) dynamo.Controller),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["goal"] = func(g dynamo.Gains, log logging.Logger) dynamo.Controller {
		return control.NewGoalSeeker(g, control.WithLogger(log))
	}
	r.controllers["none"] = func(dynamo.Gains, logging.Logger) dynamo.Controller {
		return control.NewNone(2)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, gains dynamo.Gains, log logging.Logger) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(gains, log), nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

func (r *Registry) DefaultMetrics(goal dynamo.Goal) []dynamo.Metric {
	return metrics.Standard(goal)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
