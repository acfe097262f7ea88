package integrators

import "github.com/san-kum/goalseek/internal/dynamo"

// Euler is the explicit first-order step. It matches how a pose reporter that
// applies the last command for one period advances the agent.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	return x.Add(dyn.Derive(x, u, t).Scale(dt))
}
