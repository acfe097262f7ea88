package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// Unicycle is the kinematic model of a differential-drive agent. Commands are
// applied as velocities with no inertia. MaxLinear and MaxAngular saturate the
// actuators when positive; zero means unlimited.
type Unicycle struct {
	MaxLinear  float64
	MaxAngular float64
}

func NewUnicycle() *Unicycle {
	return &Unicycle{}
}

func (u *Unicycle) StateDim() int   { return 3 }
func (u *Unicycle) ControlDim() int { return 2 }

func (u *Unicycle) Derive(x dynamo.State, c dynamo.Control, t float64) dynamo.State {
	theta := x[2]

	v, w := 0.0, 0.0
	if len(c) > 0 {
		v = saturate(c[0], u.MaxLinear)
	}
	if len(c) > 1 {
		w = saturate(c[1], u.MaxAngular)
	}

	sin, cos := math.Sincos(theta)
	return dynamo.State{v * cos, v * sin, w}
}

func saturate(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}

// GetParams returns tunable parameters for live adjustment
func (u *Unicycle) GetParams() map[string]float64 {
	return map[string]float64{
		"MaxLinear":  u.MaxLinear,
		"MaxAngular": u.MaxAngular,
	}
}

func (u *Unicycle) SetParam(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s=%g: %w", name, value, dynamo.ErrParameterBounds)
	}
	switch name {
	case "MaxLinear":
		u.MaxLinear = value
	case "MaxAngular":
		u.MaxAngular = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
