package dynamo

import (
	"fmt"
	"math"
)

// Pose is the agent's planar position and heading. Theta is in radians and
// may arrive in any range.
type Pose struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Theta float64 `json:"theta" yaml:"theta"`
}

// PoseFromState reads a [x, y, theta] state vector. Missing entries are zero.
func PoseFromState(x State) Pose {
	var p Pose
	if len(x) > 0 {
		p.X = x[0]
	}
	if len(x) > 1 {
		p.Y = x[1]
	}
	if len(x) > 2 {
		p.Theta = x[2]
	}
	return p
}

func (p Pose) State() State {
	return State{p.X, p.Y, p.Theta}
}

// DistanceTo returns the euclidean distance from p to g.
func (p Pose) DistanceTo(g Goal) float64 {
	return math.Hypot(g.X-p.X, g.Y-p.Y)
}

// BearingTo returns the world-frame angle of the line from p to g.
func (p Pose) BearingTo(g Goal) float64 {
	return math.Atan2(g.Y-p.Y, g.X-p.X)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f rad)", p.X, p.Y, p.Theta)
}

// Goal is a destination in the same units as Pose.
type Goal struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (g Goal) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", g.X, g.Y)
}

// Command is a velocity command: linear speed along the heading and angular
// speed about the vertical axis.
type Command struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

func (c Command) IsZero() bool {
	return c.Linear == 0 && c.Angular == 0
}

func (c Command) Control() Control {
	return Control{c.Linear, c.Angular}
}

// Gains holds the proportional gains and the deadbands of the go-to-goal law.
type Gains struct {
	KLinear          float64 `json:"k_linear" yaml:"k_linear"`
	KAngular         float64 `json:"k_angular" yaml:"k_angular"`
	AngularDeadband  float64 `json:"angular_deadband" yaml:"angular_deadband"`
	DistanceDeadband float64 `json:"distance_deadband" yaml:"distance_deadband"`
}

const (
	DefaultKLinear          = 1.0
	DefaultKAngular         = 4.0
	DefaultAngularDeadband  = 0.1
	DefaultDistanceDeadband = 0.1
)

func DefaultGains() Gains {
	return Gains{
		KLinear:          DefaultKLinear,
		KAngular:         DefaultKAngular,
		AngularDeadband:  DefaultAngularDeadband,
		DistanceDeadband: DefaultDistanceDeadband,
	}
}

// Validate rejects deadbands that would make arrival impossible or gains
// that would drive the agent away from the goal.
func (g Gains) Validate() error {
	if g.KLinear <= 0 || g.KAngular <= 0 {
		return fmt.Errorf("gains must be positive (k_linear=%g, k_angular=%g): %w", g.KLinear, g.KAngular, ErrParameterBounds)
	}
	if g.AngularDeadband <= 0 || g.AngularDeadband >= math.Pi {
		return fmt.Errorf("angular deadband %g outside (0, π): %w", g.AngularDeadband, ErrParameterBounds)
	}
	if g.DistanceDeadband <= 0 {
		return fmt.Errorf("distance deadband %g must be positive: %w", g.DistanceDeadband, ErrParameterBounds)
	}
	return nil
}
