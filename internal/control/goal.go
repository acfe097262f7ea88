package control

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/logging"
)

// Mode names what a single control cycle did.
type Mode int

const (
	ModeIdle Mode = iota
	ModeRotate
	ModeTranslate
	ModeArrived
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRotate:
		return "rotate"
	case ModeTranslate:
		return "translate"
	case ModeArrived:
		return "arrived"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Decision is the full record of one control cycle.
type Decision struct {
	Command      dynamo.Command
	Mode         Mode
	Goal         dynamo.Goal
	Distance     float64
	AngularError float64
	Arrived      bool
}

type Option func(*GoalSeeker)

func WithLogger(log logging.Logger) Option {
	return func(c *GoalSeeker) { c.log = log }
}

// WithArrivalHook registers fn to be called, outside the lock, each time a
// goal is reached.
func WithArrivalHook(fn func(dynamo.Goal)) Option {
	return func(c *GoalSeeker) { c.hooks = append(c.hooks, fn) }
}

// GoalSeeker turns pose samples into velocity commands that steer toward the
// active goal. Heading is corrected first; translation only happens once the
// heading error is inside the angular deadband. The controller disarms itself
// when the goal is within the distance deadband.
//
// All methods are safe for concurrent use. The goal coordinates and the armed
// flag are always written and read together under one lock.
type GoalSeeker struct {
	mu       sync.Mutex
	gains    dynamo.Gains
	pose     dynamo.Pose
	goal     dynamo.Goal
	armed    bool
	done     chan struct{}
	arrivals int

	log   logging.Logger
	hooks []func(dynamo.Goal)
}

func NewGoalSeeker(gains dynamo.Gains, opts ...Option) *GoalSeeker {
	done := make(chan struct{})
	close(done)
	c := &GoalSeeker{
		gains: gains,
		done:  done,
		log:   logging.New("control"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetGoal replaces the destination and arms the controller. It takes effect
// on the next pose sample. Replacing a goal that is still being sought keeps
// the current Done channel open until the new goal is reached.
func (c *GoalSeeker) SetGoal(x, y float64) {
	c.mu.Lock()
	c.goal = dynamo.Goal{X: x, Y: y}
	if !c.armed {
		c.done = make(chan struct{})
	}
	c.armed = true
	c.mu.Unlock()

	c.log.WithField("x", x).WithField("y", y).Info("goal set")
}

// OnPose stores p and returns the command for this cycle. While idle the
// command is zero.
func (c *GoalSeeker) OnPose(p dynamo.Pose) dynamo.Command {
	return c.Decide(p).Command
}

// Decide stores p, runs the control law once and reports what it did.
func (c *GoalSeeker) Decide(p dynamo.Pose) Decision {
	c.mu.Lock()
	c.pose = p
	if !c.armed {
		c.mu.Unlock()
		return Decision{Mode: ModeIdle}
	}

	d := law(p, c.goal, c.gains)
	if d.Arrived {
		c.armed = false
		c.arrivals++
		close(c.done)
	}
	hooks := c.hooks
	c.mu.Unlock()

	if d.Arrived {
		c.log.WithField("x", d.Goal.X).WithField("y", d.Goal.Y).Info("goal reached")
		for _, fn := range hooks {
			fn(d.Goal)
		}
	}
	return d
}

// law is the proportional heading-first go-to-goal rule.
func law(p dynamo.Pose, g dynamo.Goal, k dynamo.Gains) Decision {
	d := Decision{
		Goal:         g,
		AngularError: dynamo.AngleDiff(p.BearingTo(g), p.Theta),
		Distance:     p.DistanceTo(g),
	}

	if math.Abs(d.AngularError) > k.AngularDeadband {
		d.Mode = ModeRotate
		d.Command.Angular = k.KAngular * d.AngularError
		return d
	}

	if d.Distance > k.DistanceDeadband {
		d.Mode = ModeTranslate
		d.Command.Linear = k.KLinear * d.Distance
		return d
	}

	d.Mode = ModeArrived
	d.Arrived = true
	return d
}

func (c *GoalSeeker) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Idle reports whether there is no active goal.
func (c *GoalSeeker) Idle() bool {
	return !c.Armed()
}

// Goal returns the active goal and whether the controller is armed.
func (c *GoalSeeker) Goal() (dynamo.Goal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goal, c.armed
}

// Pose returns the most recent pose sample.
func (c *GoalSeeker) Pose() dynamo.Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// Arrivals counts goals reached since construction.
func (c *GoalSeeker) Arrivals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.arrivals
}

func (c *GoalSeeker) Gains() dynamo.Gains {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gains
}

// Snapshot is a consistent view of the controller taken under one lock.
type Snapshot struct {
	Pose     dynamo.Pose
	Goal     dynamo.Goal
	Armed    bool
	Arrivals int
	Gains    dynamo.Gains
}

func (c *GoalSeeker) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Pose:     c.pose,
		Goal:     c.goal,
		Armed:    c.armed,
		Arrivals: c.arrivals,
		Gains:    c.gains,
	}
}

// Done returns a channel that is closed when the current seek ends in
// arrival. It is already closed while the controller is idle.
func (c *GoalSeeker) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait blocks until the current goal is reached or ctx ends.
func (c *GoalSeeker) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Compute drives the controller from a [x, y, theta] state vector and returns
// [linear, angular].
func (c *GoalSeeker) Compute(x dynamo.State, t float64) dynamo.Control {
	return c.OnPose(dynamo.PoseFromState(x)).Control()
}

// GetParams returns tunable parameters for live adjustment
func (c *GoalSeeker) GetParams() map[string]float64 {
	g := c.Gains()
	return map[string]float64{
		"KLinear":          g.KLinear,
		"KAngular":         g.KAngular,
		"AngularDeadband":  g.AngularDeadband,
		"DistanceDeadband": g.DistanceDeadband,
	}
}

// SetParam adjusts one of the four constants. Values that would leave the
// controller unable to converge are rejected.
func (c *GoalSeeker) SetParam(name string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gains
	switch name {
	case "KLinear":
		g.KLinear = value
	case "KAngular":
		g.KAngular = value
	case "AngularDeadband":
		g.AngularDeadband = value
	case "DistanceDeadband":
		g.DistanceDeadband = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	if err := g.Validate(); err != nil {
		return err
	}
	c.gains = g
	return nil
}
