package metrics

import (
	"math"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// PathLength accumulates the distance travelled in the plane.
type PathLength struct {
	prev    dynamo.Pose
	started bool
	total   float64
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) Observe(x dynamo.State, u dynamo.Control, t float64) {
	cur := dynamo.PoseFromState(x)
	if p.started {
		p.total += math.Hypot(cur.X-p.prev.X, cur.Y-p.prev.Y)
	}
	p.prev = cur
	p.started = true
}

func (p *PathLength) Value() float64 { return p.total }

func (p *PathLength) Reset() {
	p.prev = dynamo.Pose{}
	p.started = false
	p.total = 0
}

// FinalDistance reports the distance to the goal at the last observed state.
type FinalDistance struct {
	goal dynamo.Goal
	last float64
}

func NewFinalDistance(goal dynamo.Goal) *FinalDistance {
	return &FinalDistance{goal: goal, last: math.NaN()}
}

func (f *FinalDistance) Name() string { return "final_distance" }

func (f *FinalDistance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	f.last = dynamo.PoseFromState(x).DistanceTo(f.goal)
}

func (f *FinalDistance) Value() float64 { return f.last }

func (f *FinalDistance) Reset() { f.last = math.NaN() }
