package metrics

import (
	"github.com/san-kum/goalseek/internal/dynamo"
)

// RotateFraction is the share of observed cycles that turned in place:
// zero linear speed with a non-zero angular command.
type RotateFraction struct {
	rotating int
	samples  int
}

func NewRotateFraction() *RotateFraction { return &RotateFraction{} }

func (r *RotateFraction) Name() string { return "rotate_fraction" }

func (r *RotateFraction) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) < 2 {
		return
	}
	r.samples++
	if u[0] == 0 && u[1] != 0 {
		r.rotating++
	}
}

func (r *RotateFraction) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.rotating) / float64(r.samples)
}

func (r *RotateFraction) Reset() {
	r.rotating = 0
	r.samples = 0
}

// AngularReversals counts sign flips of the angular command. Zero commands
// do not reset the last seen sign. A well-tuned heading loop approaches the
// bearing from one side and shows no reversals.
type AngularReversals struct {
	lastSign  int
	reversals int
}

func NewAngularReversals() *AngularReversals { return &AngularReversals{} }

func (a *AngularReversals) Name() string { return "angular_reversals" }

func (a *AngularReversals) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) < 2 || u[1] == 0 {
		return
	}
	sign := 1
	if u[1] < 0 {
		sign = -1
	}
	if a.lastSign != 0 && sign != a.lastSign {
		a.reversals++
	}
	a.lastSign = sign
}

func (a *AngularReversals) Value() float64 { return float64(a.reversals) }

func (a *AngularReversals) Reset() {
	a.lastSign = 0
	a.reversals = 0
}
