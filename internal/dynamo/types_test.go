package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	short := a.Add(State{1})
	if short[0] != 2 || short[1] != 2 || short[2] != 3 {
		t.Errorf("Add with shorter operand failed: got %v", short)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}
}

func TestPoseFromState(t *testing.T) {
	p := PoseFromState(State{1, 2, 3})
	if p.X != 1 || p.Y != 2 || p.Theta != 3 {
		t.Errorf("PoseFromState = %+v", p)
	}

	short := PoseFromState(State{1})
	if short.X != 1 || short.Y != 0 || short.Theta != 0 {
		t.Errorf("PoseFromState(short) = %+v", short)
	}

	back := p.State()
	if len(back) != 3 || back[2] != 3 {
		t.Errorf("State() = %v", back)
	}
}

func TestPoseGeometry(t *testing.T) {
	p := Pose{X: 0, Y: 0}
	g := Goal{X: 3, Y: 4}

	if d := p.DistanceTo(g); d != 5 {
		t.Errorf("DistanceTo = %v, want 5", d)
	}
	if b := p.BearingTo(Goal{X: 0, Y: 5}); math.Abs(b-math.Pi/2) > 1e-12 {
		t.Errorf("BearingTo north = %v, want π/2", b)
	}
}

func TestGains_Validate(t *testing.T) {
	if err := DefaultGains().Validate(); err != nil {
		t.Fatalf("default gains rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Gains)
	}{
		{"zero k_linear", func(g *Gains) { g.KLinear = 0 }},
		{"negative k_angular", func(g *Gains) { g.KAngular = -1 }},
		{"zero angular deadband", func(g *Gains) { g.AngularDeadband = 0 }},
		{"angular deadband past pi", func(g *Gains) { g.AngularDeadband = 4 }},
		{"zero distance deadband", func(g *Gains) { g.DistanceDeadband = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGains()
			tt.mutate(&g)
			err := g.Validate()
			if !errors.Is(err, ErrParameterBounds) {
				t.Errorf("Validate() = %v, want ErrParameterBounds", err)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	if !(Command{}).IsZero() {
		t.Error("zero command not reported as zero")
	}
	u := Command{Linear: 1, Angular: -2}.Control()
	if len(u) != 2 || u[0] != 1 || u[1] != -2 {
		t.Errorf("Control() = %v", u)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 3, Time: 0.03, Wrapped: ErrInvalidState}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimulationError does not unwrap")
	}
	if err.Error() != ErrInvalidState.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
}
