package sim

import (
	"context"
	"sync"
	"time"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// Plant is a real-time stand-in for the agent: it integrates the most recent
// command and publishes its pose at a fixed period, the way a simulator node
// publishes pose messages to the controller.
type Plant struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	step       time.Duration
	publish    time.Duration

	mu    sync.Mutex
	state dynamo.State
	cmd   dynamo.Command
}

// NewPlant creates a plant starting at p. The physics advance every step and
// a pose is published every publish period.
func NewPlant(dyn dynamo.System, integ dynamo.Integrator, p dynamo.Pose, step, publish time.Duration) *Plant {
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	if publish < step {
		publish = step
	}
	return &Plant{
		dyn:        dyn,
		integrator: integ,
		step:       step,
		publish:    publish,
		state:      p.State(),
	}
}

func (p *Plant) Pose() dynamo.Pose {
	p.mu.Lock()
	defer p.mu.Unlock()
	return dynamo.PoseFromState(p.state)
}

// Apply sets the command held until the next one arrives.
func (p *Plant) Apply(cmd dynamo.Command) {
	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()
}

// Advance integrates the held command for d of simulated time.
func (p *Plant) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dt := p.step.Seconds()
	remaining := d.Seconds()
	for remaining > 1e-12 {
		h := dt
		if remaining < h {
			h = remaining
		}
		p.state = p.integrator.Step(p.dyn, p.state, p.cmd.Control(), 0, h)
		remaining -= h
	}
}

// Run publishes poses on out and applies commands from in until ctx ends or
// in is closed. out is closed on return.
func (p *Plant) Run(ctx context.Context, in <-chan dynamo.Command, out chan<- dynamo.Pose) error {
	defer close(out)

	ticker := time.NewTicker(p.step)
	defer ticker.Stop()

	perPublish := int(p.publish / p.step)
	ticks := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-in:
			if !ok {
				return nil
			}
			p.Apply(cmd)
		case <-ticker.C:
			p.Advance(p.step)
			ticks++
			if ticks%perPublish != 0 {
				continue
			}
			select {
			case out <- p.Pose():
			case <-ctx.Done():
				return ctx.Err()
			case cmd, ok := <-in:
				if !ok {
					return nil
				}
				p.Apply(cmd)
			}
		}
	}
}
