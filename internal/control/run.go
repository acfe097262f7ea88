package control

import (
	"context"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// Run feeds c from two producers and publishes one command per pose on cmds.
// Goals and poses are handled on the calling goroutine in arrival order.
// Run returns nil when poses is closed and ctx.Err() when ctx ends. A closed
// goals channel only stops goal handling.
func Run(ctx context.Context, c *GoalSeeker, poses <-chan dynamo.Pose, goals <-chan dynamo.Goal, cmds chan<- dynamo.Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case g, ok := <-goals:
			if !ok {
				goals = nil
				continue
			}
			c.SetGoal(g.X, g.Y)
		case p, ok := <-poses:
			if !ok {
				return nil
			}
			cmd := c.OnPose(p)
			select {
			case cmds <- cmd:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
