// Package operator reads goals from a human at a terminal and waits for the
// agent to reach each one before asking again.
package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/logging"
)

// Seeker is the part of the controller the prompt drives.
type Seeker interface {
	SetGoal(x, y float64)
	Done() <-chan struct{}
}

type Prompt struct {
	in     io.Reader
	out    io.Writer
	seeker Seeker
	log    logging.Logger
}

func NewPrompt(in io.Reader, out io.Writer, seeker Seeker, log logging.Logger) *Prompt {
	return &Prompt{in: in, out: out, seeker: seeker, log: log}
}

// Run asks for goals until the input ends or ctx is cancelled. After each
// goal it blocks until the seek episode completes. EOF returns nil.
//
// The reader goroutine cannot be interrupted; on cancellation it is left
// blocked on the underlying reader.
func (p *Prompt) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(p.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		goal, ok, err := p.readGoal(ctx, lines)
		if err != nil || !ok {
			return err
		}

		p.seeker.SetGoal(goal.X, goal.Y)
		p.log.WithField("x", goal.X).WithField("y", goal.Y).Debug("operator goal")

		select {
		case <-p.seeker.Done():
			fmt.Fprintf(p.out, "Goal %s reached\n", goal)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Prompt) readGoal(ctx context.Context, lines <-chan string) (dynamo.Goal, bool, error) {
	var g dynamo.Goal

	x, rest, ok, err := p.ask(ctx, lines, "Enter x goal: ")
	if err != nil || !ok {
		return g, ok, err
	}
	g.X = x

	if rest != "" {
		y, err := strconv.ParseFloat(rest, 64)
		if err == nil && isFinite(y) {
			g.Y = y
			return g, true, nil
		}
		fmt.Fprintf(p.out, "invalid number %q\n", rest)
	}

	y, _, ok, err := p.ask(ctx, lines, "Enter y goal: ")
	if err != nil || !ok {
		return g, ok, err
	}
	g.Y = y
	return g, true, nil
}

// ask prints label and reads lines until one starts with a number. Anything
// after the first field is returned as rest.
func (p *Prompt) ask(ctx context.Context, lines <-chan string, label string) (float64, string, bool, error) {
	for {
		fmt.Fprint(p.out, label)

		var line string
		select {
		case l, ok := <-lines:
			if !ok {
				return 0, "", false, nil
			}
			line = l
		case <-ctx.Done():
			return 0, "", false, ctx.Err()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || !isFinite(v) {
			fmt.Fprintf(p.out, "invalid number %q\n", fields[0])
			continue
		}
		return v, strings.Join(fields[1:], " "), true, nil
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
