// Package optim searches controller gains for the best scoring run.
package optim

import (
	"context"
	"math"

	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/experiment"
)

// Objective scores a finished run; lower is better.
type Objective func(*dynamo.Result) float64

// SettleTime scores a run by when it reached the goal. Runs that never
// arrive score +Inf.
func SettleTime(r *dynamo.Result) float64 {
	if !r.Settled {
		return math.Inf(1)
	}
	return r.SettleTime
}

// Metric scores settled runs by a recorded metric. Runs that never arrive
// score +Inf.
func Metric(name string) Objective {
	return func(r *dynamo.Result) float64 {
		v, ok := r.Metrics[name]
		if !r.Settled || !ok || math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}
}

type Trial struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs one experiment per point of the grid and returns the best
// trial together with every trial in visiting order. Build or run errors
// abort the search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective Objective,
) (Trial, []Trial, error) {
	best := Trial{Score: math.Inf(1)}
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, objective, &best, &trials)
	return best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	objective Objective,
	best *Trial,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return err
		}

		trial := Trial{Params: copyParams(current), Score: objective(result)}
		*trials = append(*trials, trial)
		if trial.Score < best.Score || best.Params == nil {
			*best = trial
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := copyParams(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, objective, best, trials); err != nil {
			return err
		}
	}
	return nil
}

func copyParams(p map[string]float64) map[string]float64 {
	c := make(map[string]float64, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
