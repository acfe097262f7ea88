// Package metrics holds per-run summaries observed by the simulator.
package metrics

import "github.com/san-kum/goalseek/internal/dynamo"

// Standard returns the metric set recorded for every goal-seeking run.
func Standard(goal dynamo.Goal) []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewPathLength(),
		NewRotateFraction(),
		NewAngularReversals(),
		NewFinalDistance(goal),
	}
}
