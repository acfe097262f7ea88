package sim

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// Ensemble runs one simulation per initial state in parallel. Controllers and
// integrators carry per-run state, so setup must build a fresh Simulator for
// every run.
type Ensemble struct {
	setup   func(run int) *Simulator
	workers int
}

func NewEnsemble(setup func(run int) *Simulator, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Ensemble{setup: setup, workers: workers}
}

func (e *Ensemble) Run(ctx context.Context, starts []dynamo.State, cfg dynamo.Config) ([]*dynamo.Result, error) {
	n := len(starts)
	results := make([]*dynamo.Result, n)
	errs := make([]error, n)

	workers := e.workers
	if workers > n {
		workers = n
	}
	if workers < 1 {
		return results, nil
	}
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for idx := lo; idx < hi; idx++ {
				cfgCopy := cfg
				cfgCopy.Seed = cfg.Seed + int64(idx)

				s := e.setup(idx)
				results[idx], errs[idx] = s.Run(ctx, starts[idx], cfgCopy)
			}
		}(start, end)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Bounds is an axis-aligned rectangle of the workspace.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// RandomStarts draws n poses uniformly inside b with headings in (-π, π].
func RandomStarts(rng *rand.Rand, n int, b Bounds) []dynamo.State {
	starts := make([]dynamo.State, n)
	for i := range starts {
		starts[i] = dynamo.State{
			b.MinX + rng.Float64()*(b.MaxX-b.MinX),
			b.MinY + rng.Float64()*(b.MaxY-b.MinY),
			dynamo.NormalizeAngle((rng.Float64()*2 - 1) * math.Pi),
		}
	}
	return starts
}
