package main

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/goalseek/internal/config"
	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/experiment"
	"github.com/san-kum/goalseek/internal/logging"
	"github.com/san-kum/goalseek/internal/metrics"
	"github.com/san-kum/goalseek/internal/optim"
	"github.com/san-kum/goalseek/internal/physics"
	"github.com/san-kum/goalseek/internal/sim"
	"github.com/san-kum/goalseek/internal/storage"
	"github.com/san-kum/goalseek/internal/viz"
)

func (o *options) runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	st := storage.New(o.dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Fprintf(out, "running %s → %s...\n", cfg.Start, cfg.Goal)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.NewMetadata(cfg, result), result)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d\n", result.StepsTaken)
	if result.Settled {
		fmt.Fprintf(out, "goal reached at t=%.2fs\n", result.SettleTime)
	} else {
		fmt.Fprintln(out, "goal not reached")
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "error: %v\n", e)
	}

	fmt.Fprintln(out, "\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func (o *options) listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(o.dataDir).List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTART\tGOAL\tSETTLED\tINTEG\tCTRL")
	for _, run := range runs {
		settled := "no"
		if run.Settled {
			settled = fmt.Sprintf("%.2fs", run.SettleTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Start,
			run.Goal,
			settled,
			run.Integrator,
			run.Controller,
		)
	}
	return w.Flush()
}

func (o *options) loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(o.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
}

func (o *options) plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := o.loadRun(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	dist := make([]float64, len(result.States))
	for i, s := range result.States {
		dist[i] = dynamo.PoseFromState(s).DistanceTo(meta.Goal)
	}
	linear := make([]float64, len(result.Controls))
	angular := make([]float64, len(result.Controls))
	for i, u := range result.Controls {
		linear[i], angular[i] = u[0], u[1]
	}

	fmt.Fprintf(out, "run %s: %s → %s\n\n", meta.ID, meta.Start, meta.Goal)
	fmt.Fprintln(out, viz.PlotSeries(dist, "distance to goal", o.height, o.width))
	fmt.Fprintln(out, viz.PlotSeries(linear, "linear command", o.height/2, o.width))
	fmt.Fprintln(out, viz.PlotSeries(angular, "angular command", o.height/2, o.width))
	return nil
}

func (o *options) pathPlot(cmd *cobra.Command, args []string) error {
	meta, result, err := o.loadRun(args[0])
	if err != nil {
		return err
	}

	poses := make([]dynamo.Pose, len(result.States))
	for i, s := range result.States {
		poses[i] = dynamo.PoseFromState(s)
	}
	fmt.Fprint(cmd.OutOrStdout(), viz.RenderPath(poses, meta.Goal, o.width, o.height))

	if o.svgFile != "" {
		svg := viz.PathSVG(poses, meta.Goal, 800, 600)
		if err := os.WriteFile(o.svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", o.svgFile)
	}
	return nil
}

func (o *options) exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(o.dataDir).Load(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(cmd.OutOrStdout(), meta)
}

func (o *options) exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(o.dataDir).CopyStates(args[0], cmd.OutOrStdout())
}

func (o *options) exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := o.loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(cmd.OutOrStdout(), storage.NewExport(*meta, result))
}

func (o *options) runLive(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}
	// the alt screen owns the terminal
	if err := logging.Set(logging.Output(io.Discard)); err != nil {
		return err
	}

	integ, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	seeker := control.NewGoalSeeker(cfg.Gains)
	plant := &physics.Unicycle{MaxLinear: cfg.Limits.MaxLinear, MaxAngular: cfg.Limits.MaxAngular}

	m := viz.NewModel(seeker, plant, integ, cfg.Start, cfg.Goal, cfg.Dt)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func (o *options) runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if o.runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", o.runs)
	}
	workers := o.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := cmd.OutOrStdout()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	bounds := sim.Bounds{
		MinX: math.Min(0, cfg.Goal.X-config.SpawnX), MaxX: math.Max(2*config.SpawnX, cfg.Goal.X+config.SpawnX),
		MinY: math.Min(0, cfg.Goal.Y-config.SpawnY), MaxY: math.Max(2*config.SpawnY, cfg.Goal.Y+config.SpawnY),
	}
	starts := sim.RandomStarts(rand.New(rand.NewSource(seed)), o.runs, bounds)

	registry := experiment.NewRegistry()
	if _, err := registry.GetIntegrator(cfg.Integrator); err != nil {
		return err
	}
	quiet := logging.Discard()
	ens := sim.NewEnsemble(func(run int) *sim.Simulator {
		integ, _ := registry.GetIntegrator(cfg.Integrator)
		seeker := control.NewGoalSeeker(cfg.Gains, control.WithLogger(quiet))
		seeker.SetGoal(cfg.Goal.X, cfg.Goal.Y)
		s := sim.New(&physics.Unicycle{MaxLinear: cfg.Limits.MaxLinear, MaxAngular: cfg.Limits.MaxAngular}, integ, seeker)
		for _, m := range metrics.Standard(cfg.Goal) {
			s.AddMetric(m)
		}
		return s
	}, workers)

	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = cfg.Dt
	simCfg.Duration = cfg.Duration
	simCfg.Seed = seed

	fmt.Fprintf(out, "sweeping %d starts toward %s on %d workers...\n", len(starts), cfg.Goal, workers)
	start := time.Now()
	results, err := ens.Run(cmd.Context(), starts, simCfg)
	if err != nil {
		return err
	}

	var settled int
	var settleTimes []float64
	var worst, reversals float64
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Settled {
			settled++
			settleTimes = append(settleTimes, r.SettleTime)
		}
		worst = math.Max(worst, r.Metrics["final_distance"])
		reversals += r.Metrics["angular_reversals"]
	}
	sort.Float64s(settleTimes)

	fmt.Fprintf(out, "completed in %v\n", time.Since(start))
	fmt.Fprintf(out, "settled: %d/%d\n", settled, len(starts))
	if len(settleTimes) > 0 {
		fmt.Fprintf(out, "settle time: median %.2fs, max %.2fs\n", settleTimes[len(settleTimes)/2], settleTimes[len(settleTimes)-1])
	}
	fmt.Fprintf(out, "worst final distance: %.4f\n", worst)
	fmt.Fprintf(out, "mean angular reversals: %.2f\n", reversals/float64(len(starts)))

	if settled < len(starts) {
		return fmt.Errorf("%d starts did not reach the goal within %.0fs", len(starts)-settled, cfg.Duration)
	}
	return nil
}

func (o *options) runTune(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}

	objective := optim.SettleTime
	if o.metric != "settle_time" {
		known := false
		for _, m := range metrics.Standard(cfg.Goal) {
			known = known || m.Name() == o.metric
		}
		if !known {
			return fmt.Errorf("unknown metric: %s", o.metric)
		}
		objective = optim.Metric(o.metric)
	}

	quiet := logging.Discard()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		c.Gains.KLinear = params["k_linear"]
		c.Gains.KAngular = params["k_angular"]
		exp := experiment.New(c).WithLogger(quiet)
		return exp, exp.Setup()
	}

	g := optim.NewGridSearch([]string{"k_linear", "k_angular"}, [][]float64{o.linearGrid, o.angularGrid})
	best, trials, err := g.Search(cmd.Context(), build, objective)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "K_LINEAR\tK_ANGULAR\t%s\n", strings.ToUpper(o.metric))
	for _, tr := range trials {
		fmt.Fprintf(w, "%.3g\t%.3g\t%.4f\n", tr.Params["k_linear"], tr.Params["k_angular"], tr.Score)
	}
	w.Flush()

	if math.IsInf(best.Score, 1) {
		return fmt.Errorf("no gains reached the goal within %.0fs", cfg.Duration)
	}
	fmt.Fprintf(out, "best: k_linear=%.3g k_angular=%.3g (%s %.4f)\n",
		best.Params["k_linear"], best.Params["k_angular"], o.metric, best.Score)
	return nil
}
