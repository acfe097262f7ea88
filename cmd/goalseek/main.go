package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/goalseek/internal/config"
	"github.com/san-kum/goalseek/internal/logging"
)

// options holds every flag. Flags only override the file or preset when the
// user set them explicitly.
type options struct {
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	goalX, goalY      float64
	x, y, theta       float64
	kLinear, kAngular float64
	angularDeadband   float64
	distanceDeadband  float64
	dt, duration      float64
	integrator        string
	controller        string
	seed              int64

	addr    string
	runs    int
	workers int
	width   int
	height  int
	svgFile string
	metric  string

	linearGrid, angularGrid []float64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:           "goalseek",
		Short:         "go-to-goal controller for a differential-drive agent",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&o.dataDir, "data", ".goalseek", "data directory")
	rootCmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  o.runSimulation,
	}
	o.addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  o.runLive,
	}
	o.addSimFlags(liveCmd)

	driveCmd := &cobra.Command{
		Use:   "drive",
		Short: "drive a real-time plant with goals typed on stdin",
		Args:  cobra.NoArgs,
		RunE:  o.runDrive,
	}
	o.addSimFlags(driveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the controller over a websocket",
		Args:  cobra.NoArgs,
		RunE:  o.runServe,
	}
	o.addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&o.addr, "addr", config.DefaultBridgeAddr, "listen address")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run many random starts in parallel and report convergence",
		Args:  cobra.NoArgs,
		RunE:  o.runSweep,
	}
	o.addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&o.runs, "runs", 100, "number of random starts")
	sweepCmd.Flags().IntVar(&o.workers, "workers", 0, "parallel workers (0 = all cpus)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  o.listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot distance and commands of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  o.plotRun,
	}
	plotCmd.Flags().IntVar(&o.width, "width", 70, "plot width")
	plotCmd.Flags().IntVar(&o.height, "height", 10, "plot height")

	pathCmd := &cobra.Command{
		Use:   "path [run_id]",
		Short: "draw the x-y path of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  o.pathPlot,
	}
	pathCmd.Flags().IntVar(&o.width, "width", 60, "canvas width in cells")
	pathCmd.Flags().IntVar(&o.height, "height", 20, "canvas height in cells")
	pathCmd.Flags().StringVar(&o.svgFile, "svg", "", "also write the path to this SVG file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  o.exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  o.exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  o.exportJSON,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the controller gains",
		Args:  cobra.NoArgs,
		RunE:  o.runTune,
	}
	o.addSimFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&o.metric, "metric", "settle_time", "objective to minimize (settle_time or a run metric)")
	tuneCmd.Flags().Float64SliceVar(&o.linearGrid, "linear-grid", []float64{0.5, 1, 2, 4}, "k_linear values to try")
	tuneCmd.Flags().Float64SliceVar(&o.angularGrid, "angular-grid", []float64{1, 2, 4, 8}, "k_angular values to try")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(out, "  %-8s start %s  goal %s\n", name, p.Start, p.Goal)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, driveCmd, serveCmd, sweepCmd, tuneCmd, listCmd, plotCmd, pathCmd, exportCmd, exportCSVCmd, exportJSONCmd, presetsCmd)
	return rootCmd
}

func (o *options) addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&o.configFile, "config", "", "config file path (yaml)")
	f.StringVar(&o.preset, "preset", "", "use preset configuration")
	f.Float64Var(&o.goalX, "goal-x", d.Goal.X, "goal x")
	f.Float64Var(&o.goalY, "goal-y", d.Goal.Y, "goal y")
	f.Float64Var(&o.x, "x", d.Start.X, "start x")
	f.Float64Var(&o.y, "y", d.Start.Y, "start y")
	f.Float64Var(&o.theta, "theta", d.Start.Theta, "start heading (rad)")
	f.Float64Var(&o.kLinear, "k-linear", d.Gains.KLinear, "linear gain")
	f.Float64Var(&o.kAngular, "k-angular", d.Gains.KAngular, "angular gain")
	f.Float64Var(&o.angularDeadband, "angular-deadband", d.Gains.AngularDeadband, "heading error below which the agent translates (rad)")
	f.Float64Var(&o.distanceDeadband, "distance-deadband", d.Gains.DistanceDeadband, "distance at which the goal counts as reached")
	f.Float64Var(&o.dt, "dt", d.Dt, "timestep")
	f.Float64Var(&o.duration, "time", d.Duration, "duration")
	f.StringVar(&o.integrator, "integrator", d.Integrator, "integrator (euler, rk4)")
	f.StringVar(&o.controller, "controller", d.Controller, "controller (goal, none)")
	f.Int64Var(&o.seed, "seed", 0, "random seed")
}

// resolveConfig layers defaults, preset, config file and explicit flags, in
// that order, then applies the logging settings.
func (o *options) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.preset != "" {
		cfg = config.GetPreset(o.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", o.preset, config.ListPresets())
		}
	}
	if o.configFile != "" {
		var err error
		cfg, err = config.LoadWith(o.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	changed := cmd.Flags().Changed
	set := func(name string, dst *float64, v float64) {
		if changed(name) {
			*dst = v
		}
	}
	set("goal-x", &cfg.Goal.X, o.goalX)
	set("goal-y", &cfg.Goal.Y, o.goalY)
	set("x", &cfg.Start.X, o.x)
	set("y", &cfg.Start.Y, o.y)
	set("theta", &cfg.Start.Theta, o.theta)
	set("k-linear", &cfg.Gains.KLinear, o.kLinear)
	set("k-angular", &cfg.Gains.KAngular, o.kAngular)
	set("angular-deadband", &cfg.Gains.AngularDeadband, o.angularDeadband)
	set("distance-deadband", &cfg.Gains.DistanceDeadband, o.distanceDeadband)
	set("dt", &cfg.Dt, o.dt)
	set("time", &cfg.Duration, o.duration)
	if changed("integrator") {
		cfg.Integrator = o.integrator
	}
	if changed("controller") {
		cfg.Controller = o.controller
	}
	if changed("seed") {
		cfg.Seed = o.seed
	}
	if changed("addr") {
		cfg.Bridge.Addr = o.addr
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Set(logging.Level(cfg.Logging.Level)); err != nil {
		return nil, err
	}
	if err := logging.Set(logging.File(cfg.Logging.Dir)); err != nil {
		return nil, err
	}
	return cfg, nil
}
