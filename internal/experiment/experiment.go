package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/goalseek/internal/config"
	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/logging"
	"github.com/san-kum/goalseek/internal/physics"
	"github.com/san-kum/goalseek/internal/sim"
)

// Experiment is one batch closed-loop run of a unicycle toward a goal.
type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	log        logging.Logger
	simulator  *sim.Simulator
	controller dynamo.Controller
	plant      *physics.Unicycle
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      logging.New("experiment"),
	}
}

func (e *Experiment) WithLogger(log logging.Logger) *Experiment {
	e.log = log
	return e
}

// Setup builds the plant, integrator, controller and metrics from the
// config. A goal controller is armed with the configured goal.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	ctrl, err := e.registry.GetController(e.cfg.Controller, e.cfg.Gains, e.log.WithField("component", "control"))
	if err != nil {
		return err
	}
	if seeker, ok := ctrl.(*control.GoalSeeker); ok {
		seeker.SetGoal(e.cfg.Goal.X, e.cfg.Goal.Y)
	}

	e.plant = &physics.Unicycle{MaxLinear: e.cfg.Limits.MaxLinear, MaxAngular: e.cfg.Limits.MaxAngular}
	e.controller = ctrl
	e.simulator = sim.New(e.plant, integ, ctrl)
	for _, m := range e.registry.DefaultMetrics(e.cfg.Goal) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = e.cfg.Dt
	simCfg.Duration = e.cfg.Duration
	simCfg.Seed = e.cfg.Seed

	e.log.WithField("start", e.cfg.Start.String()).
		WithField("goal", e.cfg.Goal.String()).
		Debug("experiment started")

	result, err := e.simulator.Run(ctx, e.cfg.InitState(), simCfg)
	if err != nil {
		return nil, err
	}

	e.log.WithField("steps", result.StepsTaken).
		WithField("settled", result.Settled).
		WithField("settle_time", result.SettleTime).
		Info("experiment finished")
	return result, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Controller() dynamo.Controller { return e.controller }

func (e *Experiment) Plant() *physics.Unicycle { return e.plant }
