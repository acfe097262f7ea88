package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/goalseek/internal/bridge"
	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/experiment"
	"github.com/san-kum/goalseek/internal/logging"
	"github.com/san-kum/goalseek/internal/operator"
	"github.com/san-kum/goalseek/internal/physics"
	"github.com/san-kum/goalseek/internal/sim"
)

// runDrive wires a real-time plant, the controller loop and an operator
// prompt on stdin. It ends when stdin closes or on SIGINT/SIGTERM.
func (o *options) runDrive(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.New("drive")

	integ, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seeker := control.NewGoalSeeker(cfg.Gains)
	plant := sim.NewPlant(
		&physics.Unicycle{MaxLinear: cfg.Limits.MaxLinear, MaxAngular: cfg.Limits.MaxAngular},
		integ,
		cfg.Start,
		time.Duration(cfg.Dt*float64(time.Second)),
		time.Duration(float64(time.Second)/cfg.RateHz),
	)
	prompt := operator.NewPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), seeker, log)

	poses := make(chan dynamo.Pose)
	cmds := make(chan dynamo.Command)

	log.WithField("pose", cfg.Start.String()).
		WithField("rate_hz", cfg.RateHz).
		Info("controller has started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return plant.Run(gctx, cmds, poses) })
	g.Go(func() error { return control.Run(gctx, seeker, poses, nil, cmds) })
	g.Go(func() error {
		defer cancel()
		return prompt.Run(gctx)
	})

	err = g.Wait()
	log.WithField("pose", plant.Pose().String()).
		WithField("arrivals", seeker.Arrivals()).
		Info("controller stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runServe exposes a controller over the websocket bridge. The goal flags, if
// given, arm it before the first agent connects.
func (o *options) runServe(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeker := control.NewGoalSeeker(cfg.Gains)
	if cmd.Flags().Changed("goal-x") || cmd.Flags().Changed("goal-y") || o.preset != "" || o.configFile != "" {
		seeker.SetGoal(cfg.Goal.X, cfg.Goal.Y)
	}

	srv := bridge.NewServer(seeker, logging.New("bridge"))
	err = srv.ListenAndServe(ctx, cfg.Bridge.Addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	return nil
}
