// Package dynamo provides the core primitives shared by the controller, the
// plant and the simulation harness.
//
// The package defines:
//
//   - [Pose], [Goal], [Command]: the controller's boundary messages
//   - [Gains]: proportional gains and deadbands of the go-to-goal law
//   - [State], [Control]: vectors integrated by the simulator
//   - [System], [Integrator], [Controller]: the closed-loop plumbing
//   - [NormalizeAngle]: reduction of any angle to (-π, π]
//
// # Example
//
//	dyn := physics.NewUnicycle()
//	integ := integrators.NewRK4()
//	seeker := control.NewGoalSeeker(dynamo.DefaultGains())
//	seeker.SetGoal(5, 5)
//	s := sim.New(dyn, integ, seeker)
//	result, _ := s.Run(ctx, dynamo.State{1, 1, 0}, cfg)
//
// # Thread Safety
//
// The value types in this package are immutable once constructed. Simulator
// instances are NOT thread-safe; use sim.Ensemble for parallel runs.
package dynamo
