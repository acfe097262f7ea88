// Package physics provides plant models for closed-loop simulation.
//
// Each model implements the [dynamo.System] interface:
//
//   - [Unicycle]: differential-drive kinematics, state [x, y, theta],
//     control [linear, angular]
//
// [Unicycle] also implements [dynamo.Configurable] so the live view can cap
// wheel speeds at runtime:
//
//	dyn := physics.NewUnicycle()
//	dyn.SetParam("MaxLinear", 2.0)
package physics
