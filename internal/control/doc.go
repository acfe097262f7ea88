// Package control provides the go-to-goal controller for differential-drive
// agents and the loop that connects it to pose and goal streams.
//
//   - [GoalSeeker]: proportional heading-first controller with deadbands
//   - [Run]: serializes pose and goal channels onto one goroutine
//   - [None]: zero controller, useful as an open-loop baseline
//
// # Usage
//
//	seeker := control.NewGoalSeeker(dynamo.DefaultGains())
//	seeker.SetGoal(5, 5)
//	cmd := seeker.OnPose(dynamo.Pose{X: 1, Y: 1})
//	<-seeker.Done() // closed once the goal is reached
//
// GoalSeeker implements [dynamo.Controller], [dynamo.Settler] and
// [dynamo.Configurable], so the simulator can drive and tune it directly.
package control
