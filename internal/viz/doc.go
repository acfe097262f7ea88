// Package viz renders goal-seeking runs in the terminal.
//
// [Model] is a Bubble Tea program that steps a unicycle under a goal seeker
// in real time and draws the world on a braille [Canvas]. [RenderPath] and
// [PlotSeries] produce static views of stored runs.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the start pose and initial gains
//	N     - New random goal
//	Click - Set goal at the mouse position
//	Tab   - Cycle tunable gains
//	↑/↓   - Adjust the selected gain (±5%)
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
