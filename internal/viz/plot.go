package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// RenderPath draws a trajectory and its goal on a w x h cell canvas, with
// the world bounds printed underneath.
func RenderPath(poses []dynamo.Pose, goal dynamo.Goal, w, h int) string {
	pts := make([][2]float64, 0, len(poses)+1)
	for _, p := range poses {
		pts = append(pts, [2]float64{p.X, p.Y})
	}
	pts = append(pts, [2]float64{goal.X, goal.Y})

	f := NewFrame(w, h, 0.5, pts...)
	c := NewCanvas(w, h)
	drawTrail(c, f, poses)

	gx, gy := f.ToCanvas(goal.X, goal.Y)
	c.DrawCross(gx, gy, 2)

	var b strings.Builder
	b.WriteString(c.String())
	fmt.Fprintf(&b, "x ∈ [%.2f, %.2f]  y ∈ [%.2f, %.2f]  goal %s\n", f.MinX, f.MaxX, f.MinY, f.MaxY, goal)
	return b.String()
}

func drawTrail(c *Canvas, f Frame, poses []dynamo.Pose) {
	for i := 1; i < len(poses); i++ {
		x0, y0 := f.ToCanvas(poses[i-1].X, poses[i-1].Y)
		x1, y1 := f.ToCanvas(poses[i].X, poses[i].Y)
		c.DrawLine(x0, y0, x1, y1)
	}
	if len(poses) == 1 {
		x, y := f.ToCanvas(poses[0].X, poses[0].Y)
		c.Set(x, y)
	}
}

// PlotSeries renders values as an ASCII line chart, downsampled to width.
func PlotSeries(values []float64, caption string, height, width int) string {
	if len(values) == 0 {
		return caption + ": no data\n"
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption)) + "\n"
}
