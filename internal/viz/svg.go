package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// PathSVG renders a trajectory, its start and its goal as a standalone SVG
// document. Both axes share one scale.
func PathSVG(poses []dynamo.Pose, goal dynamo.Goal, width, height int) string {
	minX, maxX := goal.X, goal.X
	minY, maxY := goal.Y, goal.Y
	for _, p := range poses {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	pad := 0.1 * math.Max(math.Max(maxX-minX, maxY-minY), 1)
	minX, maxX, minY, maxY = minX-pad, maxX+pad, minY-pad, maxY+pad
	scale := math.Min(float64(width)/(maxX-minX), float64(height)/(maxY-minY))
	offX := (float64(width) - (maxX-minX)*scale) / 2
	offY := (float64(height) - (maxY-minY)*scale) / 2

	project := func(x, y float64) (float64, float64) {
		return offX + (x-minX)*scale, float64(height) - offY - (y-minY)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if len(poses) > 1 {
		sb.WriteString(`<path fill="none" stroke="#00ffff" stroke-width="1.5" d="M`)
		for i, p := range poses {
			x, y := project(p.X, p.Y)
			if i > 0 {
				sb.WriteString(" L")
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		}
		sb.WriteString("\"/>\n")
	}
	if len(poses) > 0 {
		x, y := project(poses[0].X, poses[0].Y)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"#00ff00\"/>\n", x, y)
	}

	gx, gy := project(goal.X, goal.Y)
	fmt.Fprintf(&sb, "<g stroke=\"#ff00ff\" stroke-width=\"2\"><line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/><line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/></g>\n",
		gx-6, gy, gx+6, gy, gx, gy-6, gx, gy+6)

	sb.WriteString("</svg>\n")
	return sb.String()
}
