package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// SetPixel sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	mask := ^rune(pixelMap[subY][subX])
	c.Grid[row][col] &= mask
	if c.Grid[row][col] < 0x2800 {
		c.Grid[row][col] = 0x2800
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCross draws a small plus centered on (x, y).
func (c *Canvas) DrawCross(x, y, r int) {
	c.DrawLine(x-r, y, x+r, y)
	c.DrawLine(x, y-r, x, y+r)
}

// Frame maps world coordinates onto a canvas. World y grows upward, canvas
// rows grow downward.
type Frame struct {
	MinX, MaxX, MinY, MaxY float64
	W, H                   int
}

// NewFrame fits the points into a square-unit view of a w x h cell canvas
// with a margin around them.
func NewFrame(w, h int, margin float64, pts ...[2]float64) Frame {
	f := Frame{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1), W: w, H: h}
	for _, p := range pts {
		f.MinX = math.Min(f.MinX, p[0])
		f.MaxX = math.Max(f.MaxX, p[0])
		f.MinY = math.Min(f.MinY, p[1])
		f.MaxY = math.Max(f.MaxY, p[1])
	}
	if len(pts) == 0 {
		f.MinX, f.MaxX, f.MinY, f.MaxY = 0, 1, 0, 1
	}
	f.MinX -= margin
	f.MaxX += margin
	f.MinY -= margin
	f.MaxY += margin

	// braille dots are roughly square, so keep one scale on both axes
	sw, sh := float64(2*w-1), float64(4*h-1)
	spanX, spanY := f.MaxX-f.MinX, f.MaxY-f.MinY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	scale := math.Min(sw/spanX, sh/spanY)
	cx, cy := (f.MinX+f.MaxX)/2, (f.MinY+f.MaxY)/2
	f.MinX, f.MaxX = cx-sw/scale/2, cx+sw/scale/2
	f.MinY, f.MaxY = cy-sh/scale/2, cy+sh/scale/2
	return f
}

// ToCanvas returns sub-pixel coordinates for a world point.
func (f Frame) ToCanvas(x, y float64) (int, int) {
	px := (x - f.MinX) / (f.MaxX - f.MinX) * float64(2*f.W-1)
	py := (f.MaxY - y) / (f.MaxY - f.MinY) * float64(4*f.H-1)
	return int(math.Round(px)), int(math.Round(py))
}

// Contains reports whether a world point is inside the view.
func (f Frame) Contains(x, y float64) bool {
	return f.W > 0 && x >= f.MinX && x <= f.MaxX && y >= f.MinY && y <= f.MaxY
}

// FromCell returns the world point at the center of a character cell.
func (f Frame) FromCell(col, row int) (float64, float64) {
	px := float64(col*2) + 0.5
	py := float64(row*4) + 1.5
	x := f.MinX + px/float64(2*f.W-1)*(f.MaxX-f.MinX)
	y := f.MaxY - py/float64(4*f.H-1)*(f.MaxY-f.MinY)
	return x, y
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
