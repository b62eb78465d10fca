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

const brailleBlank = 0x2800

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
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). The canvas is (Width*2) x
// (Height*4) sub-pixels; out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
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

// FieldMap projects the bodies of a packed state onto the xy plane. Each
// body is a 2x2 dot with a fixed-length stroke pointing along its
// acceleration taken from deriv. Mismatched state and deriv lengths render
// nothing. Bodies with non-finite positions are
// skipped, as are strokes with non-finite or zero acceleration.
func FieldMap(state, deriv []float64, width, height int) string {
	n := len(state) / 6
	if n == 0 || len(state) != 6*n || len(deriv) != len(state) || width <= 0 || height <= 0 {
		return ""
	}

	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i := range n {
		x, y := state[3*i], state[3*i+1]
		if !finite(x) || !finite(y) {
			continue
		}
		xmin, xmax = min(xmin, x), max(xmax, x)
		ymin, ymax = min(ymin, y), max(ymax, y)
	}

	c := NewCanvas(width, height)
	if xmin > xmax {
		return c.String()
	}

	xr, yr := xmax-xmin, ymax-ymin
	if xr == 0 {
		xr = 1
	}
	if yr == 0 {
		yr = 1
	}
	xmin, xr = xmin-0.1*xr, 1.2*xr
	ymin, yr = ymin-0.1*yr, 1.2*yr

	sw, sh := 2*width, 4*height
	stroke := float64(min(sw, sh)) / 6
	acc := deriv[3*n:]

	for i := range n {
		x, y := state[3*i], state[3*i+1]
		if !finite(x) || !finite(y) {
			continue
		}
		px := int((x - xmin) / xr * float64(sw-1))
		py := sh - 1 - int((y-ymin)/yr*float64(sh-1))

		c.Set(px, py)
		c.Set(px+1, py)
		c.Set(px, py+1)
		c.Set(px+1, py+1)

		ax, ay := acc[3*i], acc[3*i+1]
		norm := math.Hypot(ax, ay)
		if !finite(norm) || norm == 0 {
			continue
		}
		ex := px + int(math.Round(stroke*ax/norm))
		ey := py - int(math.Round(stroke*ay/norm))
		c.DrawLine(px, py, ex, ey)
	}

	return c.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
