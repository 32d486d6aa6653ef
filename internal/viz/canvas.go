package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
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

const blank = 0x2800

// Tint tags a cell with the kind of thing drawn last into it.
type Tint uint8

const (
	TintNone Tint = iota
	TintBounds
	TintPositive
	TintNegative
	TintSelected
)

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Tints         [][]Tint
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Tints:  make([][]Tint, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Tints[i] = make([]Tint, w)
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Set sets a pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	c.SetTinted(x, y, TintNone)
}

// SetTinted sets a pixel and, unless tint is TintNone, retints its cell.
func (c *Canvas) SetTinted(x, y int, tint Tint) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if tint != TintNone {
		c.Tints[row][col] = tint
	}
}

// IsSet reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Tints[i][j] = TintNone
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, tint Tint) {
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
		c.SetTinted(x0, y0, tint)
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

// DrawCircle draws a circle outline with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int, tint Tint) {
	if r <= 0 {
		c.SetTinted(cx, cy, tint)
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			c.SetTinted(cx+p[0], cy+p[1], tint)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// FillDisk lights every sub-pixel within r of (cx, cy).
func (c *Canvas) FillDisk(cx, cy, r int, tint Tint) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.SetTinted(cx+dx, cy+dy, tint)
			}
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

// Render is String with each cell colored by its tint.
func (c *Canvas) Render(theme Theme) string {
	styles := map[Tint]lipgloss.Style{
		TintNone:     lipgloss.NewStyle().Foreground(theme.Muted),
		TintBounds:   lipgloss.NewStyle().Foreground(theme.Bounds),
		TintPositive: lipgloss.NewStyle().Foreground(theme.Positive),
		TintNegative: lipgloss.NewStyle().Foreground(theme.Negative),
		TintSelected: lipgloss.NewStyle().Foreground(theme.Selected).Bold(true),
	}

	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Tints[i][j] == c.Tints[i][start] {
				continue
			}
			b.WriteString(styles[c.Tints[i][start]].Render(string(row[start:j])))
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
