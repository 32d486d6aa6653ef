package viz

import (
	"math"
	"sort"

	"github.com/san-kum/magsim/internal/dynamo"
)

// Camera orbits Target and projects world points onto the canvas. World
// offsets from Target are multiplied by Unit first so a scene of any size can
// be framed into roughly [-1, 1].
type Camera struct {
	Target           dynamo.Vec
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
	Unit             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 4, Near: 0.1, RotX: -0.5, RotY: 0.6, Zoom: 1, Unit: 1}
}

// Frame centers the camera on the bounds and scales them to fit the view.
func (c *Camera) Frame(b dynamo.Bounds) {
	c.Target = b.Center()
	ext := b.HalfExtents()
	if m := math.Max(ext.X(), math.Max(ext.Y(), ext.Z())); m > 0 {
		c.Unit = 1 / m
	}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint rotates a point around the camera's X, then Y, then Z axes.
func (c *Camera) RotatePoint(p dynamo.Vec) dynamo.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	return p
}

// UnrotatePoint is the inverse of RotatePoint.
func (c *Camera) UnrotatePoint(p dynamo.Vec) dynamo.Vec {
	cz, sz := math.Cos(-c.RotZ), math.Sin(-c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	cy, sy := math.Cos(-c.RotY), math.Sin(-c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cx, sx := math.Cos(-c.RotX), math.Sin(-c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	return p
}

// view returns p in camera space and the perspective factor at its depth.
func (c *Camera) view(p dynamo.Vec) (dynamo.Vec, float64, bool) {
	rot := c.RotatePoint(p.Sub(c.Target).Mul(c.Unit)).Mul(c.Zoom)
	if rot.Z() >= c.Distance-c.Near {
		return rot, 0, false
	}
	return rot, c.Distance / (c.Distance - rot.Z()), true
}

func pixelScale(sw, sh int) float64 {
	return float64(min(sw, sh)) / 3.0
}

// Project converts world coordinates to sub-pixel screen coordinates.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p dynamo.Vec, sw, sh int) (int, int, float64, bool) {
	rot, scale, ok := c.view(p)
	if !ok {
		return 0, 0, 0, false
	}
	ps := pixelScale(sw, sh)
	// Braille sub-pixels are twice as tall as wide on a typical terminal.
	sx := int(rot.X()*scale*ps) + sw/2
	sy := int(-rot.Y()*scale*ps/2) + sh/2
	return sx, sy, rot.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// ProjectRadius returns the on-screen radius in sub-pixels of a sphere.
func (c *Camera) ProjectRadius(center dynamo.Vec, r float64, sw, sh int) int {
	_, scale, ok := c.view(center)
	if !ok {
		return 0
	}
	return int(r * c.Unit * c.Zoom * scale * pixelScale(sw, sh))
}

// Ray returns the world-space ray from the eye through the screen center.
func (c *Camera) Ray() (origin, dir dynamo.Vec) {
	eye := dynamo.Vec{0, 0, c.Distance}
	origin = c.UnrotatePoint(eye).Mul(1 / (c.Unit * c.Zoom)).Add(c.Target)
	dir = c.UnrotatePoint(dynamo.Vec{0, 0, -1})
	return origin, dir
}

type Edge struct {
	Start, End dynamo.Vec
	Tint       Tint
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                       { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e dynamo.Vec, t Tint) { w.Edges = append(w.Edges, Edge{s, e, t}) }
func (w *Wireframe) AddPoint(p dynamo.Vec, t Tint)   { w.Edges = append(w.Edges, Edge{p, p, t}) }
func (w *Wireframe) Clear()                          { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
	tint           Tint
}

// Render3D draws the wireframe to the canvas, far edges first.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.PixelSize()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Tint})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.SetTinted(e.x1, e.y1, e.tint)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2, e.tint)
		}
	}
}

// BoundsWireframe returns the twelve edges of the box.
func BoundsWireframe(b dynamo.Bounds) *Wireframe {
	w := NewWireframe()
	lo, hi := b.Min, b.Max
	v := [8]dynamo.Vec{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
	ei := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	for _, e := range ei {
		w.AddEdge(v[e[0]], v[e[1]], TintBounds)
	}
	return w
}

type projectedBody struct {
	x, y, r int
	depth   float64
	tint    Tint
}

// RenderBodies draws each body as a filled disk, far bodies first. The
// selected body, if any, is outlined.
func RenderBodies(c *Canvas, bodies []*dynamo.Body, cam *Camera, selected *dynamo.Body) {
	sw, sh := c.PixelSize()
	proj := make([]projectedBody, 0, len(bodies))
	for _, b := range bodies {
		x, y, d, ok := cam.Project(b.Position, sw, sh)
		if !ok {
			continue
		}
		t := TintNegative
		if b.Positive {
			t = TintPositive
		}
		if b == selected {
			t = TintSelected
		}
		proj = append(proj, projectedBody{x, y, cam.ProjectRadius(b.Position, b.Radius(), sw, sh), d, t})
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, p := range proj {
		if p.tint == TintSelected {
			c.DrawCircle(p.x, p.y, p.r+2, p.tint)
		}
		c.FillDisk(p.x, p.y, p.r, p.tint)
	}
}
