package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/magsim/internal/dynamo"
)

const (
	positiveFill = "#ff4444"
	negativeFill = "#4488ff"
	boundsStroke = "#666688"
)

// topDown maps the bounds' x/y extent into a size x size viewport with a
// margin, flipping y so +y points up.
type topDown struct {
	b      dynamo.Bounds
	scale  float64
	margin float64
	size   float64
}

func newTopDown(b dynamo.Bounds, size int) topDown {
	ext := b.Size()
	span := math.Max(ext.X(), ext.Y())
	if span <= 0 {
		span = 1
	}
	margin := float64(size) * 0.05
	return topDown{b: b, scale: (float64(size) - 2*margin) / span, margin: margin, size: float64(size)}
}

func (v topDown) point(p dynamo.Vec) (float64, float64) {
	x := v.margin + (p.X()-v.b.Min.X())*v.scale
	y := v.size - v.margin - (p.Y()-v.b.Min.Y())*v.scale
	return x, y
}

func header(sb *strings.Builder, size int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))
}

func (v topDown) boundsRect(sb *strings.Builder) {
	x0, y1 := v.point(v.b.Min)
	x1, y0 := v.point(v.b.Max)
	sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="%s" stroke-width="1"/>
`, x0, y0, x1-x0, y1-y0, boundsStroke))
}

func fill(b *dynamo.Body) string {
	if b.Positive {
		return positiveFill
	}
	return negativeFill
}

// SnapshotSVG renders a top-down (x/y) view of the bodies inside the bounds.
// Bodies are drawn lowest z first so higher ones overlap them.
func SnapshotSVG(bounds dynamo.Bounds, bodies []*dynamo.Body, size int) string {
	v := newTopDown(bounds, size)
	var sb strings.Builder
	header(&sb, size)
	v.boundsRect(&sb)

	ordered := append([]*dynamo.Body(nil), bodies...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position.Z() < ordered[j].Position.Z() })

	for _, b := range ordered {
		cx, cy := v.point(b.Position)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.8" data-id="%d"/>
`, cx, cy, b.Radius()*v.scale, fill(b), b.ID))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// Path is the sampled x/y/z history of one body.
type Path struct {
	ID       uint64
	Positive bool
	Points   []dynamo.Vec
}

// PathRecorder collects body positions each step. It implements
// dynamo.Observer.
type PathRecorder struct {
	Every int
	paths map[uint64]*Path
	order []uint64
}

func NewPathRecorder(every int) *PathRecorder {
	return &PathRecorder{Every: max(1, every), paths: make(map[uint64]*Path)}
}

func (r *PathRecorder) OnStep(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	if stats.Frame%r.Every != 0 {
		return
	}
	for _, b := range bodies {
		p, ok := r.paths[b.ID]
		if !ok {
			p = &Path{ID: b.ID, Positive: b.Positive}
			r.paths[b.ID] = p
			r.order = append(r.order, b.ID)
		}
		p.Points = append(p.Points, b.Position)
	}
}

// Paths returns the recorded paths in first-seen order.
func (r *PathRecorder) Paths() []*Path {
	out := make([]*Path, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.paths[id])
	}
	return out
}

// TrajectorySVG draws each path as a polyline over the top-down bounds view.
func TrajectorySVG(bounds dynamo.Bounds, paths []*Path, size int) string {
	v := newTopDown(bounds, size)
	var sb strings.Builder
	header(&sb, size)
	v.boundsRect(&sb)

	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		stroke := negativeFill
		if p.Positive {
			stroke = positiveFill
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" stroke-opacity="0.7" d="M`, stroke))
		for i, pt := range p.Points {
			x, y := v.point(pt)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
