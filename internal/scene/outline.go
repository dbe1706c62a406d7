package scene

import (
	"math"
	"strings"
)

// ///////////////////////////////////////////////
// Segments
// ///////////////////////////////////////////////

// Op identifies the kind of a path [Segment].
type Op uint8

const (
	// OpMoveTo starts a new subpath at Pts[0].
	OpMoveTo Op = iota
	// OpLineTo draws a straight line to Pts[0].
	OpLineTo
	// OpQuadTo draws a quadratic Bézier with control Pts[0] ending at Pts[1].
	OpQuadTo
	// OpCubeTo draws a cubic Bézier with controls Pts[0], Pts[1] ending at Pts[2].
	OpCubeTo
	// OpClose closes the current subpath.
	OpClose
)

// Segment is one drawing command of an [Outline].
type Segment struct {
	Op  Op
	Pts [3]Point
}

// arity returns how many points s carries.
func (s Segment) arity() int {
	switch s.Op {
	case OpMoveTo, OpLineTo:
		return 1
	case OpQuadTo:
		return 2
	case OpCubeTo:
		return 3
	default:
		return 0
	}
}

// ///////////////////////////////////////////////
// Outline
// ///////////////////////////////////////////////

// Outline is a sequence of subpaths in pixel space.
type Outline []Segment

// MoveTo appends a move to (x, y).
func (o *Outline) MoveTo(x, y float64) {
	*o = append(*o, Segment{Op: OpMoveTo, Pts: [3]Point{{x, y}}})
}

// LineTo appends a line to (x, y).
func (o *Outline) LineTo(x, y float64) {
	*o = append(*o, Segment{Op: OpLineTo, Pts: [3]Point{{x, y}}})
}

// QuadTo appends a quadratic curve.
func (o *Outline) QuadTo(cx, cy, x, y float64) {
	*o = append(*o, Segment{Op: OpQuadTo, Pts: [3]Point{{cx, cy}, {x, y}}})
}

// CubeTo appends a cubic curve.
func (o *Outline) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	*o = append(*o, Segment{Op: OpCubeTo, Pts: [3]Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Close closes the current subpath.
func (o *Outline) Close() {
	*o = append(*o, Segment{Op: OpClose})
}

// Bounds returns the bounding box of every point in o, control points
// included. Control points of glyph curves stay close to the curve, so the
// box is tight enough for gradient mapping and layout checks.
func (o Outline) Bounds() Rect {
	if len(o) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range o {
		for i := range s.arity() {
			p := s.Pts[i]
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return Rect{}
	}
	return Rect{Min: Point{minX, minY}, Max: Point{maxX, maxY}}
}

// Transform returns a copy of o with every point mapped through m.
func (o Outline) Transform(m Matrix) Outline {
	if m.IsIdentity() {
		return o
	}
	out := make(Outline, len(o))
	for i, s := range o {
		out[i] = s
		for j := range s.arity() {
			out[i].Pts[j] = m.Apply(s.Pts[j])
		}
	}
	return out
}

// PathData formats o as an SVG path "d" attribute.
func (o Outline) PathData() string {
	var b strings.Builder
	for i, s := range o {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch s.Op {
		case OpMoveTo:
			b.WriteString("M")
		case OpLineTo:
			b.WriteString("L")
		case OpQuadTo:
			b.WriteString("Q")
		case OpCubeTo:
			b.WriteString("C")
		case OpClose:
			b.WriteString("Z")
			continue
		}
		for j := range s.arity() {
			b.WriteString(num(s.Pts[j].X))
			b.WriteByte(' ')
			b.WriteString(num(s.Pts[j].Y))
			if j < s.arity()-1 {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

// ///////////////////////////////////////////////
// Builders
// ///////////////////////////////////////////////

// kappa is the cubic control distance that approximates a quarter circle.
const kappa = 0.5522847498

// Rectangle returns a closed clockwise rectangle outline.
func Rectangle(r Rect) Outline {
	var o Outline
	o.MoveTo(r.Min.X, r.Min.Y)
	o.LineTo(r.Max.X, r.Min.Y)
	o.LineTo(r.Max.X, r.Max.Y)
	o.LineTo(r.Min.X, r.Max.Y)
	o.Close()
	return o
}

// RoundedRect returns a closed clockwise rectangle with circular corners of
// the given radius. The radius is clamped to half the shorter side.
func RoundedRect(r Rect, radius float64) Outline {
	radius = math.Min(radius, math.Min(r.Dx(), r.Dy())/2)
	if radius <= 0 {
		return Rectangle(r)
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	k := radius * kappa

	var o Outline
	o.MoveTo(x0+radius, y0)
	o.LineTo(x1-radius, y0)
	o.CubeTo(x1-radius+k, y0, x1, y0+radius-k, x1, y0+radius)
	o.LineTo(x1, y1-radius)
	o.CubeTo(x1, y1-radius+k, x1-radius+k, y1, x1-radius, y1)
	o.LineTo(x0+radius, y1)
	o.CubeTo(x0+radius-k, y1, x0, y1-radius+k, x0, y1-radius)
	o.LineTo(x0, y0+radius)
	o.CubeTo(x0, y0+radius-k, x0+radius-k, y0, x0+radius, y0)
	o.Close()
	return o
}

// ///////////////////////////////////////////////
// Flattening
// ///////////////////////////////////////////////

// curveSteps is the number of line pieces per flattened curve.
const curveSteps = 12

// polylines flattens o into closed or open point lists, one per subpath.
// The bool reports whether the subpath was explicitly closed.
func (o Outline) polylines() (lines [][]Point, closed []bool) {
	var cur []Point
	flush := func(c bool) {
		if len(cur) > 1 {
			lines = append(lines, cur)
			closed = append(closed, c)
		}
		cur = nil
	}
	for _, s := range o {
		switch s.Op {
		case OpMoveTo:
			flush(false)
			cur = []Point{s.Pts[0]}
		case OpLineTo:
			cur = append(cur, s.Pts[0])
		case OpQuadTo:
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*p0.X + 2*u*t*s.Pts[0].X + t*t*s.Pts[1].X,
					Y: u*u*p0.Y + 2*u*t*s.Pts[0].Y + t*t*s.Pts[1].Y,
				})
			}
		case OpCubeTo:
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*u*p0.X + 3*u*u*t*s.Pts[0].X + 3*u*t*t*s.Pts[1].X + t*t*t*s.Pts[2].X,
					Y: u*u*u*p0.Y + 3*u*u*t*s.Pts[0].Y + 3*u*t*t*s.Pts[1].Y + t*t*t*s.Pts[2].Y,
				})
			}
		case OpClose:
			flush(true)
		}
	}
	flush(false)
	return lines, closed
}

// strokeOutline converts the centerline o into a fillable outline of the
// given width. Each line piece becomes a rectangle extended by half the
// width at both ends, which covers corners for thin strokes. All pieces share
// one orientation so overlaps add up instead of cancelling.
func strokeOutline(o Outline, width float64) Outline {
	hw := width / 2
	var out Outline
	lines, closed := o.polylines()
	for li, pts := range lines {
		n := len(pts)
		segs := n - 1
		if closed[li] {
			segs = n
		}
		for i := range segs {
			p, q := pts[i], pts[(i+1)%n]
			dx, dy := q.X-p.X, q.Y-p.Y
			l := math.Hypot(dx, dy)
			if l == 0 {
				continue
			}
			ux, uy := dx/l*hw, dy/l*hw
			nx, ny := -uy, ux
			ax, ay := p.X-ux, p.Y-uy
			bx, by := q.X+ux, q.Y+uy
			out.MoveTo(ax+nx, ay+ny)
			out.LineTo(bx+nx, by+ny)
			out.LineTo(bx-nx, by-ny)
			out.LineTo(ax-nx, ay-ny)
			out.Close()
		}
	}
	return out
}
