// Package scene describes flat vector layers (shapes, paths, gradients and
// shadow filters) and renders them either as SVG markup or as a raster
// image.
//
// A [Layer] is self-contained: every gradient and filter referenced by its
// elements lives in the layer's own definitions, and every definition id
// carries the layer's namespace so layers can be stacked without collisions.
package scene

import (
	"fmt"
	"math"
	"strconv"
)

// ///////////////////////////////////////////////
// Points and Rectangles
// ///////////////////////////////////////////////

// Point is a position in pixel space. Y grows downward.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. Min is inclusive, Max exclusive.
type Rect struct {
	Min, Max Point
}

// RectXYWH returns the rectangle at (x, y) with the given size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Min: Point{x, y}, Max: Point{x + w, y + h}}
}

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Dx() <= 0 || r.Dy() <= 0 }

// Union returns the smallest rectangle containing both r and s.
// An empty operand is ignored.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		Min: Point{math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Y, s.Max.Y)},
	}
}

// Inside reports whether r lies entirely within a width × height canvas.
func (r Rect) Inside(width, height int) bool {
	return r.Min.X >= 0 && r.Min.Y >= 0 && r.Max.X <= float64(width) && r.Max.Y <= float64(height)
}

// ///////////////////////////////////////////////
// Matrix
// ///////////////////////////////////////////////

// Matrix is a 2D affine transform in SVG order:
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the transform that leaves points unchanged.
var Identity = Matrix{A: 1, D: 1}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Matrix {
	return Matrix{A: 1, D: 1, E: tx, F: ty}
}

// SkewX returns a horizontal skew by deg degrees. Positive angles lean
// the top of a shape to the left, matching SVG skewX.
func SkewX(deg float64) Matrix {
	return Matrix{A: 1, C: math.Tan(deg * math.Pi / 180), D: 1}
}

// SkewXAbout returns a horizontal skew that keeps the line y = pivot.Y fixed
// and pivot itself in place.
func SkewXAbout(deg float64, pivot Point) Matrix {
	return Translate(pivot.X, pivot.Y).Mul(SkewX(deg)).Mul(Translate(-pivot.X, -pivot.Y))
}

// Mul returns m × n: the transform that applies n first, then m.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply transforms p.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// Invert returns the inverse of m. A singular matrix yields Identity.
func (m Matrix) Invert() Matrix {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Identity
	}
	inv := 1 / det
	return Matrix{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		E: (m.C*m.F - m.D*m.E) * inv,
		F: (m.B*m.E - m.A*m.F) * inv,
	}
}

// IsIdentity reports whether m leaves points unchanged.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}

// String formats m as an SVG transform attribute value.
func (m Matrix) String() string {
	return fmt.Sprintf("matrix(%s %s %s %s %s %s)",
		num(m.A), num(m.B), num(m.C), num(m.D), num(m.E), num(m.F))
}

// num formats v with at most four decimals and no trailing zeros.
func num(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
