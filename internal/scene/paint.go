package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ///////////////////////////////////////////////
// Colors
// ///////////////////////////////////////////////

// ParseHexColor parses a "#RRGGBB" hex color string into an opaque color.NRGBA.
func ParseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: must be 6 hex digits", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// WithAlpha returns c with its alpha set to opacity (0..1).
func WithAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(clamp01(opacity) * 255))
	return c
}

// hexOf formats the RGB part of c as "#rrggbb".
func hexOf(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// opacityOf returns the alpha of c as a 0..1 fraction.
func opacityOf(c color.NRGBA) float64 {
	return float64(c.A) / 255
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ///////////////////////////////////////////////
// Paint
// ///////////////////////////////////////////////

// Paint fills the interior of a shape.
type Paint interface {
	// source returns the image sampled for a shape whose untransformed
	// bounding box is bbox and which is drawn through m.
	source(bbox Rect, m Matrix) image.Image
	// attrs returns the SVG attributes for using the paint as prop
	// ("fill" or "stroke").
	attrs(prop string) []string
}

// Solid is a flat color paint.
type Solid struct {
	Color color.NRGBA
}

func (s Solid) source(Rect, Matrix) image.Image {
	return image.NewUniform(s.Color)
}

func (s Solid) attrs(prop string) []string {
	out := []string{fmt.Sprintf(`%s="%s"`, prop, hexOf(s.Color))}
	if s.Color.A != 255 {
		out = append(out, fmt.Sprintf(`%s-opacity="%s"`, prop, num(opacityOf(s.Color))))
	}
	return out
}

// Stop is one color stop of a gradient. Offset is a 0..1 fraction.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Gradient is a [Paint] that must be declared in a layer's definitions.
type Gradient interface {
	Paint
	// GradientID returns the definition id.
	GradientID() string
}

// LinearGradient interpolates its stops along the vector (X1,Y1)→(X2,Y2).
// Coordinates are fractions of the painted shape's bounding box.
type LinearGradient struct {
	ID             string
	X1, Y1, X2, Y2 float64
	Stops          []Stop
}

// GradientID implements [Gradient].
func (g *LinearGradient) GradientID() string { return g.ID }

func (g *LinearGradient) attrs(prop string) []string {
	return []string{fmt.Sprintf(`%s="url(#%s)"`, prop, g.ID)}
}

func (g *LinearGradient) source(bbox Rect, m Matrix) image.Image {
	dx, dy := g.X2-g.X1, g.Y2-g.Y1
	return &gradientSource{
		bbox:  bbox,
		inv:   m.Invert(),
		stops: sortedStops(g.Stops),
		param: func(u, v float64) float64 {
			l2 := dx*dx + dy*dy
			if l2 == 0 {
				return 0
			}
			return ((u-g.X1)*dx + (v-g.Y1)*dy) / l2
		},
	}
}

// RadialGradient interpolates its stops outward from (CX,CY) to radius R.
// Coordinates are fractions of the painted shape's bounding box, so on a
// non-square box the gradient is an ellipse.
type RadialGradient struct {
	ID        string
	CX, CY, R float64
	Stops     []Stop
}

// GradientID implements [Gradient].
func (g *RadialGradient) GradientID() string { return g.ID }

func (g *RadialGradient) attrs(prop string) []string {
	return []string{fmt.Sprintf(`%s="url(#%s)"`, prop, g.ID)}
}

func (g *RadialGradient) source(bbox Rect, m Matrix) image.Image {
	return &gradientSource{
		bbox:  bbox,
		inv:   m.Invert(),
		stops: sortedStops(g.Stops),
		param: func(u, v float64) float64 {
			if g.R == 0 {
				return 1
			}
			return math.Hypot(u-g.CX, v-g.CY) / g.R
		},
	}
}

func sortedStops(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	copy(out, stops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// ///////////////////////////////////////////////
// Gradient Sampling
// ///////////////////////////////////////////////

// unbounded is the source bounds for gradients; drawing is clipped by the
// destination, not by the paint.
var unbounded = image.Rect(-1<<20, -1<<20, 1<<20, 1<<20)

// gradientSource samples a gradient at pixel centers. Pixels are mapped back
// through inv into the shape's local space and then into bounding-box
// fractions (u, v) before param turns them into a stop offset.
type gradientSource struct {
	bbox  Rect
	inv   Matrix
	stops []Stop
	param func(u, v float64) float64
}

func (s *gradientSource) ColorModel() color.Model { return color.NRGBAModel }

func (s *gradientSource) Bounds() image.Rectangle { return unbounded }

func (s *gradientSource) At(x, y int) color.Color {
	p := s.inv.Apply(Point{float64(x) + 0.5, float64(y) + 0.5})
	var u, v float64
	if w := s.bbox.Dx(); w > 0 {
		u = (p.X - s.bbox.Min.X) / w
	}
	if h := s.bbox.Dy(); h > 0 {
		v = (p.Y - s.bbox.Min.Y) / h
	}
	return colorAt(s.stops, s.param(u, v))
}

// colorAt returns the color at offset t along sorted stops. Offsets outside
// the first and last stop take the nearest stop's color.
func colorAt(stops []Stop, t float64) color.NRGBA {
	switch {
	case len(stops) == 0:
		return color.NRGBA{}
	case t <= stops[0].Offset:
		return stops[0].Color
	case t >= stops[len(stops)-1].Offset:
		return stops[len(stops)-1].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		f := (t - a.Offset) / span
		return color.NRGBA{
			R: lerp8(a.Color.R, b.Color.R, f),
			G: lerp8(a.Color.G, b.Color.G, f),
			B: lerp8(a.Color.B, b.Color.B, f),
			A: lerp8(a.Color.A, b.Color.A, f),
		}
	}
	return stops[len(stops)-1].Color
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
