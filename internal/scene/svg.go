package scene

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"
)

// ///////////////////////////////////////////////
// Markup
// ///////////////////////////////////////////////

// Markup renders l as a standalone SVG document.
func (l *Layer) Markup() []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(l.Width, l.Height)
	l.write(canvas)
	canvas.End()
	return buf.Bytes()
}

// Document renders layers into one SVG document of the given size, each
// layer in its own group, earlier layers below later ones.
func Document(width, height int, layers ...*Layer) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	for _, l := range layers {
		canvas.Group(fmt.Sprintf(`id="%s"`, l.ID))
		l.write(canvas)
		canvas.Gend()
	}
	canvas.End()
	return buf.Bytes()
}

func (l *Layer) write(canvas *svg.SVG) {
	canvas.Def()
	for _, g := range l.Gradients {
		writeGradient(canvas, g)
	}
	for _, f := range l.Filters {
		writeShadow(canvas, f)
	}
	canvas.DefEnd()
	for _, e := range l.Elements {
		writeElement(canvas, e)
	}
}

// pct converts a 0..1 fraction into an SVG percentage.
func pct(f float64) uint8 {
	return uint8(math.Round(clamp01(f) * 100))
}

func offcolors(stops []Stop) []svg.Offcolor {
	out := make([]svg.Offcolor, len(stops))
	for i, s := range stops {
		out[i] = svg.Offcolor{
			Offset:  pct(s.Offset),
			Color:   hexOf(s.Color),
			Opacity: opacityOf(s.Color),
		}
	}
	return out
}

func writeGradient(canvas *svg.SVG, g Gradient) {
	switch g := g.(type) {
	case *LinearGradient:
		canvas.LinearGradient(g.ID, pct(g.X1), pct(g.Y1), pct(g.X2), pct(g.Y2), offcolors(g.Stops))
	case *RadialGradient:
		canvas.RadialGradient(g.ID, pct(g.CX), pct(g.CY), pct(g.R), pct(g.CX), pct(g.CY), offcolors(g.Stops))
	}
}

// writeShadow emits the classic drop-shadow chain: blur the source alpha,
// offset it, tint it and merge the source graphic on top.
func writeShadow(canvas *svg.SVG, f *Shadow) {
	canvas.Filter(f.ID, `x="-50%"`, `y="-50%"`, `width="200%"`, `height="200%"`)
	canvas.FeGaussianBlur(svg.Filterspec{In: "SourceAlpha", Result: "blur"}, f.Blur, f.Blur)
	canvas.FeOffset(svg.Filterspec{In: "blur", Result: "offset"}, int(math.Round(f.DX)), int(math.Round(f.DY)))
	canvas.FeFlood(svg.Filterspec{Result: "tint"}, hexOf(f.Color), opacityOf(f.Color))
	canvas.FeComposite(svg.Filterspec{In: "tint", In2: "offset", Result: "shadow"}, "in", 0, 0, 0, 0)
	canvas.FeMerge([]string{"shadow", "SourceGraphic"})
	canvas.Fend()
}

func writeElement(canvas *svg.SVG, e Element) {
	switch e := e.(type) {
	case *Shape:
		var attrs []string
		if e.Name != "" {
			attrs = append(attrs, fmt.Sprintf(`id="%s"`, e.Name))
		}
		if e.Fill != nil {
			attrs = append(attrs, e.Fill.attrs("fill")...)
		} else {
			attrs = append(attrs, `fill="none"`)
		}
		if e.Stroke != nil && e.Stroke.Paint != nil {
			attrs = append(attrs, e.Stroke.Paint.attrs("stroke")...)
			attrs = append(attrs, fmt.Sprintf(`stroke-width="%s"`, num(e.Stroke.Width)))
		}
		canvas.Path(e.Outline.PathData(), attrs...)
	case *Group:
		var attrs []string
		if e.Name != "" {
			attrs = append(attrs, fmt.Sprintf(`id="%s"`, e.Name))
		}
		if m := e.transform(); !m.IsIdentity() {
			attrs = append(attrs, fmt.Sprintf(`transform="%s"`, m))
		}
		if e.Filter != nil {
			attrs = append(attrs, fmt.Sprintf(`filter="url(#%s)"`, e.Filter.ID))
		}
		canvas.Group(attrs...)
		for _, c := range e.Children {
			writeElement(canvas, c)
		}
		canvas.Gend()
	}
}
