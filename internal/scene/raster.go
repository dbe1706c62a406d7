package scene

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// ///////////////////////////////////////////////
// Rasterization
// ///////////////////////////////////////////////

// Rasterize draws l onto a transparent image of the layer's size. The result
// is deterministic for identical layers.
func Rasterize(l *Layer) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	r := &rasterizer{z: vector.NewRasterizer(l.Width, l.Height)}
	for _, e := range l.Elements {
		r.draw(dst, e, Identity)
	}
	return dst
}

type rasterizer struct {
	z *vector.Rasterizer
}

func (r *rasterizer) draw(dst *image.RGBA, e Element, m Matrix) {
	switch e := e.(type) {
	case *Shape:
		bbox := e.Outline.Bounds()
		if e.Fill != nil {
			r.fill(dst, e.Outline.Transform(m), e.Fill.source(bbox, m))
		}
		if e.Stroke != nil && e.Stroke.Paint != nil && e.Stroke.Width > 0 {
			ring := strokeOutline(e.Outline.Transform(m), e.Stroke.Width)
			r.fill(dst, ring, e.Stroke.Paint.source(bbox, m))
		}
	case *Group:
		gm := m.Mul(e.transform())
		if e.Filter == nil {
			for _, c := range e.Children {
				r.draw(dst, c, gm)
			}
			return
		}
		content := image.NewRGBA(dst.Bounds())
		for _, c := range e.Children {
			r.draw(content, c, gm)
		}
		composeShadow(dst, content, e.Filter)
	}
}

// fill rasterizes o (already in device space) and paints it with src.
func (r *rasterizer) fill(dst *image.RGBA, o Outline, src image.Image) {
	if len(o) == 0 {
		return
	}
	b := dst.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
	for _, s := range o {
		switch s.Op {
		case OpMoveTo:
			r.z.MoveTo(f32(s.Pts[0].X), f32(s.Pts[0].Y))
		case OpLineTo:
			r.z.LineTo(f32(s.Pts[0].X), f32(s.Pts[0].Y))
		case OpQuadTo:
			r.z.QuadTo(f32(s.Pts[0].X), f32(s.Pts[0].Y), f32(s.Pts[1].X), f32(s.Pts[1].Y))
		case OpCubeTo:
			r.z.CubeTo(f32(s.Pts[0].X), f32(s.Pts[0].Y), f32(s.Pts[1].X), f32(s.Pts[1].Y), f32(s.Pts[2].X), f32(s.Pts[2].Y))
		case OpClose:
			r.z.ClosePath()
		}
	}
	r.z.ClosePath()
	r.z.Draw(dst, b, src, image.Point{})
}

func f32(v float64) float32 { return float32(v) }

// ///////////////////////////////////////////////
// Shadow Compositing
// ///////////////////////////////////////////////

// composeShadow draws f's shadow of content onto dst, then content on top.
// The shadow is content's alpha scaled by the shadow opacity, tinted with the
// shadow color, then blurred and offset. Every mask pixel carries the tint so
// blurring never pulls in black from transparent pixels.
func composeShadow(dst, content *image.RGBA, f *Shadow) {
	b := content.Bounds()
	mask := image.NewNRGBA(b)
	for i := 0; i < len(content.Pix); i += 4 {
		a := uint32(content.Pix[i+3])
		mask.Pix[i+0] = f.Color.R
		mask.Pix[i+1] = f.Color.G
		mask.Pix[i+2] = f.Color.B
		mask.Pix[i+3] = uint8((a*uint32(f.Color.A) + 127) / 255)
	}

	var shadow image.Image = mask
	if f.Blur > 0 {
		shadow = imaging.Blur(mask, f.Blur)
	}
	off := image.Pt(int(math.Round(f.DX)), int(math.Round(f.DY)))
	draw.Draw(dst, shadow.Bounds().Add(off), shadow, shadow.Bounds().Min, draw.Over)
	draw.Draw(dst, b, content, b.Min, draw.Over)
}
