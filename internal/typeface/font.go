// Package typeface loads header fonts and turns strings into measured glyph
// outlines.
//
// A nil *Font is the "no font available" state: every method on it is safe
// to call and reports no glyphs.
package typeface

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	tdfont "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"tools.zach/dev/aqbot/internal/scene"
)

// ErrEmptyFont indicates that a font file contained no data.
var ErrEmptyFont = errors.New("font data is empty")

// ///////////////////////////////////////////////
// Font
// ///////////////////////////////////////////////

// Font is a parsed font face usable at any size.
type Font struct {
	// f is the parsed SFNT font. It is safe for concurrent use as long as
	// every caller brings its own sfnt.Buffer.
	f *sfnt.Font
	// name is the family name, or the source path when the font has none.
	name string
}

// Parse parses TTF, OTF, WOFF or WOFF2 data.
func Parse(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}
	if isWebFont(data) {
		converted, err := tdfont.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert web font to sfnt: %w", err)
		}
		data = converted
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	name, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		name = ""
	}
	return &Font{f: f, name: name}, nil
}

// Load reads and parses the font file at path.
func Load(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.name == "" {
		f.name = path
	}
	return f, nil
}

// isWebFont reports whether data starts with a WOFF or WOFF2 signature.
func isWebFont(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	sig := string(data[:4])
	return sig == "wOFF" || sig == "wOF2"
}

// Name returns the font family name. A nil Font has no name.
func (f *Font) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// ///////////////////////////////////////////////
// Measuring
// ///////////////////////////////////////////////

// ppem converts a pixel size to the 26.6 fixed-point scale sfnt expects.
func ppem(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

// glyphRun resolves text into glyph indices and the pen position of each
// glyph, with kerning applied. It returns the total advance.
func (f *Font) glyphRun(buf *sfnt.Buffer, text string, size float64) ([]sfnt.GlyphIndex, []float64, float64) {
	scale := ppem(size)
	glyphs := make([]sfnt.GlyphIndex, 0, utf8.RuneCountInString(text))
	pens := make([]float64, 0, cap(glyphs))

	var pen fixed.Int26_6
	prev, hasPrev := sfnt.GlyphIndex(0), false
	for _, r := range text {
		gi, err := f.f.GlyphIndex(buf, r)
		if err != nil {
			gi = 0
		}
		if hasPrev {
			// Fonts without a kern table report ErrNotFound; kerning is optional.
			if k, err := f.f.Kern(buf, prev, gi, scale, font.HintingNone); err == nil {
				pen += k
			}
		}
		glyphs = append(glyphs, gi)
		pens = append(pens, fixedToFloat(pen))

		adv, err := f.f.GlyphAdvance(buf, gi, scale, font.HintingNone)
		if err == nil {
			pen += adv
		}
		prev, hasPrev = gi, true
	}
	return glyphs, pens, fixedToFloat(pen)
}

// Advance returns the horizontal advance of text at size pixels, kerning
// included. A nil Font measures every string as zero.
func (f *Font) Advance(text string, size float64) float64 {
	if f == nil || text == "" {
		return 0
	}
	var buf sfnt.Buffer
	_, _, adv := f.glyphRun(&buf, text, size)
	return adv
}

// Outline returns the glyph outlines of text at size pixels with the left
// end of the baseline at (x, y). A nil Font yields an empty outline.
func (f *Font) Outline(text string, x, y, size float64) scene.Outline {
	if f == nil || text == "" {
		return nil
	}
	var buf sfnt.Buffer
	glyphs, pens, _ := f.glyphRun(&buf, text, size)
	scale := ppem(size)

	var out scene.Outline
	for i, gi := range glyphs {
		segs, err := f.f.LoadGlyph(&buf, gi, scale, nil)
		if err != nil {
			continue
		}
		ox := x + pens[i]
		pt := func(p fixed.Point26_6) (float64, float64) {
			return ox + fixedToFloat(p.X), y + fixedToFloat(p.Y)
		}
		started := false
		for _, s := range segs {
			switch s.Op {
			case sfnt.SegmentOpMoveTo:
				if started {
					out.Close()
				}
				started = true
				out.MoveTo(pt(s.Args[0]))
			case sfnt.SegmentOpLineTo:
				out.LineTo(pt(s.Args[0]))
			case sfnt.SegmentOpQuadTo:
				cx, cy := pt(s.Args[0])
				px, py := pt(s.Args[1])
				out.QuadTo(cx, cy, px, py)
			case sfnt.SegmentOpCubeTo:
				c1x, c1y := pt(s.Args[0])
				c2x, c2y := pt(s.Args[1])
				px, py := pt(s.Args[2])
				out.CubeTo(c1x, c1y, c2x, c2y, px, py)
			}
		}
		if started {
			out.Close()
		}
	}
	return out
}

// Metrics returns the ascent and descent of the font at size pixels, both
// positive. A nil Font has zero metrics.
func (f *Font) Metrics(size float64) (ascent, descent float64) {
	if f == nil {
		return 0, 0
	}
	var buf sfnt.Buffer
	m, err := f.f.Metrics(&buf, ppem(size), font.HintingNone)
	if err != nil {
		return 0, 0
	}
	return fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
