package header

import (
	"image/color"
	"math"

	"tools.zach/dev/aqbot/internal/scene"
	"tools.zach/dev/aqbot/internal/typeface"
)

// Pill geometry.
const (
	// PillFontSize is the nominal label size.
	PillFontSize = 24
	// MinPillFontSize is the smallest size a long label shrinks to before
	// it is truncated.
	MinPillFontSize = 12
	// PillPadding is the horizontal space on each side of the label.
	PillPadding = 10
	// PillRadius is the corner radius.
	PillRadius = 10
	// PillGap is the minimum space between the two pills.
	PillGap = 10

	pillVerticalPadding = 10
	pillBaselineRatio   = 0.35
	pillGlowBlur        = 3
	pillGlowOpacity     = 0.7
	ellipsis            = "..."
)

// ///////////////////////////////////////////////
// Pill
// ///////////////////////////////////////////////

// Pill is the laid-out geometry of one badge.
type Pill struct {
	// Text is the label as drawn, possibly truncated.
	Text string
	// X and Y are the top-left corner.
	X, Y float64
	// Width is TextWidth plus PillPadding on both sides.
	Width float64
	// Height is the nominal font size plus vertical padding.
	Height float64
	// FontSize is the size the label is drawn at.
	FontSize float64
	// TextWidth is the measured advance of Text at FontSize.
	TextWidth float64
}

// Rect returns the pill rectangle.
func (p Pill) Rect() scene.Rect {
	return scene.RectXYWH(p.X, p.Y, p.Width, p.Height)
}

// TextX returns the left end of the centered label's baseline.
func (p Pill) TextX() float64 {
	return p.X + (p.Width-p.TextWidth)/2
}

// Baseline returns the label baseline, which sits slightly below the
// vertical middle so caps look centered.
func (p Pill) Baseline() float64 {
	return p.Y + p.Height/2 + p.FontSize*pillBaselineRatio
}

// measurePill sizes a pill for text. A label that would make the pill wider
// than maxWidth is drawn smaller, down to MinPillFontSize, and then
// truncated with an ellipsis. The position is left at the origin.
func measurePill(f *typeface.Font, text string, maxWidth float64) Pill {
	size := float64(PillFontSize)
	avail := maxWidth - 2*PillPadding
	tw := f.Advance(text, size)

	if tw > avail {
		size = fitSize(f, text, size, MinPillFontSize, avail)
		tw = f.Advance(text, size)
		if tw > avail {
			text, tw = truncate(f, text, size, avail)
		}
	}

	return Pill{
		Text:      text,
		Width:     tw + 2*PillPadding,
		Height:    PillFontSize + pillVerticalPadding,
		FontSize:  size,
		TextWidth: tw,
	}
}

// fitSize returns the largest size no greater than size, in half-pixel
// steps and no smaller than minSize, at which text fits in avail.
func fitSize(f *typeface.Font, text string, size, minSize, avail float64) float64 {
	tw := f.Advance(text, size)
	if tw <= avail || tw == 0 {
		return size
	}
	s := math.Max(minSize, math.Floor(size*avail/tw*2)/2)
	for s > minSize && f.Advance(text, s) > avail {
		s = math.Max(minSize, s-0.5)
	}
	return s
}

// truncate shortens text rune by rune, appending an ellipsis, until it fits
// in avail at size. It returns the empty string when not even the ellipsis
// fits.
func truncate(f *typeface.Font, text string, size, avail float64) (string, float64) {
	runes := []rune(text)
	for n := len(runes) - 1; n >= 0; n-- {
		cand := string(runes[:n]) + ellipsis
		if w := f.Advance(cand, size); w <= avail {
			return cand, w
		}
	}
	return "", 0
}

// ///////////////////////////////////////////////
// Building
// ///////////////////////////////////////////////

// createPill builds the badge for p: a glowing rounded rectangle with the
// label centered on top.
func createPill(name string, p Pill, f *typeface.Font, fill scene.Gradient, glow *scene.Shadow, textColor color.NRGBA) *scene.Group {
	badge := &scene.Group{
		Filter: glow,
		Children: []scene.Element{
			&scene.Shape{Outline: scene.RoundedRect(p.Rect(), PillRadius), Fill: fill},
		},
	}
	label := &scene.Shape{
		Outline: f.Outline(p.Text, p.TextX(), p.Baseline(), p.FontSize),
		Fill:    scene.Solid{Color: textColor},
	}
	return &scene.Group{Name: name, Children: []scene.Element{badge, label}}
}

// pillGradient returns the vertical fill of a pill.
func pillGradient(id string, from, to color.NRGBA) *scene.LinearGradient {
	return &scene.LinearGradient{
		ID: id,
		X1: 0, Y1: 0, X2: 0, Y2: 1,
		Stops: []scene.Stop{
			{Offset: 0, Color: from},
			{Offset: 1, Color: to},
		},
	}
}

// pillGlow returns the glow filter of a pill, tinted with its main color.
func pillGlow(id string, c color.NRGBA) *scene.Shadow {
	return &scene.Shadow{
		ID:    id,
		Blur:  pillGlowBlur,
		Color: scene.WithAlpha(c, pillGlowOpacity),
	}
}
