package header

import (
	"image/color"
	"math"

	"tools.zach/dev/aqbot/internal/scene"
	"tools.zach/dev/aqbot/internal/typeface"
)

// Title and counter typography.
const (
	// DefaultTitle is the banner headline.
	DefaultTitle = "ALLIANCE QUEST"
	// DefaultPadding is the margin between the canvas edge and all text.
	DefaultPadding = 20
	// TitleSize is the nominal size of the title and the day counter.
	TitleSize = 40
	// TitleSkew is the SVG skewX angle of the title. Negative values lean
	// the glyph tops to the right.
	TitleSkew = -5

	minTitleSize  = 16
	titleGap      = 10
	shadowDX      = 2
	shadowDY      = 2
	shadowBlur    = 3
	shadowOpacity = 0.5
)

// ///////////////////////////////////////////////
// Layout
// ///////////////////////////////////////////////

// TextParams is everything the text layer depends on.
type TextParams struct {
	// Request must already be normalized.
	Request
	Padding int
	// Title defaults to DefaultTitle when empty.
	Title string
	// Font may be nil, in which case no text is drawn.
	Font   *typeface.Font
	Colors Colors
}

// TextRun is one line of text positioned on a baseline.
type TextRun struct {
	Text     string
	X        float64
	Baseline float64
	Size     float64
	Width    float64
}

// Box returns a rectangle that encloses the run's glyphs, before skew and
// shadow: from one em above the baseline to a quarter em below it.
func (r TextRun) Box() scene.Rect {
	return scene.RectXYWH(r.X, r.Baseline-r.Size, r.Width, r.Size*1.25)
}

// TextPlan holds the computed anchors of every text element.
type TextPlan struct {
	Title   TextRun
	Day     TextRun
	Channel Pill
	Role    Pill
}

// PlanText lays out the title, the day counter and both pills.
//
// The title is anchored at (padding, padding+TitleSize) and the counter is
// right-aligned to width-padding on the same baseline. The counter shrinks
// if it is wider than the space inside the padding; the title gets what the
// counter leaves, shrinking and then truncating with an ellipsis. The pills
// sit on the bottom padding line, the channel pill flush left and the role
// pill flush right, each limited to half of the inner width.
func PlanText(p TextParams) TextPlan {
	pad := float64(p.Padding)
	w, h := float64(p.Width), float64(p.Height)
	inner := w - 2*pad
	baseline := pad + TitleSize
	title := p.Title
	if title == "" {
		title = DefaultTitle
	}

	var plan TextPlan
	dayText := p.DayLabel()
	daySize := fitSize(p.Font, dayText, TitleSize, minTitleSize, inner)
	dayWidth := p.Font.Advance(dayText, daySize)
	plan.Day = TextRun{
		Text:     dayText,
		X:        w - pad - dayWidth,
		Baseline: baseline,
		Size:     daySize,
		Width:    dayWidth,
	}

	titleAvail := math.Max(0, inner-dayWidth-titleGap)
	titleSize := fitSize(p.Font, title, TitleSize, minTitleSize, titleAvail)
	titleWidth := p.Font.Advance(title, titleSize)
	if titleWidth > titleAvail {
		title, titleWidth = truncate(p.Font, title, titleSize, titleAvail)
	}
	plan.Title = TextRun{
		Text:     title,
		X:        pad,
		Baseline: baseline,
		Size:     titleSize,
		Width:    titleWidth,
	}

	maxPill := (inner - PillGap) / 2
	plan.Channel = measurePill(p.Font, p.ChannelLabel(), maxPill)
	plan.Channel.X = pad
	plan.Channel.Y = h - pad - plan.Channel.Height

	plan.Role = measurePill(p.Font, p.RoleLabel(), maxPill)
	plan.Role.X = w - pad - plan.Role.Width
	plan.Role.Y = h - pad - plan.Role.Height

	return plan
}

// Fits reports whether every element of the plan lies on a width × height
// canvas and the title ends before the day counter starts.
func (p TextPlan) Fits(width, height int) bool {
	for _, r := range []scene.Rect{p.Title.Box(), p.Day.Box(), p.Channel.Rect(), p.Role.Rect()} {
		if !r.Inside(width, height) {
			return false
		}
	}
	return p.Title.X+p.Title.Width <= p.Day.X
}

// minCanvas returns the smallest canvas whose padded area holds the title
// line with its descenders and two empty pills side by side.
func minCanvas(padding int) (width, height int) {
	width = 2*padding + 2*(2*PillPadding) + PillGap
	height = 2*padding + int(math.Ceil(TitleSize*1.25))
	return width, height
}

// ///////////////////////////////////////////////
// Building
// ///////////////////////////////////////////////

// BuildTextLayer returns the layer holding the skewed title, the day counter
// and both pills, all drawn as glyph outlines. The shadow, glow and pill
// gradient definitions are always present; with a nil font the layer has no
// elements.
func BuildTextLayer(p TextParams) *scene.Layer {
	l := scene.NewLayer("text", p.Width, p.Height)
	c := p.Colors

	shadow := l.AddFilter(&scene.Shadow{
		ID:    l.Def("shadow"),
		DX:    shadowDX,
		DY:    shadowDY,
		Blur:  shadowBlur,
		Color: scene.WithAlpha(black, shadowOpacity),
	})
	channelFill := l.AddGradient(pillGradient(l.Def("channel-fill"), c.ChannelFrom, c.ChannelTo))
	channelGlow := l.AddFilter(pillGlow(l.Def("channel-glow"), c.ChannelFrom))
	roleFill := l.AddGradient(pillGradient(l.Def("role-fill"), c.RoleFrom, c.RoleTo))
	roleGlow := l.AddFilter(pillGlow(l.Def("role-glow"), c.RoleFrom))

	if p.Font == nil {
		return l
	}

	plan := PlanText(p)
	pivot := scene.Point{X: plan.Title.X, Y: plan.Title.Baseline}
	l.Add(
		&scene.Group{
			Name:      l.Def("title"),
			Transform: scene.SkewXAbout(TitleSkew, pivot),
			Filter:    shadow,
			Children:  []scene.Element{runShape(p.Font, plan.Title, c.Title)},
		},
		&scene.Group{
			Name:     l.Def("day"),
			Filter:   shadow,
			Children: []scene.Element{runShape(p.Font, plan.Day, c.Day)},
		},
		createPill(l.Def("channel"), plan.Channel, p.Font, channelFill, channelGlow, c.PillText),
		createPill(l.Def("role"), plan.Role, p.Font, roleFill, roleGlow, c.PillText),
	)
	return l
}

// runShape converts a text run into a filled glyph-outline shape.
func runShape(f *typeface.Font, r TextRun, c color.NRGBA) *scene.Shape {
	return &scene.Shape{
		Outline: f.Outline(r.Text, r.X, r.Baseline, r.Size),
		Fill:    scene.Solid{Color: c},
	}
}
