package header

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/disintegration/imaging"

	"tools.zach/dev/aqbot/internal/scene"
	"tools.zach/dev/aqbot/internal/typeface"
)

// ///////////////////////////////////////////////
// Generator
// ///////////////////////////////////////////////

// Generator renders banners. It owns the font cache, so every banner it
// renders after the first successful font load reuses the same font.
// A Generator is safe for concurrent use.
type Generator struct {
	fonts   *typeface.Cache
	colors  Colors
	padding int
	title   string
	log     *slog.Logger
}

// Option configures a [Generator].
type Option func(*Generator)

// WithColors overrides the default palette.
func WithColors(c Colors) Option {
	return func(g *Generator) { g.colors = c }
}

// WithPadding overrides DefaultPadding.
func WithPadding(px int) Option {
	return func(g *Generator) { g.padding = px }
}

// WithTitle overrides DefaultTitle.
func WithTitle(title string) Option {
	return func(g *Generator) { g.title = title }
}

// WithLogger sets the logger for render diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// NewGenerator returns a Generator that draws text with the font from fonts.
// A nil cache renders every banner without text.
func NewGenerator(fonts *typeface.Cache, opts ...Option) *Generator {
	g := &Generator{
		fonts:   fonts,
		colors:  DefaultColors(),
		padding: DefaultPadding,
		title:   DefaultTitle,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// font returns the cached font, or nil when none is available.
func (g *Generator) font() *typeface.Font {
	if g.fonts == nil {
		return nil
	}
	return g.fonts.Get()
}

// params normalizes req and checks that the layout fits its canvas. The
// size floor holds with or without a font; with a font the planned text
// must also lie on the canvas without the title running into the counter.
func (g *Generator) params(req Request) (TextParams, error) {
	req, err := req.Normalize()
	if err != nil {
		return TextParams{Request: req}, err
	}
	p := TextParams{Request: req, Padding: g.padding, Title: g.title, Colors: g.colors}
	minW, minH := minCanvas(g.padding)
	if req.Width < minW || req.Height < minH {
		return p, fmt.Errorf("%w: %dx%d is below the %dx%d minimum for %dpx padding",
			ErrInvalidDimensions, req.Width, req.Height, minW, minH, g.padding)
	}
	p.Font = g.font()
	if p.Font != nil && !PlanText(p).Fits(req.Width, req.Height) {
		return p, fmt.Errorf("%w: %dx%d is too small for the banner text", ErrInvalidDimensions, req.Width, req.Height)
	}
	return p, nil
}

// Layers normalizes req and builds the background, panel and text layers in
// stacking order. The returned request carries the resolved dimensions.
func (g *Generator) Layers(req Request) ([]*scene.Layer, Request, error) {
	p, err := g.params(req)
	if err != nil {
		return nil, p.Request, err
	}
	req = p.Request

	layers := []*scene.Layer{
		BuildBackground(req.Width, req.Height, g.colors),
		BuildPanel(req.Width, req.Height),
		BuildTextLayer(p),
	}
	for _, l := range layers {
		if l.Width != req.Width || l.Height != req.Height {
			return nil, req, fmt.Errorf("layer %s is %dx%d, want %dx%d", l.ID, l.Width, l.Height, req.Width, req.Height)
		}
		if err := l.Check(); err != nil {
			return nil, req, fmt.Errorf("build layers: %w", err)
		}
	}
	return layers, req, nil
}

// Plan returns the text layout for req, and false when no font is
// available and nothing would be drawn.
func (g *Generator) Plan(req Request) (TextPlan, bool, error) {
	p, err := g.params(req)
	if err != nil {
		return TextPlan{}, false, err
	}
	if p.Font == nil {
		return TextPlan{}, false, nil
	}
	return PlanText(p), true, nil
}

// Generate renders req as PNG bytes of exactly Width × Height pixels.
func (g *Generator) Generate(req Request) ([]byte, error) {
	layers, req, err := g.Layers(req)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(req.Width, req.Height, color.NRGBA{})
	for _, l := range layers {
		canvas = imaging.Overlay(canvas, scene.Rasterize(l), image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	g.log.Debug("header rendered",
		"day", req.Day,
		"size", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"text", len(layers[2].Elements) > 0,
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

// GenerateSVG renders req as one SVG document with the three layers stacked
// in order.
func (g *Generator) GenerateSVG(req Request) ([]byte, error) {
	layers, req, err := g.Layers(req)
	if err != nil {
		return nil, err
	}
	return scene.Document(req.Width, req.Height, layers...), nil
}
