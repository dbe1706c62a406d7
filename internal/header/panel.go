package header

import "tools.zach/dev/aqbot/internal/scene"

// Panel tuning.
const (
	panelTopOpacity    = 0.32
	panelBottomOpacity = 0.22
	panelBorderOpacity = 0.18
	panelBorderWidth   = 1
)

// BuildPanel returns the translucent dark panel that covers the canvas,
// with a hairline white border. The rectangle is inset by half the border
// width so the whole border lands on the canvas.
func BuildPanel(width, height int) *scene.Layer {
	l := scene.NewLayer("panel", width, height)
	inset := panelBorderWidth / 2.0
	rect := scene.RectXYWH(inset, inset, float64(width)-2*inset, float64(height)-2*inset)

	fill := l.AddGradient(&scene.LinearGradient{
		ID: l.Def("fill"),
		X1: 0, Y1: 0, X2: 0, Y2: 1,
		Stops: []scene.Stop{
			{Offset: 0, Color: scene.WithAlpha(black, panelTopOpacity)},
			{Offset: 1, Color: scene.WithAlpha(black, panelBottomOpacity)},
		},
	})

	l.Add(&scene.Shape{
		Outline: scene.Rectangle(rect),
		Fill:    fill,
		Stroke: &scene.Stroke{
			Paint: scene.Solid{Color: scene.WithAlpha(white, panelBorderOpacity)},
			Width: panelBorderWidth,
		},
	})
	return l
}
