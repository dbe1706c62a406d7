package header

import "tools.zach/dev/aqbot/internal/scene"

// Background tuning.
const (
	sheenOpacity    = 0.10
	vignetteStart   = 0.70
	vignetteOpacity = 0.22
)

// BuildBackground returns the base layer: a diagonal two-stop gradient,
// a faint top-to-bottom sheen and a radial vignette that darkens the
// outer 30% of the radius.
func BuildBackground(width, height int, c Colors) *scene.Layer {
	l := scene.NewLayer("bg", width, height)
	full := scene.Rectangle(scene.RectXYWH(0, 0, float64(width), float64(height)))

	base := l.AddGradient(&scene.LinearGradient{
		ID: l.Def("base"),
		X1: 0, Y1: 0, X2: 1, Y2: 1,
		Stops: []scene.Stop{
			{Offset: 0, Color: c.BackgroundFrom},
			{Offset: 1, Color: c.BackgroundTo},
		},
	})
	sheen := l.AddGradient(&scene.LinearGradient{
		ID: l.Def("sheen"),
		X1: 0, Y1: 0, X2: 0, Y2: 1,
		Stops: []scene.Stop{
			{Offset: 0, Color: scene.WithAlpha(white, sheenOpacity)},
			{Offset: 1, Color: scene.WithAlpha(white, 0)},
		},
	})
	vignette := l.AddGradient(&scene.RadialGradient{
		ID: l.Def("vignette"),
		CX: 0.5, CY: 0.5, R: 0.5,
		Stops: []scene.Stop{
			{Offset: vignetteStart, Color: scene.WithAlpha(black, 0)},
			{Offset: 1, Color: scene.WithAlpha(black, vignetteOpacity)},
		},
	})

	l.Add(
		&scene.Shape{Outline: full, Fill: base},
		&scene.Shape{Outline: full, Fill: sheen},
		&scene.Shape{Outline: full, Fill: vignette},
	)
	return l
}
