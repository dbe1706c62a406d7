package scene

import (
	"fmt"
	"image/color"
)

// ///////////////////////////////////////////////
// Filters
// ///////////////////////////////////////////////

// Shadow is a blurred, tinted copy of a group's alpha drawn beneath the
// group. With a zero offset it acts as a glow.
type Shadow struct {
	// ID is the definition id.
	ID string
	// DX and DY offset the shadow in pixels.
	DX, DY float64
	// Blur is the Gaussian standard deviation in pixels.
	Blur float64
	// Color is the shadow tint; its alpha is the shadow opacity.
	Color color.NRGBA
}

// ///////////////////////////////////////////////
// Elements
// ///////////////////////////////////////////////

// Element is a drawable member of a [Layer] or [Group].
type Element interface {
	// Bounds returns the untransformed bounding box of the element.
	Bounds() Rect
}

// Stroke outlines a shape with a centered line of the given width.
type Stroke struct {
	Paint Paint
	Width float64
}

// Shape is a filled and optionally stroked outline.
type Shape struct {
	// Name is an optional element id used in markup.
	Name    string
	Outline Outline
	// Fill may be nil for stroke-only shapes.
	Fill   Paint
	Stroke *Stroke
}

// Bounds implements [Element].
func (s *Shape) Bounds() Rect { return s.Outline.Bounds() }

// Group applies a transform and an optional filter to its children.
type Group struct {
	// Name is an optional element id used in markup.
	Name      string
	Transform Matrix
	Filter    *Shadow
	Children  []Element
}

// Bounds implements [Element]. The result is in the group's parent space.
func (g *Group) Bounds() Rect {
	var r Rect
	for _, c := range g.Children {
		b := c.Bounds()
		if b.Empty() {
			continue
		}
		o := Rectangle(b).Transform(g.transform())
		r = r.Union(o.Bounds())
	}
	return r
}

// transform returns the group transform, treating the zero value as Identity.
func (g *Group) transform() Matrix {
	if g.Transform == (Matrix{}) {
		return Identity
	}
	return g.Transform
}

// ///////////////////////////////////////////////
// Layer
// ///////////////////////////////////////////////

// Layer is one full-canvas vector layer with its own definitions.
type Layer struct {
	// ID namespaces the layer; definition ids are expected to start with ID+"-".
	ID     string
	Width  int
	Height int
	// Gradients and Filters are the layer's definitions.
	Gradients []Gradient
	Filters   []*Shadow
	// Elements are drawn in order, later elements on top.
	Elements []Element
}

// NewLayer returns an empty layer of the given size.
func NewLayer(id string, width, height int) *Layer {
	return &Layer{ID: id, Width: width, Height: height}
}

// Def returns the namespaced definition id for name.
func (l *Layer) Def(name string) string {
	return l.ID + "-" + name
}

// AddGradient declares g in the layer's definitions and returns it.
func (l *Layer) AddGradient(g Gradient) Gradient {
	l.Gradients = append(l.Gradients, g)
	return g
}

// AddFilter declares f in the layer's definitions and returns it.
func (l *Layer) AddFilter(f *Shadow) *Shadow {
	l.Filters = append(l.Filters, f)
	return f
}

// Add appends elements to the layer.
func (l *Layer) Add(elems ...Element) {
	l.Elements = append(l.Elements, elems...)
}

// DefIDs returns every definition id in declaration order.
func (l *Layer) DefIDs() []string {
	ids := make([]string, 0, len(l.Gradients)+len(l.Filters))
	for _, g := range l.Gradients {
		ids = append(ids, g.GradientID())
	}
	for _, f := range l.Filters {
		ids = append(ids, f.ID)
	}
	return ids
}

// Check verifies that definition ids are unique and namespaced, and that
// every gradient and filter used by an element is declared.
func (l *Layer) Check() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("layer %q: invalid size %dx%d", l.ID, l.Width, l.Height)
	}
	declared := make(map[string]bool)
	for _, id := range l.DefIDs() {
		if declared[id] {
			return fmt.Errorf("layer %q: duplicate definition %q", l.ID, id)
		}
		if len(id) <= len(l.ID)+1 || id[:len(l.ID)+1] != l.ID+"-" {
			return fmt.Errorf("layer %q: definition %q is not namespaced", l.ID, id)
		}
		declared[id] = true
	}
	var walk func(elems []Element) error
	walk = func(elems []Element) error {
		for _, e := range elems {
			switch e := e.(type) {
			case *Shape:
				for _, p := range []Paint{e.Fill, strokePaint(e.Stroke)} {
					if g, ok := p.(Gradient); ok && !declared[g.GradientID()] {
						return fmt.Errorf("layer %q: gradient %q used but not declared", l.ID, g.GradientID())
					}
				}
			case *Group:
				if e.Filter != nil && !declared[e.Filter.ID] {
					return fmt.Errorf("layer %q: filter %q used but not declared", l.ID, e.Filter.ID)
				}
				if err := walk(e.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(l.Elements)
}

func strokePaint(s *Stroke) Paint {
	if s == nil {
		return nil
	}
	return s.Paint
}
