package header

import (
	"fmt"
	"image/color"

	"tools.zach/dev/aqbot/internal/scene"
)

// ///////////////////////////////////////////////
// Palette
// ///////////////////////////////////////////////

// Palette lists the banner's brand colors as "#RRGGBB" strings.
type Palette struct {
	BackgroundFrom string
	BackgroundTo   string
	Title          string
	Day            string
	PillText       string
	ChannelFrom    string
	ChannelTo      string
	RoleFrom       string
	RoleTo         string
}

// DefaultPalette is the neutral house palette.
var DefaultPalette = Palette{
	BackgroundFrom: "#2b3140",
	BackgroundTo:   "#11141b",
	Title:          "#ffffff",
	Day:            "#f2c14e",
	PillText:       "#ffffff",
	ChannelFrom:    "#3a7bd5",
	ChannelTo:      "#2456a6",
	RoleFrom:       "#9b59b6",
	RoleTo:         "#6c3483",
}

// Colors is a resolved [Palette].
type Colors struct {
	BackgroundFrom, BackgroundTo color.NRGBA
	Title, Day, PillText         color.NRGBA
	ChannelFrom, ChannelTo       color.NRGBA
	RoleFrom, RoleTo             color.NRGBA
}

// Resolve parses every palette entry.
func (p Palette) Resolve() (Colors, error) {
	var c Colors
	fields := []struct {
		name string
		hex  string
		dst  *color.NRGBA
	}{
		{"background_from", p.BackgroundFrom, &c.BackgroundFrom},
		{"background_to", p.BackgroundTo, &c.BackgroundTo},
		{"title", p.Title, &c.Title},
		{"day", p.Day, &c.Day},
		{"pill_text", p.PillText, &c.PillText},
		{"channel_from", p.ChannelFrom, &c.ChannelFrom},
		{"channel_to", p.ChannelTo, &c.ChannelTo},
		{"role_from", p.RoleFrom, &c.RoleFrom},
		{"role_to", p.RoleTo, &c.RoleTo},
	}
	for _, f := range fields {
		v, err := scene.ParseHexColor(f.hex)
		if err != nil {
			return Colors{}, fmt.Errorf("palette %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return c, nil
}

// DefaultColors returns the resolved [DefaultPalette].
func DefaultColors() Colors {
	c, err := DefaultPalette.Resolve()
	if err != nil {
		panic(err)
	}
	return c
}

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)
