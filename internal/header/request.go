// Package header composes the alliance-quest banner: a gradient background,
// a translucent panel and a text layer with the title, the day counter and
// two labeled pill badges, rasterized once into a PNG.
//
// Every element is generated from code; there is no template image. The only
// external input besides the [Request] is the header font, which is optional:
// without it the banner is rendered with its background and panel only.
package header

import (
	"errors"
	"fmt"
)

// ///////////////////////////////////////////////
// Limits and Defaults
// ///////////////////////////////////////////////

const (
	// DefaultWidth and DefaultHeight are used when a request leaves them zero.
	DefaultWidth  = 700
	DefaultHeight = 150
	// MaxDimension bounds both sides of the canvas.
	MaxDimension = 4096
	// MaxDay is the largest day counter accepted.
	MaxDay = 99999
)

// Sentinel errors returned (wrapped) by [Request.Normalize].
var (
	ErrInvalidDimensions = errors.New("invalid header dimensions")
	ErrInvalidDay        = errors.New("invalid day")
)

// ///////////////////////////////////////////////
// Request
// ///////////////////////////////////////////////

// Request describes one banner.
type Request struct {
	// Day is the counter shown as "Day N".
	Day int `toml:"day"`
	// ChannelName is shown in the left pill as "#name".
	ChannelName string `toml:"channel"`
	// RoleName is shown in the right pill as "@name".
	RoleName string `toml:"role"`
	// Width and Height are the output size in pixels. Zero selects the
	// default 700×150.
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Normalize fills in default dimensions and validates the request.
func (r Request) Normalize() (Request, error) {
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}
	if r.Width < 0 || r.Height < 0 || r.Width > MaxDimension || r.Height > MaxDimension {
		return r, fmt.Errorf("%w: %dx%d, each side must be between 1 and %d", ErrInvalidDimensions, r.Width, r.Height, MaxDimension)
	}
	if r.Day < 0 || r.Day > MaxDay {
		return r, fmt.Errorf("%w: %d, must be between 0 and %d", ErrInvalidDay, r.Day, MaxDay)
	}
	return r, nil
}

// ChannelLabel returns the left pill text.
func (r Request) ChannelLabel() string { return "#" + r.ChannelName }

// RoleLabel returns the right pill text.
func (r Request) RoleLabel() string { return "@" + r.RoleName }

// DayLabel returns the day counter text.
func (r Request) DayLabel() string { return fmt.Sprintf("Day %d", r.Day) }

// Key identifies the rendered output of r for caching.
func (r Request) Key() string {
	return fmt.Sprintf("%d|%dx%d|%q|%q", r.Day, r.Width, r.Height, r.ChannelName, r.RoleName)
}
