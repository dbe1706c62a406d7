package typeface

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ///////////////////////////////////////////////
// Loader
// ///////////////////////////////////////////////

// Loader produces a font. It is called lazily by [Cache].
type Loader func() (*Font, error)

// FileLoader returns a Loader that reads the font at path.
func FileLoader(path string) Loader {
	return func() (*Font, error) { return Load(path) }
}

// FirstOf returns a Loader that tries each loader in order and returns the
// first font that loads. The error of the last loader is returned when all
// of them fail.
func FirstOf(loaders ...Loader) Loader {
	return func() (*Font, error) {
		var lastErr error
		for _, l := range loaders {
			f, err := l()
			if err == nil && f != nil {
				return f, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

// ///////////////////////////////////////////////
// Cache
// ///////////////////////////////////////////////

// Cache memoizes the first successfully loaded font for its lifetime.
// Failed loads are logged and not remembered, so a font that appears later
// is picked up by the next call. Concurrent first calls share one load.
type Cache struct {
	load   Loader
	log    *slog.Logger
	font   atomic.Pointer[Font]
	flight singleflight.Group
	loads  atomic.Int64
}

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// WithLogger sets the logger used to report load failures.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.log = l }
}

// NewCache returns an empty Cache backed by load.
func NewCache(load Loader, opts ...CacheOption) *Cache {
	c := &Cache{load: load, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Preloaded returns a Cache that already holds f.
func Preloaded(f *Font) *Cache {
	c := NewCache(func() (*Font, error) { return f, nil })
	c.font.Store(f)
	return c
}

// Get returns the cached font, loading it on first use. It returns nil when
// the font cannot be loaded.
func (c *Cache) Get() *Font {
	if f := c.font.Load(); f != nil {
		return f
	}
	v, _, _ := c.flight.Do("font", func() (any, error) {
		if f := c.font.Load(); f != nil {
			return f, nil
		}
		c.loads.Add(1)
		f, err := c.load()
		if err != nil || f == nil {
			c.log.Warn("header font unavailable, rendering without text", "error", err)
			return (*Font)(nil), nil
		}
		c.font.Store(f)
		c.log.Debug("header font loaded", "font", f.Name())
		return f, nil
	})
	f, _ := v.(*Font)
	return f
}

// Loaded reports whether a font is cached.
func (c *Cache) Loaded() bool {
	return c.font.Load() != nil
}

// Loads returns how many times the loader has been invoked.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}
