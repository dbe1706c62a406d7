// Package preview renders banner requests described in TOML files, once or
// every time the file changes.
//
// A request file holds the same fields as a bot command:
//
//	day = 12
//	channel = "warroom"
//	role = "Officers"
//	width = 700   # optional
//	height = 150  # optional
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/aqbot/internal/atomicfile"
	"tools.zach/dev/aqbot/internal/header"
)

// ErrUnknownKey indicates a request file with fields the renderer would
// silently ignore, usually a typo.
var ErrUnknownKey = errors.New("unknown request key")

// defaultDebounce is how long the watch loop waits for more changes before
// re-rendering.
const defaultDebounce = 150 * time.Millisecond

// ///////////////////////////////////////////////
// Request Files
// ///////////////////////////////////////////////

// LoadRequest reads a request file.
func LoadRequest(path string) (header.Request, error) {
	var req header.Request
	md, err := toml.DecodeFile(path, &req)
	if err != nil {
		return header.Request{}, fmt.Errorf("read request %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return header.Request{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	return req, nil
}

// ///////////////////////////////////////////////
// Previewer
// ///////////////////////////////////////////////

// Renderer produces banner bytes. [*header.Generator] satisfies it.
type Renderer interface {
	Generate(req header.Request) ([]byte, error)
	GenerateSVG(req header.Request) ([]byte, error)
}

// Result describes one render of the request file.
type Result struct {
	Request header.Request
	Output  string
	Bytes   int
	Err     error
}

// Previewer renders one request file to one output file.
type Previewer struct {
	renderer Renderer
	src, dst string
	svg      bool
	debounce time.Duration
	watchOps []WatcherOption
	onRender func(Result)
	log      *slog.Logger
}

// Option configures a [Previewer].
type Option func(*Previewer)

// WithSVG writes SVG markup instead of PNG.
func WithSVG(svg bool) Option {
	return func(p *Previewer) { p.svg = svg }
}

// WithDebounce sets how long Watch waits for a burst of changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(p *Previewer) { p.debounce = d }
}

// WithWatcherOptions passes options to the file watcher used by Watch.
func WithWatcherOptions(opts ...WatcherOption) Option {
	return func(p *Previewer) { p.watchOps = append(p.watchOps, opts...) }
}

// OnRender registers a callback invoked after every render attempt.
func OnRender(fn func(Result)) Option {
	return func(p *Previewer) { p.onRender = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Previewer) { p.log = l }
}

// New returns a Previewer that renders the request in src to dst.
func New(r Renderer, src, dst string, opts ...Option) *Previewer {
	p := &Previewer{
		renderer: r,
		src:      src,
		dst:      dst,
		debounce: defaultDebounce,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render loads the request file, renders it and atomically replaces the
// output file. A failed render leaves the previous output in place.
func (p *Previewer) Render() Result {
	res := Result{Output: p.dst}
	req, err := LoadRequest(p.src)
	if err != nil {
		res.Err = err
		return p.report(res)
	}
	res.Request = req

	var data []byte
	if p.svg {
		data, err = p.renderer.GenerateSVG(req)
	} else {
		data, err = p.renderer.Generate(req)
	}
	if err != nil {
		res.Err = fmt.Errorf("render %s: %w", p.src, err)
		return p.report(res)
	}
	if err := atomicfile.Write(p.dst, data, 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", p.dst, err)
		return p.report(res)
	}
	res.Bytes = len(data)
	return p.report(res)
}

func (p *Previewer) report(res Result) Result {
	if res.Err != nil {
		p.log.Warn("preview render failed", "request", p.src, "error", res.Err)
	} else {
		p.log.Info("preview rendered", "request", p.src, "output", res.Output, "day", res.Request.Day, "bytes", res.Bytes)
	}
	if p.onRender != nil {
		p.onRender(res)
	}
	return res
}

// Watch renders once, then again after every change to the request file,
// until ctx is done. Render failures are reported and watching continues.
func (p *Previewer) Watch(ctx context.Context) error {
	w, err := NewWatcher(p.src, append([]WatcherOption{WithWatcherLogger(p.log)}, p.watchOps...)...)
	if err != nil {
		return fmt.Errorf("watch %s: %w", p.src, err)
	}
	defer w.Close()

	p.Render()

	timer := time.NewTimer(p.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Events():
			timer.Reset(p.debounce)
		case <-timer.C:
			p.Render()
		}
	}
}
