// Package fontfetch downloads header fonts from the Google Fonts CSS API.
//
// Font specs use the format "google:FAMILY:WEIGHT" (e.g. "google:Oswald:700").
// Downloaded fonts are converted to SFNT and installed atomically, so the
// renderer only ever sees a complete TTF/OTF file.
package fontfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	tdfont "github.com/tdewolff/font"

	"tools.zach/dev/aqbot/internal/atomicfile"
	"tools.zach/dev/aqbot/internal/typeface"
)

// DefaultCSSBase is the Google Fonts CSS2 endpoint.
const DefaultCSSBase = "https://fonts.googleapis.com/css2"

// userAgent asks Google for WOFF2 sources, which tdewolff/font converts.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

const (
	maxCSSBytes  = 1 << 20
	maxFontBytes = 10 << 20
)

var (
	// ErrInvalidSpec indicates a font spec that is not google:FAMILY:WEIGHT.
	ErrInvalidSpec = errors.New("invalid font spec")
	// ErrNoFontURL indicates a CSS response without a font source.
	ErrNoFontURL = errors.New("no font URL in stylesheet")
)

// fontURLRe extracts the first font source from a CSS response, such as
// url(https://fonts.gstatic.com/s/oswald/v53/xxx.woff2).
var fontURLRe = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// ///////////////////////////////////////////////
// Spec
// ///////////////////////////////////////////////

// Spec names one family and weight on Google Fonts.
type Spec struct {
	Family string
	Weight string
}

// ParseSpec parses a "google:Family:Weight" spec. The weight defaults to
// 400 when omitted ("google:Family").
func ParseSpec(s string) (Spec, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 || parts[0] != "google" {
		return Spec{}, fmt.Errorf("%w %q: expected google:FAMILY:WEIGHT", ErrInvalidSpec, s)
	}
	spec := Spec{Family: strings.TrimSpace(parts[1]), Weight: "400"}
	if len(parts) == 3 {
		spec.Weight = strings.TrimSpace(parts[2])
	}
	if spec.Family == "" {
		return Spec{}, fmt.Errorf("%w %q: empty family", ErrInvalidSpec, s)
	}
	for _, r := range spec.Weight {
		if r < '0' || r > '9' {
			return Spec{}, fmt.Errorf("%w %q: weight must be numeric", ErrInvalidSpec, s)
		}
	}
	if spec.Weight == "" {
		return Spec{}, fmt.Errorf("%w %q: empty weight", ErrInvalidSpec, s)
	}
	return spec, nil
}

// String returns the spec in google:Family:Weight form.
func (s Spec) String() string {
	return "google:" + s.Family + ":" + s.Weight
}

// ///////////////////////////////////////////////
// Fetcher
// ///////////////////////////////////////////////

// Fetcher downloads fonts over HTTP with retries.
type Fetcher struct {
	client  *retryablehttp.Client
	cssBase string
	log     *slog.Logger
	// parse validates downloaded bytes; typeface.Parse unless replaced in tests.
	parse func([]byte) (*typeface.Font, error)
}

// Option configures a [Fetcher].
type Option func(*Fetcher)

// WithCSSBase points the fetcher at another CSS2-compatible endpoint.
func WithCSSBase(base string) Option {
	return func(f *Fetcher) { f.cssBase = base }
}

// WithRetries sets the number of retries after a failed request.
func WithRetries(n int) Option {
	return func(f *Fetcher) { f.client.RetryMax = n }
}

// WithLogger sets the logger for download diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New returns a Fetcher using the public Google Fonts endpoint.
func New(opts ...Option) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 15 * time.Second
	client.Logger = nil // suppress retryablehttp's default logging

	f := &Fetcher{client: client, cssBase: DefaultCSSBase, log: slog.Default(), parse: typeface.Parse}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads spec and returns it as SFNT (TTF/OTF) bytes, converting
// from WOFF or WOFF2 if necessary. The result is checked to parse as a font.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec) ([]byte, error) {
	data, _, err := f.download(ctx, spec)
	return data, err
}

// download is Fetch that also returns the parsed font.
func (f *Fetcher) download(ctx context.Context, spec Spec) ([]byte, *typeface.Font, error) {
	cssURL, err := f.cssURL(spec)
	if err != nil {
		return nil, nil, err
	}

	css, err := f.get(ctx, cssURL.String(), maxCSSBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch stylesheet for %s: %w", spec, err)
	}
	m := fontURLRe.FindSubmatch(css)
	if m == nil {
		return nil, nil, fmt.Errorf("%s: %w", spec, ErrNoFontURL)
	}
	ref, err := url.Parse(string(m[1]))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: bad font URL %q: %w", spec, m[1], err)
	}
	fontURL := cssURL.ResolveReference(ref).String()

	data, err := f.get(ctx, fontURL, maxFontBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("download font file: %w", err)
	}
	if isWebFontData(fontURL, data) {
		converted, err := tdfont.ToSFNT(data)
		if err != nil {
			return nil, nil, fmt.Errorf("convert %s to sfnt: %w", urlExt(fontURL), err)
		}
		data = converted
	}
	font, err := f.parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("downloaded font for %s: %w", spec, err)
	}

	f.log.Info("font downloaded", "font", spec.String(), "bytes", len(data))
	return data, font, nil
}

// Install downloads spec and atomically writes it to dst, creating the
// parent directory. It returns the installed font's family name.
func (f *Fetcher) Install(ctx context.Context, spec Spec, dst string) (string, error) {
	data, font, err := f.download(ctx, spec)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create font dir: %w", err)
	}
	if err := atomicfile.Write(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("install font: %w", err)
	}
	f.log.Info("font installed", "font", spec.String(), "path", dst, "family", font.Name())
	return font.Name(), nil
}

// cssURL builds the stylesheet request for spec.
func (f *Fetcher) cssURL(spec Spec) (*url.URL, error) {
	u, err := url.Parse(f.cssBase)
	if err != nil {
		return nil, fmt.Errorf("parse css base %q: %w", f.cssBase, err)
	}
	q := u.Query()
	q.Set("family", spec.Family+":wght@"+spec.Weight)
	u.RawQuery = q.Encode()
	return u, nil
}

// get performs a GET and reads at most limit bytes of a 200 response.
func (f *Fetcher) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("GET %s: response exceeds %d bytes", rawURL, limit)
	}
	return body, nil
}

// isWebFontData checks whether font data is WOFF or WOFF2 by URL extension
// or magic bytes.
func isWebFontData(rawURL string, data []byte) bool {
	ext := urlExt(rawURL)
	if ext == ".woff2" || ext == ".woff" {
		return true
	}
	if len(data) < 4 {
		return false
	}
	magic := string(data[:4])
	return magic == "wOF2" || magic == "wOFF"
}

// urlExt returns the lower-cased extension of the URL path.
func urlExt(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		rawURL = u.Path
	}
	return strings.ToLower(path.Ext(rawURL))
}
