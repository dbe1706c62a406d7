package fontfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"

	"tools.zach/dev/aqbot/internal/logger"
	"tools.zach/dev/aqbot/internal/typeface"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// fontServer serves css at /css2 and fontBody at /s/go/regular.ttf. It
// records the family query of the last stylesheet request.
type fontServer struct {
	*httptest.Server
	lastFam  atomic.Value
	css      string
	fontBody []byte
}

func newFontServer(t *testing.T, css string, fontBody []byte) *fontServer {
	t.Helper()
	fs := &fontServer{css: css, fontBody: fontBody}
	mux := http.NewServeMux()
	mux.HandleFunc("/css2", func(w http.ResponseWriter, r *http.Request) {
		fs.lastFam.Store(r.URL.Query().Get("family"))
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			http.Error(w, "unexpected user agent", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, fs.css)
	})
	mux.HandleFunc("/s/go/regular.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fs.fontBody)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

const stylesheet = `/* latin */
@font-face {
  font-family: 'Go';
  font-style: normal;
  font-weight: 400;
  src: url(/s/go/regular.ttf) format('truetype');
}
`

func newTestFetcher(base string) *Fetcher {
	return New(WithCSSBase(base+"/css2"), WithRetries(0), WithLogger(logger.Discard()))
}

// ///////////////////////////////////////////////
// Spec Tests
// ///////////////////////////////////////////////

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    Spec
		wantErr bool
	}{
		{in: "google:Oswald:700", want: Spec{Family: "Oswald", Weight: "700"}},
		{in: "google:Bebas Neue:400", want: Spec{Family: "Bebas Neue", Weight: "400"}},
		{in: "google:Inter", want: Spec{Family: "Inter", Weight: "400"}},
		{in: "  google:Inter:800 ", want: Spec{Family: "Inter", Weight: "800"}},
		{in: "Oswald:700", wantErr: true},
		{in: "google::700", wantErr: true},
		{in: "google:Oswald:bold", wantErr: true},
		{in: "google:Oswald:", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpec(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSpec) {
					t.Errorf("ParseSpec(%q) error = %v, want ErrInvalidSpec", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec(%q): %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSpec(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestSpecString(t *testing.T) {
	if got := (Spec{Family: "Oswald", Weight: "700"}).String(); got != "google:Oswald:700" {
		t.Errorf("String() = %q", got)
	}
}

func TestIsWebFontData(t *testing.T) {
	tests := []struct {
		name string
		url  string
		data []byte
		want bool
	}{
		{"woff2 extension", "https://fonts.gstatic.com/s/x.woff2", nil, true},
		{"woff extension", "https://fonts.gstatic.com/s/x.WOFF?v=2", nil, true},
		{"woff2 magic", "https://example.com/font", []byte("wOF2...."), true},
		{"woff magic", "https://example.com/font", []byte("wOFF...."), true},
		{"ttf", "https://example.com/x.ttf", goregular.TTF, false},
		{"short data", "https://example.com/x", []byte("wO"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWebFontData(tt.url, tt.data); got != tt.want {
				t.Errorf("isWebFontData() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Fetch Tests
// ///////////////////////////////////////////////

func TestFetch(t *testing.T) {
	srv := newFontServer(t, stylesheet, goregular.TTF)

	data, err := newTestFetcher(srv.URL).Fetch(context.Background(), Spec{Family: "Go", Weight: "400"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data) != len(goregular.TTF) {
		t.Errorf("Fetch returned %d bytes, want %d", len(data), len(goregular.TTF))
	}
	if got := srv.lastFam.Load(); got != "Go:wght@400" {
		t.Errorf("family query = %v, want Go:wght@400", got)
	}
}

func TestFetchAbsoluteFontURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/css2" {
			fmt.Fprintf(w, "@font-face { src: url('http://%s/files/go.ttf'); }", r.Host)
			return
		}
		w.Write(goregular.TTF)
	}))
	defer srv.Close()

	if _, err := newTestFetcher(srv.URL).Fetch(context.Background(), Spec{Family: "Go", Weight: "400"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		css     string
		font    []byte
		base    string
		wantErr error
	}{
		{name: "no font url", css: "@font-face { font-family: 'Go'; }", font: goregular.TTF, wantErr: ErrNoFontURL},
		{name: "not a font", css: stylesheet, font: []byte("<html>rate limited</html>")},
		{name: "missing css endpoint", css: stylesheet, font: goregular.TTF, base: "/nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFontServer(t, tt.css, tt.font)
			f := New(WithCSSBase(srv.URL+"/css2"+tt.base), WithRetries(0), WithLogger(logger.Discard()))
			_, err := f.Fetch(context.Background(), Spec{Family: "Go", Weight: "400"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/css2" {
			fmt.Fprint(w, stylesheet)
			return
		}
		w.Write(goregular.TTF)
	}))
	defer srv.Close()

	f := New(WithCSSBase(srv.URL+"/css2"), WithRetries(1), WithLogger(logger.Discard()))
	if _, err := f.Fetch(context.Background(), Spec{Family: "Go", Weight: "400"}); err != nil {
		t.Fatalf("Fetch after one 503: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3 (failed css, css, font)", got)
	}
}

func TestFetchCanceledContext(t *testing.T) {
	srv := newFontServer(t, stylesheet, goregular.TTF)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestFetcher(srv.URL).Fetch(ctx, Spec{Family: "Go", Weight: "400"}); err == nil {
		t.Fatal("expected error with canceled context")
	}
}

// ///////////////////////////////////////////////
// Install Tests
// ///////////////////////////////////////////////

func TestInstall(t *testing.T) {
	srv := newFontServer(t, stylesheet, goregular.TTF)
	dst := filepath.Join(t.TempDir(), "fonts", "header.ttf")

	name, err := newTestFetcher(srv.URL).Install(context.Background(), Spec{Family: "Go", Weight: "400"}, dst)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if name == "" {
		t.Error("Install returned an empty family name")
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read installed font: %v", err)
	}
	if len(got) != len(goregular.TTF) {
		t.Errorf("installed %d bytes, want %d", len(got), len(goregular.TTF))
	}
}

func TestInstallParsesOnce(t *testing.T) {
	srv := newFontServer(t, stylesheet, goregular.TTF)
	f := newTestFetcher(srv.URL)
	var parses int
	f.parse = func(data []byte) (*typeface.Font, error) {
		parses++
		return typeface.Parse(data)
	}

	name, err := f.Install(context.Background(), Spec{Family: "Go", Weight: "400"}, filepath.Join(t.TempDir(), "header.ttf"))
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if parses != 1 {
		t.Errorf("font parsed %d times, want 1", parses)
	}
	want, _ := typeface.Parse(goregular.TTF)
	if name != want.Name() {
		t.Errorf("Install() = %q, want %q", name, want.Name())
	}
}

func TestInstallFailureKeepsExisting(t *testing.T) {
	srv := newFontServer(t, stylesheet, []byte("garbage"))
	dst := filepath.Join(t.TempDir(), "header.ttf")
	if err := os.WriteFile(dst, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := newTestFetcher(srv.URL).Install(context.Background(), Spec{Family: "Go", Weight: "400"}, dst); err == nil {
		t.Fatal("expected Install to fail on a bad download")
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "previous" {
		t.Errorf("existing font was replaced with %q", got)
	}
}
