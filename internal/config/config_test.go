// Tests for the config package covering [Load] behavior (defaults, overrides,
// missing files, malformed input, version handling), validation
// ([Config.Validate]), accessors ([Config.BotToken], [Config.ChannelAllowed],
// [Config.FontPath], [Config.Palette]), serialization round-trips
// ([Config.Save]), and [ConfigDocs] completeness.

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"

	"tools.zach/dev/aqbot/internal/header"
)

// ///////////////////////////////////////////////
// Load
// ///////////////////////////////////////////////

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		config  string // config file content; empty means no file written
		noFile  bool   // if true, skip writing a config file
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:   "defaults from minimal config",
			config: "version = 1\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
					t.Errorf("minimal config differs from defaults (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "user overrides applied",
			config: `
version = 1

[discord]
command = "!header"
channels = ["bot-*"]

[header]
width = 400
height = 100

[limits]
renders_per_minute = 30
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Discord.Command != "!header" {
					t.Errorf("Command = %q, want %q", cfg.Discord.Command, "!header")
				}
				if diff := cmp.Diff([]string{"bot-*"}, cfg.Discord.Channels); diff != "" {
					t.Errorf("Channels (-want +got):\n%s", diff)
				}
				if cfg.Header.Width != 400 || cfg.Header.Height != 100 {
					t.Errorf("size = %dx%d, want 400x100", cfg.Header.Width, cfg.Header.Height)
				}
				if cfg.Limits.RendersPerMinute != 30 {
					t.Errorf("RendersPerMinute = %d, want 30", cfg.Limits.RendersPerMinute)
				}
			},
		},
		{
			name: "partial override preserves other defaults",
			config: `
version = 1

[header.palette]
day = "#ff0000"
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Header.Palette.Day != "#ff0000" {
					t.Errorf("Palette.Day = %q, want %q", cfg.Header.Palette.Day, "#ff0000")
				}
				def := DefaultConfig()
				if cfg.Header.Palette.Title != def.Header.Palette.Title {
					t.Errorf("Palette.Title = %q, want default %q", cfg.Header.Palette.Title, def.Header.Palette.Title)
				}
				if cfg.Header.Title != def.Header.Title {
					t.Errorf("Title = %q, want default %q", cfg.Header.Title, def.Header.Title)
				}
			},
		},
		{
			name:   "missing file returns defaults",
			noFile: true,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Version != CurrentVersion {
					t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
				}
			},
		},
		{
			name:   "missing version is normalized",
			config: "[log]\nlevel = \"debug\"\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Version != CurrentVersion {
					t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
				}
				if cfg.Log.Level != "debug" {
					t.Errorf("Level = %q, want debug", cfg.Log.Level)
				}
			},
		},
		{
			name:    "malformed TOML returns error",
			config:  "this is not valid toml [[[",
			wantErr: true,
		},
		{
			name:    "newer version returns error",
			config:  "version = 99\n",
			wantErr: true,
		},
		{
			name:    "invalid value fails validation",
			config:  "version = 1\n[header.palette]\ntitle = \"white\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if !tt.noFile {
				writeConfig(t, dir, tt.config)
			}

			cfg, err := Load(dir)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
				return
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

func TestPeekVersion(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{
			name: "reads version from TOML",
			data: "version = 3\n[log]\nlevel = \"info\"\n",
			want: 3,
		},
		{
			name: "missing version returns 1",
			data: "[log]\nlevel = \"info\"\n",
			want: 1, // normalized from 0
		},
		{
			name: "unparseable returns 1",
			data: "[[[",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeekVersion([]byte(tt.data))
			if got != tt.want {
				t.Errorf("PeekVersion() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Validate
// ///////////////////////////////////////////////

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "default config passes",
			setup:   func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log.level",
			setup:   func(cfg *Config) { cfg.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:  "uppercase log.level",
			setup: func(cfg *Config) { cfg.Log.Level = "DEBUG" },
		},
		{
			name:    "zero max_size_mb",
			setup:   func(cfg *Config) { cfg.Log.MaxSizeMB = 0 },
			wantErr: true,
		},
		{
			name:    "empty command",
			setup:   func(cfg *Config) { cfg.Discord.Command = "" },
			wantErr: true,
		},
		{
			name:    "command with spaces",
			setup:   func(cfg *Config) { cfg.Discord.Command = ".aq header" },
			wantErr: true,
		},
		{
			name:    "command collides with help",
			setup:   func(cfg *Config) { cfg.Discord.Command = cfg.Discord.HelpCommand },
			wantErr: true,
		},
		{
			name:    "bad channel glob",
			setup:   func(cfg *Config) { cfg.Discord.Channels = []string{"bot-["} },
			wantErr: true,
		},
		{
			name:    "negative width",
			setup:   func(cfg *Config) { cfg.Header.Width = -1 },
			wantErr: true,
		},
		{
			name:    "height over max",
			setup:   func(cfg *Config) { cfg.Header.Height = header.MaxDimension + 1 },
			wantErr: true,
		},
		{
			name:  "zero size means default",
			setup: func(cfg *Config) { cfg.Header.Width, cfg.Header.Height = 0, 0 },
		},
		{
			name:    "negative padding",
			setup:   func(cfg *Config) { cfg.Header.Padding = -4 },
			wantErr: true,
		},
		{
			name:    "bad palette color",
			setup:   func(cfg *Config) { cfg.Header.Palette.RoleTo = "#12345" },
			wantErr: true,
		},
		{
			name:    "negative ttl",
			setup:   func(cfg *Config) { cfg.Cache.TTLSeconds = -1 },
			wantErr: true,
		},
		{
			name:  "zero ttl disables cache",
			setup: func(cfg *Config) { cfg.Cache.TTLSeconds = 0 },
		},
		{
			name:    "zero renders_per_minute",
			setup:   func(cfg *Config) { cfg.Limits.RendersPerMinute = 0 },
			wantErr: true,
		},
		{
			name:    "zero burst",
			setup:   func(cfg *Config) { cfg.Limits.Burst = 0 },
			wantErr: true,
		},
		{
			name:    "zero render timeout",
			setup:   func(cfg *Config) { cfg.Limits.RenderTimeoutSeconds = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setup(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

func TestConfig_BotToken(t *testing.T) {
	t.Setenv("AQBOT_TEST_TOKEN", "  from-env\n")

	tests := []struct {
		name     string
		token    string
		tokenEnv string
		want     string
	}{
		{name: "explicit token wins", token: "inline", tokenEnv: "AQBOT_TEST_TOKEN", want: "inline"},
		{name: "env fallback is trimmed", tokenEnv: "AQBOT_TEST_TOKEN", want: "from-env"},
		{name: "unset env", tokenEnv: "AQBOT_TEST_UNSET", want: ""},
		{name: "no env name", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Discord.Token = tt.token
			cfg.Discord.TokenEnv = tt.tokenEnv
			if got := cfg.BotToken(); got != tt.want {
				t.Errorf("BotToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_ChannelAllowed(t *testing.T) {
	tests := []struct {
		name     string
		channels []string
		channel  string
		want     bool
	}{
		{name: "default allows all", channels: []string{"*"}, channel: "warroom", want: true},
		{name: "exact match", channels: []string{"warroom"}, channel: "warroom", want: true},
		{name: "prefix glob", channels: []string{"bot-*"}, channel: "bot-commands", want: true},
		{name: "no match", channels: []string{"bot-*"}, channel: "general", want: false},
		{name: "alternation", channels: []string{"{warroom,officers}"}, channel: "officers", want: true},
		{name: "empty list", channels: nil, channel: "warroom", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Discord.Channels = tt.channels
			if got := cfg.ChannelAllowed(tt.channel); got != tt.want {
				t.Errorf("ChannelAllowed(%q) = %v, want %v", tt.channel, got, tt.want)
			}
		})
	}
}

func TestConfig_FontPath(t *testing.T) {
	cfg := DefaultConfig()
	dir := t.TempDir()

	want := filepath.Join(dir, "fonts", "header.ttf")
	if got := cfg.FontPath(dir); got != want {
		t.Errorf("FontPath() = %q, want %q", got, want)
	}

	cfg.Header.Font = "/fonts/custom.otf"
	if got := cfg.FontPath(dir); got != "/fonts/custom.otf" {
		t.Errorf("FontPath() = %q, want configured font", got)
	}
}

func TestConfig_Palette(t *testing.T) {
	if diff := cmp.Diff(header.DefaultPalette, DefaultConfig().Palette()); diff != "" {
		t.Errorf("default palette mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.TTLSeconds = 90
	cfg.Limits.RenderTimeoutSeconds = 4
	if got := cfg.CacheTTL(); got != 90*time.Second {
		t.Errorf("CacheTTL() = %v, want 90s", got)
	}
	if got := cfg.RenderTimeout(); got != 4*time.Second {
		t.Errorf("RenderTimeout() = %v, want 4s", got)
	}
}

// ///////////////////////////////////////////////
// Config.Save round-trip
// ///////////////////////////////////////////////

func TestConfig_Save_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	orig := DefaultConfig()
	orig.Discord.Command = "!banner"
	orig.Header.Title = "WAR SEASON"
	orig.Header.Palette.Day = "#00ff00"
	orig.Log.Console = true

	if err := orig.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
		return
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
		return
	}
	if diff := cmp.Diff(orig, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// ///////////////////////////////////////////////
// ExampleConfig
// ///////////////////////////////////////////////

func TestExampleConfig(t *testing.T) {
	cfg := ExampleConfig()
	if cfg == nil {
		t.Fatal("ExampleConfig returned nil")
		return
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Discord.Token != "" {
		t.Error("example config must not carry a token")
	}
	// Verify it can be marshaled
	var buf strings.Builder
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		t.Fatalf("failed to marshal ExampleConfig: %v", err)
	}
}

// ///////////////////////////////////////////////
// ConfigDocs completeness
// ///////////////////////////////////////////////

func TestConfigDocsComplete(t *testing.T) {
	fields := collectTOMLFields(reflect.TypeOf(Config{}), "")
	for _, field := range fields {
		if _, ok := ConfigDocs[field]; !ok {
			t.Errorf("ConfigDocs missing entry for field %q", field)
		}
	}
}

// collectTOMLFields recursively walks a struct type and returns the
// dot-separated TOML key path for every tagged field. Used by
// TestConfigDocsComplete to verify that [ConfigDocs] covers all fields.
func collectTOMLFields(typ reflect.Type, prefix string) []string {
	var fields []string
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("toml")
		if tag == "" || tag == "-" {
			continue
		}
		// Strip options like ",omitempty"
		if idx := strings.Index(tag, ","); idx != -1 {
			tag = tag[:idx]
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct {
			fields = append(fields, collectTOMLFields(f.Type, path)...)
		} else {
			fields = append(fields, path)
		}
	}
	return fields
}

// ///////////////////////////////////////////////
// Marshal field order
// ///////////////////////////////////////////////

func TestConfigMarshalFieldOrder(t *testing.T) {
	cfg := DefaultConfig()
	var buf strings.Builder
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := buf.String()

	tests := []struct {
		name   string
		before string
		after  string
	}{
		{
			name:   "version before [discord]",
			before: "version",
			after:  "[discord]",
		},
		{
			name:   "[discord] before [header]",
			before: "[discord]",
			after:  "[header]",
		},
		{
			name:   "[header] before [header.palette]",
			before: "[header]",
			after:  "[header.palette]",
		},
		{
			name:   "[cache] before [log]",
			before: "[cache]",
			after:  "[log]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bIdx := strings.Index(out, tt.before)
			aIdx := strings.Index(out, tt.after)
			if bIdx < 0 || aIdx < 0 || bIdx > aIdx {
				t.Errorf("expected %q before %q in marshaled output", tt.before, tt.after)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// writeConfig writes a TOML config string to config.toml in dir for use
// by [Load] in test cases.
func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
}
