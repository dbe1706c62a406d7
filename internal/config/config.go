// Package config provides configuration loading and defaults for the aqbot
// header bot.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package handles Discord connection settings, banner layout and
// palette, render caching and throttling, and logging with sensible defaults.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/aqbot/internal/atomicfile"
	"tools.zach/dev/aqbot/internal/header"
	"tools.zach/dev/aqbot/internal/paths"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// DefaultTokenEnv is the environment variable consulted when discord.token
// is empty.
const DefaultTokenEnv = "AQBOT_TOKEN"

// DefaultFontFallback is the font downloaded by "aqbot font fetch" when no
// spec is given.
const DefaultFontFallback = "google:Oswald:700"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// Discord holds bot connection and command settings.
	Discord DiscordConfig `toml:"discord"`
	// Header holds banner layout, font and palette settings.
	Header HeaderConfig `toml:"header"`
	// Cache holds rendered-banner cache settings.
	Cache CacheConfig `toml:"cache"`
	// Limits holds per-channel throttling settings.
	Limits LimitsConfig `toml:"limits"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// DiscordConfig holds Discord connection and command settings.
type DiscordConfig struct {
	// Token is the bot token. Leave empty to read it from TokenEnv.
	Token string `toml:"token,omitempty"`
	// TokenEnv names the environment variable holding the bot token.
	TokenEnv string `toml:"token_env"`
	// Command is the trigger word of the header command.
	Command string `toml:"command"`
	// HelpCommand lists every registered command.
	HelpCommand string `toml:"help_command"`
	// AbortCommand cancels a pending conversation.
	AbortCommand string `toml:"abort_command"`
	// Channels lists glob patterns of channel names the bot answers in.
	Channels []string `toml:"channels"`
}

// HeaderConfig holds banner settings.
type HeaderConfig struct {
	// Font is the path of the title font. Empty uses the downloaded font in
	// the data directory.
	Font string `toml:"font,omitempty"`
	// FontFallback is the "google:Family:Weight" spec fetched by
	// "aqbot font fetch".
	FontFallback string `toml:"font_fallback"`
	// Title is the banner headline.
	Title string `toml:"title"`
	// Width is the default banner width in pixels.
	Width int `toml:"width"`
	// Height is the default banner height in pixels.
	Height int `toml:"height"`
	// Padding is the margin between the canvas edge and all text.
	Padding int `toml:"padding"`
	// Palette holds the banner colors.
	Palette PaletteConfig `toml:"palette"`
}

// PaletteConfig holds the banner colors as "#RRGGBB" strings.
type PaletteConfig struct {
	// BackgroundFrom is the top-left background color.
	BackgroundFrom string `toml:"background_from"`
	// BackgroundTo is the bottom-right background color.
	BackgroundTo string `toml:"background_to"`
	// Title is the headline color.
	Title string `toml:"title"`
	// Day is the day counter color.
	Day string `toml:"day"`
	// PillText is the label color of both pills.
	PillText string `toml:"pill_text"`
	// ChannelFrom is the top color of the channel pill.
	ChannelFrom string `toml:"channel_from"`
	// ChannelTo is the bottom color of the channel pill.
	ChannelTo string `toml:"channel_to"`
	// RoleFrom is the top color of the role pill.
	RoleFrom string `toml:"role_from"`
	// RoleTo is the bottom color of the role pill.
	RoleTo string `toml:"role_to"`
}

// CacheConfig holds rendered-banner cache settings.
type CacheConfig struct {
	// TTLSeconds is how long a rendered banner is reused (0 disables the cache).
	TTLSeconds int `toml:"ttl_seconds"`
}

// LimitsConfig holds render throttling settings.
type LimitsConfig struct {
	// RendersPerMinute is the sustained render rate allowed per channel.
	RendersPerMinute int `toml:"renders_per_minute"`
	// Burst is the number of renders a channel may issue back to back.
	Burst int `toml:"burst"`
	// RenderTimeoutSeconds bounds a single render.
	RenderTimeoutSeconds int `toml:"render_timeout_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
	// Console also writes log lines to stderr.
	Console bool `toml:"console"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	p := header.DefaultPalette
	return &Config{
		Version: CurrentVersion,
		Discord: DiscordConfig{
			TokenEnv:     DefaultTokenEnv,
			Command:      ".aqheader",
			HelpCommand:  ".help",
			AbortCommand: ".abort",
			Channels:     []string{"*"},
		},
		Header: HeaderConfig{
			FontFallback: DefaultFontFallback,
			Title:        header.DefaultTitle,
			Width:        header.DefaultWidth,
			Height:       header.DefaultHeight,
			Padding:      header.DefaultPadding,
			Palette: PaletteConfig{
				BackgroundFrom: p.BackgroundFrom,
				BackgroundTo:   p.BackgroundTo,
				Title:          p.Title,
				Day:            p.Day,
				PillText:       p.PillText,
				ChannelFrom:    p.ChannelFrom,
				ChannelTo:      p.ChannelTo,
				RoleFrom:       p.RoleFrom,
				RoleTo:         p.RoleTo,
			},
		},
		Cache: CacheConfig{
			TTLSeconds: 600,
		},
		Limits: LimitsConfig{
			RendersPerMinute:     6,
			Burst:                3,
			RenderTimeoutSeconds: 10,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// Example Configuration
// ///////////////////////////////////////////////

// ExampleConfig returns a Config suitable for generating config.default.toml.
// For this project all defaults are good examples.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if v := PeekVersion(data); v > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than this build supports (%d)", v, CurrentVersion)
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "key", key.String())
	}
	cfg.Version = CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	for name, cmd := range map[string]string{
		"command":       c.Discord.Command,
		"help_command":  c.Discord.HelpCommand,
		"abort_command": c.Discord.AbortCommand,
	} {
		if cmd == "" || strings.ContainsAny(cmd, " \t\n") {
			return fmt.Errorf("invalid discord.%s %q: must be a single non-empty word", name, cmd)
		}
	}
	if c.Discord.Command == c.Discord.HelpCommand || c.Discord.Command == c.Discord.AbortCommand {
		return fmt.Errorf("discord.command %q collides with help or abort command", c.Discord.Command)
	}
	for _, pattern := range c.Discord.Channels {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid discord.channels pattern %q", pattern)
		}
	}

	h := c.Header
	if h.Width < 0 || h.Width > header.MaxDimension || h.Height < 0 || h.Height > header.MaxDimension {
		return fmt.Errorf("header size %dx%d out of range: each side must be 0..%d", h.Width, h.Height, header.MaxDimension)
	}
	if h.Padding < 0 {
		return fmt.Errorf("header.padding must be >= 0, got %d", h.Padding)
	}
	if _, err := c.Palette().Resolve(); err != nil {
		return fmt.Errorf("header.%w", err)
	}

	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must be >= 0, got %d", c.Cache.TTLSeconds)
	}
	if c.Limits.RendersPerMinute <= 0 {
		return fmt.Errorf("limits.renders_per_minute must be > 0, got %d", c.Limits.RendersPerMinute)
	}
	if c.Limits.Burst <= 0 {
		return fmt.Errorf("limits.burst must be > 0, got %d", c.Limits.Burst)
	}
	if c.Limits.RenderTimeoutSeconds <= 0 {
		return fmt.Errorf("limits.render_timeout_seconds must be > 0, got %d", c.Limits.RenderTimeoutSeconds)
	}

	return nil
}

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

// BotToken returns the configured bot token, falling back to the
// environment variable named by discord.token_env.
func (c *Config) BotToken() string {
	if c.Discord.Token != "" {
		return c.Discord.Token
	}
	if c.Discord.TokenEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.Discord.TokenEnv))
}

// ChannelAllowed reports whether the bot answers in the named channel.
// An empty allow-list answers nowhere.
func (c *Config) ChannelAllowed(name string) bool {
	for _, pattern := range c.Discord.Channels {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			slog.Warn("invalid glob pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// FontPath returns the title font location: header.font when set, otherwise
// the downloaded font in the data directory.
func (c *Config) FontPath(dataDir string) string {
	if c.Header.Font != "" {
		return c.Header.Font
	}
	return paths.DataDir{Root: dataDir}.HeaderFont()
}

// Palette converts the configured colors to a [header.Palette].
func (c *Config) Palette() header.Palette {
	p := c.Header.Palette
	return header.Palette{
		BackgroundFrom: p.BackgroundFrom,
		BackgroundTo:   p.BackgroundTo,
		Title:          p.Title,
		Day:            p.Day,
		PillText:       p.PillText,
		ChannelFrom:    p.ChannelFrom,
		ChannelTo:      p.ChannelTo,
		RoleFrom:       p.RoleFrom,
		RoleTo:         p.RoleTo,
	}
}

// CacheTTL returns the render cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RenderTimeout returns the deadline of a single render.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Limits.RenderTimeoutSeconds) * time.Second
}
