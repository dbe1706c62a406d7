package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "header.palette.day")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate the
// generated config.default.toml with inline comments and alternative examples.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// ── Discord ──────────────────────────────────────────────────
	"discord.token": {
		Comment: "Bot token. Prefer leaving this empty and exporting the variable named by token_env.",
		Alternatives: []string{
			`token = "MTA4..."`,
		},
	},
	"discord.token_env": {
		Comment: "Environment variable read when token is empty.",
	},
	"discord.command": {
		Comment: "Trigger of the header command.\nUsage: .aqheader <day> <#channel> <@role>",
		Alternatives: []string{
			`command = "!header"`,
		},
	},
	"discord.help_command": {
		Comment: "Lists the available commands.",
	},
	"discord.abort_command": {
		Comment: "Cancels a pending conversation.",
	},
	"discord.channels": {
		Comment: "Channel names the bot answers in. Glob patterns supported.",
		Alternatives: []string{
			`channels = ["bot-*", "warroom"]`,
		},
	},

	// ── Header ───────────────────────────────────────────────────
	"header.font": {
		Comment: "Title font file (TTF, OTF, WOFF or WOFF2).\nLeave empty to use the font downloaded by \"aqbot font fetch\".\nWithout a usable font, banners render without text.",
		Alternatives: []string{
			`font = "/usr/share/fonts/truetype/oswald/Oswald-Bold.ttf"`,
		},
	},
	"header.font_fallback": {
		Comment: "Font downloaded by \"aqbot font fetch\" when no spec is given.\nFormat: google:Family:Weight",
		Alternatives: []string{
			`font_fallback = "google:Bebas Neue:400"`,
		},
	},
	"header.title": {
		Comment: "Banner headline.",
	},
	"header.width": {
		Comment: "Default banner size in pixels, at most 4096 per side. 0 uses 700x150.",
	},
	"header.height": {},
	"header.padding": {
		Comment: "Margin between the canvas edge and all text, in pixels.",
	},

	// ── Palette ──────────────────────────────────────────────────
	"header.palette": {
		Comment: "Banner colors as #RRGGBB.",
	},
	"header.palette.background_from": {
		Comment: "Diagonal background gradient, top-left to bottom-right.",
	},
	"header.palette.background_to": {},
	"header.palette.title": {
		Comment: "Headline color.",
	},
	"header.palette.day": {
		Comment: "Day counter color.",
	},
	"header.palette.pill_text": {
		Comment: "Label color of both pills.",
	},
	"header.palette.channel_from": {
		Comment: "Vertical fill of the #channel pill. The glow uses channel_from.",
	},
	"header.palette.channel_to": {},
	"header.palette.role_from": {
		Comment: "Vertical fill of the @role pill. The glow uses role_from.",
	},
	"header.palette.role_to": {},

	// ── Cache ────────────────────────────────────────────────────
	"cache.ttl_seconds": {
		Comment: "How long a rendered banner is reused for an identical request.\n0 disables the cache.",
	},

	// ── Limits ───────────────────────────────────────────────────
	"limits.renders_per_minute": {
		Comment: "Sustained renders allowed per channel.",
	},
	"limits.burst": {
		Comment: "Renders a channel may request back to back before throttling starts.",
	},
	"limits.render_timeout_seconds": {
		Comment: "Deadline of a single render.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
	"log.console": {
		Comment: "Also write log lines to stderr.",
	},
}
