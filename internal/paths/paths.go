// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile        = "bot.pid"
	ConfigFile     = "config.toml"
	LogFile        = "bot.log"
	FontsDir       = "fonts"
	HeaderFontFile = "header.ttf"
	RendersDir     = "renders"
)

// Install constants.
const (
	BinaryName = "aqbot"
	DataDirRel = ".aqbot" // relative to $HOME
	// DataDirEnv overrides the data directory when set.
	DataDirEnv = "AQBOT_HOME"
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Fonts returns the full path to the downloaded fonts directory.
func (d DataDir) Fonts() string { return filepath.Join(d.Root, FontsDir) }

// HeaderFont returns the full path to the downloaded title font.
func (d DataDir) HeaderFont() string { return filepath.Join(d.Root, FontsDir, HeaderFontFile) }

// Renders returns the full path to the directory of saved renders.
func (d DataDir) Renders() string { return filepath.Join(d.Root, RendersDir) }

// Render returns the path of a saved render named name inside Renders.
// Only the base name of name is used.
func (d DataDir) Render(name string) string {
	return filepath.Join(d.Root, RendersDir, filepath.Base(name))
}
