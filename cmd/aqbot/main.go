// Package main implements aqbot, the alliance-quest header bot. It runs the
// Discord bot and offers offline commands to render, preview and set up the
// header banner.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"tools.zach/dev/aqbot/internal/config"
	"tools.zach/dev/aqbot/internal/header"
	"tools.zach/dev/aqbot/internal/logger"
	"tools.zach/dev/aqbot/internal/paths"
	"tools.zach/dev/aqbot/internal/typeface"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags, e.g.
// -ldflags "-X main.version=0.1.0".
//
// Without ldflags, resolveVersion falls back to the VCS info embedded by the
// Go toolchain.
var version = "dev"

// resolveVersion returns the ldflags version, or "dev+<hash>" built from the
// embedded VCS revision and dirty state.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns $AQBOT_HOME, or ~/.aqbot. Falls back to ./.aqbot
// when the home directory cannot be determined.
func defaultDataDir() string {
	if dir := os.Getenv(paths.DataDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Root Command
// ///////////////////////////////////////////////

// app carries the global flags shared by every subcommand.
type app struct {
	dataDir  string
	logLevel string
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) paths() paths.DataDir {
	return paths.DataDir{Root: a.dataDir}
}

// loadConfig reads the config from the data directory. A missing file
// yields the defaults.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.dataDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger returns a console logger for the offline commands. The level is
// --log-level when given, otherwise warn so normal output stays clean.
func (a *app) cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if a.logLevel != "" {
		level = logger.ParseLevel(a.logLevel)
	}
	return slog.New(logger.NewHandler(a.stderr, level))
}

// newGenerator builds the header generator described by cfg. The font is
// loaded lazily on first render from header.font, falling back to the font
// downloaded into the data directory.
func newGenerator(cfg *config.Config, dataDir string, log *slog.Logger) (*header.Generator, error) {
	colors, err := cfg.Palette().Resolve()
	if err != nil {
		return nil, fmt.Errorf("header palette: %w", err)
	}
	load := typeface.FileLoader(cfg.FontPath(dataDir))
	if cfg.Header.Font != "" {
		load = typeface.FirstOf(load, typeface.FileLoader(paths.DataDir{Root: dataDir}.HeaderFont()))
	}
	fonts := typeface.NewCache(load, typeface.WithLogger(log))
	return header.NewGenerator(fonts,
		header.WithColors(colors),
		header.WithTitle(cfg.Header.Title),
		header.WithPadding(cfg.Header.Padding),
		header.WithLogger(log),
	), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           paths.BinaryName,
		Short:         "Alliance quest header bot",
		Long:          "aqbot posts procedurally generated alliance quest header banners to Discord.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       resolveVersion(),
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", defaultDataDir(), "Data directory for config, fonts, renders and logs")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(a),
		newRenderCmd(a),
		newPreviewCmd(a),
		newFontCmd(a),
		newLogsCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.stdout, paths.BinaryName, resolveVersion())
			return err
		},
	}
}

func newLogsCmd(a *app) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the bot log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := logger.ReadTail(a.paths().Log(), lines)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintln(a.stdout, out)
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to print")
	return cmd
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
