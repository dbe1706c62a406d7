package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	rootpkg "tools.zach/dev/aqbot"
	"tools.zach/dev/aqbot/internal/bot"
	"tools.zach/dev/aqbot/internal/config"
	"tools.zach/dev/aqbot/internal/fontfetch"
	"tools.zach/dev/aqbot/internal/logger"
	"tools.zach/dev/aqbot/internal/paths"
)

// ///////////////////////////////////////////////
// PID Management
// ///////////////////////////////////////////////

// pidToken generates a random 16-character hex token that proves ownership
// of the PID file, so removePID only deletes a file this instance wrote.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// writePID opens the PID file, locks it and writes "PID:TOKEN". The returned
// handle holds the lock and must stay open until removePID.
func writePID(dir paths.DataDir, token string) (*os.File, error) {
	f, err := os.OpenFile(dir.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock PID file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d:%s", os.Getpid(), token); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return f, nil
}

// removePID releases the lock and removes the PID file if it still holds
// token.
func removePID(dir paths.DataDir, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(dir.PID())
	if err != nil {
		return
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) == 2 && parts[1] == token {
		os.Remove(dir.PID())
	}
}

// checkStalePID reports whether another bot holds the PID file lock. A file
// left behind by a dead instance is removed.
func checkStalePID(dir paths.DataDir) (alive bool, pid int) {
	f, err := os.OpenFile(dir.PID(), os.O_RDWR, 0o600)
	if err != nil {
		return false, 0
	}

	if lockErr := lockFile(f); lockErr != nil {
		data, _ := os.ReadFile(dir.PID())
		f.Close()
		parts := strings.SplitN(string(data), ":", 2)
		if p, convErr := strconv.Atoi(parts[0]); convErr == nil {
			return true, p
		}
		return true, 0
	}

	// Lock acquired, so the previous instance is dead.
	_ = unlockFile(f)
	f.Close()
	os.Remove(dir.PID())
	return false, 0
}

// ///////////////////////////////////////////////
// First Run
// ///////////////////////////////////////////////

// ensureDefaultConfig writes the annotated default config on first run.
func ensureDefaultConfig(dir paths.DataDir) (bool, error) {
	if _, err := os.Stat(dir.Config()); !errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := os.WriteFile(dir.Config(), rootpkg.DefaultConfigTOML, 0o644); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}

// ensureFont installs header.font_fallback when no header font exists yet.
// A failed download is logged; the bot still runs and renders banners
// without text until a font is installed.
func ensureFont(ctx context.Context, cfg *config.Config, dir paths.DataDir, f *fontfetch.Fetcher, log *slog.Logger) {
	path := cfg.FontPath(dir.Root)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if cfg.Header.Font != "" {
		log.Warn("configured header font is missing, banners will have no text", "path", path)
		return
	}
	if cfg.Header.FontFallback == "" {
		log.Warn("no header font installed, banners will have no text", "path", path)
		return
	}
	spec, err := fontfetch.ParseSpec(cfg.Header.FontFallback)
	if err != nil {
		log.Warn("invalid font fallback", "font", cfg.Header.FontFallback, "error", err)
		return
	}
	family, err := f.Install(ctx, spec, path)
	if err != nil {
		log.Warn("font fallback download failed, banners will have no text", "font", spec.String(), "error", err)
		return
	}
	log.Info("installed fallback font", "font", spec.String(), "family", family)
}

// ///////////////////////////////////////////////
// Run Command
// ///////////////////////////////////////////////

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the Discord bot",
		Long: `Run the Discord bot until interrupted.

On first run a commented config.toml is written to the data directory and the
fallback header font is downloaded. The bot token is read from discord.token,
or from the environment variable named by discord.token_env (AQBOT_TOKEN).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()
			return a.runBot(ctx)
		},
	}
}

func (a *app) runBot(ctx context.Context) error {
	dir := a.paths()
	if err := os.MkdirAll(dir.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if alive, pid := checkStalePID(dir); alive {
		return fmt.Errorf("bot already running (pid %d)", pid)
	}

	created, err := ensureDefaultConfig(dir)
	if err != nil {
		fmt.Fprintf(a.stderr, "warning: %v\n", err)
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if a.logLevel != "" {
		level = logger.ParseLevel(a.logLevel)
	}
	opts := logger.Options{Path: dir.Log(), Level: level, MaxSizeMB: cfg.Log.MaxSizeMB}
	if cfg.Log.Console {
		opts.Console = a.stderr
	}
	log, logCloser, err := logger.NewLogger(opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("aqbot starting", "version", resolveVersion(), "data_dir", dir.Root, "first_run", created)

	if cfg.BotToken() == "" {
		return fmt.Errorf("%w (set discord.token or $%s)", bot.ErrEmptyToken, cfg.Discord.TokenEnv)
	}

	token := pidToken()
	pidFile, err := writePID(dir, token)
	if err != nil {
		return err
	}
	defer removePID(dir, token, pidFile)

	ensureFont(ctx, cfg, dir, fontfetch.New(fontfetch.WithLogger(log)), log)

	gen, err := newGenerator(cfg, dir.Root, log)
	if err != nil {
		return err
	}
	if err := bot.Run(ctx, cfg, gen, log); err != nil {
		logger.Fail(log, "bot stopped", "error", err)
		return err
	}
	log.Info("aqbot stopped")
	return nil
}
