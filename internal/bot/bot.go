package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	kasumi "github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"

	"tools.zach/dev/aqbot/internal/config"
	"tools.zach/dev/aqbot/internal/logger"
)

// Run registers the Discord bot and the header command with go-sarah and
// blocks until ctx is done. go-sarah keeps its registrations in package
// state, so Run must be called at most once per process.
func Run(ctx context.Context, cfg *config.Config, r Renderer, log *slog.Logger) error {
	RouteFrameworkLogs(log)

	adapter, err := NewAdapter(NewConfig(cfg), WithAdapterLogger(log))
	if err != nil {
		return err
	}

	cmd := NewHeaderCommand(r, adapter.Directory(), CommandOptions{
		Trigger:          cfg.Discord.Command,
		Width:            cfg.Header.Width,
		Height:           cfg.Header.Height,
		Allowed:          cfg.ChannelAllowed,
		RendersPerMinute: cfg.Limits.RendersPerMinute,
		Burst:            cfg.Limits.Burst,
		CacheTTL:         cfg.CacheTTL(),
		RenderTimeout:    cfg.RenderTimeout(),
		Logger:           log,
	})
	props, err := cmd.Props()
	if err != nil {
		return fmt.Errorf("build %s command: %w", cfg.Discord.Command, err)
	}

	sarah.RegisterBot(sarah.NewBot(adapter))
	sarah.RegisterCommandProps(props)

	if err := sarah.Run(ctx, sarah.NewConfig()); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}
	log.Info("bot running", "command", cfg.Discord.Command, "channels", cfg.Discord.Channels)

	<-ctx.Done()
	log.Info("bot stopping")
	return nil
}

// ///////////////////////////////////////////////
// Framework Logs
// ///////////////////////////////////////////////

// RouteFrameworkLogs sends go-sarah and discordgo log output to l.
func RouteFrameworkLogs(l *slog.Logger) {
	kasumi.SetLogger(slogBridge{l: l.With("component", "sarah")})

	dl := l.With("component", "discordgo")
	discordgo.Logger = func(msgL, _ int, format string, a ...interface{}) {
		dl.Log(context.Background(), discordLevel(msgL), fmt.Sprintf(format, a...))
	}
}

func discordLevel(msgL int) slog.Level {
	switch msgL {
	case discordgo.LogError:
		return slog.LevelError
	case discordgo.LogWarning:
		return slog.LevelWarn
	case discordgo.LogInformational:
		return slog.LevelInfo
	default:
		return logger.LevelTrace
	}
}

// slogBridge adapts *slog.Logger to the go-kasumi logger interface.
type slogBridge struct {
	l *slog.Logger
}

func (b slogBridge) Debug(args ...interface{}) { b.l.Debug(fmt.Sprint(args...)) }
func (b slogBridge) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
func (b slogBridge) Info(args ...interface{}) { b.l.Info(fmt.Sprint(args...)) }
func (b slogBridge) Infof(format string, args ...interface{}) {
	b.l.Info(fmt.Sprintf(format, args...))
}
func (b slogBridge) Warn(args ...interface{}) { b.l.Warn(fmt.Sprint(args...)) }
func (b slogBridge) Warnf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}
func (b slogBridge) Error(args ...interface{}) { b.l.Error(fmt.Sprint(args...)) }
func (b slogBridge) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}
