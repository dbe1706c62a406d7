// Package bot connects the header generator to Discord. It provides a
// go-sarah adapter over discordgo and the header command that replies with a
// rendered banner attachment.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-sarah/v4"
)

const (
	// DISCORD is the sarah.BotType of this adapter.
	DISCORD sarah.BotType = "discord"
)

// session is the subset of *discordgo.Session used by the Adapter.
type session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelID is a Discord channel used as sarah.OutputDestination.
type ChannelID string

var _ sarah.OutputDestination = ChannelID("")

// ///////////////////////////////////////////////
// Adapter
// ///////////////////////////////////////////////

// AdapterOption configures an [Adapter].
type AdapterOption func(adapter *Adapter)

// WithSession injects a pre-configured session instead of creating one from
// Config.Token.
func WithSession(s *discordgo.Session) AdapterOption {
	return func(adapter *Adapter) {
		adapter.session = s
		adapter.discord = s
	}
}

// WithAdapterLogger sets the logger.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(adapter *Adapter) { adapter.log = l }
}

// Adapter is a sarah.Adapter for Discord.
type Adapter struct {
	config  *Config
	session session
	// discord is the concrete session when one exists; nil with test fakes.
	discord *discordgo.Session
	log     *slog.Logger
}

var _ sarah.Adapter = (*Adapter)(nil)

// NewAdapter creates an Adapter from config.
func NewAdapter(config *Config, options ...AdapterOption) (*Adapter, error) {
	adapter := &Adapter{
		config: config,
		log:    slog.Default(),
	}
	for _, opt := range options {
		opt(adapter)
	}

	if adapter.session == nil {
		if config.Token == "" {
			return nil, ErrEmptyToken
		}
		s, err := discordgo.New("Bot " + config.Token)
		if err != nil {
			return nil, fmt.Errorf("create discord session: %w", err)
		}
		s.Identify.Intents = config.Intents
		adapter.session = s
		adapter.discord = s
	}
	return adapter, nil
}

// BotType returns [DISCORD].
func (a *Adapter) BotType() sarah.BotType {
	return DISCORD
}

// Directory returns a name resolver backed by the adapter's session, or nil
// when the adapter runs on an injected test session.
func (a *Adapter) Directory() Directory {
	if a.discord == nil {
		return nil
	}
	return NewSessionDirectory(a.discord)
}

// Run opens the gateway connection and blocks until ctx is done.
func (a *Adapter) Run(ctx context.Context, enqueueInput func(sarah.Input) error, notifyErr func(error)) {
	a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		var self string
		if s != nil && s.State != nil && s.State.User != nil {
			self = s.State.User.ID
		}
		a.handleMessage(self, m, enqueueInput)
	})

	if err := a.session.Open(); err != nil {
		notifyErr(sarah.NewBotNonContinuableError(fmt.Sprintf("open discord session: %s", err.Error())))
		return
	}
	a.log.Info("discord session open")

	<-ctx.Done()

	if err := a.session.Close(); err != nil {
		a.log.Error("failed to close discord session", "error", err)
		return
	}
	a.log.Info("discord session closed")
}

// handleMessage converts m and routes it to enqueueInput. Messages sent by
// selfID are dropped.
func (a *Adapter) handleMessage(selfID string, m *discordgo.MessageCreate, enqueueInput func(sarah.Input) error) {
	input, err := MessageToInput(m)
	if err != nil {
		a.log.Debug("skipping message", "error", err)
		return
	}
	if selfID != "" && m.Author.ID == selfID {
		return
	}

	var enqueueErr error
	trimmed := strings.TrimSpace(input.Message())
	switch {
	case a.config.HelpCommand != "" && trimmed == a.config.HelpCommand:
		enqueueErr = enqueueInput(sarah.NewHelpInput(input))
	case a.config.AbortCommand != "" && trimmed == a.config.AbortCommand:
		enqueueErr = enqueueInput(sarah.NewAbortInput(input))
	default:
		enqueueErr = enqueueInput(input)
	}
	if enqueueErr != nil {
		a.log.Error("failed to enqueue input", "channel_id", m.ChannelID, "error", enqueueErr)
	}
}

// SendMessage delivers output to its Discord channel.
func (a *Adapter) SendMessage(_ context.Context, output sarah.Output) {
	destination, ok := output.Destination().(ChannelID)
	if !ok {
		a.log.Error("unexpected output destination", "destination", fmt.Sprintf("%#v", output.Destination()))
		return
	}
	channelID := string(destination)

	switch content := output.Content().(type) {
	case string:
		if _, err := a.session.ChannelMessageSend(channelID, content); err != nil {
			a.log.Error("failed to send message", "channel_id", channelID, "error", err)
		}

	case *discordgo.MessageSend:
		if _, err := a.session.ChannelMessageSendComplex(channelID, content); err != nil {
			a.log.Error("failed to send message", "channel_id", channelID, "files", len(content.Files), "error", err)
		}

	case *sarah.CommandHelps:
		lines := make([]string, 0, len(*content))
		for _, h := range *content {
			lines = append(lines, fmt.Sprintf("**%s**: %s", h.Identifier, h.Instruction))
		}
		if _, err := a.session.ChannelMessageSend(channelID, strings.Join(lines, "\n")); err != nil {
			a.log.Error("failed to send help", "channel_id", channelID, "error", err)
		}

	default:
		a.log.Warn("unexpected output content", "content", fmt.Sprintf("%T", output.Content()))
	}
}

// ///////////////////////////////////////////////
// Input
// ///////////////////////////////////////////////

// Input is a received Discord message.
type Input struct {
	Event     *discordgo.MessageCreate
	senderKey string
	text      string
	sentAt    time.Time
	channelID ChannelID
}

var _ sarah.Input = (*Input)(nil)

// SenderKey identifies the sender within the channel.
func (i *Input) SenderKey() string {
	return i.senderKey
}

// Message returns the message text.
func (i *Input) Message() string {
	return i.text
}

// SentAt returns when the message was sent.
func (i *Input) SentAt() time.Time {
	return i.sentAt
}

// ReplyTo returns the channel the message was received in.
func (i *Input) ReplyTo() sarah.OutputDestination {
	return i.channelID
}

// MessageToInput converts a message event to *Input.
func MessageToInput(m *discordgo.MessageCreate) (*Input, error) {
	if m == nil || m.Message == nil || m.Author == nil {
		return nil, ErrNoAuthor
	}
	return &Input{
		Event:     m,
		senderKey: fmt.Sprintf("%s_%s", m.ChannelID, m.Author.ID),
		text:      m.Content,
		sentAt:    m.Timestamp,
		channelID: ChannelID(m.ChannelID),
	}, nil
}

// NewResponse wraps content as a command response to input.
func NewResponse(input sarah.Input, content any) (*sarah.CommandResponse, error) {
	if _, ok := input.(*Input); !ok {
		return nil, fmt.Errorf("%T is not a *bot.Input", input)
	}
	return &sarah.CommandResponse{Content: content}, nil
}
