package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/oklahomer/go-sarah/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"tools.zach/dev/aqbot/internal/header"
)

// ErrRenderTimeout indicates a render that did not finish before the
// configured deadline.
var ErrRenderTimeout = errors.New("render timed out")

// Renderer produces PNG banners. [*header.Generator] satisfies it.
type Renderer interface {
	Generate(req header.Request) ([]byte, error)
}

// ///////////////////////////////////////////////
// Options
// ///////////////////////////////////////////////

// CommandOptions configures a [HeaderCommand].
type CommandOptions struct {
	// Trigger is the command word, e.g. ".aqheader".
	Trigger string
	// Width and Height are the banner size; zero selects the header defaults.
	Width, Height int
	// Allowed reports whether the command may run in a channel with the given
	// name. Nil allows every channel.
	Allowed func(channelName string) bool
	// RendersPerMinute and Burst throttle renders per channel.
	RendersPerMinute int
	Burst            int
	// CacheTTL keeps rendered banners for repeated requests. Zero disables
	// the cache.
	CacheTTL time.Duration
	// RenderTimeout bounds a single render.
	RenderTimeout time.Duration
	Logger        *slog.Logger
}

// ///////////////////////////////////////////////
// HeaderCommand
// ///////////////////////////////////////////////

// HeaderCommand renders a banner for
//
//	.aqheader <day> <#channel> <@role>
//
// and replies with it as a PNG attachment.
type HeaderCommand struct {
	opts     CommandOptions
	pattern  *regexp.Regexp
	renderer Renderer
	dir      Directory
	log      *slog.Logger

	cache *cache.Cache

	// limiters holds one token bucket per channel. An entry expires once an
	// untouched bucket would be full again, when a new one is equivalent.
	mu         sync.Mutex
	every      time.Duration
	limiterTTL time.Duration
	limiters   *cache.Cache
}

// NewHeaderCommand returns the header command. dir may be nil, in which case
// mentions cannot be resolved and only typed names work.
func NewHeaderCommand(r Renderer, dir Directory, opts CommandOptions) *HeaderCommand {
	if opts.RendersPerMinute <= 0 {
		opts.RendersPerMinute = 6
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 10 * time.Second
	}
	c := &HeaderCommand{
		opts:     opts,
		pattern:  regexp.MustCompile(`^` + regexp.QuoteMeta(opts.Trigger) + `(\s|$)`),
		renderer: r,
		dir:      dir,
		log:      opts.Logger,
	}
	c.every = time.Minute / time.Duration(opts.RendersPerMinute)
	c.limiterTTL = c.every * time.Duration(opts.Burst)
	c.limiters = cache.New(c.limiterTTL, max(c.limiterTTL, time.Minute))
	if c.log == nil {
		c.log = slog.Default()
	}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

// Identifier returns the command id shown in help output.
func (c *HeaderCommand) Identifier() string {
	return strings.TrimLeft(c.opts.Trigger, ".!/")
}

// Instruction returns the help text.
func (c *HeaderCommand) Instruction() string {
	return fmt.Sprintf("Input %s <day> <#channel> <@role> to post the alliance quest header.", c.opts.Trigger)
}

// Props builds the sarah command registration for c.
func (c *HeaderCommand) Props() (*sarah.CommandProps, error) {
	return sarah.NewCommandPropsBuilder().
		BotType(DISCORD).
		Identifier(c.Identifier()).
		MatchPattern(c.pattern).
		Func(c.Execute).
		Instruction(c.Instruction()).
		Build()
}

// Execute handles one invocation. Problems the user can fix are answered
// with a text reply; only internal failures are returned as errors.
func (c *HeaderCommand) Execute(ctx context.Context, input sarah.Input) (*sarah.CommandResponse, error) {
	in, ok := input.(*Input)
	if !ok {
		return nil, fmt.Errorf("%T is not a *bot.Input", input)
	}

	if !c.channelAllowed(in) {
		c.log.Debug("header command in disallowed channel", "channel_id", string(in.channelID))
		return nil, nil
	}

	req, err := c.parse(in)
	if err != nil {
		return NewResponse(input, err.Error())
	}

	if !c.limiter(in.channelID).Allow() {
		return NewResponse(input, "Too many headers in this channel, try again in a minute.")
	}

	renderID := uuid.NewString()
	log := c.log.With("render_id", renderID, "channel", req.ChannelName, "day", req.Day)

	data, cached, err := c.render(ctx, req)
	if err != nil {
		if errors.Is(err, header.ErrInvalidDay) || errors.Is(err, header.ErrInvalidDimensions) {
			return NewResponse(input, err.Error())
		}
		log.Error("header render failed", "error", err)
		return NewResponse(input, "Could not render the header, please try again later.")
	}
	log.Info("header posted", "cached", cached, "bytes", len(data))

	return NewResponse(input, &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        fmt.Sprintf("aq-header-day-%d.png", req.Day),
			ContentType: "image/png",
			Reader:      bytes.NewReader(data),
		}},
	})
}

// parse extracts the request from the message text.
func (c *HeaderCommand) parse(in *Input) (header.Request, error) {
	args := strings.Fields(strings.TrimSpace(sarah.StripMessage(c.pattern, in.Message())))
	if len(args) < 3 {
		return header.Request{}, fmt.Errorf("%w. Usage: %s <day> <#channel> <@role>", ErrUsage, c.opts.Trigger)
	}

	day, err := strconv.Atoi(args[0])
	if err != nil {
		return header.Request{}, fmt.Errorf("%w: day %q is not a number", ErrUsage, args[0])
	}
	channel, err := resolveChannel(c.dir, args[1])
	if err != nil {
		return header.Request{}, fmt.Errorf("%w: unknown channel %s", ErrUsage, args[1])
	}
	roleArg := strings.Join(args[2:], " ")
	role, err := resolveRole(c.dir, in.Event.GuildID, roleArg)
	if err != nil {
		return header.Request{}, fmt.Errorf("%w: unknown role %s", ErrUsage, roleArg)
	}
	if channel == "" || role == "" {
		return header.Request{}, fmt.Errorf("%w: channel and role must not be empty", ErrUsage)
	}

	return header.Request{
		Day:         day,
		ChannelName: channel,
		RoleName:    role,
		Width:       c.opts.Width,
		Height:      c.opts.Height,
	}.Normalize()
}

// channelAllowed checks the invoking channel against the allow-list. A
// channel whose name cannot be resolved is matched by id.
func (c *HeaderCommand) channelAllowed(in *Input) bool {
	if c.opts.Allowed == nil {
		return true
	}
	name := string(in.channelID)
	if c.dir != nil {
		if n, err := c.dir.ChannelName(name); err == nil {
			name = n
		}
	}
	return c.opts.Allowed(name)
}

// limiter returns the bucket of channel id and extends its lifetime.
func (c *HeaderCommand) limiter(id ChannelID) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	var l *rate.Limiter
	if v, ok := c.limiters.Get(string(id)); ok {
		l = v.(*rate.Limiter)
	} else {
		l = rate.NewLimiter(rate.Every(c.every), c.opts.Burst)
	}
	c.limiters.SetDefault(string(id), l)
	return l
}

type renderResult struct {
	data []byte
	err  error
}

// render returns the banner for req from the cache or the renderer. The
// renderer runs in its own goroutine so a slow render is abandoned at the
// deadline; its result is then dropped.
func (c *HeaderCommand) render(ctx context.Context, req header.Request) ([]byte, bool, error) {
	key := req.Key()
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.([]byte), true, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RenderTimeout)
	defer cancel()

	done := make(chan renderResult, 1)
	go func() {
		data, err := c.renderer.Generate(req)
		done <- renderResult{data, err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, false, fmt.Errorf("%w after %s", ErrRenderTimeout, c.opts.RenderTimeout)
		}
		return nil, false, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, false, res.err
		}
		if c.cache != nil {
			c.cache.SetDefault(key, res.data)
		}
		return res.data, false, nil
	}
}
