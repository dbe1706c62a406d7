package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/oklahomer/go-sarah/v4"

	"tools.zach/dev/aqbot/internal/header"
	"tools.zach/dev/aqbot/internal/logger"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

type fakeRenderer struct {
	mu    sync.Mutex
	reqs  []header.Request
	err   error
	delay time.Duration
}

func (f *fakeRenderer) Generate(req header.Request) ([]byte, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + req.Key()), nil
}

func (f *fakeRenderer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeDirectory struct {
	channels map[string]string
	roles    map[string]string
}

func (d fakeDirectory) ChannelName(id string) (string, error) {
	if n, ok := d.channels[id]; ok {
		return n, nil
	}
	return "", fmt.Errorf("channel %s: %w", id, ErrNotFound)
}

func (d fakeDirectory) RoleName(guildID, id string) (string, error) {
	if n, ok := d.roles[guildID+"/"+id]; ok {
		return n, nil
	}
	return "", fmt.Errorf("role %s: %w", id, ErrNotFound)
}

var testDirectory = fakeDirectory{
	channels: map[string]string{"100": "warroom", "200": "general", "300": "bot-spam"},
	roles:    map[string]string{"guild-1/900": "Officers", "guild-1/901": "Quest Team"},
}

func newTestCommand(r Renderer, mutate func(*CommandOptions)) *HeaderCommand {
	opts := CommandOptions{
		Trigger:          ".aqheader",
		RendersPerMinute: 600,
		Burst:            100,
		CacheTTL:         time.Minute,
		RenderTimeout:    time.Second,
		Logger:           logger.Discard(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewHeaderCommand(r, testDirectory, opts)
}

func execute(t *testing.T, c *HeaderCommand, channelID, content string) *sarah.CommandResponse {
	t.Helper()
	in, err := MessageToInput(message(channelID, "user-1", content))
	if err != nil {
		t.Fatalf("MessageToInput: %v", err)
	}
	res, err := c.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute(%q): %v", content, err)
	}
	return res
}

func replyText(t *testing.T, res *sarah.CommandResponse) string {
	t.Helper()
	if res == nil {
		t.Fatal("expected a reply")
	}
	s, ok := res.Content.(string)
	if !ok {
		t.Fatalf("reply content is %T, want string", res.Content)
	}
	return s
}

func replyFile(t *testing.T, res *sarah.CommandResponse) *discordgo.File {
	t.Helper()
	if res == nil {
		t.Fatal("expected a reply")
	}
	send, ok := res.Content.(*discordgo.MessageSend)
	if !ok {
		t.Fatalf("reply content is %T (%v), want *discordgo.MessageSend", res.Content, res.Content)
	}
	if len(send.Files) != 1 {
		t.Fatalf("reply has %d files, want 1", len(send.Files))
	}
	return send.Files[0]
}

// ///////////////////////////////////////////////
// Command Tests
// ///////////////////////////////////////////////

func TestHeaderCommandParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    header.Request
	}{
		{
			name:    "mentions",
			content: ".aqheader 12 <#100> <@&900>",
			want:    header.Request{Day: 12, ChannelName: "warroom", RoleName: "Officers", Width: 700, Height: 150},
		},
		{
			name:    "typed names",
			content: ".aqheader 3 #raid @Raiders",
			want:    header.Request{Day: 3, ChannelName: "raid", RoleName: "Raiders", Width: 700, Height: 150},
		},
		{
			name:    "multi word role",
			content: ".aqheader 4 general @Quest Team",
			want:    header.Request{Day: 4, ChannelName: "general", RoleName: "Quest Team", Width: 700, Height: 150},
		},
		{
			name:    "extra whitespace",
			content: ".aqheader   7   <#200>   <@&901>  ",
			want:    header.Request{Day: 7, ChannelName: "general", RoleName: "Quest Team", Width: 700, Height: 150},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{}
			file := replyFile(t, execute(t, newTestCommand(r, nil), "100", tt.content))

			if diff := cmp.Diff([]header.Request{tt.want}, r.reqs); diff != "" {
				t.Errorf("rendered requests mismatch (-want +got):\n%s", diff)
			}
			if want := fmt.Sprintf("aq-header-day-%d.png", tt.want.Day); file.Name != want {
				t.Errorf("file name = %q, want %q", file.Name, want)
			}
			if file.ContentType != "image/png" {
				t.Errorf("content type = %q", file.ContentType)
			}
			body, _ := io.ReadAll(file.Reader)
			if string(body) != "png:"+tt.want.Key() {
				t.Errorf("attachment body = %q", body)
			}
		})
	}
}

func TestHeaderCommandUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no args", ".aqheader", "Usage"},
		{"missing role", ".aqheader 3 #raid", "Usage"},
		{"bad day", ".aqheader three #raid @Raiders", "not a number"},
		{"unknown channel mention", ".aqheader 3 <#999> @Raiders", "unknown channel"},
		{"unknown role mention", ".aqheader 3 #raid <@&999>", "unknown role <@&999>"},
		{"empty role", ".aqheader 3 #raid @", "must not be empty"},
		{"negative day", ".aqheader -1 #raid @Raiders", "invalid day"},
		{"day too large", ".aqheader 100000 #raid @Raiders", "invalid day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{}
			got := replyText(t, execute(t, newTestCommand(r, nil), "100", tt.content))
			if !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want it to contain %q", got, tt.want)
			}
			if r.calls() != 0 {
				t.Errorf("renderer called %d times for an invalid command", r.calls())
			}
		})
	}
}

func TestHeaderCommandChannelAllowList(t *testing.T) {
	r := &fakeRenderer{}
	c := newTestCommand(r, func(o *CommandOptions) {
		o.Allowed = func(name string) bool { return name == "bot-spam" || name == "555" }
	})

	if res := execute(t, c, "100", ".aqheader 1 #a @b"); res != nil {
		t.Errorf("disallowed channel got reply %v", res.Content)
	}
	replyFile(t, execute(t, c, "300", ".aqheader 1 #a @b"))
	// Unresolvable channels are matched by id.
	replyFile(t, execute(t, c, "555", ".aqheader 2 #a @b"))
	if r.calls() != 2 {
		t.Errorf("renderer calls = %d, want 2", r.calls())
	}
}

func TestHeaderCommandCache(t *testing.T) {
	r := &fakeRenderer{}
	c := newTestCommand(r, nil)

	replyFile(t, execute(t, c, "100", ".aqheader 5 #raid @Raiders"))
	replyFile(t, execute(t, c, "100", ".aqheader 5 raid Raiders"))
	if r.calls() != 1 {
		t.Errorf("renderer calls = %d, want 1 for an identical request", r.calls())
	}

	replyFile(t, execute(t, c, "100", ".aqheader 6 #raid @Raiders"))
	if r.calls() != 2 {
		t.Errorf("renderer calls = %d, want 2 after a new day", r.calls())
	}
}

func TestHeaderCommandCacheDisabled(t *testing.T) {
	r := &fakeRenderer{}
	c := newTestCommand(r, func(o *CommandOptions) { o.CacheTTL = 0 })

	replyFile(t, execute(t, c, "100", ".aqheader 5 #raid @Raiders"))
	replyFile(t, execute(t, c, "100", ".aqheader 5 #raid @Raiders"))
	if r.calls() != 2 {
		t.Errorf("renderer calls = %d, want 2 without a cache", r.calls())
	}
}

func TestHeaderCommandRateLimit(t *testing.T) {
	r := &fakeRenderer{}
	c := newTestCommand(r, func(o *CommandOptions) {
		o.RendersPerMinute = 1
		o.Burst = 2
		o.CacheTTL = 0
	})

	replyFile(t, execute(t, c, "100", ".aqheader 1 #a @b"))
	replyFile(t, execute(t, c, "100", ".aqheader 2 #a @b"))
	if got := replyText(t, execute(t, c, "100", ".aqheader 3 #a @b")); !strings.Contains(got, "Too many") {
		t.Errorf("third render reply = %q, want a throttle message", got)
	}
	// Limits are per channel.
	replyFile(t, execute(t, c, "200", ".aqheader 3 #a @b"))
}

func TestHeaderCommandLimitersExpire(t *testing.T) {
	c := newTestCommand(&fakeRenderer{}, func(o *CommandOptions) {
		o.RendersPerMinute = 2
		o.Burst = 3
	})

	first := c.limiter("100")
	if again := c.limiter("100"); again != first {
		t.Error("limiter of a channel was replaced while live")
	}
	c.limiter("200")

	if n := c.limiters.ItemCount(); n != 2 {
		t.Errorf("limiters = %d, want 2", n)
	}
	// A bucket left alone refills in Burst intervals; it may be dropped after.
	if want := 90 * time.Second; c.limiterTTL != want {
		t.Errorf("limiter ttl = %v, want %v", c.limiterTTL, want)
	}
	deadline := time.Now().Add(c.limiterTTL + time.Second).UnixNano()
	for id, item := range c.limiters.Items() {
		if item.Expiration == 0 || item.Expiration > deadline {
			t.Errorf("limiter %s expires at %d, want within %v", id, item.Expiration, c.limiterTTL)
		}
	}
}

func TestHeaderCommandRenderFailure(t *testing.T) {
	r := &fakeRenderer{err: errors.New("encode png: disk full")}
	got := replyText(t, execute(t, newTestCommand(r, nil), "100", ".aqheader 1 #a @b"))
	if !strings.Contains(got, "Could not render") {
		t.Errorf("reply = %q", got)
	}
	if strings.Contains(got, "disk full") {
		t.Error("internal error details leaked into the reply")
	}
}

func TestHeaderCommandRenderTimeout(t *testing.T) {
	r := &fakeRenderer{delay: 200 * time.Millisecond}
	c := newTestCommand(r, func(o *CommandOptions) { o.RenderTimeout = 20 * time.Millisecond })

	in, _ := MessageToInput(message("100", "user-1", ".aqheader 1 #a @b"))
	req, err := c.parse(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := c.render(context.Background(), req); !errors.Is(err, ErrRenderTimeout) {
		t.Errorf("render() error = %v, want ErrRenderTimeout", err)
	}
	// Let the abandoned render finish before the test exits.
	time.Sleep(250 * time.Millisecond)
}

func TestHeaderCommandCustomSize(t *testing.T) {
	r := &fakeRenderer{}
	c := newTestCommand(r, func(o *CommandOptions) { o.Width, o.Height = 400, 100 })
	replyFile(t, execute(t, c, "100", ".aqheader 1 #a @b"))
	if got := r.reqs[0]; got.Width != 400 || got.Height != 100 {
		t.Errorf("rendered size = %dx%d, want 400x100", got.Width, got.Height)
	}
}

func TestHeaderCommandProps(t *testing.T) {
	c := newTestCommand(&fakeRenderer{}, nil)
	props, err := c.Props()
	if err != nil {
		t.Fatalf("Props: %v", err)
	}
	if props == nil {
		t.Fatal("Props() returned nil")
	}
	if c.Identifier() != "aqheader" {
		t.Errorf("Identifier() = %q", c.Identifier())
	}
	if !strings.Contains(c.Instruction(), ".aqheader <day>") {
		t.Errorf("Instruction() = %q", c.Instruction())
	}

	for content, want := range map[string]bool{
		".aqheader 1 #a @b": true,
		".aqheader":         true,
		".aqheaders 1":      false,
		"hello .aqheader":   false,
	} {
		if got := c.pattern.MatchString(content); got != want {
			t.Errorf("pattern.MatchString(%q) = %v, want %v", content, got, want)
		}
	}
}

func TestHeaderCommandRejectsForeignInput(t *testing.T) {
	c := newTestCommand(&fakeRenderer{}, nil)
	in, _ := MessageToInput(message("100", "user-1", ".aqheader 1 #a @b"))
	if _, err := c.Execute(context.Background(), sarah.NewHelpInput(in)); err == nil {
		t.Error("expected an error for a non-Discord input")
	}
}

// ///////////////////////////////////////////////
// Mention Tests
// ///////////////////////////////////////////////

func TestResolveMentions(t *testing.T) {
	tests := []struct {
		name    string
		resolve func() (string, error)
		want    string
		wantErr bool
	}{
		{"channel mention", func() (string, error) { return resolveChannel(testDirectory, "<#200>") }, "general", false},
		{"channel typed", func() (string, error) { return resolveChannel(testDirectory, "#raid") }, "raid", false},
		{"channel bare", func() (string, error) { return resolveChannel(testDirectory, "raid") }, "raid", false},
		{"channel without directory", func() (string, error) { return resolveChannel(nil, "<#200>") }, "", true},
		{"role mention", func() (string, error) { return resolveRole(testDirectory, "guild-1", "<@&900>") }, "Officers", false},
		{"role wrong guild", func() (string, error) { return resolveRole(testDirectory, "guild-2", "<@&900>") }, "", true},
		{"role in dm", func() (string, error) { return resolveRole(testDirectory, "", "<@&900>") }, "", true},
		{"role typed", func() (string, error) { return resolveRole(testDirectory, "guild-1", "@Raiders") }, "Raiders", false},
		{"user mention is not a role", func() (string, error) { return resolveRole(testDirectory, "guild-1", "<@123>") }, "<@123>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolve()
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
