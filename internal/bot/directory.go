package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ErrNotFound indicates a channel or role that the directory cannot resolve.
var ErrNotFound = errors.New("not found")

// Directory resolves Discord ids to display names.
type Directory interface {
	ChannelName(channelID string) (string, error)
	RoleName(guildID, roleID string) (string, error)
}

// SessionDirectory resolves names from the session state cache, falling back
// to the REST API when the state has not seen the object yet.
type SessionDirectory struct {
	s *discordgo.Session
}

var _ Directory = (*SessionDirectory)(nil)

// NewSessionDirectory returns a Directory over s.
func NewSessionDirectory(s *discordgo.Session) *SessionDirectory {
	return &SessionDirectory{s: s}
}

// ChannelName returns the name of channelID.
func (d *SessionDirectory) ChannelName(channelID string) (string, error) {
	if d.s.State != nil {
		if ch, err := d.s.State.Channel(channelID); err == nil {
			return ch.Name, nil
		}
	}
	ch, err := d.s.Channel(channelID)
	if err != nil {
		return "", fmt.Errorf("channel %s: %w", channelID, err)
	}
	return ch.Name, nil
}

// RoleName returns the name of roleID in guildID.
func (d *SessionDirectory) RoleName(guildID, roleID string) (string, error) {
	if d.s.State != nil {
		if r, err := d.s.State.Role(guildID, roleID); err == nil {
			return r.Name, nil
		}
	}
	roles, err := d.s.GuildRoles(guildID)
	if err != nil {
		return "", fmt.Errorf("roles of guild %s: %w", guildID, err)
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r.Name, nil
		}
	}
	return "", fmt.Errorf("role %s: %w", roleID, ErrNotFound)
}

// ///////////////////////////////////////////////
// Mentions
// ///////////////////////////////////////////////

var (
	channelMentionRe = regexp.MustCompile(`^<#(\d+)>$`)
	roleMentionRe    = regexp.MustCompile(`^<@&(\d+)>$`)
)

// resolveChannel turns a channel argument into a bare name. A <#id> mention
// is looked up in dir; anything else is used as typed without a leading '#'.
func resolveChannel(dir Directory, arg string) (string, error) {
	if m := channelMentionRe.FindStringSubmatch(arg); m != nil {
		if dir == nil {
			return "", fmt.Errorf("channel %s: %w", m[1], ErrNotFound)
		}
		return dir.ChannelName(m[1])
	}
	return strings.TrimPrefix(arg, "#"), nil
}

// resolveRole turns a role argument into a bare name. A <@&id> mention is
// looked up in dir; anything else is used as typed without a leading '@'.
func resolveRole(dir Directory, guildID, arg string) (string, error) {
	if m := roleMentionRe.FindStringSubmatch(arg); m != nil {
		if dir == nil || guildID == "" {
			return "", fmt.Errorf("role %s: %w", m[1], ErrNotFound)
		}
		return dir.RoleName(guildID, m[1])
	}
	return strings.TrimPrefix(arg, "@"), nil
}
