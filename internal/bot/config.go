package bot

import (
	"github.com/bwmarrin/discordgo"

	"tools.zach/dev/aqbot/internal/config"
)

// Config holds the adapter settings.
type Config struct {
	// Token is the bot token used for authentication.
	Token string

	// HelpCommand is the exact message that produces the command list.
	HelpCommand string

	// AbortCommand is the exact message that cancels a pending conversation.
	AbortCommand string

	// Intents declares the gateway intents the bot requires.
	Intents discordgo.Intent
}

// DefaultIntents lets the bot read guild messages and resolve channel and
// role mentions from the state cache.
const DefaultIntents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// NewConfig returns the adapter settings for cfg.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Token:        cfg.BotToken(),
		HelpCommand:  cfg.Discord.HelpCommand,
		AbortCommand: cfg.Discord.AbortCommand,
		Intents:      DefaultIntents,
	}
}
