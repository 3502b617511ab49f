package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
)

// syncMessage is the message command that pushes the slash commands again.
const syncMessage = "!sync"

// dmPermission keeps the commands out of direct messages.
var dmPermission = false

// commands returns the slash commands of the bot.
func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{configCmd, ticketsCmd, helpCmd}
}

// syncCommands replaces the registered commands. They are registered in the home guild when one is configured.
func syncCommands(a IApp) error {
	c := a.Config()

	registered, err := a.Session().ApplicationCommandBulkOverwrite(c.ApplicationID, c.HomeGuildID, commands())
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}

	scope := "global"
	if c.HomeGuildID != "" {
		scope = c.HomeGuildID
	}
	a.Log().Info("Slash commands synchronized",
		slog.Int("count", len(registered)),
		slog.String("scope", scope),
	)

	a.Notifier().Info(c.LogChannelID, "Slash commands synchronized with guilds")
	return nil
}

// syncMessageHandler lets the application owner push the slash commands from chat.
func syncMessageHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || strings.TrimSpace(m.Content) != syncMessage {
			return
		}

		l := a.Log().With(
			slog.String(logging.KeyUser, m.Author.ID),
			slog.String(logging.KeyGuild, m.GuildID),
		)

		if m.Author.ID != a.OwnerID() {
			l.Warn("Sync requested by non owner")
			if _, err := s.ChannelMessageSendEmbed(m.ChannelID, errorEmbed(messages.ErrUserOwnerOnly)); err != nil {
				l.Error("Error sending message", slog.String(logging.KeyError, err.Error()))
			}
			return
		}

		reply := successEmbed("Slash commands synchronized.")
		if err := syncCommands(a); err != nil {
			l.Error("Error synchronizing commands", slog.String(logging.KeyError, err.Error()))
			reply = errorEmbed(messages.ErrUserErrorProcessing)
		}

		if _, err := s.ChannelMessageSendEmbed(m.ChannelID, reply); err != nil {
			l.Error("Error sending message", slog.String(logging.KeyError, err.Error()))
		}
	}
}
