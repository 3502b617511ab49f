package main

import (
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
)

func guildJoinedHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Log().Info("Joined guild",
			slog.String(logging.KeyGuild, g.ID),
			slog.String("name", g.Name),
		)

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()
	}
}

func guildLeaveHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		// Outages also deliver a delete for guilds the bot is still in.
		if g.Unavailable {
			a.Log().Warn("Guild unavailable", slog.String(logging.KeyGuild, g.ID))
		} else {
			a.Log().Info("Left guild", slog.String(logging.KeyGuild, g.ID))
			a.Notifier().forget(g.ID)
		}

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()
	}
}
