package main

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/config"
)

// botIntents are the gateway events the bot needs. Message content is read for the sync command.
const botIntents = discordgo.IntentGuilds |
	discordgo.IntentGuildMessages |
	discordgo.IntentMessageContent

func newSession(c *config.Config) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + c.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(botIntents)
	return dg, nil
}
