package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
)

const (
	helpCmdName = "help"

	commandsCmdName = "commands"
)

var helpCmd = &discordgo.ApplicationCommand{
	Name:         helpCmdName,
	Type:         discordgo.ChatApplicationCommand,
	DMPermission: &dmPermission,
	Description:  "Learn how to use the bot.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        commandsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Displays possible commands for the bot.",
		},
		{
			Name:        configCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "How to set the bot up for this server.",
		},
	},
}

// configHelp walks a server owner through the first configuration.
const configHelp = "1. The server owner runs `/config set` with a `log_channel` and an `admin`.\n" +
	"2. An admin adds ticket categories with `/config add ticket_category:<name>`. Missing channel categories are created.\n" +
	"3. Members open tickets with `/tickets create`. Each ticket gets a private channel.\n" +
	"4. Optionally cap open tickets per member with `/config limit`.\n\n" +
	"Removing an admin with `/config remove` does not revoke their access to tickets opened while they were an admin.\n" +
	"Errors are posted to the log channel. Use `/config view` to check the current setup."

func helpCmdController(_ IApp, sub string) (slashProcessor, error) {
	switch sub {
	case commandsCmdName:
		return helpCommandsCmd, nil
	case configCmdName:
		return helpConfigCmd, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", sub)
	}
}

func helpCommandsCmd(_ context.Context, _ IApp, i *interaction) error {
	return i.respondEmbed(commandsEmbed(commands()), false)
}

func helpConfigCmd(_ context.Context, _ IApp, i *interaction) error {
	return i.respondEmbed(embed("Setting Up", configHelp, messages.ColorInfo), false)
}

// commandsEmbed lists every sub command with its options.
func commandsEmbed(cmds []*discordgo.ApplicationCommand) *discordgo.MessageEmbed {
	e := embed("Help", "", messages.ColorInfo)

	for _, cmd := range cmds {
		for _, sub := range cmd.Options {
			if sub.Type != discordgo.ApplicationCommandOptionSubCommand {
				continue
			}

			usage := []string{fmt.Sprintf("/%s %s", cmd.Name, sub.Name)}
			for _, opt := range sub.Options {
				if opt.Required {
					usage = append(usage, fmt.Sprintf("`<%s>`", opt.Name))
				} else {
					usage = append(usage, fmt.Sprintf("`[%s]`", opt.Name))
				}
			}

			description := sub.Description
			if description == "" {
				description = "No description provided."
			}

			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
				Name:  strings.Join(usage, " "),
				Value: description,
			})
		}
	}
	return e
}
