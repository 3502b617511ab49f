package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
)

const (
	// configCmdName is the command for all configuration commands.
	configCmdName = "config"

	setCmdName    = "set"
	viewCmdName   = "view"
	addCmdName    = "add"
	removeCmdName = "remove"
	delCmdName    = "del"
	clearCmdName  = "clear"
	limitCmdName  = "limit"

	logChannelOptName     = "log_channel"
	adminOptName          = "admin"
	ticketCategoryOptName = "ticket_category"
	maxTicketsOptName     = "max_tickets"
)

var (
	minTickets = float64(0)

	// removeCmdOptions are shared by remove and its del alias.
	removeCmdOptions = []*discordgo.ApplicationCommandOption{
		{
			Name:        adminOptName,
			Type:        discordgo.ApplicationCommandOptionMentionable,
			Description: "The user or role to remove from the admins.",
		},
		{
			Name:         ticketCategoryOptName,
			Type:         discordgo.ApplicationCommandOptionString,
			Description:  "The ticket category to remove.",
			Autocomplete: true,
		},
	}

	// configCmd is the command for all configuration commands.
	configCmd = &discordgo.ApplicationCommand{
		Name:         configCmdName,
		Type:         discordgo.ChatApplicationCommand,
		DMPermission: &dmPermission,
		Description:  "Configure the bot for this server.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        setCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Set a configuration option for the server.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         logChannelOptName,
						Type:         discordgo.ApplicationCommandOptionChannel,
						Description:  "The channel errors and notices are posted to.",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
					{
						Name:        adminOptName,
						Type:        discordgo.ApplicationCommandOptionMentionable,
						Description: "Replace all admins with this user or role.",
					},
				},
			},
			{
				Name:        viewCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "View the current server configuration.",
			},
			{
				Name:        addCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Add an admin or a ticket category.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        adminOptName,
						Type:        discordgo.ApplicationCommandOptionMentionable,
						Description: "The user or role to add to the admins.",
					},
					{
						Name:        ticketCategoryOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The name of the channel category tickets are created in.",
						MaxLength:   100,
					},
				},
			},
			{
				Name:        removeCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Remove an admin or a ticket category.",
				Options:     removeCmdOptions,
			},
			{
				Name:        delCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Alias of remove.",
				Options:     removeCmdOptions,
			},
			{
				Name:        clearCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Clear the admins and the log channel.",
			},
			{
				Name:        limitCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Limit the open tickets a member may have. 0 removes the limit.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        maxTicketsOptName,
						Type:        discordgo.ApplicationCommandOptionInteger,
						Description: "The maximum number of open tickets per member.",
						Required:    true,
						MinValue:    &minTickets,
					},
				},
			},
		},
	}
)

func configCmdController(_ IApp, sub string) (slashProcessor, error) {
	switch sub {
	case setCmdName:
		return setConfigCmd, nil
	case viewCmdName:
		return viewConfigCmd, nil
	case addCmdName:
		return addConfigCmd, nil
	case removeCmdName, delCmdName:
		return removeConfigCmd, nil
	case clearCmdName:
		return clearConfigCmd, nil
	case limitCmdName:
		return limitConfigCmd, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", sub)
	}
}

func subOptions(i *interaction) options {
	opt := subCommand(i.ApplicationCommandData())
	if opt == nil {
		return options{}
	}
	return optionsOf(opt.Options)
}

func setConfigCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	opts := subOptions(i)
	res, err := a.Service().SetConfig(ctx, c, &ticketing.SetConfigRequest{
		LogChannelID: opts.text(logChannelOptName),
		AdminID:      opts.text(adminOptName),
	}, &interactionConfirmer{c: a.Confirmations(), i: i})
	if err != nil {
		return err
	}

	// Confirmation results follow an ephemeral prompt and stay private.
	private := res.Outcome == ticketing.OutcomeCancelled || res.Outcome == ticketing.OutcomeTimedOut
	return i.respondEmbed(setConfigEmbed(res), private)
}

func viewConfigCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	cfg, err := a.Service().ViewConfig(ctx, c)
	if err != nil {
		return err
	}
	return i.respondEmbed(configEmbed(cfg), false)
}

func addConfigCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	opts := subOptions(i)
	req := &ticketing.AddConfigRequest{
		AdminID:      opts.text(adminOptName),
		CategoryName: strings.TrimSpace(opts.text(ticketCategoryOptName)),
	}

	// Creating a channel category can take a while. The deferral is private so that a rejection is too.
	if req.CategoryName != "" {
		if err := i.deferReply(true); err != nil {
			return err
		}
	}

	res, err := a.Service().AddConfig(ctx, c, req)
	if err != nil {
		return err
	}
	return i.respondEmbed(addConfigEmbed(res), false)
}

func removeConfigCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	opts := subOptions(i)
	res, err := a.Service().RemoveConfig(ctx, c, &ticketing.RemoveConfigRequest{
		AdminID:    opts.text(adminOptName),
		CategoryID: opts.text(ticketCategoryOptName),
	})
	if err != nil {
		return err
	}
	return i.respondEmbed(removeConfigEmbed(res), false)
}

func clearConfigCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	if err := a.Service().ClearConfig(ctx, c); err != nil {
		return err
	}
	return i.respondEmbed(embed("Configuration Cleared", "The admins and the log channel have been cleared.", messages.ColorSuccess), false)
}

func limitConfigCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	limit, err := a.Service().SetTicketLimit(ctx, c, subOptions(i).integer(maxTicketsOptName, -1))
	if err != nil {
		return err
	}

	if limit == nil {
		return i.respondEmbed(embed("Ticket Limit Removed", "Members may open any number of tickets.", messages.ColorSuccess), false)
	}
	return i.respondEmbed(embed("Ticket Limit Set", fmt.Sprintf("Members may have at most **%d** open tickets.", *limit), messages.ColorSuccess), false)
}

func setConfigEmbed(res *ticketing.SetConfigResult) *discordgo.MessageEmbed {
	switch res.Outcome {
	case ticketing.OutcomeCreated:
		return embed("Configuration Set", "Configuration options have been successfully set.", messages.ColorSuccess)
	case ticketing.OutcomeAdminsReplaced:
		return embed("Admins Updated", fmt.Sprintf("All admins have been replaced with %s.", mention(res.AdminID)), messages.ColorSuccess)
	case ticketing.OutcomeCancelled:
		return embed("Operation Cancelled", "No changes have been made to the admins.", messages.ColorError)
	case ticketing.OutcomeTimedOut:
		return embed("Operation Timed Out", "You took too long to respond. No changes have been made.", messages.ColorError)
	case ticketing.OutcomeLogChannelAlreadySet:
		return embed("Log Channel Already Set", fmt.Sprintf("Log channel is already set to <#%s>.", res.LogChannelID), messages.ColorWarning)
	case ticketing.OutcomeLogChannelUpdated:
		return embed("Log Channel Updated", fmt.Sprintf("Log channel was <#%s>. Updated to <#%s>.", res.PreviousLogChannelID, res.LogChannelID), messages.ColorSuccess)
	case ticketing.OutcomeLogChannelSet:
		return embed("Log Channel Set", fmt.Sprintf("Log channel has been set to <#%s>.", res.LogChannelID), messages.ColorSuccess)
	default:
		return embed("Configuration Unchanged", "No options were given. Nothing has been changed.", messages.ColorInfo)
	}
}

func configEmbed(cfg *entities.GuildConfig) *discordgo.MessageEmbed {
	logChannel := "Not set"
	if cfg.LogChannelID != nil && *cfg.LogChannelID != "" {
		logChannel = fmt.Sprintf("<#%s>", *cfg.LogChannelID)
	}

	admins := "None"
	if len(cfg.AdminIDs) > 0 {
		m := make([]string, len(cfg.AdminIDs))
		for n, id := range cfg.AdminIDs {
			m[n] = mention(id)
		}
		admins = strings.Join(m, ", ")
	}

	categories := "None"
	if len(cfg.Categories) > 0 {
		names := make([]string, len(cfg.Categories))
		for n, c := range cfg.Categories {
			names[n] = fmt.Sprintf("%s (`%s`)", c.Name, c.ID)
		}
		categories = strings.Join(names, ", ")
	}

	limit := "None"
	if cfg.MaxTicketsPerUser != nil {
		limit = fmt.Sprintf("%d", *cfg.MaxTicketsPerUser)
	}

	e := embed("Server Configuration", "", messages.ColorInfo)
	e.Fields = []*discordgo.MessageEmbedField{
		{Name: "Log Channel", Value: logChannel},
		{Name: "Admins", Value: truncate(admins, 1024)},
		{Name: "Ticket Categories", Value: truncate(categories, 1024)},
		{Name: "Ticket Limit", Value: limit},
	}
	return e
}

func addConfigEmbed(res *ticketing.AddConfigResult) *discordgo.MessageEmbed {
	var lines []string
	color := messages.ColorSuccess

	if res.AdminID != "" {
		if res.AdminAdded {
			lines = append(lines, fmt.Sprintf("%s has been added to the list of admins.", mention(res.AdminID)))
		} else {
			lines = append(lines, fmt.Sprintf("%s is already an admin.", mention(res.AdminID)))
			color = messages.ColorWarning
		}
	}

	if res.Category != nil {
		switch {
		case res.CategoryCreated:
			lines = append(lines, fmt.Sprintf("Category **%s** has been created and added to the ticket categories.", res.Category.Name))
		case res.CategoryAdded:
			lines = append(lines, fmt.Sprintf("Category **%s** has been added to the ticket categories.", res.Category.Name))
		default:
			lines = append(lines, fmt.Sprintf("Category **%s** is already a ticket category.", res.Category.Name))
			color = messages.ColorWarning
		}
	}

	return embed("Configuration Updated", strings.Join(lines, "\n"), color)
}

func removeConfigEmbed(res *ticketing.RemoveConfigResult) *discordgo.MessageEmbed {
	var lines []string
	color := messages.ColorSuccess

	if res.AdminID != "" {
		if res.AdminRemoved {
			lines = append(lines, fmt.Sprintf("%s has been removed from the list of admins.", mention(res.AdminID)))
		} else {
			lines = append(lines, fmt.Sprintf("%s is not an admin.", mention(res.AdminID)))
			color = messages.ColorWarning
		}
	}

	if res.CategoryID != "" {
		if res.CategoryRemoved {
			lines = append(lines, fmt.Sprintf("Category `%s` has been removed from the ticket categories.", res.CategoryID))
		} else {
			lines = append(lines, fmt.Sprintf("Category `%s` is not a ticket category.", res.CategoryID))
			color = messages.ColorWarning
		}
	}

	return embed("Configuration Updated", strings.Join(lines, "\n"), color)
}

// mention renders an admin entry. Mentions inside embeds do not notify.
func mention(id string) string {
	return fmt.Sprintf("<@%s>", id)
}
