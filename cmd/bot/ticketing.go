package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
)

const (
	// ticketPrefix is the custom ID prefix of ticket buttons.
	ticketPrefix = "ticket"

	ticketActionClaim = "claim"
	ticketActionClose = "close"
	ticketActionPage  = "page"
)

const (
	// ClaimEmoji is the emoji that will be used for the claim button. (Ticket)
	ClaimEmoji = "\U0001F3AB"

	// CloseEmoji is the emoji that will be used for the close button. (Padlock)
	CloseEmoji = "\U0001F510"
)

const (
	// ticketsCmdName is the command for controlling tickets.
	ticketsCmdName = "tickets"

	createCmdName = "create"
	closeCmdName  = "close"
	claimCmdName  = "claim"

	titleOptName       = "title"
	descriptionOptName = "description"
	categoryOptName    = "category"
	priorityOptName    = "priority"
	pageOptName        = "page"
	ticketIDOptName    = "ticket_id"
)

// maxChoiceName is the longest autocomplete choice name the platform accepts.
const maxChoiceName = 100

var (
	minOne = float64(1)

	ticketIDOption = &discordgo.ApplicationCommandOption{
		Name:        ticketIDOptName,
		Type:        discordgo.ApplicationCommandOptionInteger,
		Description: "The number of the ticket.",
		Required:    true,
		MinValue:    &minOne,
	}

	// ticketsCmd is the command for controlling tickets.
	ticketsCmd = &discordgo.ApplicationCommand{
		Name:         ticketsCmdName,
		Type:         discordgo.ChatApplicationCommand,
		DMPermission: &dmPermission,
		Description:  "Create and manage support tickets.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        createCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Open a new ticket.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         categoryOptName,
						Type:         discordgo.ApplicationCommandOptionString,
						Description:  "The category to file the ticket under.",
						Required:     true,
						Autocomplete: true,
					},
					{
						Name:        titleOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "A short summary of the problem.",
						MaxLength:   100,
					},
					{
						Name:        descriptionOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "Anything that helps us answer faster.",
						MaxLength:   1024,
					},
					{
						Name:        priorityOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "How urgent the ticket is. Defaults to medium.",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Low", Value: string(entities.TicketPriorityLow)},
							{Name: "Medium", Value: string(entities.TicketPriorityMedium)},
							{Name: "High", Value: string(entities.TicketPriorityHigh)},
						},
					},
				},
			},
			{
				Name:        viewCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "View your tickets.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        pageOptName,
						Type:        discordgo.ApplicationCommandOptionInteger,
						Description: "The page to show.",
						MinValue:    &minOne,
					},
				},
			},
			{
				Name:        closeCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Close a ticket and delete its channel.",
				Options:     []*discordgo.ApplicationCommandOption{ticketIDOption},
			},
			{
				Name:        claimCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Claim a ticket and mark it in progress.",
				Options:     []*discordgo.ApplicationCommandOption{ticketIDOption},
			},
		},
	}
)

func ticketsCmdController(_ IApp, sub string) (slashProcessor, error) {
	switch sub {
	case createCmdName:
		return createTicketCmd, nil
	case viewCmdName:
		return viewTicketsCmd, nil
	case closeCmdName:
		return closeTicketCmd, nil
	case claimCmdName:
		return claimTicketCmd, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", sub)
	}
}

func createTicketCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	// Creating the channel can take longer than the response deadline.
	if err := i.deferReply(true); err != nil {
		return err
	}

	opts := subOptions(i)
	t, err := a.Service().CreateTicket(ctx, c, &ticketing.CreateTicketRequest{
		Title:       opts.text(titleOptName),
		Description: opts.text(descriptionOptName),
		CategoryID:  opts.text(categoryOptName),
		Priority:    opts.text(priorityOptName),
	})
	if err != nil {
		return err
	}

	monitoring.TicketsCreated.Inc()

	if err := sendWelcomeMessage(a.Session(), t); err != nil {
		a.Log().Warn("Error sending welcome message",
			slog.String(logging.KeyGuild, t.GuildID),
			slog.Int(logging.KeyTicket, t.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	return i.respondEmbed(ticketCreatedEmbed(t), true)
}

// sendWelcomeMessage posts and pins the ticket summary with its claim and close buttons.
func sendWelcomeMessage(s *discordgo.Session, t *entities.Ticket) error {
	msg, err := s.ChannelMessageSendComplex(t.ChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>, your ticket has been created.\nPlease provide any additional info you deem relevant to help us answer faster.", t.OwnerID),
		Embeds:  []*discordgo.MessageEmbed{ticketEmbed(t)},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{t.OwnerID},
		},
		Components: ticketButtons(t, false),
	})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	if err := s.ChannelMessagePin(t.ChannelID, msg.ID); err != nil {
		return fmt.Errorf("error pinning message: %w", err)
	}
	return nil
}

func ticketButtons(t *entities.Ticket, claimed bool) []discordgo.MessageComponent {
	id := strconv.Itoa(t.ID)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    fmt.Sprintf("%s Claim", ClaimEmoji),
					Style:    discordgo.PrimaryButton,
					Disabled: claimed,
					CustomID: strings.Join([]string{ticketPrefix, ticketActionClaim, id}, ":"),
				},
				discordgo.Button{
					Label:    fmt.Sprintf("%s Close", CloseEmoji),
					Style:    discordgo.DangerButton,
					CustomID: strings.Join([]string{ticketPrefix, ticketActionClose, id}, ":"),
				},
			},
		},
	}
}

func viewTicketsCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	page, err := a.Service().ListTickets(ctx, c, subOptions(i).integer(pageOptName, 1))
	if err != nil {
		return err
	}

	return i.respond(&discordgo.InteractionResponseData{
		Flags:      discordgo.MessageFlagsEphemeral,
		Embeds:     []*discordgo.MessageEmbed{ticketPageEmbed(page)},
		Components: pageButtons(page),
	})
}

func closeTicketCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	// Deleting the channel can take a while. The deferral is private so that a rejection is too.
	if err := i.deferReply(true); err != nil {
		return err
	}

	return closeTicket(ctx, a, i, c, subOptions(i).integer(ticketIDOptName, 0))
}

func closeTicket(ctx context.Context, a IApp, i *interaction, c *ticketing.Caller, ticketID int) error {
	res, err := a.Service().CloseTicket(ctx, c, ticketID)
	if err != nil {
		return err
	}

	monitoring.TicketsClosed.WithLabelValues(res.Channel.String()).Inc()

	if err := i.respondEmbed(closeResultEmbed(res), false); err != nil {
		// The reply is lost when the ticket was closed from inside its own channel.
		if i.ChannelID == res.Ticket.ChannelID && res.Channel == ticketing.ChannelDeleted {
			a.Log().Debug("Close reply dropped with the ticket channel", slog.Int(logging.KeyTicket, res.Ticket.ID))
			return nil
		}
		return err
	}
	return nil
}

func claimTicketCmd(ctx context.Context, a IApp, i *interaction) error {
	c, err := i.caller()
	if err != nil {
		return err
	}

	t, err := a.Service().ClaimTicket(ctx, c, subOptions(i).integer(ticketIDOptName, 0))
	if err != nil {
		return err
	}
	return i.respondEmbed(ticketClaimedEmbed(t), false)
}

// ticketComponentProcessor handles the buttons on ticket messages.
func ticketComponentProcessor(ctx context.Context, a IApp, i *interaction, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("malformed ticket component %q", strings.Join(args, ":"))
	}

	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("malformed ticket component %q: %w", strings.Join(args, ":"), err)
	}

	c, err := i.caller()
	if err != nil {
		return err
	}

	switch args[0] {
	case ticketActionClaim:
		t, err := a.Service().ClaimTicket(ctx, c, n)
		if err != nil {
			return err
		}

		if err := i.update(&discordgo.InteractionResponseData{
			Content:    i.Message.Content,
			Embeds:     []*discordgo.MessageEmbed{ticketEmbed(t)},
			Components: ticketButtons(t, true),
		}); err != nil {
			return err
		}
		return i.respondEmbed(ticketClaimedEmbed(t), false)
	case ticketActionClose:
		if err := i.deferUpdate(); err != nil {
			return err
		}
		return closeTicket(ctx, a, i, c, n)
	case ticketActionPage:
		page, err := a.Service().ListTickets(ctx, c, n)
		if err != nil {
			return err
		}
		return i.update(&discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{ticketPageEmbed(page)},
			Components: pageButtons(page),
		})
	default:
		return fmt.Errorf("unknown ticket action %q", args[0])
	}
}

// categoryAutocomplete suggests ticket categories for the option being typed.
func categoryAutocomplete(ctx context.Context, a IApp, i *interaction) error {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)

	opt := focused(i.ApplicationCommandData().Options)
	if opt != nil && (opt.Name == categoryOptName || opt.Name == ticketCategoryOptName) && i.GuildID != "" {
		prefix, _ := opt.Value.(string)

		categories, err := a.Service().SuggestCategories(ctx, i.GuildID, strings.TrimSpace(prefix))
		if err != nil {
			return err
		}
		choices = categoryChoices(categories)
	}

	if err := i.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}); err != nil {
		return fmt.Errorf("error sending suggestions: %w", err)
	}
	return nil
}

func categoryChoices(categories []entities.Category) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(categories))
	for n, c := range categories {
		choices[n] = &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("%s (%s)", c.Name, c.ID), maxChoiceName),
			Value: c.ID,
		}
	}
	return choices
}

func pageButtons(page *ticketing.TicketPage) []discordgo.MessageComponent {
	if page.Pages <= 1 {
		return nil
	}

	pageID := func(n int) string {
		return strings.Join([]string{ticketPrefix, ticketActionPage, strconv.Itoa(n)}, ":")
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.SecondaryButton,
					Disabled: page.Page <= 1,
					CustomID: pageID(page.Page - 1),
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SecondaryButton,
					Disabled: page.Page >= page.Pages,
					CustomID: pageID(page.Page + 1),
				},
			},
		},
	}
}

func ticketEmbed(t *entities.Ticket) *discordgo.MessageEmbed {
	e := embed(fmt.Sprintf("#%04d %s", t.ID, t.Title), t.Description, messages.ColorTicket)
	e.Fields = ticketFields(t)
	return e
}

func ticketFields(t *entities.Ticket) []*discordgo.MessageEmbedField {
	assigned := "Nobody"
	if t.AssignedTo != nil {
		assigned = fmt.Sprintf("<@%s>", *t.AssignedTo)
	}

	return []*discordgo.MessageEmbedField{
		{Name: "Status", Value: string(t.Status), Inline: true},
		{Name: "Priority", Value: string(t.Priority), Inline: true},
		{Name: "Assigned To", Value: assigned, Inline: true},
	}
}

func ticketCreatedEmbed(t *entities.Ticket) *discordgo.MessageEmbed {
	e := embed("Ticket Created", fmt.Sprintf("You created ticket **#%04d**. Head over to <#%s>.", t.ID, t.ChannelID), messages.ColorTicket)
	e.Fields = append([]*discordgo.MessageEmbedField{
		{Name: "Title", Value: t.Title},
	}, ticketFields(t)...)
	return e
}

func ticketClaimedEmbed(t *entities.Ticket) *discordgo.MessageEmbed {
	by := "an admin"
	if t.AssignedTo != nil {
		by = fmt.Sprintf("<@%s>", *t.AssignedTo)
	}
	return embed("Ticket Claimed", fmt.Sprintf("Ticket **#%04d** has been claimed by %s.", t.ID, by), messages.ColorSuccess)
}

func ticketPageEmbed(page *ticketing.TicketPage) *discordgo.MessageEmbed {
	e := embed("Your Tickets", "", messages.ColorTicket)
	for _, t := range page.Tickets {
		channel := "No channel"
		if t.ChannelID != "" && !t.Status.IsClosed() {
			channel = fmt.Sprintf("<#%s>", t.ChannelID)
		}

		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(fmt.Sprintf("#%04d %s", t.ID, t.Title), 256),
			Value: fmt.Sprintf("Status: %s | Priority: %s | %s", t.Status, t.Priority, channel),
		})
	}
	e.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d of %d (%d tickets)", page.Page, page.Pages, page.Total),
	}
	return e
}

func closeResultEmbed(res *ticketing.CloseResult) *discordgo.MessageEmbed {
	switch res.Channel {
	case ticketing.ChannelDeleted:
		return embed("Ticket Closed", fmt.Sprintf("Ticket **#%04d** has been closed and its channel deleted.", res.Ticket.ID), messages.ColorSuccess)
	case ticketing.ChannelMissing:
		return embed("Ticket Closed", fmt.Sprintf("Ticket **#%04d** has been closed. Its channel no longer exists.", res.Ticket.ID), messages.ColorSuccess)
	default:
		return embed("Ticket Closed", fmt.Sprintf("Ticket **#%04d** has been closed, but its channel <#%s> could not be deleted. Please delete it manually.", res.Ticket.ID, res.Ticket.ChannelID), messages.ColorWarning)
	}
}
