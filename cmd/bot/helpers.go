package main

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
)

// errNotInGuild is returned for guild commands used outside a guild.
var errNotInGuild = errors.New("command used outside of a server")

// interaction is an interaction being handled. Once the initial response has been sent,
// further replies are sent as follow up messages.
type interaction struct {
	*discordgo.InteractionCreate

	s *discordgo.Session

	mu        sync.Mutex
	responded bool
}

func newInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) *interaction {
	return &interaction{
		InteractionCreate: i,
		s:                 s,
	}
}

// respond sends a message in reply to the interaction.
func (i *interaction) respond(data *discordgo.InteractionResponseData) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.responded {
		_, err := i.s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content:    data.Content,
			Embeds:     data.Embeds,
			Components: data.Components,
			Flags:      data.Flags,
		})
		if err != nil {
			return fmt.Errorf("error sending follow up: %w", err)
		}
		return nil
	}

	if err := i.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	i.responded = true
	return nil
}

// deferReply acknowledges the interaction so that the reply can take longer than the platform deadline.
func (i *interaction) deferReply(ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return i.ack(discordgo.InteractionResponseDeferredChannelMessageWithSource, &discordgo.InteractionResponseData{Flags: flags})
}

// deferUpdate acknowledges a component interaction without changing its message.
func (i *interaction) deferUpdate() error {
	return i.ack(discordgo.InteractionResponseDeferredMessageUpdate, nil)
}

func (i *interaction) ack(t discordgo.InteractionResponseType, data *discordgo.InteractionResponseData) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.responded {
		return nil
	}

	if err := i.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: t,
		Data: data,
	}); err != nil {
		return fmt.Errorf("error acknowledging interaction: %w", err)
	}
	i.responded = true
	return nil
}

// update edits the message a component is attached to.
func (i *interaction) update(data *discordgo.InteractionResponseData) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}); err != nil {
		return fmt.Errorf("error updating message: %w", err)
	}
	i.responded = true
	return nil
}

func (i *interaction) respondEmbed(embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return i.respond(data)
}

func (i *interaction) respondError(content string) error {
	return i.respondEmbed(errorEmbed(content), true)
}

// userID returns the ID of the user that triggered the interaction.
func (i *interaction) userID() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// caller builds the acting identity, looking up the guild owner from state first.
func (i *interaction) caller() (*ticketing.Caller, error) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return nil, errNotInGuild
	}

	g, err := i.s.State.Guild(i.GuildID)
	if err != nil {
		g, err = i.s.Guild(i.GuildID)
		if err != nil {
			return nil, fmt.Errorf("error getting guild: %w", err)
		}
	}

	return &ticketing.Caller{
		GuildID:      i.GuildID,
		UserID:       i.Member.User.ID,
		RoleIDs:      i.Member.Roles,
		IsGuildOwner: g.OwnerID == i.Member.User.ID,
	}, nil
}

func embed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
	}
}

func errorEmbed(description string) *discordgo.MessageEmbed {
	return embed(messages.TitleError, description, messages.ColorError)
}

func successEmbed(description string) *discordgo.MessageEmbed {
	return embed(messages.TitleSuccess, description, messages.ColorSuccess)
}

// subCommand returns the sub command of a slash command, or nil when there is none.
func subCommand(data discordgo.ApplicationCommandInteractionData) *discordgo.ApplicationCommandInteractionDataOption {
	if len(data.Options) == 0 {
		return nil
	}
	if opt := data.Options[0]; opt.Type == discordgo.ApplicationCommandOptionSubCommand {
		return opt
	}
	return nil
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// text returns a string, channel, user, role or mentionable option as a string.
func (o options) text(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}

	switch v := opt.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// integer returns an integer option, or def when it is absent.
func (o options) integer(name string, def int) int {
	opt, ok := o[name]
	if !ok {
		return def
	}

	switch v := opt.Value.(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// focused returns the option being typed in an autocomplete interaction.
func focused(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range opts {
		if opt.Focused {
			return opt
		}
		if f := focused(opt.Options); f != nil {
			return f
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
