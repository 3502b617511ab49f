package main

import (
	"strings"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestSetConfigEmbed(t *testing.T) {
	tests := []struct {
		name  string
		res   *ticketing.SetConfigResult
		title string
		color int
		want  string
	}{
		{
			name:  "Created",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeCreated},
			title: "Configuration Set",
			color: messages.ColorSuccess,
		},
		{
			name:  "AdminsReplaced",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeAdminsReplaced, AdminID: "42"},
			title: "Admins Updated",
			color: messages.ColorSuccess,
			want:  "<@42>",
		},
		{
			name:  "Cancelled",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeCancelled},
			title: "Operation Cancelled",
			color: messages.ColorError,
		},
		{
			name:  "TimedOut",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeTimedOut},
			title: "Operation Timed Out",
			color: messages.ColorError,
		},
		{
			name:  "AlreadySet",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeLogChannelAlreadySet, LogChannelID: "7"},
			title: "Log Channel Already Set",
			color: messages.ColorWarning,
			want:  "<#7>",
		},
		{
			name:  "Updated",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeLogChannelUpdated, PreviousLogChannelID: "7", LogChannelID: "8"},
			title: "Log Channel Updated",
			color: messages.ColorSuccess,
			want:  "Log channel was <#7>. Updated to <#8>.",
		},
		{
			name:  "Set",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeLogChannelSet, LogChannelID: "8"},
			title: "Log Channel Set",
			color: messages.ColorSuccess,
			want:  "<#8>",
		},
		{
			name:  "Unchanged",
			res:   &ticketing.SetConfigResult{Outcome: ticketing.OutcomeUnchanged},
			title: "Configuration Unchanged",
			color: messages.ColorInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setConfigEmbed(tt.res)
			assert.Equal(t, tt.title, e.Title)
			assert.Equal(t, tt.color, e.Color)
			assert.Contains(t, e.Description, tt.want)
		})
	}
}

func TestConfigEmbed(t *testing.T) {
	limit := 3
	e := configEmbed(&entities.GuildConfig{
		GuildID:           "1",
		LogChannelID:      strPtr("9"),
		MaxTicketsPerUser: &limit,
		AdminIDs:          []string{"a1", "role1"},
		Categories:        []entities.Category{{ID: "c1", Name: "Support"}},
	})

	require.Len(t, e.Fields, 4)
	assert.Equal(t, "<#9>", e.Fields[0].Value)
	assert.Equal(t, "<@a1>, <@role1>", e.Fields[1].Value)
	assert.Equal(t, "Support (`c1`)", e.Fields[2].Value)
	assert.Equal(t, "3", e.Fields[3].Value)

	e = configEmbed(&entities.GuildConfig{GuildID: "1"})
	assert.Equal(t, "Not set", e.Fields[0].Value)
	assert.Equal(t, "None", e.Fields[1].Value)
	assert.Equal(t, "None", e.Fields[2].Value)
	assert.Equal(t, "None", e.Fields[3].Value)
}

func TestAddConfigEmbed(t *testing.T) {
	e := addConfigEmbed(&ticketing.AddConfigResult{
		AdminID:         "42",
		AdminAdded:      true,
		Category:        &entities.Category{ID: "c1", Name: "Billing"},
		CategoryCreated: true,
		CategoryAdded:   true,
	})
	assert.Equal(t, messages.ColorSuccess, e.Color)
	assert.Contains(t, e.Description, "<@42> has been added")
	assert.Contains(t, e.Description, "**Billing** has been created and added")

	e = addConfigEmbed(&ticketing.AddConfigResult{
		Category: &entities.Category{ID: "c1", Name: "Billing"},
	})
	assert.Equal(t, messages.ColorWarning, e.Color)
	assert.Equal(t, "Category **Billing** is already a ticket category.", e.Description)
}

func TestRemoveConfigEmbed(t *testing.T) {
	e := removeConfigEmbed(&ticketing.RemoveConfigResult{AdminID: "42", AdminRemoved: true})
	assert.Equal(t, messages.ColorSuccess, e.Color)
	assert.Equal(t, "<@42> has been removed from the list of admins.", e.Description)

	e = removeConfigEmbed(&ticketing.RemoveConfigResult{CategoryID: "c9"})
	assert.Equal(t, messages.ColorWarning, e.Color)
	assert.Equal(t, "Category `c9` is not a ticket category.", e.Description)
}

func TestCloseResultEmbed(t *testing.T) {
	ticket := &entities.Ticket{ID: 7, ChannelID: "55"}

	tests := []struct {
		name    string
		channel ticketing.ChannelOutcome
		color   int
		want    string
	}{
		{name: "Deleted", channel: ticketing.ChannelDeleted, color: messages.ColorSuccess, want: "channel deleted"},
		{name: "Missing", channel: ticketing.ChannelMissing, color: messages.ColorSuccess, want: "no longer exists"},
		{name: "Failed", channel: ticketing.ChannelDeleteFailed, color: messages.ColorWarning, want: "<#55> could not be deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := closeResultEmbed(&ticketing.CloseResult{Ticket: ticket, Channel: tt.channel})
			assert.Equal(t, tt.color, e.Color)
			assert.Contains(t, e.Description, "#0007")
			assert.Contains(t, e.Description, tt.want)
		})
	}
}

func TestTicketPageEmbed(t *testing.T) {
	page := &ticketing.TicketPage{
		Tickets: []*entities.Ticket{
			{ID: 1, Title: "First", ChannelID: "c1", Status: entities.TicketStatusOpen, Priority: entities.TicketPriorityHigh},
			{ID: 2, Title: "Second", ChannelID: "c2", Status: entities.TicketStatusClosed, Priority: entities.TicketPriorityLow},
		},
		Page:  2,
		Pages: 3,
		Total: 12,
	}

	e := ticketPageEmbed(page)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "#0001 First", e.Fields[0].Name)
	assert.Equal(t, "Status: open | Priority: high | <#c1>", e.Fields[0].Value)
	assert.Equal(t, "Status: closed | Priority: low | No channel", e.Fields[1].Value)
	assert.Equal(t, "Page 2 of 3 (12 tickets)", e.Footer.Text)
}

func buttonsOf(t *testing.T, components []discordgo.MessageComponent) []discordgo.Button {
	t.Helper()
	require.Len(t, components, 1)

	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)

	buttons := make([]discordgo.Button, 0, len(row.Components))
	for _, c := range row.Components {
		b, ok := c.(discordgo.Button)
		require.True(t, ok)
		buttons = append(buttons, b)
	}
	return buttons
}

func TestPageButtons(t *testing.T) {
	assert.Nil(t, pageButtons(&ticketing.TicketPage{Page: 1, Pages: 1}))

	buttons := buttonsOf(t, pageButtons(&ticketing.TicketPage{Page: 1, Pages: 2}))
	require.Len(t, buttons, 2)
	assert.True(t, buttons[0].Disabled)
	assert.Equal(t, "ticket:page:0", buttons[0].CustomID)
	assert.False(t, buttons[1].Disabled)
	assert.Equal(t, "ticket:page:2", buttons[1].CustomID)

	buttons = buttonsOf(t, pageButtons(&ticketing.TicketPage{Page: 2, Pages: 2}))
	assert.False(t, buttons[0].Disabled)
	assert.True(t, buttons[1].Disabled)
}

func TestTicketButtons(t *testing.T) {
	ticket := &entities.Ticket{ID: 12}

	buttons := buttonsOf(t, ticketButtons(ticket, false))
	require.Len(t, buttons, 2)
	assert.Equal(t, "ticket:claim:12", buttons[0].CustomID)
	assert.False(t, buttons[0].Disabled)
	assert.Equal(t, "ticket:close:12", buttons[1].CustomID)

	buttons = buttonsOf(t, ticketButtons(ticket, true))
	assert.True(t, buttons[0].Disabled)
}

func TestCategoryChoices(t *testing.T) {
	long := strings.Repeat("x", 120)
	choices := categoryChoices([]entities.Category{
		{ID: "c1", Name: "Support"},
		{ID: "c2", Name: long},
	})

	require.Len(t, choices, 2)
	assert.Equal(t, "Support (c1)", choices[0].Name)
	assert.Equal(t, "c1", choices[0].Value)
	assert.Len(t, []rune(choices[1].Name), maxChoiceName)
	assert.Equal(t, "c2", choices[1].Value)
}

func TestCommandsEmbed(t *testing.T) {
	e := commandsEmbed(commands())

	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}

	assert.Contains(t, names, "/config set `[log_channel]` `[admin]`")
	assert.Contains(t, names, "/tickets create `<category>` `[title]` `[description]` `[priority]`")
	assert.Contains(t, names, "/tickets close `<ticket_id>`")
	assert.Contains(t, names, "/help commands")
}

func TestControllers(t *testing.T) {
	for _, cmd := range commands() {
		var controller slashCommandController
		switch cmd.Name {
		case configCmdName:
			controller = configCmdController
		case ticketsCmdName:
			controller = ticketsCmdController
		case helpCmdName:
			controller = helpCmdController
		default:
			t.Fatalf("no controller for %s", cmd.Name)
		}

		for _, sub := range cmd.Options {
			p, err := controller(nil, sub.Name)
			require.NoError(t, err, "%s %s", cmd.Name, sub.Name)
			require.NotNil(t, p)
		}

		_, err := controller(nil, "unknown")
		require.Error(t, err)
	}
}

func TestConfigHelp(t *testing.T) {
	assert.Contains(t, configHelp, "/config set")
	assert.Contains(t, configHelp, "does not revoke their access to tickets opened while they were an admin")
}
