package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := optionsOf([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "title", Type: discordgo.ApplicationCommandOptionString, Value: "Printer on fire"},
		{Name: "page", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		{Name: "admin", Type: discordgo.ApplicationCommandOptionMentionable, Value: "1234"},
	})

	assert.Equal(t, "Printer on fire", opts.text("title"))
	assert.Equal(t, "1234", opts.text("admin"))
	assert.Equal(t, "3", opts.text("page"))
	assert.Empty(t, opts.text("missing"))

	assert.Equal(t, 3, opts.integer("page", 1))
	assert.Equal(t, 1, opts.integer("missing", 1))
	assert.Equal(t, 7, opts.integer("title", 7))
}

func TestSubCommand(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: configCmdName,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: setCmdName, Type: discordgo.ApplicationCommandOptionSubCommand},
		},
	}

	sub := subCommand(data)
	require.NotNil(t, sub)
	assert.Equal(t, setCmdName, sub.Name)

	assert.Nil(t, subCommand(discordgo.ApplicationCommandInteractionData{Name: configCmdName}))
}

func TestFocused(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name: createCmdName,
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: titleOptName, Value: "a"},
				{Name: categoryOptName, Value: "Sup", Focused: true},
			},
		},
	}

	f := focused(opts)
	require.NotNil(t, f)
	assert.Equal(t, categoryOptName, f.Name)

	assert.Nil(t, focused(opts[0].Options[:1]))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "Short", in: "abc", n: 5, want: "abc"},
		{name: "Exact", in: "abcde", n: 5, want: "abcde"},
		{name: "Long", in: "abcdef", n: 5, want: "abcd…"},
		{name: "Runes", in: "ééééé", n: 3, want: "éé…"},
		{name: "One", in: "abc", n: 1, want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.n))
		})
	}
}

func TestIsUnknownChannel(t *testing.T) {
	unknown := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel},
	}
	notFound := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
	}
	forbidden := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions},
	}

	assert.True(t, isUnknownChannel(unknown))
	assert.True(t, isUnknownChannel(fmt.Errorf("wrapped: %w", notFound)))
	assert.False(t, isUnknownChannel(forbidden))
	assert.False(t, isUnknownChannel(errors.New("boom")))
}
