package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
)

// ticketChannelAllow is what grantees may do in a ticket channel.
const ticketChannelAllow = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionEmbedLinks

// discordPlatform creates and deletes ticket channels with the Discord API.
type discordPlatform struct {
	s *discordgo.Session
}

func newPlatform(s *discordgo.Session) ticketing.Platform {
	return &discordPlatform{s: s}
}

func (p *discordPlatform) EnsureCategory(_ context.Context, guildID string, name string) (string, bool, error) {
	channels, err := p.s.GuildChannels(guildID)
	if err != nil {
		return "", false, fmt.Errorf("error getting channels: %w", err)
	}

	for _, c := range channels {
		if c.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(c.Name, name) {
			return c.ID, false, nil
		}
	}

	category, err := p.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", false, fmt.Errorf("error creating category: %w", err)
	}
	return category.ID, true, nil
}

func (p *discordPlatform) CreateTicketChannel(_ context.Context, spec *ticketing.TicketChannelSpec) (string, error) {
	roles, err := p.s.GuildRoles(spec.GuildID)
	if err != nil {
		return "", fmt.Errorf("error getting roles: %w", err)
	}

	roleIDs := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleIDs[r.ID] = true
	}

	overwrites := []*discordgo.PermissionOverwrite{
		// Deny @everyone from seeing the ticket.
		{
			ID:   spec.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		// The bot keeps access so that it can manage and delete the channel.
		{
			ID:    p.s.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketChannelAllow | discordgo.PermissionManageChannels,
		},
	}

	for _, id := range spec.GranteeIDs {
		t := discordgo.PermissionOverwriteTypeMember
		if roleIDs[id] {
			t = discordgo.PermissionOverwriteTypeRole
		}

		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  t,
			Allow: ticketChannelAllow,
			Deny:  discordgo.PermissionMentionEveryone,
		})
	}

	channel, err := p.s.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("error creating channel: %w", err)
	}
	return channel.ID, nil
}

func (p *discordPlatform) DeleteChannel(_ context.Context, channelID string) error {
	if _, err := p.s.ChannelDelete(channelID); err != nil {
		if isUnknownChannel(err) {
			return ticketing.ErrChannelNotFound
		}
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func isUnknownChannel(err error) bool {
	er := new(discordgo.RESTError)
	if !errors.As(err, &er) {
		return false
	}
	if er.Message != nil && er.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	return er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}
