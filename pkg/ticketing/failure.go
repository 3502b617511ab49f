package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
)

// Report is how a failed command is surfaced.
type Report struct {
	Kind Kind

	// UserMessage is the short message shown to the caller.
	UserMessage string

	// LogChannelID is where Diagnostic should be posted. Empty when nothing is posted.
	LogChannelID string

	// Diagnostic is the long description of an unexpected failure.
	Diagnostic string

	// NeedsLogChannel is set when an unexpected failure could not be routed to a log channel.
	NeedsLogChannel bool
}

// Failure classifies the error of a command and decides where it is reported.
func (s *Service) Failure(ctx context.Context, guildID string, command string, err error) *Report {
	kind := KindOf(err)
	r := &Report{Kind: kind}

	switch kind {
	case KindNotConfigured:
		r.UserMessage = messages.ErrUserNotConfigured
		return r
	case KindPermissionDenied:
		r.UserMessage = messages.ErrUserPermissionDenied
		return r
	case KindNotFound, KindInvalidInput:
		r.UserMessage = classified(err).Error()
		return r
	}

	r.UserMessage = messages.ErrUserErrorProcessing
	r.Diagnostic = fmt.Sprintf("An error occurred while running `/%s`: %s", command, err)

	if guildID == "" {
		return r
	}

	logChannelID, lookupErr := s.guilds.GetLogChannel(ctx, guildID)
	switch {
	case lookupErr == nil && logChannelID != "":
		r.LogChannelID = logChannelID
	case lookupErr == nil, errors.Is(lookupErr, dataaccess.ErrNotFound):
		r.NeedsLogChannel = true
		r.UserMessage = messages.ErrUserErrorProcessing + "\n" + messages.ErrUserConfigureLogChannel
	default:
		s.l.Error("Error getting log channel for failure report",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyError, lookupErr.Error()),
		)
	}
	return r
}
