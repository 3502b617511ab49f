package ticketing

import (
	"context"
	"time"
)

// ConfirmTimeout bounds how long an interactive confirmation waits for an answer.
const ConfirmTimeout = 60 * time.Second

// Platform is the chat platform the tickets live on.
type Platform interface {
	// EnsureCategory returns the channel category with the given name, creating it when missing.
	EnsureCategory(ctx context.Context, guildID string, name string) (id string, created bool, err error)

	// CreateTicketChannel creates the dedicated text channel for a ticket.
	CreateTicketChannel(ctx context.Context, spec *TicketChannelSpec) (string, error)

	// DeleteChannel deletes a channel. ErrChannelNotFound is returned when it no longer exists.
	DeleteChannel(ctx context.Context, channelID string) error
}

// TicketChannelSpec describes the dedicated channel of a ticket.
type TicketChannelSpec struct {
	GuildID string

	// ParentID is the channel category the channel is created under.
	ParentID string

	Name  string
	Topic string

	// OwnerID is the member that filed the ticket.
	OwnerID string

	// GranteeIDs are the users or roles that may see the channel, owner included.
	GranteeIDs []string
}

// Confirmer asks the caller to confirm a destructive change.
type Confirmer interface {
	// Confirm blocks until the caller answers or ctx is done.
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}
