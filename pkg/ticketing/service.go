package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
)

const serviceName = "ticketing"

// Caller is the identity running a command.
type Caller struct {
	GuildID string
	UserID  string

	// RoleIDs are the roles the caller holds in the guild. Admin entries may name roles.
	RoleIDs []string

	// IsGuildOwner is set when the caller owns the guild.
	IsGuildOwner bool
}

// identities returns the user ID followed by the role IDs.
func (c *Caller) identities() []string {
	ids := make([]string, 0, len(c.RoleIDs)+1)
	ids = append(ids, c.UserID)
	return append(ids, c.RoleIDs...)
}

// Service runs the configuration and ticket commands. Every call re-reads the store.
type Service struct {
	// l is the logger.
	l *slog.Logger

	guilds   dataaccess.GuildDal
	tickets  dataaccess.TicketDal
	platform Platform

	// confirmTimeout bounds interactive confirmations.
	confirmTimeout time.Duration
}

// NewService creates a new ticketing service.
func NewService(l *slog.Logger, guilds dataaccess.GuildDal, tickets dataaccess.TicketDal, platform Platform) *Service {
	return &Service{
		l:              l.With(slog.String("service", serviceName)),
		guilds:         guilds,
		tickets:        tickets,
		platform:       platform,
		confirmTimeout: ConfirmTimeout,
	}
}

// authorize passes the guild owner and anyone in the current admin set.
func (s *Service) authorize(ctx context.Context, c *Caller) error {
	if c.IsGuildOwner {
		return nil
	}

	ok, err := s.guilds.IsAdmin(ctx, c.GuildID, c.identities()...)
	if err != nil {
		return fmt.Errorf("error checking admin: %w", err)
	} else if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// storeError translates store sentinels into classified errors.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dataaccess.ErrNotConfigured):
		return ErrNotConfigured
	case errors.Is(err, dataaccess.ErrUnknownCategory):
		return ErrInvalidCategory
	case errors.Is(err, dataaccess.ErrTicketLimit):
		return ErrTicketLimit
	case errors.Is(err, dataaccess.ErrAlreadyClosed):
		return ErrTicketClosed
	case errors.Is(err, dataaccess.ErrAlreadyClaimed):
		return ErrTicketClaimed
	default:
		return err
	}
}
