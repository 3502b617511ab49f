package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
)

const (
	// PageSize is the number of tickets on a page of the ticket list.
	PageSize = 5

	// MaxSuggestions is the most autocomplete choices the platform accepts.
	MaxSuggestions = 25

	DefaultTitle       = "New ticket"
	DefaultDescription = "No description provided."
)

// CreateTicketRequest holds the options of the create command. Empty text fields are defaulted.
type CreateTicketRequest struct {
	Title       string
	Description string
	CategoryID  string
	Priority    string
}

// CreateTicket files a ticket for the caller and creates its dedicated channel.
func (s *Service) CreateTicket(ctx context.Context, c *Caller, req *CreateTicketRequest) (*entities.Ticket, error) {
	priority, err := entities.ParseTicketPriority(req.Priority)
	if err != nil {
		return nil, ErrInvalidPriority
	}

	nt := &dataaccess.NewTicket{
		GuildID:     c.GuildID,
		OwnerID:     c.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CategoryID:  req.CategoryID,
		Priority:    priority,
	}
	if nt.Title == "" {
		nt.Title = DefaultTitle
	}
	if nt.Description == "" {
		nt.Description = DefaultDescription
	}

	t, err := s.tickets.ReserveTicket(ctx, nt)
	if err != nil {
		return nil, storeError(fmt.Errorf("error reserving ticket: %w", err))
	}

	l := s.l.With(
		slog.String(logging.KeyGuild, t.GuildID),
		slog.Int(logging.KeyTicket, t.ID),
	)

	perms, err := s.tickets.ListPermissions(ctx, t.GuildID, t.ID)
	if err != nil {
		s.release(ctx, l, t)
		return nil, fmt.Errorf("error listing permissions: %w", err)
	}

	spec := &TicketChannelSpec{
		GuildID:    t.GuildID,
		ParentID:   t.CategoryID,
		Name:       t.ChannelName(),
		Topic:      t.Title,
		OwnerID:    t.OwnerID,
		GranteeIDs: make([]string, 0, len(perms)),
	}
	for _, p := range perms {
		spec.GranteeIDs = append(spec.GranteeIDs, p.GranteeID)
	}

	channelID, err := s.platform.CreateTicketChannel(ctx, spec)
	if err != nil {
		s.release(ctx, l, t)
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}

	if err := s.tickets.SetTicketChannel(ctx, t.GuildID, t.ID, channelID); err != nil {
		if delErr := s.platform.DeleteChannel(ctx, channelID); delErr != nil {
			l.Error("Error deleting orphaned ticket channel", slog.String(logging.KeyError, delErr.Error()))
		}
		s.release(ctx, l, t)
		return nil, fmt.Errorf("error linking ticket channel: %w", err)
	}

	t.ChannelID = channelID
	l.Info("Ticket created", slog.String(logging.KeyUser, t.OwnerID))
	return t, nil
}

// release deletes a reserved ticket whose channel could not be set up.
func (s *Service) release(ctx context.Context, l *slog.Logger, t *entities.Ticket) {
	if err := s.tickets.DeleteTicket(ctx, t.GuildID, t.ID); err != nil {
		l.Error("Error releasing reserved ticket", slog.String(logging.KeyError, err.Error()))
	}
}

// ClaimTicket assigns an open ticket to the caller. Only admins and the guild owner may claim.
func (s *Service) ClaimTicket(ctx context.Context, c *Caller, ticketID int) (*entities.Ticket, error) {
	if err := s.authorize(ctx, c); err != nil {
		return nil, err
	}

	t, err := s.tickets.GetTicket(ctx, c.GuildID, ticketID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	if !t.Status.CanTransitionTo(entities.TicketStatusInProgress) {
		if t.Status.IsClosed() {
			return nil, ErrTicketClosed
		}
		return nil, ErrTicketClaimed
	}

	// The store rechecks the status in case another claim won the race.
	t, err = s.tickets.ClaimTicket(ctx, c.GuildID, ticketID, c.UserID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, storeError(fmt.Errorf("error claiming ticket: %w", err))
	}
	return t, nil
}

// TicketPage is one page of the caller's tickets.
type TicketPage struct {
	Tickets []*entities.Ticket

	// Page is one based.
	Page  int
	Pages int
	Total int
}

// ListTickets lists the caller's tickets in the guild ordered by ticket ID.
func (s *Service) ListTickets(ctx context.Context, c *Caller, page int) (*TicketPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	total, err := s.tickets.CountByOwner(ctx, c.GuildID, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("error counting tickets: %w", err)
	} else if total == 0 {
		return nil, ErrNoTickets
	}

	pages := (total + PageSize - 1) / PageSize
	if page > pages {
		return nil, ErrInvalidPage
	}

	tickets, err := s.tickets.ListByOwner(ctx, c.GuildID, c.UserID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}

	return &TicketPage{
		Tickets: tickets,
		Page:    page,
		Pages:   pages,
		Total:   total,
	}, nil
}

// ChannelOutcome is what happened to the dedicated channel of a closed ticket.
type ChannelOutcome int

const (
	ChannelDeleted ChannelOutcome = iota
	ChannelMissing
	ChannelDeleteFailed
)

func (o ChannelOutcome) String() string {
	switch o {
	case ChannelDeleted:
		return "deleted"
	case ChannelMissing:
		return "missing"
	default:
		return "delete_failed"
	}
}

type CloseResult struct {
	Ticket  *entities.Ticket
	Channel ChannelOutcome

	// ChannelErr is set when the channel could not be deleted.
	ChannelErr error
}

// CloseTicket closes a ticket and deletes its channel. A failed channel deletion leaves the ticket closed.
func (s *Service) CloseTicket(ctx context.Context, c *Caller, ticketID int) (*CloseResult, error) {
	t, err := s.tickets.GetTicket(ctx, c.GuildID, ticketID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	if err := s.authorizeClose(ctx, c, t); err != nil {
		return nil, err
	}

	if !t.Status.CanTransitionTo(entities.TicketStatusClosed) {
		return nil, ErrTicketClosed
	}

	t, err = s.tickets.CloseTicket(ctx, c.GuildID, ticketID)
	if err != nil {
		return nil, storeError(fmt.Errorf("error closing ticket: %w", err))
	}

	l := s.l.With(
		slog.String(logging.KeyGuild, t.GuildID),
		slog.Int(logging.KeyTicket, t.ID),
		slog.String(logging.KeyUser, c.UserID),
	)
	l.Info("Ticket closed")

	res := &CloseResult{Ticket: t}
	if t.ChannelID == "" {
		res.Channel = ChannelMissing
		return res, nil
	}

	err = s.platform.DeleteChannel(ctx, t.ChannelID)
	switch {
	case err == nil:
		res.Channel = ChannelDeleted
	case errors.Is(err, ErrChannelNotFound):
		res.Channel = ChannelMissing
	default:
		l.Warn("Error deleting ticket channel", slog.String(logging.KeyError, err.Error()))
		res.Channel = ChannelDeleteFailed
		res.ChannelErr = err
	}
	return res, nil
}

// authorizeClose passes the ticket owner, admin grantees of the ticket, current admins and the guild owner.
func (s *Service) authorizeClose(ctx context.Context, c *Caller, t *entities.Ticket) error {
	if t.OwnerID == c.UserID || c.IsGuildOwner {
		return nil
	}

	ok, err := s.tickets.HasPermission(ctx, t.GuildID, t.ID, entities.PermissionRoleAdmin, c.identities()...)
	if err != nil {
		return fmt.Errorf("error checking ticket permission: %w", err)
	} else if ok {
		return nil
	}

	return s.authorize(ctx, c)
}

// SuggestCategories returns the guild's ticket categories whose ID or name starts with prefix.
func (s *Service) SuggestCategories(ctx context.Context, guildID string, prefix string) ([]entities.Category, error) {
	categories, err := s.guilds.ListCategories(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}

	lower := strings.ToLower(prefix)
	matches := make([]entities.Category, 0, min(len(categories), MaxSuggestions))
	for _, cat := range categories {
		if len(matches) == MaxSuggestions {
			break
		}
		if strings.HasPrefix(cat.ID, prefix) || strings.HasPrefix(strings.ToLower(cat.Name), lower) {
			matches = append(matches, cat)
		}
	}
	return matches, nil
}
