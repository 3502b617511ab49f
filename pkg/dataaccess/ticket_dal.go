package dataaccess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/helpdesk/pkg/custom"
	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/jmoiron/sqlx"
)

const ticketDalName = "ticket_dal"

const (
	tableTickets           = "tickets"
	tableTicketCounter     = "ticket_counter"
	tableTicketPermissions = "ticket_permissions"
)

const ticketColumns = `id, ticket_id, guild_id, title, description, category_id, channel_id, owner_id, assigned_to,
	status, priority, created_at, updated_at`

// NewTicket is a ticket waiting to be reserved.
type NewTicket struct {
	GuildID     string
	OwnerID     string
	Title       string
	Description string
	CategoryID  string
	Priority    entities.TicketPriority
}

type TicketDal interface {
	// ReserveTicket allocates the next ticket ID and inserts the ticket together with its permissions. The config,
	// category and per-user cap checks run in the same transaction as the insert.
	ReserveTicket(ctx context.Context, nt *NewTicket) (*entities.Ticket, error)

	// SetTicketChannel links the dedicated channel to a ticket.
	SetTicketChannel(ctx context.Context, guildID string, ticketID int, channelID string) error

	// DeleteTicket deletes a ticket and its permissions.
	DeleteTicket(ctx context.Context, guildID string, ticketID int) error

	// GetTicket gets a ticket by its guild scoped ID.
	GetTicket(ctx context.Context, guildID string, ticketID int) (*entities.Ticket, error)

	// ListByOwner lists the tickets of an owner ordered by ticket ID.
	ListByOwner(ctx context.Context, guildID string, ownerID string, limit int, offset int) ([]*entities.Ticket, error)

	// CountByOwner counts all tickets of an owner.
	CountByOwner(ctx context.Context, guildID string, ownerID string) (int, error)

	// CountOpenByOwner counts the non-closed tickets of an owner.
	CountOpenByOwner(ctx context.Context, guildID string, ownerID string) (int, error)

	// ClaimTicket moves an open ticket to in-progress and assigns it.
	ClaimTicket(ctx context.Context, guildID string, ticketID int, assigneeID string) (*entities.Ticket, error)

	// CloseTicket closes a ticket that is not already closed.
	CloseTicket(ctx context.Context, guildID string, ticketID int) (*entities.Ticket, error)

	// ListPermissions lists the grants of a ticket.
	ListPermissions(ctx context.Context, guildID string, ticketID int) ([]*entities.TicketPermission, error)

	// HasPermission reports whether any of granteeIDs holds role on the ticket.
	HasPermission(ctx context.Context, guildID string, ticketID int, role entities.PermissionRole, granteeIDs ...string) (bool, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *DB
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(l *slog.Logger, db *DB) TicketDal {
	return &ticketDal{
		l:  l.With(slog.String(logging.KeyDal, ticketDalName)),
		db: db,
	}
}

func (d *ticketDal) ReserveTicket(ctx context.Context, nt *NewTicket) (*entities.Ticket, error) {
	done := monitoring.ObserveQuery(ticketDalName, "reserve_ticket", tableTickets)
	defer done()

	t, err := d.reserve(ctx, nt)
	if isConflict(err) {
		d.l.Warn("Ticket reservation conflicted, retrying",
			slog.String(logging.KeyGuild, nt.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
		t, err = d.reserve(ctx, nt)
	}
	if isConflict(err) {
		return nil, fmt.Errorf("%w: %w", ErrConflict, err)
	} else if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *ticketDal) reserve(ctx context.Context, nt *NewTicket) (*entities.Ticket, error) {
	now := custom.Now()
	t := &entities.Ticket{
		GuildID:     nt.GuildID,
		Title:       nt.Title,
		Description: nt.Description,
		CategoryID:  nt.CategoryID,
		OwnerID:     nt.OwnerID,
		Status:      entities.TicketStatusOpen,
		Priority:    nt.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = entities.TicketPriorityMedium
	}

	err := d.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var limit sql.NullInt64
		err := tx.GetContext(ctx, &limit, `SELECT max_tickets_per_user FROM config WHERE guild_id = ?`, nt.GuildID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotConfigured
		} else if err != nil {
			return fmt.Errorf("error getting config: %w", err)
		}

		ok, err := hasCategory(ctx, tx, nt.GuildID, nt.CategoryID)
		if err != nil {
			return err
		} else if !ok {
			return ErrUnknownCategory
		}

		if limit.Valid {
			open, err := countOpen(ctx, tx, nt.GuildID, nt.OwnerID)
			if err != nil {
				return err
			}
			if int64(open) >= limit.Int64 {
				return ErrTicketLimit
			}
		}

		if err := tx.GetContext(ctx, &t.ID, `INSERT INTO ticket_counter (guild_id, last_ticket_id) VALUES (?, 1)
			ON CONFLICT (guild_id) DO UPDATE SET last_ticket_id = last_ticket_id + 1
			RETURNING last_ticket_id`, nt.GuildID); err != nil {
			return fmt.Errorf("error allocating ticket id: %w", err)
		}

		res, err := tx.NamedExecContext(ctx, `INSERT INTO tickets
			(ticket_id, guild_id, title, description, category_id, channel_id, owner_id, status, priority, created_at, updated_at)
			VALUES (:ticket_id, :guild_id, :title, :description, :category_id, :channel_id, :owner_id, :status, :priority,
			:created_at, :updated_at)`, t)
		if err != nil {
			return fmt.Errorf("error inserting ticket: %w", err)
		}

		t.RowID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading ticket row id: %w", err)
		}

		// Admins are granted first so an owner who is also an admin keeps the admin grant.
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO ticket_permissions (ticket_row_id, grantee_id, role)
			SELECT ?, member_id, ? FROM guild_admin WHERE guild_id = ? ORDER BY rowid`,
			t.RowID, entities.PermissionRoleAdmin, nt.GuildID); err != nil {
			return fmt.Errorf("error granting admins: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO ticket_permissions (ticket_row_id, grantee_id, role)
			VALUES (?, ?, ?)`, t.RowID, nt.OwnerID, entities.PermissionRoleUser); err != nil {
			return fmt.Errorf("error granting owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.l.Debug("Reserved ticket",
		slog.String(logging.KeyGuild, t.GuildID),
		slog.Int(logging.KeyTicket, t.ID),
	)
	return t, nil
}

func (d *ticketDal) SetTicketChannel(ctx context.Context, guildID string, ticketID int, channelID string) error {
	done := monitoring.ObserveQuery(ticketDalName, "set_ticket_channel", tableTickets)
	defer done()

	res, err := d.db.ExecContext(ctx,
		`UPDATE tickets SET channel_id = ?, updated_at = ? WHERE guild_id = ? AND ticket_id = ?`,
		channelID, custom.Now(), guildID, ticketID)
	if err != nil {
		return fmt.Errorf("error updating ticket channel: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	return nil
}

func (d *ticketDal) DeleteTicket(ctx context.Context, guildID string, ticketID int) error {
	done := monitoring.ObserveQuery(ticketDalName, "delete_ticket", tableTickets)
	defer done()

	res, err := d.db.ExecContext(ctx, `DELETE FROM tickets WHERE guild_id = ? AND ticket_id = ?`, guildID, ticketID)
	if err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	return nil
}

func (d *ticketDal) GetTicket(ctx context.Context, guildID string, ticketID int) (*entities.Ticket, error) {
	done := monitoring.ObserveQuery(ticketDalName, "get_ticket", tableTickets)
	defer done()

	return getTicket(ctx, d.db, guildID, ticketID)
}

func (d *ticketDal) ListByOwner(ctx context.Context, guildID string, ownerID string, limit int, offset int) ([]*entities.Ticket, error) {
	done := monitoring.ObserveQuery(ticketDalName, "list_by_owner", tableTickets)
	defer done()

	tickets := make([]*entities.Ticket, 0)
	if err := d.db.SelectContext(ctx, &tickets,
		`SELECT `+ticketColumns+` FROM tickets WHERE guild_id = ? AND owner_id = ? ORDER BY ticket_id LIMIT ? OFFSET ?`,
		guildID, ownerID, limit, offset); err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	return tickets, nil
}

func (d *ticketDal) CountByOwner(ctx context.Context, guildID string, ownerID string) (int, error) {
	done := monitoring.ObserveQuery(ticketDalName, "count_by_owner", tableTickets)
	defer done()

	var n int
	if err := d.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM tickets WHERE guild_id = ? AND owner_id = ?`, guildID, ownerID); err != nil {
		return 0, fmt.Errorf("error counting tickets: %w", err)
	}
	return n, nil
}

func (d *ticketDal) CountOpenByOwner(ctx context.Context, guildID string, ownerID string) (int, error) {
	done := monitoring.ObserveQuery(ticketDalName, "count_open_by_owner", tableTickets)
	defer done()

	return countOpen(ctx, d.db, guildID, ownerID)
}

func (d *ticketDal) ClaimTicket(ctx context.Context, guildID string, ticketID int, assigneeID string) (*entities.Ticket, error) {
	done := monitoring.ObserveQuery(ticketDalName, "claim_ticket", tableTickets)
	defer done()

	res, err := d.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, assigned_to = ?, updated_at = ? WHERE guild_id = ? AND ticket_id = ? AND status = ?`,
		entities.TicketStatusInProgress, assigneeID, custom.Now(), guildID, ticketID, entities.TicketStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("error claiming ticket: %w", err)
	}

	t, err := getTicket(ctx, d.db, guildID, ticketID)
	if err != nil {
		return nil, err
	}

	ok, err := affected(res)
	if err != nil {
		return nil, err
	} else if ok {
		return t, nil
	}

	if t.Status.IsClosed() {
		return t, ErrAlreadyClosed
	}
	return t, ErrAlreadyClaimed
}

func (d *ticketDal) CloseTicket(ctx context.Context, guildID string, ticketID int) (*entities.Ticket, error) {
	done := monitoring.ObserveQuery(ticketDalName, "close_ticket", tableTickets)
	defer done()

	res, err := d.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE guild_id = ? AND ticket_id = ? AND status != ?`,
		entities.TicketStatusClosed, custom.Now(), guildID, ticketID, entities.TicketStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("error closing ticket: %w", err)
	}

	t, err := getTicket(ctx, d.db, guildID, ticketID)
	if err != nil {
		return nil, err
	}

	ok, err := affected(res)
	if err != nil {
		return nil, err
	} else if !ok {
		return t, ErrAlreadyClosed
	}
	return t, nil
}

func (d *ticketDal) ListPermissions(ctx context.Context, guildID string, ticketID int) ([]*entities.TicketPermission, error) {
	done := monitoring.ObserveQuery(ticketDalName, "list_permissions", tableTicketPermissions)
	defer done()

	perms := make([]*entities.TicketPermission, 0)
	if err := d.db.SelectContext(ctx, &perms, `SELECT p.ticket_row_id, p.grantee_id, p.role
		FROM ticket_permissions p
		JOIN tickets t ON t.id = p.ticket_row_id
		WHERE t.guild_id = ? AND t.ticket_id = ?
		ORDER BY p.id`, guildID, ticketID); err != nil {
		return nil, fmt.Errorf("error listing permissions: %w", err)
	}
	return perms, nil
}

func (d *ticketDal) HasPermission(ctx context.Context, guildID string, ticketID int, role entities.PermissionRole, granteeIDs ...string) (bool, error) {
	if len(granteeIDs) == 0 {
		return false, nil
	}

	done := monitoring.ObserveQuery(ticketDalName, "has_permission", tableTicketPermissions)
	defer done()

	query, args, err := sqlx.In(`SELECT COUNT(*)
		FROM ticket_permissions p
		JOIN tickets t ON t.id = p.ticket_row_id
		WHERE t.guild_id = ? AND t.ticket_id = ? AND p.role = ? AND p.grantee_id IN (?)`,
		guildID, ticketID, role, granteeIDs)
	if err != nil {
		return false, fmt.Errorf("error building permission query: %w", err)
	}

	var n int
	if err := d.db.GetContext(ctx, &n, d.db.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("error checking permission: %w", err)
	}
	return n > 0, nil
}

func getTicket(ctx context.Context, q sqlx.QueryerContext, guildID string, ticketID int) (*entities.Ticket, error) {
	t := new(entities.Ticket)
	err := sqlx.GetContext(ctx, q, t,
		`SELECT `+ticketColumns+` FROM tickets WHERE guild_id = ? AND ticket_id = ?`, guildID, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return t, nil
}

func countOpen(ctx context.Context, q sqlx.QueryerContext, guildID string, ownerID string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM tickets WHERE guild_id = ? AND owner_id = ? AND status != ?`,
		guildID, ownerID, entities.TicketStatusClosed); err != nil {
		return 0, fmt.Errorf("error counting open tickets: %w", err)
	}
	return n, nil
}
