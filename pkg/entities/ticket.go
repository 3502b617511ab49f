package entities

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/helpdesk/pkg/custom"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsClosed reports whether the status is terminal.
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusClosed
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	switch s {
	case TicketStatusOpen:
		return next == TicketStatusInProgress || next == TicketStatusClosed
	case TicketStatusInProgress:
		return next == TicketStatusClosed
	default:
		return false
	}
}

// TicketPriority is cosmetic only.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ParseTicketPriority parses a priority name. An empty name is medium.
func ParseTicketPriority(s string) (TicketPriority, error) {
	switch p := TicketPriority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return TicketPriorityMedium, nil
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// Ticket is a support request filed in a guild.
type Ticket struct {
	// RowID is the storage key of the ticket. It is not shown to users.
	RowID int64 `json:"-" db:"id"`

	// ID is the guild scoped sequence number of the ticket.
	ID int `json:"ticket_id" db:"ticket_id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" db:"guild_id"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// CategoryID is the configured category the ticket was filed under.
	CategoryID string `json:"category_id" db:"category_id"`

	// ChannelID is the dedicated text channel. Empty until the channel has been created.
	ChannelID string `json:"channel_id" db:"channel_id"`

	// OwnerID is the ID of the user that created the ticket.
	OwnerID string `json:"owner_id" db:"owner_id"`

	// AssignedTo is the admin working the ticket, if any.
	AssignedTo *string `json:"assigned_to,omitempty" db:"assigned_to"`

	Status   TicketStatus   `json:"status" db:"status"`
	Priority TicketPriority `json:"priority" db:"priority"`

	CreatedAt custom.Datetime `json:"created_at" db:"created_at"`
	UpdatedAt custom.Datetime `json:"updated_at" db:"updated_at"`
}

// ChannelName is the name of the dedicated channel, e.g. "ticket-0007".
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("ticket-%04d", t.ID)
}

// PermissionRole is the kind of grant a ticket permission holds.
type PermissionRole string

const (
	PermissionRoleAdmin PermissionRole = "admin"
	PermissionRoleUser  PermissionRole = "user"
)

// TicketPermission grants a user or role visibility of a ticket.
type TicketPermission struct {
	TicketRowID int64          `json:"-" db:"ticket_row_id"`
	GranteeID   string         `json:"grantee_id" db:"grantee_id"`
	Role        PermissionRole `json:"role" db:"role"`
}
