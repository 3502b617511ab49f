package entities

import "github.com/Jacobbrewer1/helpdesk/pkg/custom"

// GuildConfig is the configuration for a guild.
type GuildConfig struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" db:"guild_id"`

	// LogChannelID is where operational and error notifications are posted. Nil when unset.
	LogChannelID *string `json:"log_channel_id,omitempty" db:"log_channel_id"`

	// MaxTicketsPerUser caps the number of non-closed tickets a member may hold. Nil when uncapped.
	MaxTicketsPerUser *int `json:"max_tickets_per_user,omitempty" db:"max_tickets_per_user"`

	// AdminIDs are the identities allowed to bypass ownership checks.
	AdminIDs []string `json:"admin_ids" db:"-"`

	// Categories are the channel categories tickets may be filed under.
	Categories []Category `json:"categories" db:"-"`

	CreatedAt custom.Datetime `json:"created_at" db:"created_at"`
	UpdatedAt custom.Datetime `json:"updated_at" db:"updated_at"`
}

// Category is a ticket category backed by a channel category.
type Category struct {
	// ID is the ID of the channel category.
	ID string `json:"id" db:"category_id"`

	// Name is the display name of the category when it was added.
	Name string `json:"name" db:"name"`
}
