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

const guildDalName = "guild_dal"

const (
	tableConfig        = "config"
	tableGuildAdmin    = "guild_admin"
	tableGuildCategory = "guild_category"
)

type GuildDal interface {
	// GetConfig gets the configuration of a guild including its admins and categories.
	GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// CreateConfig creates the configuration row of a guild.
	CreateConfig(ctx context.Context, guildID string, logChannelID *string, adminIDs []string) error

	// SetLogChannel sets the log channel, reporting whether the value changed.
	SetLogChannel(ctx context.Context, guildID string, channelID *string) (bool, error)

	// GetLogChannel gets the log channel ID. It is empty when no log channel is set.
	GetLogChannel(ctx context.Context, guildID string) (string, error)

	// ReplaceAdmins replaces the whole admin set.
	ReplaceAdmins(ctx context.Context, guildID string, adminIDs []string) error

	// AddAdmin adds an admin if absent, reporting whether it was added.
	AddAdmin(ctx context.Context, guildID string, memberID string) (bool, error)

	// RemoveAdmin removes an admin if present, reporting whether it was removed.
	RemoveAdmin(ctx context.Context, guildID string, memberID string) (bool, error)

	// ListAdmins lists the admin IDs in the order they were added.
	ListAdmins(ctx context.Context, guildID string) ([]string, error)

	// IsAdmin reports whether any of ids is in the admin set.
	IsAdmin(ctx context.Context, guildID string, ids ...string) (bool, error)

	// AddCategory adds a ticket category if absent, reporting whether it was added.
	AddCategory(ctx context.Context, guildID string, category entities.Category) (bool, error)

	// RemoveCategory removes a ticket category if present, reporting whether it was removed.
	RemoveCategory(ctx context.Context, guildID string, categoryID string) (bool, error)

	// HasCategory reports whether the category is configured.
	HasCategory(ctx context.Context, guildID string, categoryID string) (bool, error)

	// ListCategories lists the categories in the order they were added.
	ListCategories(ctx context.Context, guildID string) ([]entities.Category, error)

	// SetTicketLimit sets the per-user open ticket cap. Nil removes the cap.
	SetTicketLimit(ctx context.Context, guildID string, limit *int) error

	// Clear empties the admin set and unsets the log channel.
	Clear(ctx context.Context, guildID string) error
}

type guildDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *DB
}

// NewGuildDal creates a new guild data access layer.
func NewGuildDal(l *slog.Logger, db *DB) GuildDal {
	return &guildDal{
		l:  l.With(slog.String(logging.KeyDal, guildDalName)),
		db: db,
	}
}

func (g *guildDal) GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	done := monitoring.ObserveQuery(guildDalName, "get_config", tableConfig)
	defer done()

	cfg := new(entities.GuildConfig)
	err := g.db.GetContext(ctx, cfg,
		`SELECT guild_id, log_channel_id, max_tickets_per_user, created_at, updated_at FROM config WHERE guild_id = ?`,
		guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting config: %w", err)
	}

	cfg.AdminIDs, err = g.ListAdmins(ctx, guildID)
	if err != nil {
		return nil, err
	}

	cfg.Categories, err = g.ListCategories(ctx, guildID)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (g *guildDal) CreateConfig(ctx context.Context, guildID string, logChannelID *string, adminIDs []string) error {
	done := monitoring.ObserveQuery(guildDalName, "create_config", tableConfig)
	defer done()

	now := custom.Now()
	err := g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO config (guild_id, log_channel_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			guildID, logChannelID, now, now); err != nil {
			if isConflict(err) {
				return ErrConflict
			}
			return fmt.Errorf("error inserting config: %w", err)
		}
		return insertAdmins(ctx, tx, guildID, adminIDs, now)
	})
	if err != nil {
		return err
	}

	g.l.Debug("Created config", slog.String(logging.KeyGuild, guildID))
	return nil
}

func (g *guildDal) SetLogChannel(ctx context.Context, guildID string, channelID *string) (bool, error) {
	done := monitoring.ObserveQuery(guildDalName, "set_log_channel", tableConfig)
	defer done()

	// IS NOT compares NULLs as equal, so an unchanged value matches no rows.
	res, err := g.db.ExecContext(ctx,
		`UPDATE config SET log_channel_id = ?, updated_at = ? WHERE guild_id = ? AND log_channel_id IS NOT ?`,
		channelID, custom.Now(), guildID, channelID)
	if err != nil {
		return false, fmt.Errorf("error updating log channel: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	if err := requireConfig(ctx, g.db, guildID); err != nil {
		return false, err
	}
	return false, nil
}

func (g *guildDal) GetLogChannel(ctx context.Context, guildID string) (string, error) {
	done := monitoring.ObserveQuery(guildDalName, "get_log_channel", tableConfig)
	defer done()

	var id sql.NullString
	err := g.db.GetContext(ctx, &id, `SELECT log_channel_id FROM config WHERE guild_id = ?`, guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("error getting log channel: %w", err)
	}
	return id.String, nil
}

func (g *guildDal) ReplaceAdmins(ctx context.Context, guildID string, adminIDs []string) error {
	done := monitoring.ObserveQuery(guildDalName, "replace_admins", tableGuildAdmin)
	defer done()

	now := custom.Now()
	return g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireConfig(ctx, tx, guildID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM guild_admin WHERE guild_id = ?`, guildID); err != nil {
			return fmt.Errorf("error deleting admins: %w", err)
		}
		if err := insertAdmins(ctx, tx, guildID, adminIDs, now); err != nil {
			return err
		}
		return touchConfig(ctx, tx, guildID, now)
	})
}

func (g *guildDal) AddAdmin(ctx context.Context, guildID string, memberID string) (bool, error) {
	done := monitoring.ObserveQuery(guildDalName, "add_admin", tableGuildAdmin)
	defer done()

	var added bool
	now := custom.Now()
	err := g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireConfig(ctx, tx, guildID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO guild_admin (guild_id, member_id, created_at) VALUES (?, ?, ?)`,
			guildID, memberID, now)
		if err != nil {
			return fmt.Errorf("error inserting admin: %w", err)
		}

		added, err = affected(res)
		if err != nil || !added {
			return err
		}
		return touchConfig(ctx, tx, guildID, now)
	})
	return added, err
}

func (g *guildDal) RemoveAdmin(ctx context.Context, guildID string, memberID string) (bool, error) {
	done := monitoring.ObserveQuery(guildDalName, "remove_admin", tableGuildAdmin)
	defer done()

	var removed bool
	now := custom.Now()
	err := g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireConfig(ctx, tx, guildID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM guild_admin WHERE guild_id = ? AND member_id = ?`, guildID, memberID)
		if err != nil {
			return fmt.Errorf("error deleting admin: %w", err)
		}

		removed, err = affected(res)
		if err != nil || !removed {
			return err
		}
		return touchConfig(ctx, tx, guildID, now)
	})
	return removed, err
}

func (g *guildDal) ListAdmins(ctx context.Context, guildID string) ([]string, error) {
	done := monitoring.ObserveQuery(guildDalName, "list_admins", tableGuildAdmin)
	defer done()

	ids := make([]string, 0)
	if err := g.db.SelectContext(ctx, &ids,
		`SELECT member_id FROM guild_admin WHERE guild_id = ? ORDER BY rowid`, guildID); err != nil {
		return nil, fmt.Errorf("error listing admins: %w", err)
	}
	return ids, nil
}

func (g *guildDal) IsAdmin(ctx context.Context, guildID string, ids ...string) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}

	done := monitoring.ObserveQuery(guildDalName, "is_admin", tableGuildAdmin)
	defer done()

	query, args, err := sqlx.In(`SELECT COUNT(*) FROM guild_admin WHERE guild_id = ? AND member_id IN (?)`, guildID, ids)
	if err != nil {
		return false, fmt.Errorf("error building admin query: %w", err)
	}

	var n int
	if err := g.db.GetContext(ctx, &n, g.db.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("error checking admin: %w", err)
	}
	return n > 0, nil
}

func (g *guildDal) AddCategory(ctx context.Context, guildID string, category entities.Category) (bool, error) {
	done := monitoring.ObserveQuery(guildDalName, "add_category", tableGuildCategory)
	defer done()

	var added bool
	now := custom.Now()
	err := g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireConfig(ctx, tx, guildID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO guild_category (guild_id, category_id, name, created_at) VALUES (?, ?, ?, ?)`,
			guildID, category.ID, category.Name, now)
		if err != nil {
			return fmt.Errorf("error inserting category: %w", err)
		}

		added, err = affected(res)
		if err != nil || !added {
			return err
		}
		return touchConfig(ctx, tx, guildID, now)
	})
	return added, err
}

func (g *guildDal) RemoveCategory(ctx context.Context, guildID string, categoryID string) (bool, error) {
	done := monitoring.ObserveQuery(guildDalName, "remove_category", tableGuildCategory)
	defer done()

	var removed bool
	now := custom.Now()
	err := g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireConfig(ctx, tx, guildID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM guild_category WHERE guild_id = ? AND category_id = ?`, guildID, categoryID)
		if err != nil {
			return fmt.Errorf("error deleting category: %w", err)
		}

		removed, err = affected(res)
		if err != nil || !removed {
			return err
		}
		return touchConfig(ctx, tx, guildID, now)
	})
	return removed, err
}

func (g *guildDal) HasCategory(ctx context.Context, guildID string, categoryID string) (bool, error) {
	done := monitoring.ObserveQuery(guildDalName, "has_category", tableGuildCategory)
	defer done()

	return hasCategory(ctx, g.db, guildID, categoryID)
}

func (g *guildDal) ListCategories(ctx context.Context, guildID string) ([]entities.Category, error) {
	done := monitoring.ObserveQuery(guildDalName, "list_categories", tableGuildCategory)
	defer done()

	categories := make([]entities.Category, 0)
	if err := g.db.SelectContext(ctx, &categories,
		`SELECT category_id, name FROM guild_category WHERE guild_id = ? ORDER BY rowid`, guildID); err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}

func (g *guildDal) SetTicketLimit(ctx context.Context, guildID string, limit *int) error {
	done := monitoring.ObserveQuery(guildDalName, "set_ticket_limit", tableConfig)
	defer done()

	res, err := g.db.ExecContext(ctx,
		`UPDATE config SET max_tickets_per_user = ?, updated_at = ? WHERE guild_id = ?`,
		limit, custom.Now(), guildID)
	if err != nil {
		return fmt.Errorf("error updating ticket limit: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return err
	} else if !ok {
		return ErrNotConfigured
	}
	return nil
}

func (g *guildDal) Clear(ctx context.Context, guildID string) error {
	done := monitoring.ObserveQuery(guildDalName, "clear", tableConfig)
	defer done()

	return g.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE config SET log_channel_id = NULL, updated_at = ? WHERE guild_id = ?`, custom.Now(), guildID)
		if err != nil {
			return fmt.Errorf("error clearing log channel: %w", err)
		}

		ok, err := affected(res)
		if err != nil {
			return err
		} else if !ok {
			return ErrNotConfigured
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM guild_admin WHERE guild_id = ?`, guildID); err != nil {
			return fmt.Errorf("error clearing admins: %w", err)
		}
		return nil
	})
}

func insertAdmins(ctx context.Context, tx *sqlx.Tx, guildID string, adminIDs []string, now custom.Datetime) error {
	for _, id := range adminIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO guild_admin (guild_id, member_id, created_at) VALUES (?, ?, ?)`,
			guildID, id, now); err != nil {
			return fmt.Errorf("error inserting admin: %w", err)
		}
	}
	return nil
}

func touchConfig(ctx context.Context, tx *sqlx.Tx, guildID string, now custom.Datetime) error {
	if _, err := tx.ExecContext(ctx, `UPDATE config SET updated_at = ? WHERE guild_id = ?`, now, guildID); err != nil {
		return fmt.Errorf("error updating config timestamp: %w", err)
	}
	return nil
}

func requireConfig(ctx context.Context, q sqlx.QueryerContext, guildID string) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM config WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("error checking config: %w", err)
	}
	if n == 0 {
		return ErrNotConfigured
	}
	return nil
}

func hasCategory(ctx context.Context, q sqlx.QueryerContext, guildID string, categoryID string) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM guild_category WHERE guild_id = ? AND category_id = ?`, guildID, categoryID); err != nil {
		return false, fmt.Errorf("error checking category: %w", err)
	}
	return n > 0, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n > 0, nil
}
