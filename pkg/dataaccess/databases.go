package dataaccess

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured is returned when the guild has no config row.
	ErrNotConfigured = errors.New("guild is not configured")

	// ErrUnknownCategory is returned when a category is not configured for the guild.
	ErrUnknownCategory = errors.New("category is not configured")

	// ErrTicketLimit is returned when the owner already holds the maximum number of open tickets.
	ErrTicketLimit = errors.New("ticket limit reached")

	// ErrAlreadyClosed is returned when closing or claiming a closed ticket.
	ErrAlreadyClosed = errors.New("ticket is already closed")

	// ErrAlreadyClaimed is returned when claiming a ticket that is in progress.
	ErrAlreadyClaimed = errors.New("ticket is already claimed")

	// ErrConflict is returned when a write collided with a concurrent writer.
	ErrConflict = errors.New("conflicting write")
)

// DB is the database handle owned by the process. It is opened once at start up and closed at shutdown.
type DB struct {
	*sqlx.DB

	l    *slog.Logger
	conn *connection.SQLite
}

// Open opens the sqlite database at path.
func Open(ctx context.Context, l *slog.Logger, path string) (*DB, error) {
	conn := &connection.SQLite{Path: path}

	db, err := conn.Connect(ctx)
	if err != nil {
		return nil, err
	}

	l.Debug("Connected to sqlite", slog.String("path", path))

	return &DB{
		DB:   db,
		l:    l,
		conn: conn,
	}, nil
}

// Migrate applies any pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("error loading migrations: %w", err)
	}

	p, err := goose.NewProvider(goose.DialectSQLite3, d.DB.DB, fsys)
	if err != nil {
		return fmt.Errorf("error creating migration provider: %w", err)
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("error applying migrations: %w", err)
	}

	for _, r := range results {
		d.l.Info("Applied migration",
			slog.Int64("version", r.Source.Version),
			slog.String("duration", r.Duration.String()),
		)
	}
	return nil
}

// Ping checks the database can be reached.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.Ping(ctx, d.DB)
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.l.Error("Error rolling back transaction", slog.String(logging.KeyError, rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// isConflict reports whether err is a lock or uniqueness collision worth retrying.
func isConflict(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}

	switch se.Code() {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED,
		sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_BUSY
}
