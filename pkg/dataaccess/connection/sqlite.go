package connection

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	dbMonitoring "github.com/Jacobbrewer1/helpdesk/pkg/dataaccess/monitoring"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const defaultBusyTimeout = 5 * time.Second

// uriPathEscaper escapes the characters that end or encode the path of an SQLite URI filename.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

type SQLite struct {
	// Path is the database file. The parent directory is created when missing.
	Path string

	// BusyTimeout is how long a statement waits on a locked database before failing.
	BusyTimeout time.Duration
}

// ConnectionString builds the DSN. Transactions take the write lock up front so that
// read-then-write sequences inside them cannot interleave.
func (s *SQLite) ConnectionString() string {
	timeout := s.BusyTimeout
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout("+strconv.FormatInt(timeout.Milliseconds(), 10)+")")
	q.Set("_txlock", "immediate")

	return "file:" + uriPathEscaper.Replace(s.Path) + "?" + q.Encode()
}

func (s *SQLite) Ping(ctx context.Context, db *sqlx.DB) error {
	// Create a new timer to measure the latency of the check.
	done := dbMonitoring.ObserveQuery("health_check", "ping", "-")
	defer done()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("error pinging sqlite: %w", err)
	}
	return nil
}

// Connect opens the database and checks it can be reached.
func (s *SQLite) Connect(ctx context.Context) (*sqlx.DB, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open(DriverName, s.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite: %w", err)
	}

	if err := s.Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
