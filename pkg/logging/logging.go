package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

const (
	// KeyError is the key for errors in log attributes.
	KeyError = "err"

	// KeyDal is the key for the data access layer name.
	KeyDal = "dal"

	// KeyApp is the key for the application name.
	KeyApp = "app"

	// KeyGuild is the key for a guild ID.
	KeyGuild = "guild_id"

	// KeyUser is the key for a user ID.
	KeyUser = "user_id"

	// KeyCommand is the key for a command name.
	KeyCommand = "command"

	// KeyTicket is the key for a ticket ID.
	KeyTicket = "ticket_id"
)

const (
	// FormatConsole writes human readable, optionally coloured, lines.
	FormatConsole = "console"

	// FormatJSON writes one JSON object per line.
	FormatJSON = "json"
)

// Name is the name of the application doing the logging.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// Name is added to every record under KeyApp.
	Name Name

	// Level is one of debug, info, warn or error.
	Level string

	// Format is FormatConsole or FormatJSON.
	Format string

	// Writer is where records are written. Defaults to stdout.
	Writer io.Writer
}

// NewConfig creates a new logging config with the default level and format.
func NewConfig(name Name) *Config {
	return &Config{
		Name:   name,
		Level:  "info",
		Format: FormatConsole,
		Writer: os.Stdout,
	}
}

// CommonLogger creates the logger used across the application and sets it as the slog default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, errors.New("logging config is nil")
	}

	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	w := c.Writer
	if w == nil {
		w = os.Stdout
	}

	var h slog.Handler
	switch strings.ToLower(c.Format) {
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: level == slog.LevelDebug,
		})
	case FormatConsole, "":
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			AddSource:  level == slog.LevelDebug,
			NoColor:    !isTerminal(w),
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}

	l := slog.New(h).With(slog.String(KeyApp, string(c.Name)))
	slog.SetDefault(l)
	return l, nil
}

// ParseLevel converts a level name into a slog.Level. An empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
