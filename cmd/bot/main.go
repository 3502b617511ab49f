package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jacobbrewer1/helpdesk/cmd/bot/config"
	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "Support tickets and server configuration for Discord",
		SilenceUsage: true,
		RunE:         runBot,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the settings file (default: ./config.json)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Connect to Discord and serve commands",
			RunE:  runBot,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE:  runMigrate,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := InitializeApp(ctx, c)
	if err != nil {
		return fmt.Errorf("error initializing application: %w", err)
	}
	defer cleanup()

	a.Info("Starting application")
	if err := a.Run(ctx); err != nil {
		a.Error("Error running application", slog.String(logging.KeyError, err.Error()))
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	l, err := logging.CommonLogger(newLoggingConfig(c))
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}

	_, cleanup, err := provideDatabase(cmd.Context(), l, c)
	if err != nil {
		return err
	}
	cleanup()

	l.Info("Database is up to date", slog.String("path", c.Database.Path))
	return nil
}

func newLoggingConfig(c *config.Config) *logging.Config {
	lc := logging.NewConfig(config.AppName)
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	return lc
}

// provideDatabase opens the database and brings its schema up to date.
func provideDatabase(ctx context.Context, l *slog.Logger, c *config.Config) (*dataaccess.DB, func(), error) {
	db, err := dataaccess.Open(ctx, l, c.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			l.Error("Error closing database", slog.String(logging.KeyError, err.Error()))
		}
	}

	if err := db.Migrate(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, cleanup, nil
}
