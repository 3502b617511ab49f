package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/config"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/request"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for health check.
	PathHealth = "/health"
)

// shutdownTimeout bounds the graceful shutdown of the monitoring server.
const shutdownTimeout = 10 * time.Second

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Config returns the settings the process was started with.
	Config() *config.Config

	// Service returns the ticketing service.
	Service() *ticketing.Service

	// Confirmations returns the pending confirmation prompts.
	Confirmations() *confirmations

	// Notifier returns the log channel notifier.
	Notifier() *notifier

	// OwnerID returns the ID of the user that owns the application.
	OwnerID() string
}

type App struct {
	// is the logger.
	*slog.Logger

	// c is the configuration of the application.
	c *config.Config

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// db is the database handle.
	db *dataaccess.DB

	svc           *ticketing.Service
	notifier      *notifier
	confirmations *confirmations

	// ownerID is the application owner. It is set before the gateway is opened.
	ownerID string

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any
}

// NewApp creates a new instance of App.
func NewApp(
	l *slog.Logger,
	c *config.Config,
	r *mux.Router,
	s *discordgo.Session,
	db *dataaccess.DB,
	svc *ticketing.Service,
	n *notifier,
	confirms *confirmations,
) *App {
	return &App{
		Logger:        l,
		c:             c,
		r:             r,
		s:             s,
		db:            db,
		svc:           svc,
		notifier:      n,
		confirmations: confirms,
	}
}

// Run connects to Discord and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	if a.eventNotifier == nil {
		// Create event notifier. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}
	a.s.SetEventNotifier(a.eventNotifier)

	// Start event listener.
	go a.eventListener()

	a.registerDiscordHandlers()

	owner, err := a.lookupOwner()
	if err != nil {
		return fmt.Errorf("error getting application owner: %w", err)
	}
	a.ownerID = owner

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	if err := syncCommands(a); err != nil {
		a.Error("Error registering slash commands", slog.String(logging.KeyError, err.Error()))
	}

	a.setupRoutes()
	a.runServer()

	a.Info("Bot is now running.")

	<-ctx.Done()
	a.Info("Received shutdown signal")

	return a.shutdown()
}

func (a *App) shutdown() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.svr != nil {
		if err := a.svr.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down monitoring server: %w", err))
		}
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) lookupOwner() (string, error) {
	app, err := a.s.Application("@me")
	if err != nil {
		return "", err
	}
	if app.Owner == nil {
		return "", errors.New("application has no owner")
	}
	return app.Owner.ID, nil
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) runServer() {
	a.svr = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.c.Monitoring.Port),
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) registerDiscordHandlers() {
	a.s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s", r.User.Username), slog.Int("guilds", len(r.Guilds)))
		a.notifier.Info(a.c.LogChannelID, fmt.Sprintf("%s ready", r.User.Username))
	})

	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Owner only message commands.
	a.s.AddHandler(syncMessageHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]slashCommandController{
			configCmdName:  configCmdController,
			ticketsCmdName: ticketsCmdController,
			helpCmdName:    helpCmdController,
		},
		// Button Controllers
		map[string]componentProcessor{
			confirmPrefix: confirmComponentProcessor,
			ticketPrefix:  ticketComponentProcessor,
		},
		// Autocomplete
		map[string]autocompleteProcessor{
			configCmdName:  categoryAutocomplete,
			ticketsCmdName: categoryAutocomplete,
		},
	))
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Config() *config.Config {
	return a.c
}

func (a *App) Service() *ticketing.Service {
	return a.svc
}

func (a *App) Confirmations() *confirmations {
	return a.confirmations
}

func (a *App) Notifier() *notifier {
	return a.notifier
}

func (a *App) OwnerID() string {
	return a.ownerID
}
