package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"github.com/Jacobbrewer1/helpdesk/pkg/request"
	"github.com/Jacobbrewer1/helpdesk/pkg/ticketing"
	"github.com/gorilla/mux"
)

// commandTimeout bounds a single command, including any confirmation it waits on.
const commandTimeout = ticketing.ConfirmTimeout + 30*time.Second

const (
	outcomeSuccess = "success"
	outcomePanic   = "panic"
)

// slashCommandController is the handler for slash commands. It picks the processor for a sub command.
type slashCommandController func(a IApp, sub string) (slashProcessor, error)

// slashProcessor is the processor for slash commands.
type slashProcessor func(ctx context.Context, a IApp, i *interaction) error

// componentProcessor is the processor for message components. args are the custom ID segments after the prefix.
type componentProcessor func(ctx context.Context, a IApp, i *interaction, args []string) error

// autocompleteProcessor is the processor for autocomplete requests.
type autocompleteProcessor func(ctx context.Context, a IApp, i *interaction) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(http.StatusText(http.StatusInternalServerError))); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// The status code is only known once the handler has returned.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler dispatches slash commands, components and autocomplete requests.
func interactionHandler(
	a IApp,
	controllers map[string]slashCommandController,
	components map[string]componentProcessor,
	autocompletes map[string]autocompleteProcessor,
) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		i := newInteraction(s, ic)

		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashCommand(a, i, controllers)
		case discordgo.InteractionMessageComponent:
			handleComponent(a, i, components)
		case discordgo.InteractionApplicationCommandAutocomplete:
			handleAutocomplete(a, i, autocompletes)
		default:
			a.Log().Debug("Ignoring interaction", slog.Int("type", int(ic.Type)))
		}
	}
}

func handleSlashCommand(a IApp, i *interaction, controllers map[string]slashCommandController) {
	data := i.ApplicationCommandData()

	sub := ""
	if opt := subCommand(data); opt != nil {
		sub = opt.Name
	}

	command := strings.TrimSpace(data.Name + " " + sub)
	a.Log().Debug("Handling command", slog.String(logging.KeyCommand, command))

	controller, ok := controllers[data.Name]
	if !ok {
		a.Log().Error("No controller found for command", slog.String(logging.KeyCommand, command))
		if err := i.respondError(messages.ErrUserErrorProcessing); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	runCommand(a, i, command, func(ctx context.Context) error {
		processor, err := controller(a, sub)
		if err != nil {
			return fmt.Errorf("error getting processor for command %s: %w", command, err)
		}
		return processor(ctx, a, i)
	})
}

func handleComponent(a IApp, i *interaction, components map[string]componentProcessor) {
	parts := strings.Split(i.MessageComponentData().CustomID, ":")

	processor, ok := components[parts[0]]
	if !ok {
		a.Log().Warn("No processor found for component", slog.String("custom_id", i.MessageComponentData().CustomID))
		return
	}

	runCommand(a, i, "component "+parts[0], func(ctx context.Context) error {
		return processor(ctx, a, i, parts[1:])
	})
}

func handleAutocomplete(a IApp, i *interaction, autocompletes map[string]autocompleteProcessor) {
	name := i.ApplicationCommandData().Name

	processor, ok := autocompletes[name]
	if !ok {
		a.Log().Warn("No autocomplete found for command", slog.String(logging.KeyCommand, name))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			monitoring.CommandTotal.WithLabelValues("autocomplete "+name, outcomePanic).Inc()
			a.Log().Error("Panic in autocomplete",
				slog.String(logging.KeyCommand, name),
				slog.String(logging.KeyError, fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	// Suggestions are best effort. Failures are only logged.
	if err := processor(ctx, a, i); err != nil {
		a.Log().Error("Error processing autocomplete",
			slog.String(logging.KeyCommand, name),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// runCommand runs fn with panic recovery, metrics and failure reporting.
func runCommand(a IApp, i *interaction, command string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	start := time.Now()
	outcome := outcomeSuccess

	defer func() {
		if rec := recover(); rec != nil {
			outcome = outcomePanic
			a.Log().Error("Panic in command",
				slog.String(logging.KeyCommand, command),
				slog.String(logging.KeyError, fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
			reportFailure(ctx, a, i, command, fmt.Errorf("panic: %v", rec))
		}

		monitoring.CommandTotal.WithLabelValues(command, outcome).Inc()
		monitoring.CommandDuration.WithLabelValues(command, outcome).Observe(time.Since(start).Seconds())
	}()

	if err := fn(ctx); err != nil {
		outcome = ticketing.KindOf(err).String()
		reportFailure(ctx, a, i, command, err)
	}
}

// reportFailure tells the user what went wrong and posts unexpected failures to the guild's log channel.
func reportFailure(ctx context.Context, a IApp, i *interaction, command string, err error) {
	r := a.Service().Failure(ctx, i.GuildID, command, err)

	l := a.Log().With(
		slog.String(logging.KeyCommand, command),
		slog.String(logging.KeyGuild, i.GuildID),
		slog.String(logging.KeyUser, i.userID()),
		slog.String(logging.KeyError, err.Error()),
	)
	if r.Kind == ticketing.KindUnexpected {
		l.Error("Error processing command")
	} else {
		l.Debug("Command rejected", slog.String("kind", r.Kind.String()))
	}

	if err := i.respondError(r.UserMessage); err != nil {
		l.Warn("Error responding to interaction", slog.String("respond_err", err.Error()))
	}

	if r.LogChannelID != "" {
		a.Notifier().Diagnostic(i.GuildID, r.LogChannelID, r.Diagnostic)
	}
}
