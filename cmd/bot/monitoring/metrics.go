package monitoring

import (
	"fmt"

	"github.com/Jacobbrewer1/helpdesk/cmd/bot/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDiscordEvents is the total number of events.
	TotalDiscordEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_discord_events", config.AppName),
			Help: "Total number of events",
		},
		[]string{"event"},
	)

	// HttpTotalRequests is the total number of http requests.
	HttpTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_http_total_requests", config.AppName),
			Help: "Total number of http requests",
		},
		[]string{"path", "method", "status_code"},
	)

	// HttpRequestDuration is the duration of the http request.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_http_request_duration", config.AppName),
			Help: "Duration of the http request",
		},
		[]string{"path", "method", "status_code"},
	)

	TotalDiscordGuilds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_total_discord_guilds", config.AppName),
			Help: "Total number of discord guilds",
		},
	)

	// CommandTotal is the total number of handled commands by outcome.
	CommandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_command_total", config.AppName),
			Help: "Total number of handled commands",
		},
		[]string{"command", "outcome"},
	)

	// CommandDuration is the duration of command handling.
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_command_duration", config.AppName),
			Help: "Duration of command handling",
		},
		[]string{"command", "outcome"},
	)

	// TicketsCreated is the total number of created tickets.
	TicketsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_tickets_created_total", config.AppName),
			Help: "Total number of created tickets",
		},
	)

	// TicketsClosed is the total number of closed tickets by what happened to their channel.
	TicketsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_tickets_closed_total", config.AppName),
			Help: "Total number of closed tickets",
		},
		[]string{"channel"},
	)

	// DiagnosticsDropped is the number of log channel diagnostics dropped by the rate limiter.
	DiagnosticsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_diagnostics_dropped_total", config.AppName),
			Help: "Total number of log channel diagnostics dropped",
		},
	)
)
