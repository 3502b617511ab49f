package main

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"golang.org/x/time/rate"
)

const (
	// diagnosticInterval is the sustained rate of diagnostics per guild.
	diagnosticInterval = 5 * time.Second

	diagnosticBurst = 3

	// maxEmbedDescription is the longest embed description the platform accepts.
	maxEmbedDescription = 4096
)

type sendEmbedFunc func(channelID string, embed *discordgo.MessageEmbed) error

// notifier posts notices and diagnostics to log channels.
type notifier struct {
	l    *slog.Logger
	send sendEmbedFunc

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newNotifier(l *slog.Logger, s *discordgo.Session) *notifier {
	return newNotifierWithSender(l, func(channelID string, e *discordgo.MessageEmbed) error {
		_, err := s.ChannelMessageSendEmbed(channelID, e)
		return err
	})
}

func newNotifierWithSender(l *slog.Logger, send sendEmbedFunc) *notifier {
	return &notifier{
		l:        l,
		send:     send,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (n *notifier) limiter(guildID string) *rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()

	lim, ok := n.limiters[guildID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(diagnosticInterval), diagnosticBurst)
		n.limiters[guildID] = lim
	}
	return lim
}

// forget drops the limiter of a guild the bot has left.
func (n *notifier) forget(guildID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.limiters, guildID)
}

// Diagnostic posts the description of a failure to a guild's log channel, reporting whether it was posted.
func (n *notifier) Diagnostic(guildID, channelID, text string) bool {
	l := n.l.With(
		slog.String(logging.KeyGuild, guildID),
		slog.String("channel_id", channelID),
	)

	if !n.limiter(guildID).Allow() {
		monitoring.DiagnosticsDropped.Inc()
		l.Warn("Dropped diagnostic", slog.String("diagnostic", text))
		return false
	}

	if err := n.send(channelID, errorEmbed(truncate(text, maxEmbedDescription))); err != nil {
		l.Error("Error posting diagnostic", slog.String(logging.KeyError, err.Error()))
		return false
	}
	return true
}

// Info posts an informational notice. Nothing is posted when channelID is empty.
func (n *notifier) Info(channelID, text string) {
	if channelID == "" {
		return
	}

	if err := n.send(channelID, embed(messages.TitleInfo, truncate(text, maxEmbedDescription), messages.ColorInfo)); err != nil {
		n.l.Error("Error posting notice",
			slog.String("channel_id", channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}
