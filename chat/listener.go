package chat

import (
	"context"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/stream-recap/telemetry"
)

// ListenerConfig carries the IRC identity and filtering rules.
type ListenerConfig struct {
	Channel     string
	BotUsername string
	OAuthToken  string
	// ExcludedUsers are login names whose messages never reach the buffer.
	// Matching is case-insensitive.
	ExcludedUsers []string
}

// filter decides which messages are appended.
type filter struct {
	self     string
	excluded map[string]struct{}
}

func newFilter(cfg ListenerConfig) filter {
	f := filter{
		self:     strings.ToLower(cfg.BotUsername),
		excluded: make(map[string]struct{}, len(cfg.ExcludedUsers)),
	}
	for _, u := range cfg.ExcludedUsers {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			f.excluded[u] = struct{}{}
		}
	}
	return f
}

// accept reports whether msg should be recorded.
func (f filter) accept(msg twitch.PrivateMessage) bool {
	name := strings.ToLower(msg.User.Name)
	if name == "" {
		return false
	}
	if f.self != "" && name == f.self {
		return false
	}
	_, excluded := f.excluded[name]
	return !excluded
}

// handler returns the OnPrivateMessage callback that feeds buf.
func handler(f filter, buf *Buffer) func(twitch.PrivateMessage) {
	return func(msg twitch.PrivateMessage) {
		if !f.accept(msg) {
			telemetry.ChatMessagesFiltered.Inc()
			return
		}
		author := msg.User.DisplayName
		if author == "" {
			author = msg.User.Name
		}
		buf.Append(author, msg.Message)
		telemetry.ChatMessagesReceived.Inc()
	}
}

// StartListener joins cfg.Channel and appends chat into buf until ctx is done.
// It blocks; run it in its own goroutine.
func StartListener(ctx context.Context, cfg ListenerConfig, buf *Buffer) {
	if cfg.Channel == "" {
		slog.Info("twitch channel not set; skipping chat listener", slog.String("component", "chat"))
		return
	}
	var client *twitch.Client
	if cfg.OAuthToken != "" && cfg.BotUsername != "" {
		client = twitch.NewClient(cfg.BotUsername, cfg.OAuthToken)
	} else {
		slog.Info("no twitch oauth token; joining chat anonymously", slog.String("component", "chat"))
		client = twitch.NewAnonymousClient()
	}

	client.OnConnect(func() {
		slog.Info("chat listener connected", slog.String("channel", cfg.Channel), slog.String("component", "chat"))
	})
	client.OnPrivateMessage(handler(newFilter(cfg), buf))

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = client.Disconnect()
		close(done)
	}()

	client.Join(strings.ToLower(strings.TrimPrefix(cfg.Channel, "#")))
	if err := client.Connect(); err != nil && err != twitch.ErrClientDisconnected {
		slog.Error("twitch chat connect error", slog.Any("err", err), slog.String("component", "chat"))
	}
	<-done
}
