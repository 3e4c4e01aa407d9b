package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bakkerme/reviewbot/internal/core"
)

// Payload is the incoming-webhook body understood by Mattermost and Slack-compatible chats.
type Payload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
}

type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// Notifier posts one message per review under a per-platform bot identity.
type Notifier struct {
	sender         Sender
	iconBaseURL    string
	usernameSuffix string
}

func NewNotifier(sender Sender, iconBaseURL, usernameSuffix string) *Notifier {
	if usernameSuffix == "" {
		usernameSuffix = "-ReviewBot"
	}
	return &Notifier{
		sender:         sender,
		iconBaseURL:    strings.TrimRight(iconBaseURL, "/"),
		usernameSuffix: usernameSuffix,
	}
}

// Notify delivers text and returns the sender's error unchanged in meaning, so the caller
// can decide whether the review counts as delivered.
func (n *Notifier) Notify(ctx context.Context, platform core.Platform, locale, text string) error {
	if n.sender == nil {
		return fmt.Errorf("webhook sender is required")
	}
	core.LoggerFromContext(ctx).Info("sending review message",
		"platform", string(platform), "locale", locale)
	if err := n.sender.Send(ctx, n.Payload(platform, text)); err != nil {
		return fmt.Errorf("notify %s/%s: %w", platform, locale, err)
	}
	return nil
}

func (n *Notifier) Payload(platform core.Platform, text string) Payload {
	return Payload{
		Text:     text,
		Username: string(platform) + n.usernameSuffix,
		IconURL:  n.IconURL(platform),
	}
}

func (n *Notifier) IconURL(platform core.Platform) string {
	if n.iconBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s.png?raw=true", n.iconBaseURL, platform)
}

// LogSender only logs payloads. It backs DRY_RUN.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, payload Payload) error {
	logger := s.Logger
	if logger == nil {
		logger = core.LoggerFromContext(ctx)
	}
	logger.Info("dry run: would send message", "username", payload.Username, "text", payload.Text)
	return nil
}
