package notify

import (
	"context"
	"log/slog"
)

// LogSender writes notifications to the structured log. Used as the default
// channel when no external sender is configured so alerts are never silently
// lost.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With(slog.String("component", "notify-log"))}
}

// Send logs the notification at info level.
func (l *LogSender) Send(ctx context.Context, title, message string) error {
	l.logger.InfoContext(ctx, "notification",
		slog.String("title", title),
		slog.String("message", message),
	)
	return nil
}

// Name returns the sender identifier.
func (l *LogSender) Name() string {
	return "log"
}
