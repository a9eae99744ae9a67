// Package notify delivers outbound alerts. Delivery is fire-and-forget by
// contract: a failed sender is logged and dropped, never surfaced to the
// engine, because an alert is advisory while the scan loop is load-bearing.
package notify

import (
	"context"
	"log/slog"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/infra"
)

// Sender is one notification channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Dispatcher fans a notification out to every registered sender.
type Dispatcher struct {
	senders []Sender
	logger  *slog.Logger
}

var _ domain.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher over the given senders.
func NewDispatcher(senders []Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers n to all senders. Individual sender failures do not stop
// delivery to the rest.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) {
	if len(d.senders) == 0 {
		return
	}

	infra.GlobalMetrics.RecordNotification()
	for _, s := range d.senders {
		if err := s.Send(ctx, n.Title, n.Message); err != nil {
			d.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", n.Title),
		)
	}
}
