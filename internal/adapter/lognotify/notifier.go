// Package lognotify writes reminders to the application log instead of delivering them.
package lognotify

import (
	"context"
	"log/slog"

	"github.com/polkiloo/receiptwatch/internal/reminder"
)

// Notifier logs every message at info level.
type Notifier struct {
	logger *slog.Logger
}

// New creates a log notifier.
func New(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Send never fails unless ctx is already done.
func (n *Notifier) Send(ctx context.Context, msg reminder.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "reminder",
		slog.Int64("notification_id", msg.NotificationID),
		slog.Int64("order_id", msg.OrderID),
		slog.String("milestone", string(msg.Milestone)),
		slog.String("to", msg.Recipient),
		slog.String("subject", msg.Subject),
	)
	return nil
}
