// Package reminder schedules and delivers deadline reminders.
package reminder

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// Message is a rendered reminder ready for delivery.
type Message struct {
	NotificationID int64
	OrderID        int64
	Milestone      model.Milestone
	Recipient      string
	Subject        string
	Body           string
}

// Notifier delivers a message over an outbound transport. Errors wrapping
// ErrNotifierPermanent are never retried; anything else is treated as transient.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// IsPermanent reports whether a send error must not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, domainErrors.ErrNotifierPermanent)
}

// RetryHinter is implemented by transient errors that carry the transport's own retry delay.
type RetryHinter interface {
	RetryDelay() time.Duration
}

// RetryAfter returns the retry delay hinted by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var hinter RetryHinter
	if !errors.As(err, &hinter) {
		return 0, false
	}
	d := hinter.RetryDelay()
	return d, d > 0
}
