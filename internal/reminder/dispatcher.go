package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/lease"
	"github.com/polkiloo/receiptwatch/internal/metrics"
)

// Outcome is the result of a single dispatch.
type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeRetrying Outcome = "retrying"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// DispatchOptions bounds delivery attempts.
type DispatchOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	SendTimeout time.Duration
	LeaseTTL    time.Duration
}

func (o DispatchOptions) withDefaults() DispatchOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Minute
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 10 * time.Second
	}
	if o.LeaseTTL <= 0 {
		o.LeaseTTL = 30 * time.Second
	}
	return o
}

// Dispatcher delivers one notification at a time under an exclusive lease.
type Dispatcher struct {
	orders        repository.OrderRepository
	notifications repository.NotificationRepository
	notifier      Notifier
	locker        lease.Locker
	opts          DispatchOptions
	log           *slog.Logger
	now           func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	orders repository.OrderRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
	locker lease.Locker,
	opts DispatchOptions,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		orders:        orders,
		notifications: notifications,
		notifier:      notifier,
		locker:        locker,
		opts:          opts.withDefaults(),
		log:           log,
		now:           time.Now,
	}
}

// Dispatch attempts delivery of n. It reloads the notification under the lease,
// so a stale copy is harmless: non-pending or not yet due rows are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) (Outcome, error) {
	held, err := d.locker.Acquire(ctx, "notification:"+strconv.FormatInt(n.ID, 10), d.opts.LeaseTTL)
	if err != nil {
		if errors.Is(err, domainErrors.ErrLeaseNotAcquired) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, fmt.Errorf("lease notification %d: %w", n.ID, err)
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			d.log.Warn("release lease", slog.Int64("notification_id", n.ID), slog.String("error", err.Error()))
		}
	}()

	current, err := d.notifications.Get(ctx, n.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("reload notification %d: %w", n.ID, err)
	}
	now := d.now()
	if current.Status != model.NotificationStatusPending || current.NextAttemptAt.After(now) {
		return OutcomeSkipped, nil
	}

	var (
		sendErr     error
		sendSeconds float64
	)
	order, err := d.orders.Get(ctx, current.OrderID)
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		sendErr = fmt.Errorf("order %d not found: %w", current.OrderID, domainErrors.ErrNotifierPermanent)
	case err != nil:
		return OutcomeSkipped, fmt.Errorf("load order %d: %w", current.OrderID, err)
	default:
		sendSeconds, sendErr = d.send(ctx, order, current)
	}

	outcome, attempt := d.nextAttempt(current, sendErr, d.now())
	if err := d.notifications.RecordAttempt(ctx, current.ID, attempt); err != nil {
		return OutcomeSkipped, fmt.Errorf("record attempt of notification %d: %w", current.ID, err)
	}
	metrics.RecordDispatch(string(outcome), sendSeconds)

	attrs := []any{
		slog.Int64("notification_id", current.ID),
		slog.Int64("order_id", current.OrderID),
		slog.String("milestone", string(current.Milestone)),
		slog.Int("attempt", attempt.AttemptCount),
	}
	switch outcome {
	case OutcomeSent:
		d.log.Info("reminder sent", attrs...)
	case OutcomeRetrying:
		d.log.Warn("reminder send failed, will retry", append(attrs, slog.String("error", sendErr.Error()), slog.Time("next_attempt_at", attempt.NextAttemptAt))...)
	case OutcomeFailed:
		d.log.Error("reminder failed permanently", append(attrs, slog.String("error", sendErr.Error()))...)
	}
	return outcome, nil
}

func (d *Dispatcher) send(ctx context.Context, order *model.Order, n *model.Notification) (float64, error) {
	if order.ContactEmail == "" {
		return 0, fmt.Errorf("order %d has no contact address: %w", order.ID, domainErrors.ErrNotifierPermanent)
	}
	msg, err := Render(order, n)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, domainErrors.ErrNotifierPermanent)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()
	started := time.Now()
	err = d.notifier.Send(sendCtx, msg)
	return time.Since(started).Seconds(), err
}

// nextAttempt computes the transition of a pending notification after a send.
func (d *Dispatcher) nextAttempt(n *model.Notification, sendErr error, now time.Time) (Outcome, model.Attempt) {
	attempt := model.Attempt{
		ExpectedAttempts: n.AttemptCount,
		AttemptCount:     n.AttemptCount + 1,
		AttemptedAt:      now,
		NextAttemptAt:    n.NextAttemptAt,
	}
	if sendErr == nil {
		sentAt := now
		attempt.Status = model.NotificationStatusSent
		attempt.SentAt = &sentAt
		return OutcomeSent, attempt
	}

	attempt.Error = truncate(sendErr.Error(), 500)
	if IsPermanent(sendErr) || attempt.AttemptCount >= d.opts.MaxAttempts {
		attempt.Status = model.NotificationStatusFailed
		return OutcomeFailed, attempt
	}
	delay := Backoff(d.opts.BaseDelay, attempt.AttemptCount)
	if hinted, ok := RetryAfter(sendErr); ok && hinted > delay {
		delay = hinted
	}
	attempt.Status = model.NotificationStatusPending
	attempt.NextAttemptAt = now.Add(delay)
	return OutcomeRetrying, attempt
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
