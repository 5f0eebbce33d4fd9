package repository

import (
	"context"
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// NotificationRepository stores reminders. CreateIfAbsent must be a single atomic
// operation at the storage boundary.
type NotificationRepository interface {
	CreateIfAbsent(ctx context.Context, orderID int64, milestone model.Milestone, scheduledAt time.Time) (*model.Notification, bool, error)
	Get(ctx context.Context, id int64) (*model.Notification, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error)
	// ListDispatchable returns pending notifications whose next attempt is due at now.
	ListDispatchable(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	// RecordAttempt applies an attempt only if the row is still pending with
	// attempt.ExpectedAttempts attempts; otherwise it returns ErrStaleTransition.
	RecordAttempt(ctx context.Context, id int64, attempt model.Attempt) error
}
