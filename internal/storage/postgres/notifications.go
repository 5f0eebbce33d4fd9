package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const notificationColumns = `id, order_id, milestone, scheduled_at, sent_at, status, channel, attempt_count,
       next_attempt_at, last_attempt_at, last_error, created_at, updated_at`

// --- NotificationRepository implementation ---

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, orderID int64, milestone model.Milestone, scheduledAt time.Time) (*model.Notification, bool, error) {
	const query = `INSERT INTO notifications (order_id, milestone, scheduled_at, status, channel, next_attempt_at)
                   VALUES ($1, $2, $3, $4, $5, $3)
                   ON CONFLICT (order_id, milestone) DO NOTHING
                   RETURNING ` + notificationColumns
	n, err := scanNotification(r.storage.pool.QueryRow(ctx, query,
		orderID, milestone, scheduledAt, model.NotificationStatusPending, model.ChannelEmail))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, err := r.getByMilestone(ctx, orderID, milestone)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, mapError(err)
	}
	return n, true, nil
}

func (r *notificationRepository) getByMilestone(ctx context.Context, orderID int64, milestone model.Milestone) (*model.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE order_id=$1 AND milestone=$2`
	n, err := scanNotification(r.storage.pool.QueryRow(ctx, query, orderID, milestone))
	if err != nil {
		return nil, mapError(err)
	}
	return n, nil
}

func (r *notificationRepository) Get(ctx context.Context, id int64) (*model.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	n, err := scanNotification(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return n, nil
}

func (r *notificationRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE order_id=$1 ORDER BY scheduled_at, id`
	return r.list(ctx, query, orderID)
}

func (r *notificationRepository) ListDispatchable(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications
                   WHERE status=$1 AND next_attempt_at <= $2
                   ORDER BY next_attempt_at, id
                   LIMIT $3`
	return r.list(ctx, query, model.NotificationStatusPending, now, limit)
}

func (r *notificationRepository) RecordAttempt(ctx context.Context, id int64, attempt model.Attempt) error {
	const query = `UPDATE notifications
                   SET status=$2, attempt_count=$3, sent_at=$4, last_attempt_at=$5, next_attempt_at=$6,
                       last_error=$7, updated_at=NOW()
                   WHERE id=$1 AND status='pending' AND attempt_count=$8`
	tag, err := r.storage.pool.Exec(ctx, query,
		id, attempt.Status, attempt.AttemptCount, attempt.SentAt, attempt.AttemptedAt, attempt.NextAttemptAt,
		attempt.Error, attempt.ExpectedAttempts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return domainErrors.ErrStaleTransition
	}
	return nil
}

func (r *notificationRepository) list(ctx context.Context, query string, args ...any) ([]model.Notification, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.OrderID, &n.Milestone, &n.ScheduledAt, &n.SentAt, &n.Status, &n.Channel,
		&n.AttemptCount, &n.NextAttemptAt, &n.LastAttemptAt, &n.LastError, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
