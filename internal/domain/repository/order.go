package repository

import (
	"context"
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// Save inserts the order when ID is zero and updates it otherwise.
	Save(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	// FindDueForDeadlineReminder returns orders whose return deadline is exactly
	// one of leadDays days after today.
	FindDueForDeadlineReminder(ctx context.Context, today time.Time, leadDays []int) ([]model.Order, error)
	// FindDueForWarrantyReminder returns orders whose warranty expires within
	// leadDays days of today (inclusive) and has not yet passed.
	FindDueForWarrantyReminder(ctx context.Context, today time.Time, leadDays int) ([]model.Order, error)
}
