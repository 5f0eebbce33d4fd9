package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/metrics"
	"github.com/polkiloo/receiptwatch/internal/policy"
)

// OrderUseCase encapsulates order lifecycle logic after ingestion.
type OrderUseCase struct {
	orders        repository.OrderRepository
	notifications repository.NotificationRepository
	policies      policy.MerchantPolicyStore
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, notifications repository.NotificationRepository, policies policy.MerchantPolicyStore) *OrderUseCase {
	return &OrderUseCase{orders: orders, notifications: notifications, policies: policies}
}

// ListByUser returns the user's orders, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return u.orders.ListByUser(ctx, userID)
}

// Get returns an order owned by the principal. Orders of other users are reported as not found.
func (u *OrderUseCase) Get(ctx context.Context, principal model.Principal, id int64) (*model.Order, error) {
	order, err := u.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != principal.UserID {
		return nil, domainErrors.ErrNotFound
	}
	return order, nil
}

// Notifications lists the reminders of an order owned by the principal.
func (u *OrderUseCase) Notifications(ctx context.Context, principal model.Principal, id int64) ([]model.Notification, error) {
	if _, err := u.Get(ctx, principal, id); err != nil {
		return nil, err
	}
	return u.notifications.ListByOrder(ctx, id)
}

// Correct applies user corrections and stores the recomputed order.
func (u *OrderUseCase) Correct(ctx context.Context, principal model.Principal, id int64, c model.Correction) (*model.Order, error) {
	if err := validateInput(c); err != nil {
		return nil, err
	}
	order, err := u.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	corrected, err := policy.ApplyCorrection(*order, c)
	if err != nil {
		return nil, err
	}
	if err := u.orders.Save(ctx, &corrected); err != nil {
		return nil, err
	}
	return &corrected, nil
}

// CreateManual stores an order typed in by the principal.
func (u *OrderUseCase) CreateManual(ctx context.Context, principal model.Principal, e model.ManualEntry) (*model.Order, error) {
	if err := validateInput(e); err != nil {
		return nil, err
	}
	order, err := policy.FinalizeManual(e, u.policies)
	if err != nil {
		return nil, err
	}
	order.UserID = principal.UserID
	order.ContactEmail = principal.Email
	if err := u.orders.Save(ctx, &order); err != nil {
		return nil, err
	}
	metrics.RecordIngest(IngestManual)
	return &order, nil
}
