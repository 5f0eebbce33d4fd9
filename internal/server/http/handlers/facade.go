package handlers

import (
	"context"
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// ReceiptFacade runs receipt extraction for HTTP callers.
type ReceiptFacade interface {
	IngestReceipt(ctx context.Context, principal model.Principal, raw model.RawText) (*model.Order, model.Candidate, error)
	ExtractReceipt(raw model.RawText) (model.Candidate, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, principal model.Principal, entry model.ManualEntry) (*model.Order, error)
	Orders(ctx context.Context, userID int64) ([]model.Order, error)
	Order(ctx context.Context, principal model.Principal, id int64) (*model.Order, error)
	OrderNotifications(ctx context.Context, principal model.Principal, id int64) ([]model.Notification, error)
	CorrectOrder(ctx context.Context, principal model.Principal, id int64, c model.Correction) (*model.Order, error)
}

// MerchantFacade exposes merchant return policies.
type MerchantFacade interface {
	Merchants() []model.MerchantRule
	UpsertMerchant(ctx context.Context, rule model.MerchantRule) error
}

// OperationsFacade covers operator endpoints.
type OperationsFacade interface {
	RunScheduler(ctx context.Context, today time.Time) (model.RunSummary, error)
	Health(ctx context.Context) error
}

// ReceiptWatchFacade aggregates the full set of operations used across handlers.
type ReceiptWatchFacade interface {
	ParseToken(token string) (model.Principal, error)
	ReceiptFacade
	OrderFacade
	MerchantFacade
	OperationsFacade
}
