package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
	pkgAuth "github.com/polkiloo/receiptwatch/internal/pkg/auth"
	"github.com/polkiloo/receiptwatch/internal/reminder"
	"github.com/polkiloo/receiptwatch/internal/usecase"
)

// HealthChecker reports whether storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReceiptWatchFacade is the single entry point used by the HTTP layer and the worker.
type ReceiptWatchFacade struct {
	tokens    pkgAuth.Strategy
	receipts  *usecase.ReceiptUseCase
	orders    *usecase.OrderUseCase
	merchants *usecase.MerchantUseCase
	scheduler *reminder.Scheduler
	health    HealthChecker
}

// FacadeParams lists facade dependencies.
type FacadeParams struct {
	fx.In

	Tokens    pkgAuth.Strategy
	Receipts  *usecase.ReceiptUseCase
	Orders    *usecase.OrderUseCase
	Merchants *usecase.MerchantUseCase
	Scheduler *reminder.Scheduler
	Health    HealthChecker
}

// NewReceiptWatchFacade constructs the facade.
func NewReceiptWatchFacade(p FacadeParams) *ReceiptWatchFacade {
	return &ReceiptWatchFacade{
		tokens:    p.Tokens,
		receipts:  p.Receipts,
		orders:    p.Orders,
		merchants: p.Merchants,
		scheduler: p.Scheduler,
		health:    p.Health,
	}
}

func (f *ReceiptWatchFacade) ParseToken(token string) (model.Principal, error) {
	return f.tokens.ParseToken(token)
}

func (f *ReceiptWatchFacade) IngestReceipt(ctx context.Context, principal model.Principal, raw model.RawText) (*model.Order, model.Candidate, error) {
	return f.receipts.Ingest(ctx, principal, raw)
}

func (f *ReceiptWatchFacade) ExtractReceipt(raw model.RawText) (model.Candidate, error) {
	return f.receipts.Extract(raw)
}

func (f *ReceiptWatchFacade) CreateOrder(ctx context.Context, principal model.Principal, entry model.ManualEntry) (*model.Order, error) {
	return f.orders.CreateManual(ctx, principal, entry)
}

func (f *ReceiptWatchFacade) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, userID)
}

func (f *ReceiptWatchFacade) Order(ctx context.Context, principal model.Principal, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, principal, id)
}

func (f *ReceiptWatchFacade) OrderNotifications(ctx context.Context, principal model.Principal, id int64) ([]model.Notification, error) {
	return f.orders.Notifications(ctx, principal, id)
}

func (f *ReceiptWatchFacade) CorrectOrder(ctx context.Context, principal model.Principal, id int64, c model.Correction) (*model.Order, error) {
	return f.orders.Correct(ctx, principal, id, c)
}

func (f *ReceiptWatchFacade) Merchants() []model.MerchantRule {
	return f.merchants.List()
}

func (f *ReceiptWatchFacade) UpsertMerchant(ctx context.Context, rule model.MerchantRule) error {
	return f.merchants.Upsert(ctx, rule)
}

func (f *ReceiptWatchFacade) RefreshMerchants(ctx context.Context) error {
	return f.merchants.Refresh(ctx)
}

// RunScheduler creates and dispatches the reminders due on today.
func (f *ReceiptWatchFacade) RunScheduler(ctx context.Context, today time.Time) (model.RunSummary, error) {
	return f.scheduler.Run(ctx, today)
}

// DispatchPending retries pending reminders whose next attempt is due.
func (f *ReceiptWatchFacade) DispatchPending(ctx context.Context) (model.RunSummary, error) {
	return f.scheduler.DispatchPending(ctx)
}

func (f *ReceiptWatchFacade) Health(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
