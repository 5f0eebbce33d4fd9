package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// ReceiptFacadeStub provides controllable behaviour for receipt endpoints.
type ReceiptFacadeStub struct {
	IngestFn  func(context.Context, model.Principal, model.RawText) (*model.Order, model.Candidate, error)
	ExtractFn func(model.RawText) (model.Candidate, error)
}

// IngestReceipt delegates to provided function or returns a default order.
func (s ReceiptFacadeStub) IngestReceipt(ctx context.Context, p model.Principal, raw model.RawText) (*model.Order, model.Candidate, error) {
	if s.IngestFn != nil {
		return s.IngestFn(ctx, p, raw)
	}
	return &model.Order{ID: 1, UserID: p.UserID, SourceID: raw.SourceID, MerchantName: "Amazon"}, model.Candidate{}, nil
}

// ExtractReceipt delegates to provided function or returns an empty candidate.
func (s ReceiptFacadeStub) ExtractReceipt(raw model.RawText) (model.Candidate, error) {
	if s.ExtractFn != nil {
		return s.ExtractFn(raw)
	}
	return model.Candidate{SourceID: raw.SourceID, Kind: model.EmailKindUnknown}, nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn        func(context.Context, model.Principal, model.ManualEntry) (*model.Order, error)
	OrdersFn        func(context.Context, int64) ([]model.Order, error)
	OrderFn         func(context.Context, model.Principal, int64) (*model.Order, error)
	NotificationsFn func(context.Context, model.Principal, int64) ([]model.Notification, error)
	CorrectFn       func(context.Context, model.Principal, int64, model.Correction) (*model.Order, error)
}

// CreateOrder delegates to provided function or echoes the entry.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, p model.Principal, e model.ManualEntry) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, p, e)
	}
	return &model.Order{ID: 1, UserID: p.UserID, MerchantName: e.MerchantName, OrderDate: e.OrderDate}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.Order{{ID: 1, UserID: userID, MerchantName: "Amazon"}}, nil
}

// Order returns the predefined order.
func (s OrderFacadeStub) Order(ctx context.Context, p model.Principal, id int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, p, id)
	}
	return &model.Order{ID: id, UserID: p.UserID, MerchantName: "Amazon"}, nil
}

// OrderNotifications returns predefined notifications.
func (s OrderFacadeStub) OrderNotifications(ctx context.Context, p model.Principal, id int64) ([]model.Notification, error) {
	if s.NotificationsFn != nil {
		return s.NotificationsFn(ctx, p, id)
	}
	return nil, nil
}

// CorrectOrder delegates to provided function or returns the order unchanged.
func (s OrderFacadeStub) CorrectOrder(ctx context.Context, p model.Principal, id int64, c model.Correction) (*model.Order, error) {
	if s.CorrectFn != nil {
		return s.CorrectFn(ctx, p, id, c)
	}
	return &model.Order{ID: id, UserID: p.UserID}, nil
}

// MerchantFacadeStub simulates merchant policy operations.
type MerchantFacadeStub struct {
	Rules    []model.MerchantRule
	UpsertFn func(context.Context, model.MerchantRule) error
}

// Merchants returns configured rules.
func (s MerchantFacadeStub) Merchants() []model.MerchantRule {
	return s.Rules
}

// UpsertMerchant executes configured handler.
func (s MerchantFacadeStub) UpsertMerchant(ctx context.Context, rule model.MerchantRule) error {
	if s.UpsertFn != nil {
		return s.UpsertFn(ctx, rule)
	}
	return nil
}

// OperationsFacadeStub simulates operator endpoints.
type OperationsFacadeStub struct {
	RunFn    func(context.Context, time.Time) (model.RunSummary, error)
	HealthFn func(context.Context) error
}

// RunScheduler executes configured handler or reports an empty run.
func (s OperationsFacadeStub) RunScheduler(ctx context.Context, today time.Time) (model.RunSummary, error) {
	if s.RunFn != nil {
		return s.RunFn(ctx, today)
	}
	return model.RunSummary{}, nil
}

// Health executes configured handler.
func (s OperationsFacadeStub) Health(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// ReceiptWatchFacadeStub aggregates facade dependencies for HTTP layer tests.
type ReceiptWatchFacadeStub struct {
	TokenParserStub
	ReceiptFacadeStub
	OrderFacadeStub
	MerchantFacadeStub
	OperationsFacadeStub
}

// WorkerFacadeStub mimics worker interactions with the application facade.
type WorkerFacadeStub struct {
	RefreshFn  func(context.Context) error
	RunFn      func(context.Context, time.Time) (model.RunSummary, error)
	DispatchFn func(context.Context) (model.RunSummary, error)

	mu         sync.Mutex
	Refreshes  int
	RunDates   []time.Time
	Dispatches int
}

// RefreshMerchants counts refreshes.
func (s *WorkerFacadeStub) RefreshMerchants(ctx context.Context) error {
	s.mu.Lock()
	s.Refreshes++
	s.mu.Unlock()
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx)
	}
	return nil
}

// RunScheduler records the requested day.
func (s *WorkerFacadeStub) RunScheduler(ctx context.Context, today time.Time) (model.RunSummary, error) {
	s.mu.Lock()
	s.RunDates = append(s.RunDates, today)
	s.mu.Unlock()
	if s.RunFn != nil {
		return s.RunFn(ctx, today)
	}
	return model.RunSummary{}, nil
}

// DispatchPending counts dispatch passes.
func (s *WorkerFacadeStub) DispatchPending(ctx context.Context) (model.RunSummary, error) {
	s.mu.Lock()
	s.Dispatches++
	s.mu.Unlock()
	if s.DispatchFn != nil {
		return s.DispatchFn(ctx)
	}
	return model.RunSummary{}, nil
}

// DispatchCount returns the number of dispatch passes so far.
func (s *WorkerFacadeStub) DispatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Dispatches
}

// Runs returns the recorded run dates.
func (s *WorkerFacadeStub) Runs() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.RunDates...)
}
