package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/extraction"
	"github.com/polkiloo/receiptwatch/internal/lease"
	"github.com/polkiloo/receiptwatch/internal/merchant"
	"github.com/polkiloo/receiptwatch/internal/reminder"
	testhelpers "github.com/polkiloo/receiptwatch/internal/test"
	"github.com/polkiloo/receiptwatch/internal/usecase"
)

const amazonReceipt = `Your Amazon.in order #AMZ-1029
Order placed on 01 Oct 2025
Delivered on 10 Oct 2025
Grand Total: ₹1,299.00`

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

type sentMessages struct {
	mu   sync.Mutex
	msgs []reminder.Message
}

func (s *sentMessages) Send(_ context.Context, msg reminder.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func newFacade(t *testing.T) (*ReceiptWatchFacade, *testhelpers.RepositoryFactoryStub, *sentMessages) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	repos := testhelpers.NewRepositoryFactoryStub()
	repos.MerchantRuleRepo.Rules = append(repos.MerchantRuleRepo.Rules, merchant.DefaultRules...)
	catalog := merchant.NewCatalog(merchant.DefaultRules...)
	sent := &sentMessages{}

	dispatcher := reminder.NewDispatcher(repos.OrderRepo, repos.NotificationRepo, sent, lease.NewMemoryLocker(), reminder.DispatchOptions{}, logger)
	scheduler := reminder.NewScheduler(repos.OrderRepo, repos.NotificationRepo, dispatcher, reminder.SchedulerOptions{}, logger)

	facade := NewReceiptWatchFacade(FacadeParams{
		Tokens: testhelpers.StrategyStub{},
		Receipts: usecase.NewReceiptUseCase(
			extraction.New(extraction.Options{}), catalog, repos.OrderRepo, logger),
		Orders:    usecase.NewOrderUseCase(repos.OrderRepo, repos.NotificationRepo, catalog),
		Merchants: usecase.NewMerchantUseCase(catalog, repos.MerchantRuleRepo),
		Scheduler: scheduler,
		Health:    healthStub{},
	})
	return facade, repos, sent
}

func TestFacadeReceiptToReminder(t *testing.T) {
	facade, _, sent := newFacade(t)
	ctx := context.Background()

	principal, err := facade.ParseToken("anything")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	order, _, err := facade.IngestReceipt(ctx, principal, model.RawText{SourceID: "msg-1", Body: amazonReceipt})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !order.ReturnDeadline.Equal(model.Date(2025, 11, 9)) {
		t.Fatalf("unexpected deadline %s", order.ReturnDeadline)
	}

	summary, err := facade.RunScheduler(ctx, model.Date(2025, 11, 2))
	if err != nil {
		t.Fatalf("run scheduler: %v", err)
	}
	if summary.Created != 1 || summary.Sent != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	again, err := facade.RunScheduler(ctx, model.Date(2025, 11, 2))
	if err != nil || again.Created != 0 || again.Existing != 1 || again.Sent != 0 {
		t.Fatalf("expected idempotent rerun, got %+v err=%v", again, err)
	}

	notifications, err := facade.OrderNotifications(ctx, principal, order.ID)
	if err != nil || len(notifications) != 1 {
		t.Fatalf("unexpected notifications %v err=%v", notifications, err)
	}
	if notifications[0].Milestone != model.MilestoneDeadlineMinus7 || notifications[0].Status != model.NotificationStatusSent {
		t.Fatalf("unexpected notification %+v", notifications[0])
	}
	if len(sent.msgs) != 1 || sent.msgs[0].Recipient != principal.Email {
		t.Fatalf("unexpected messages %+v", sent.msgs)
	}

	pending, err := facade.DispatchPending(ctx)
	if err != nil || pending.Sent != 0 {
		t.Fatalf("expected nothing pending, got %+v err=%v", pending, err)
	}
}

func TestFacadeOrdersAndCorrections(t *testing.T) {
	facade, _, _ := newFacade(t)
	ctx := context.Background()
	principal := model.Principal{UserID: 3, Email: "owner@example.com"}

	order, err := facade.CreateOrder(ctx, principal, model.ManualEntry{MerchantName: "Myntra", OrderDate: model.Date(2025, 10, 1)})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !order.ReturnDeadline.Equal(model.Date(2025, 10, 18)) {
		t.Fatalf("expected merchant window plus delivery grace, got %s", order.ReturnDeadline)
	}

	listed, err := facade.Orders(ctx, principal.UserID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("unexpected list %v err=%v", listed, err)
	}

	window := 30
	corrected, err := facade.CorrectOrder(ctx, principal, order.ID, model.Correction{ReturnWindowDays: &window, Confirm: true})
	if err != nil {
		t.Fatalf("correct order: %v", err)
	}
	if !corrected.ReturnDeadline.Equal(model.Date(2025, 11, 3)) {
		t.Fatalf("unexpected corrected deadline %s", corrected.ReturnDeadline)
	}

	got, err := facade.Order(ctx, principal, order.ID)
	if err != nil || !got.ReturnDeadline.Equal(corrected.ReturnDeadline) {
		t.Fatalf("unexpected stored order %+v err=%v", got, err)
	}

	if _, err := facade.Order(ctx, model.Principal{UserID: 4}, order.ID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}
}

func TestFacadeMerchantsAndHealth(t *testing.T) {
	facade, repos, _ := newFacade(t)
	ctx := context.Background()

	if err := facade.UpsertMerchant(ctx, model.MerchantRule{MerchantName: "Croma", DefaultReturnDays: 7}); err != nil {
		t.Fatalf("upsert merchant: %v", err)
	}
	found := false
	for _, r := range facade.Merchants() {
		if r.MerchantName == "Croma" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected new merchant to be listed")
	}

	repos.MerchantRuleRepo.Rules = nil
	if err := facade.RefreshMerchants(ctx); err != nil {
		t.Fatalf("refresh merchants: %v", err)
	}
	if len(facade.Merchants()) != 0 {
		t.Fatalf("expected refreshed catalog to mirror storage, got %v", facade.Merchants())
	}

	if err := facade.Health(ctx); err != nil {
		t.Fatalf("unexpected health error: %v", err)
	}
	facade.health = healthStub{err: errors.New("down")}
	if err := facade.Health(ctx); err == nil {
		t.Fatal("expected health error")
	}
}

func TestFacadeExtractReceiptValidates(t *testing.T) {
	facade, _, _ := newFacade(t)
	if _, err := facade.ExtractReceipt(model.RawText{}); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty body, got %v", err)
	}
	candidate, err := facade.ExtractReceipt(model.RawText{Body: amazonReceipt})
	if err != nil || candidate.OrderID.Value != "AMZ-1029" {
		t.Fatalf("unexpected candidate %+v err=%v", candidate, err)
	}
}
