package reminder

import (
	"context"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/lease"
	testhelpers "github.com/polkiloo/receiptwatch/internal/test"
)

func TestModuleProvidesScheduler(t *testing.T) {
	var scheduler *Scheduler
	app := fx.New(
		fx.NopLogger,
		fx.Supply(
			&config.Config{MaxAttempts: 2, RetryBaseDelay: time.Second, WorkerPoolSize: 3, DispatchBatchSize: 5, WarrantyLeadDays: 10},
			discardLogger(),
		),
		fx.Provide(
			func() repository.Factory { return testhelpers.NewRepositoryFactoryStub() },
			func() Notifier { return &recordingNotifier{} },
			func() lease.Locker { return lease.NewMemoryLocker() },
		),
		Module,
		fx.Populate(&scheduler),
	)
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	if err := app.Err(); err != nil {
		t.Fatalf("fx app failed: %v", err)
	}
	if scheduler.opts.Workers != 3 || scheduler.opts.BatchSize != 5 || scheduler.opts.WarrantyLeadDays != 10 {
		t.Fatalf("unexpected scheduler options %+v", scheduler.opts)
	}
	if scheduler.dispatcher.opts.MaxAttempts != 2 || scheduler.dispatcher.opts.BaseDelay != time.Second {
		t.Fatalf("unexpected dispatcher options %+v", scheduler.dispatcher.opts)
	}
}
