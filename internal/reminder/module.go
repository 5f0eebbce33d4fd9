package reminder

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/lease"
)

// Module provides the dispatcher and scheduler. A Notifier must be supplied.
var Module = fx.Provide(newDispatcher, newScheduler)

type dispatcherParams struct {
	fx.In

	Config   *config.Config
	Repos    repository.Factory
	Notifier Notifier
	Locker   lease.Locker
	Logger   *slog.Logger
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	return NewDispatcher(
		p.Repos.Orders(),
		p.Repos.Notifications(),
		p.Notifier,
		p.Locker,
		DispatchOptions{
			MaxAttempts: p.Config.MaxAttempts,
			BaseDelay:   p.Config.RetryBaseDelay,
			SendTimeout: p.Config.SendTimeout,
			LeaseTTL:    p.Config.LeaseTTL,
		},
		p.Logger,
	)
}

func newScheduler(cfg *config.Config, repos repository.Factory, dispatcher *Dispatcher, log *slog.Logger) *Scheduler {
	return NewScheduler(
		repos.Orders(),
		repos.Notifications(),
		dispatcher,
		SchedulerOptions{
			Workers:          cfg.WorkerPoolSize,
			BatchSize:        cfg.DispatchBatchSize,
			WarrantyLeadDays: cfg.WarrantyLeadDays,
		},
		log,
	)
}
