package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// ReminderFacade exposes the subset of application functionality required by the worker.
type ReminderFacade interface {
	RefreshMerchants(ctx context.Context) error
	RunScheduler(ctx context.Context, today time.Time) (model.RunSummary, error)
	DispatchPending(ctx context.Context) (model.RunSummary, error)
}

// ReminderWorker triggers the daily reminder run on a cron schedule and
// retries pending reminders between runs.
type ReminderWorker struct {
	facade           ReminderFacade
	schedule         string
	location         *time.Location
	dispatchInterval time.Duration
	logger           *slog.Logger
	now              func() time.Time

	cron   *cron.Cron
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReminderWorker constructs the worker. The schedule is a standard five field cron spec
// evaluated in location, which also defines the calendar day of each run.
func NewReminderWorker(facade ReminderFacade, schedule string, location *time.Location, dispatchInterval time.Duration, logger *slog.Logger) (*ReminderWorker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	if location == nil {
		location = time.UTC
	}
	if dispatchInterval <= 0 {
		dispatchInterval = time.Minute
	}
	return &ReminderWorker{
		facade:           facade,
		schedule:         schedule,
		location:         location,
		dispatchInterval: dispatchInterval,
		logger:           logger,
		now:              time.Now,
	}, nil
}

// Start launches the cron scheduler and the retry loop.
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	logger := cronLogger{w.logger}
	c := cron.New(
		cron.WithLocation(w.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(w.schedule, func() { w.RunDaily(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule reminder run: %w", err)
	}
	w.cron = c
	w.cancel = cancel
	c.Start()

	w.wg.Add(1)
	go w.retryLoop(runCtx)
	return nil
}

// Stop cancels in-flight work and waits for running jobs to finish.
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	c := w.cron
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.cron = nil
	w.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	w.wg.Wait()
}

// RunDaily reloads merchant rules and runs the scheduler for the current day in the worker's location.
func (w *ReminderWorker) RunDaily(ctx context.Context) {
	if err := w.facade.RefreshMerchants(ctx); err != nil {
		w.logger.Warn("refresh merchant rules failed", slog.String("error", err.Error()))
	}
	y, m, d := w.now().In(w.location).Date()
	today := model.Date(y, m, d)
	if _, err := w.facade.RunScheduler(ctx, today); err != nil {
		w.logger.Error("reminder run failed",
			slog.String("date", today.Format(time.DateOnly)),
			slog.String("error", err.Error()))
	}
}

func (w *ReminderWorker) retryLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := w.facade.DispatchPending(ctx)
			if err != nil && ctx.Err() == nil {
				w.logger.Error("dispatch pending reminders failed", slog.String("error", err.Error()))
				continue
			}
			if summary.Sent+summary.Retrying+summary.Failed > 0 {
				w.logger.Info("pending reminders dispatched",
					slog.Int("sent", summary.Sent),
					slog.Int("retrying", summary.Retrying),
					slog.Int("failed", summary.Failed))
			}
		}
	}
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
