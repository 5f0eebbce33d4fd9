package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/metrics"
)

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Workers          int
	BatchSize        int
	WarrantyLeadDays int
}

// Scheduler creates reminders for due orders and dispatches them.
// Running it twice for the same day is harmless.
type Scheduler struct {
	orders        repository.OrderRepository
	notifications repository.NotificationRepository
	dispatcher    *Dispatcher
	opts          SchedulerOptions
	log           *slog.Logger
	now           func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	orders repository.OrderRepository,
	notifications repository.NotificationRepository,
	dispatcher *Dispatcher,
	opts SchedulerOptions,
	log *slog.Logger,
) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.WarrantyLeadDays <= 0 {
		opts.WarrantyLeadDays = 30
	}
	return &Scheduler{
		orders:        orders,
		notifications: notifications,
		dispatcher:    dispatcher,
		opts:          opts,
		log:           log,
		now:           time.Now,
	}
}

type plannedReminder struct {
	order       model.Order
	milestone   model.Milestone
	scheduledAt time.Time
}

// Run creates the reminders due on today and dispatches them together with any
// pending retries. Cancellation is checked between orders; whatever was created
// before it stays consistent.
func (s *Scheduler) Run(ctx context.Context, today time.Time) (model.RunSummary, error) {
	var summary model.RunSummary
	today = model.DateOf(today)

	plan, err := s.plan(ctx, today)
	if err != nil {
		metrics.RecordSchedulerRun("error")
		return summary, err
	}

	var fresh []model.Notification
	for _, p := range plan {
		if err := ctx.Err(); err != nil {
			metrics.RecordSchedulerRun("cancelled")
			return summary, err
		}
		n, created, err := s.notifications.CreateIfAbsent(ctx, p.order.ID, p.milestone, p.scheduledAt)
		if err != nil {
			summary.Errors++
			s.log.Error("create reminder",
				slog.Int64("order_id", p.order.ID),
				slog.String("milestone", string(p.milestone)),
				slog.String("error", err.Error()))
			continue
		}
		if !created {
			summary.Existing++
			continue
		}
		summary.Created++
		metrics.RecordNotificationCreated(string(p.milestone))
		fresh = append(fresh, *n)
	}

	dispatched, err := s.DispatchPending(ctx, fresh...)
	summary.Sent += dispatched.Sent
	summary.Retrying += dispatched.Retrying
	summary.Failed += dispatched.Failed
	summary.Errors += dispatched.Errors

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordSchedulerRun(status)
	s.log.Info("reminder run finished",
		slog.String("date", today.Format(time.DateOnly)),
		slog.Int("created", summary.Created),
		slog.Int("existing", summary.Existing),
		slog.Int("sent", summary.Sent),
		slog.Int("retrying", summary.Retrying),
		slog.Int("failed", summary.Failed),
		slog.Int("errors", summary.Errors))
	return summary, err
}

func (s *Scheduler) plan(ctx context.Context, today time.Time) ([]plannedReminder, error) {
	due, err := s.orders.FindDueForDeadlineReminder(ctx, today, model.DeadlineLeadDays)
	if err != nil {
		return nil, err
	}
	warranty, err := s.orders.FindDueForWarrantyReminder(ctx, today, s.opts.WarrantyLeadDays)
	if err != nil {
		return nil, err
	}

	plan := make([]plannedReminder, 0, len(due)+len(warranty))
	for _, o := range due {
		lead := model.DaysBetween(today, o.ReturnDeadline)
		milestone, ok := model.DeadlineMilestones[lead]
		if !ok {
			continue
		}
		plan = append(plan, plannedReminder{order: o, milestone: milestone, scheduledAt: today})
	}
	for _, o := range warranty {
		if o.WarrantyExpiry == nil {
			continue
		}
		plan = append(plan, plannedReminder{
			order:       o,
			milestone:   model.MilestoneWarrantyReminder,
			scheduledAt: model.AddDays(*o.WarrantyExpiry, -s.opts.WarrantyLeadDays),
		})
	}
	return plan, nil
}

// DispatchPending dispatches the given notifications plus every pending one
// whose next attempt is due, through a bounded worker pool.
func (s *Scheduler) DispatchPending(ctx context.Context, extra ...model.Notification) (model.RunSummary, error) {
	var summary model.RunSummary

	pending, err := s.notifications.ListDispatchable(ctx, s.now(), s.opts.BatchSize)
	if err != nil {
		return summary, err
	}

	seen := make(map[int64]struct{}, len(extra)+len(pending))
	queue := make([]model.Notification, 0, len(extra)+len(pending))
	for _, n := range append(extra, pending...) {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		queue = append(queue, n)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.opts.Workers)
	for _, n := range queue {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := s.dispatcher.Dispatch(ctx, n)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Errors++
				s.log.Error("dispatch reminder", slog.Int64("notification_id", n.ID), slog.String("error", err.Error()))
				return nil
			}
			switch outcome {
			case OutcomeSent:
				summary.Sent++
			case OutcomeRetrying:
				summary.Retrying++
			case OutcomeFailed:
				summary.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()
	return summary, ctx.Err()
}
