package test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
)

// OrderRepositoryStub keeps orders in memory for tests.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[int64]*model.Order
	Next   int64
	Err    error
	SaveFn func(context.Context, *model.Order) error
	Saved  int
}

// NewOrderRepositoryStub constructs stub repository preloaded with orders.
func NewOrderRepositoryStub(orders ...model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{Orders: make(map[int64]*model.Order), Next: 1}
	for i := range orders {
		o := orders[i]
		if o.ID == 0 {
			o.ID = s.Next
		}
		if o.ID >= s.Next {
			s.Next = o.ID + 1
		}
		s.Orders[o.ID] = &o
	}
	return s
}

// Save inserts or updates the order.
func (s *OrderRepositoryStub) Save(ctx context.Context, order *model.Order) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, order)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Orders == nil {
		s.Orders = make(map[int64]*model.Order)
	}
	if s.Next == 0 {
		s.Next = 1
	}
	now := time.Now()
	if order.ID == 0 {
		order.ID = s.Next
		s.Next++
		order.CreatedAt = now
	} else if _, ok := s.Orders[order.ID]; !ok {
		return domainErrors.ErrNotFound
	}
	order.UpdatedAt = now
	stored := *order
	s.Orders[order.ID] = &stored
	s.Saved++
	return nil
}

// Get returns a copy of the stored order.
func (s *OrderRepositoryStub) Get(ctx context.Context, id int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[id]; ok {
		order := *o
		return &order, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns the user's orders by id.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool { return o.UserID == userID })
}

// FindDueForDeadlineReminder mirrors the storage query in memory.
func (s *OrderRepositoryStub) FindDueForDeadlineReminder(ctx context.Context, today time.Time, leadDays []int) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool {
		left := model.DaysBetween(today, o.ReturnDeadline)
		for _, d := range leadDays {
			if d == left {
				return true
			}
		}
		return false
	})
}

// FindDueForWarrantyReminder mirrors the storage query in memory.
func (s *OrderRepositoryStub) FindDueForWarrantyReminder(ctx context.Context, today time.Time, leadDays int) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool {
		if o.WarrantyExpiry == nil {
			return false
		}
		left := model.DaysBetween(today, *o.WarrantyExpiry)
		return left >= 0 && left <= leadDays
	})
}

func (s *OrderRepositoryStub) filter(keep func(*model.Order) bool) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.Orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type notificationKey struct {
	orderID   int64
	milestone model.Milestone
}

// NotificationRepositoryStub keeps notifications in memory with the same
// uniqueness and compare-and-set guarantees as storage.
type NotificationRepositoryStub struct {
	mu            sync.Mutex
	Notifications map[int64]*model.Notification
	byKey         map[notificationKey]int64
	Next          int64
	Err           error
	CreateErr     error
	RecordErr     error
	Attempts      []model.Attempt
}

// NewNotificationRepositoryStub constructs an empty stub.
func NewNotificationRepositoryStub() *NotificationRepositoryStub {
	return &NotificationRepositoryStub{
		Notifications: make(map[int64]*model.Notification),
		byKey:         make(map[notificationKey]int64),
		Next:          1,
	}
}

// CreateIfAbsent inserts a pending notification unless one exists for the pair.
func (s *NotificationRepositoryStub) CreateIfAbsent(ctx context.Context, orderID int64, milestone model.Milestone, scheduledAt time.Time) (*model.Notification, bool, error) {
	if s.CreateErr != nil {
		return nil, false, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	key := notificationKey{orderID, milestone}
	if id, ok := s.byKey[key]; ok {
		n := *s.Notifications[id]
		return &n, false, nil
	}
	now := time.Now()
	n := &model.Notification{
		ID:            s.Next,
		OrderID:       orderID,
		Milestone:     milestone,
		ScheduledAt:   scheduledAt,
		Status:        model.NotificationStatusPending,
		Channel:       model.ChannelEmail,
		NextAttemptAt: scheduledAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.Next++
	s.Notifications[n.ID] = n
	s.byKey[key] = n.ID
	out := *n
	return &out, true, nil
}

// Put stores a notification as is.
func (s *NotificationRepositoryStub) Put(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if n.ID == 0 {
		n.ID = s.Next
	}
	if n.ID >= s.Next {
		s.Next = n.ID + 1
	}
	s.Notifications[n.ID] = &n
	s.byKey[notificationKey{n.OrderID, n.Milestone}] = n.ID
}

// Get returns a copy of the notification.
func (s *NotificationRepositoryStub) Get(ctx context.Context, id int64) (*model.Notification, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.Notifications[id]; ok {
		out := *n
		return &out, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByOrder returns notifications of the order by id.
func (s *NotificationRepositoryStub) ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error) {
	return s.list(func(n *model.Notification) bool { return n.OrderID == orderID }, 0)
}

// ListDispatchable returns pending notifications due at now.
func (s *NotificationRepositoryStub) ListDispatchable(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	return s.list(func(n *model.Notification) bool {
		return n.Status == model.NotificationStatusPending && !n.NextAttemptAt.After(now)
	}, limit)
}

// RecordAttempt applies the attempt when the stored row still matches it.
func (s *NotificationRepositoryStub) RecordAttempt(ctx context.Context, id int64, a model.Attempt) error {
	if s.RecordErr != nil {
		return s.RecordErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.Notifications[id]
	if !ok || n.Status != model.NotificationStatusPending || n.AttemptCount != a.ExpectedAttempts {
		return domainErrors.ErrStaleTransition
	}
	attemptedAt := a.AttemptedAt
	n.Status = a.Status
	n.AttemptCount = a.AttemptCount
	n.SentAt = a.SentAt
	n.LastAttemptAt = &attemptedAt
	n.NextAttemptAt = a.NextAttemptAt
	n.LastError = a.Error
	n.UpdatedAt = attemptedAt
	s.Attempts = append(s.Attempts, a)
	return nil
}

// Snapshot returns copies of every stored notification ordered by id.
func (s *NotificationRepositoryStub) Snapshot() []model.Notification {
	out, _ := s.list(func(*model.Notification) bool { return true }, 0)
	return out
}

func (s *NotificationRepositoryStub) list(keep func(*model.Notification) bool, limit int) ([]model.Notification, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.Notifications {
		if keep(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *NotificationRepositoryStub) init() {
	if s.Notifications == nil {
		s.Notifications = make(map[int64]*model.Notification)
	}
	if s.byKey == nil {
		s.byKey = make(map[notificationKey]int64)
	}
	if s.Next == 0 {
		s.Next = 1
	}
}

// MerchantRuleRepositoryStub stores merchant rules in a slice.
type MerchantRuleRepositoryStub struct {
	Rules []model.MerchantRule
	Err   error
}

// List returns the stored rules.
func (s *MerchantRuleRepositoryStub) List(ctx context.Context) ([]model.MerchantRule, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]model.MerchantRule(nil), s.Rules...), nil
}

// Upsert replaces a rule with the same case-insensitive name or appends it.
func (s *MerchantRuleRepositoryStub) Upsert(ctx context.Context, rule model.MerchantRule) error {
	if s.Err != nil {
		return s.Err
	}
	for i, r := range s.Rules {
		if strings.EqualFold(r.MerchantName, rule.MerchantName) {
			s.Rules[i] = rule
			return nil
		}
	}
	s.Rules = append(s.Rules, rule)
	return nil
}

// RepositoryFactoryStub bundles repository stubs.
type RepositoryFactoryStub struct {
	OrderRepo        *OrderRepositoryStub
	NotificationRepo *NotificationRepositoryStub
	MerchantRuleRepo *MerchantRuleRepositoryStub
}

// NewRepositoryFactoryStub builds a factory over empty stubs.
func NewRepositoryFactoryStub() *RepositoryFactoryStub {
	return &RepositoryFactoryStub{
		OrderRepo:        NewOrderRepositoryStub(),
		NotificationRepo: NewNotificationRepositoryStub(),
		MerchantRuleRepo: &MerchantRuleRepositoryStub{},
	}
}

// Orders returns the order stub.
func (f *RepositoryFactoryStub) Orders() repository.OrderRepository { return f.OrderRepo }

// Notifications returns the notification stub.
func (f *RepositoryFactoryStub) Notifications() repository.NotificationRepository {
	return f.NotificationRepo
}

// MerchantRules returns the merchant rule stub.
func (f *RepositoryFactoryStub) MerchantRules() repository.MerchantRuleRepository {
	return f.MerchantRuleRepo
}
