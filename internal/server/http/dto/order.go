package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/policy"
)

// OrderResponse represents a tracked order. Calendar dates use YYYY-MM-DD.
type OrderResponse struct {
	ID                int64           `json:"id"`
	SourceID          string          `json:"source_id,omitempty"`
	MerchantName      string          `json:"merchant_name"`
	OrderID           string          `json:"order_id,omitempty"`
	OrderDate         string          `json:"order_date"`
	DeliveryDate      *string         `json:"delivery_date,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency,omitempty"`
	ReturnWindowDays  int             `json:"return_window_days"`
	ReturnDeadline    string          `json:"return_deadline"`
	WindowSource      string          `json:"window_source,omitempty"`
	WarrantyMonths    int             `json:"warranty_months,omitempty"`
	WarrantyExpiry    *string         `json:"warranty_expiry,omitempty"`
	OverallConfidence float64         `json:"overall_confidence"`
	NeedsReview       bool            `json:"needs_review"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewOrderResponse converts a domain order.
func NewOrderResponse(o model.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		SourceID:          o.SourceID,
		MerchantName:      o.MerchantName,
		OrderID:           o.OrderID,
		OrderDate:         formatDate(o.OrderDate),
		DeliveryDate:      formatDatePtr(o.DeliveryDate),
		Amount:            o.Amount,
		Currency:          o.Currency,
		ReturnWindowDays:  o.ReturnWindowDays,
		ReturnDeadline:    formatDate(o.ReturnDeadline),
		WindowSource:      string(policy.WindowSourceOf(o)),
		WarrantyMonths:    o.WarrantyMonths,
		WarrantyExpiry:    formatDatePtr(o.WarrantyExpiry),
		OverallConfidence: o.OverallConfidence,
		NeedsReview:       o.NeedsReview,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// ManualOrderRequest is an order typed in by the user.
type ManualOrderRequest struct {
	MerchantName     string           `json:"merchant_name"`
	OrderID          string           `json:"order_id"`
	OrderDate        string           `json:"order_date"`
	DeliveryDate     *string          `json:"delivery_date"`
	Amount           *decimal.Decimal `json:"amount"`
	Currency         string           `json:"currency"`
	ReturnWindowDays *int             `json:"return_window_days"`
	WarrantyMonths   *int             `json:"warranty_months"`
}

// Entry converts the request to a manual entry.
func (r ManualOrderRequest) Entry() (model.ManualEntry, error) {
	e := model.ManualEntry{
		MerchantName:     r.MerchantName,
		OrderID:          r.OrderID,
		Currency:         r.Currency,
		ReturnWindowDays: r.ReturnWindowDays,
		WarrantyMonths:   r.WarrantyMonths,
	}
	var err error
	if e.OrderDate, err = ParseDate(r.OrderDate); err != nil {
		return model.ManualEntry{}, err
	}
	if e.DeliveryDate, err = parseDatePtr(r.DeliveryDate); err != nil {
		return model.ManualEntry{}, err
	}
	if r.Amount != nil {
		e.Amount = *r.Amount
	}
	return e, nil
}

// CorrectionRequest carries partial order corrections. Omitted fields stay unchanged.
type CorrectionRequest struct {
	MerchantName     *string          `json:"merchant_name"`
	OrderID          *string          `json:"order_id"`
	OrderDate        *string          `json:"order_date"`
	DeliveryDate     *string          `json:"delivery_date"`
	ClearDelivery    bool             `json:"clear_delivery"`
	Amount           *decimal.Decimal `json:"amount"`
	Currency         *string          `json:"currency"`
	ReturnWindowDays *int             `json:"return_window_days"`
	WarrantyMonths   *int             `json:"warranty_months"`
	Confirm          bool             `json:"confirm"`
}

// Correction converts the request to a domain correction.
func (r CorrectionRequest) Correction() (model.Correction, error) {
	c := model.Correction{
		MerchantName:     r.MerchantName,
		OrderID:          r.OrderID,
		ClearDelivery:    r.ClearDelivery,
		Amount:           r.Amount,
		Currency:         r.Currency,
		ReturnWindowDays: r.ReturnWindowDays,
		WarrantyMonths:   r.WarrantyMonths,
		Confirm:          r.Confirm,
	}
	var err error
	if c.OrderDate, err = parseDatePtr(r.OrderDate); err != nil {
		return model.Correction{}, err
	}
	if c.DeliveryDate, err = parseDatePtr(r.DeliveryDate); err != nil {
		return model.Correction{}, err
	}
	return c, nil
}

// NotificationResponse represents a reminder of an order.
type NotificationResponse struct {
	ID            int64      `json:"id"`
	Milestone     string     `json:"milestone"`
	Status        string     `json:"status"`
	Channel       string     `json:"channel"`
	ScheduledAt   string     `json:"scheduled_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	AttemptCount  int        `json:"attempt_count"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// NewNotificationResponse converts a domain notification.
func NewNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:           n.ID,
		Milestone:    string(n.Milestone),
		Status:       string(n.Status),
		Channel:      n.Channel,
		ScheduledAt:  formatDate(n.ScheduledAt),
		SentAt:       n.SentAt,
		AttemptCount: n.AttemptCount,
		LastError:    n.LastError,
	}
	if n.Status == model.NotificationStatusPending {
		next := n.NextAttemptAt
		resp.NextAttemptAt = &next
	}
	return resp
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, domainErrors.ErrInvalidInput)
	}
	return t, nil
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}
