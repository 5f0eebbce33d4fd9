package reminder

import (
	"strings"
	"testing"
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

func TestRenderDeadlineReminder(t *testing.T) {
	o := orderWithDeadline(7, model.Date(2025, time.November, 9))
	n := &model.Notification{ID: 3, OrderID: 7, Milestone: model.MilestoneDeadlineMinus7, ScheduledAt: model.Date(2025, time.November, 2)}

	msg, err := Render(&o, n)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if msg.Subject != "Return window for your Amazon order closes in 7 days" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"AMZ-7", "9 Nov 2025", "INR 1299.00", "Delivered on: 10 Oct 2025"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body misses %q:\n%s", want, msg.Body)
		}
	}
	if msg.Recipient != o.ContactEmail || msg.NotificationID != 3 || msg.OrderID != 7 {
		t.Fatalf("unexpected envelope %+v", msg)
	}
}

func TestRenderSingularDay(t *testing.T) {
	o := orderWithDeadline(1, model.Date(2025, time.November, 3))
	o.DeliveryDate = nil
	n := &model.Notification{Milestone: model.MilestoneDeadlineMinus1, ScheduledAt: model.Date(2025, time.November, 2)}

	msg, err := Render(&o, n)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasSuffix(msg.Subject, "in 1 day") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if strings.Contains(msg.Body, "Delivered on") {
		t.Fatalf("body must omit missing delivery:\n%s", msg.Body)
	}
}

func TestRenderWarrantyReminder(t *testing.T) {
	o := orderWithDeadline(1, model.Date(2025, time.November, 3))
	n := &model.Notification{Milestone: model.MilestoneWarrantyReminder, ScheduledAt: model.Date(2025, time.November, 2)}

	if _, err := Render(&o, n); err == nil {
		t.Fatal("expected error without warranty expiry")
	}

	expiry := model.Date(2026, time.October, 10)
	o.WarrantyExpiry = &expiry
	msg, err := Render(&o, n)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if msg.Subject != "Warranty for your Amazon order expires on 10 Oct 2026" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{5, 16 * time.Minute},
		{40, 24 * time.Hour},
	}
	for _, tc := range cases {
		if got := Backoff(time.Minute, tc.attempts); got != tc.want {
			t.Errorf("Backoff(1m, %d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}
