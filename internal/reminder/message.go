package reminder

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const dateLayout = "2 Jan 2006"

var (
	deadlineSubject = template.Must(template.New("deadline_subject").Parse(
		`Return window for your {{.Merchant}} order closes in {{.DaysLeft}} day{{if ne .DaysLeft 1}}s{{end}}`))
	deadlineBody = template.Must(template.New("deadline_body").Parse(`Hi,

The return window for your {{.Merchant}} order{{with .OrderID}} {{.}}{{end}} closes on {{.Deadline}}.
{{- with .Amount}}
Order total: {{.}}{{end}}
Ordered on: {{.OrderDate}}
{{- with .Delivered}}
Delivered on: {{.}}{{end}}

If you want to return it, start the return before the deadline.
`))

	warrantySubject = template.Must(template.New("warranty_subject").Parse(
		`Warranty for your {{.Merchant}} order expires on {{.WarrantyExpiry}}`))
	warrantyBody = template.Must(template.New("warranty_body").Parse(`Hi,

The warranty for your {{.Merchant}} order{{with .OrderID}} {{.}}{{end}} expires on {{.WarrantyExpiry}}.
Ordered on: {{.OrderDate}}

Check the item and claim any repairs before the warranty ends.
`))
)

type messageData struct {
	Merchant       string
	OrderID        string
	Amount         string
	OrderDate      string
	Delivered      string
	Deadline       string
	WarrantyExpiry string
	DaysLeft       int
}

// Render builds the reminder message of a notification for its order.
func Render(order *model.Order, n *model.Notification) (Message, error) {
	data := messageData{
		Merchant:  order.MerchantName,
		OrderID:   order.OrderID,
		OrderDate: order.OrderDate.Format(dateLayout),
		Deadline:  order.ReturnDeadline.Format(dateLayout),
		DaysLeft:  model.DaysBetween(n.ScheduledAt, order.ReturnDeadline),
	}
	if data.Merchant == "" {
		data.Merchant = "recent"
	}
	if !order.Amount.IsZero() {
		data.Amount = order.Amount.StringFixed(2)
		if order.Currency != "" {
			data.Amount = order.Currency + " " + data.Amount
		}
	}
	if order.DeliveryDate != nil {
		data.Delivered = order.DeliveryDate.Format(dateLayout)
	}
	if order.WarrantyExpiry != nil {
		data.WarrantyExpiry = order.WarrantyExpiry.Format(dateLayout)
	}

	subject, body := deadlineSubject, deadlineBody
	if n.Milestone == model.MilestoneWarrantyReminder {
		if order.WarrantyExpiry == nil {
			return Message{}, fmt.Errorf("order %d has no warranty expiry", order.ID)
		}
		subject, body = warrantySubject, warrantyBody
	}

	var s, b bytes.Buffer
	if err := subject.Execute(&s, data); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := body.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}

	return Message{
		NotificationID: n.ID,
		OrderID:        order.ID,
		Milestone:      n.Milestone,
		Recipient:      order.ContactEmail,
		Subject:        s.String(),
		Body:           b.String(),
	}, nil
}

// Backoff returns the delay before the next attempt after attempts failures:
// base * 2^(attempts-1), capped at a day.
func Backoff(base time.Duration, attempts int) time.Duration {
	const maxDelay = 24 * time.Hour
	if attempts < 1 {
		attempts = 1
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxDelay || delay <= 0 {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
