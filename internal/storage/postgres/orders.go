package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const orderColumns = `id, user_id, contact_email, source_id, merchant_name, order_ref, order_date, delivery_date,
       amount::text, currency, return_window_days, return_deadline, warranty_months, warranty_expiry,
       overall_confidence, needs_review, raw_data, created_at, updated_at`

// --- OrderRepository implementation ---

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	raw, err := encodeRawData(order.RawData)
	if err != nil {
		return err
	}
	if order.ID == 0 {
		return r.insert(ctx, order, raw)
	}
	return r.update(ctx, order, raw)
}

func (r *orderRepository) insert(ctx context.Context, order *model.Order, raw []byte) error {
	const query = `INSERT INTO orders (user_id, contact_email, source_id, merchant_name, order_ref, order_date,
                       delivery_date, amount, currency, return_window_days, return_deadline, warranty_months,
                       warranty_expiry, overall_confidence, needs_review, raw_data)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12, $13, $14, $15, $16::jsonb)
                   RETURNING id, created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query,
		order.UserID, order.ContactEmail, order.SourceID, order.MerchantName, order.OrderID, order.OrderDate,
		order.DeliveryDate, order.Amount.String(), order.Currency, order.ReturnWindowDays, order.ReturnDeadline,
		order.WarrantyMonths, order.WarrantyExpiry, order.OverallConfidence, order.NeedsReview, raw,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// update rewrites the order and moves reminders that have not been attempted yet
// onto the new deadline.
func (r *orderRepository) update(ctx context.Context, order *model.Order, raw []byte) error {
	const updateOrder = `UPDATE orders SET contact_email=$2, merchant_name=$3, order_ref=$4, order_date=$5,
                             delivery_date=$6, amount=$7::numeric, currency=$8, return_window_days=$9,
                             return_deadline=$10, warranty_months=$11, warranty_expiry=$12,
                             overall_confidence=$13, needs_review=$14, raw_data=$15::jsonb, updated_at=NOW()
                         WHERE id=$1
                         RETURNING updated_at`
	const reschedule = `UPDATE notifications SET scheduled_at=$3, next_attempt_at=$3, updated_at=NOW()
                        WHERE order_id=$1 AND milestone=$2 AND status='pending' AND attempt_count=0`

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, updateOrder,
			order.ID, order.ContactEmail, order.MerchantName, order.OrderID, order.OrderDate, order.DeliveryDate,
			order.Amount.String(), order.Currency, order.ReturnWindowDays, order.ReturnDeadline,
			order.WarrantyMonths, order.WarrantyExpiry, order.OverallConfidence, order.NeedsReview, raw,
		).Scan(&order.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		for _, lead := range model.DeadlineLeadDays {
			scheduledAt := model.AddDays(order.ReturnDeadline, -lead)
			if _, err := tx.Exec(ctx, reschedule, order.ID, model.DeadlineMilestones[lead], scheduledAt); err != nil {
				return fmt.Errorf("reschedule reminders: %w", err)
			}
		}
		return nil
	})
}

func (r *orderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *orderRepository) FindDueForDeadlineReminder(ctx context.Context, today time.Time, leadDays []int) ([]model.Order, error) {
	if len(leadDays) == 0 {
		return nil, nil
	}
	deadlines := make([]time.Time, 0, len(leadDays))
	for _, lead := range leadDays {
		deadlines = append(deadlines, model.AddDays(today, lead))
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE return_deadline = ANY($1::date[]) ORDER BY id`
	return r.list(ctx, query, deadlines)
}

func (r *orderRepository) FindDueForWarrantyReminder(ctx context.Context, today time.Time, leadDays int) ([]model.Order, error) {
	from := model.DateOf(today)
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE warranty_expiry IS NOT NULL AND warranty_expiry >= $1 AND warranty_expiry <= $2
              ORDER BY id`
	return r.list(ctx, query, from, model.AddDays(from, leadDays))
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		amount string
		raw    []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.ContactEmail, &o.SourceID, &o.MerchantName, &o.OrderID, &o.OrderDate,
		&o.DeliveryDate, &amount, &o.Currency, &o.ReturnWindowDays, &o.ReturnDeadline, &o.WarrantyMonths,
		&o.WarrantyExpiry, &o.OverallConfidence, &o.NeedsReview, &raw, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &o.RawData); err != nil {
			return nil, fmt.Errorf("decode raw data: %w", err)
		}
	}
	o.OrderDate = model.DateOf(o.OrderDate)
	o.ReturnDeadline = model.DateOf(o.ReturnDeadline)
	o.DeliveryDate = datePtr(o.DeliveryDate)
	o.WarrantyExpiry = datePtr(o.WarrantyExpiry)
	return &o, nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.DateOf(*t)
	return &d
}

func encodeRawData(raw map[string]any) ([]byte, error) {
	if raw == nil {
		return []byte(`{}`), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw data: %w", err)
	}
	return data, nil
}
