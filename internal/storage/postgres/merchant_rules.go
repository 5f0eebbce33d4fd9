package postgres

import (
	"context"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// --- MerchantRuleRepository implementation ---

func (r *merchantRuleRepository) List(ctx context.Context) ([]model.MerchantRule, error) {
	const query = `SELECT merchant_name, default_return_days, notes FROM merchant_rules ORDER BY merchant_key`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.MerchantRule
	for rows.Next() {
		var rule model.MerchantRule
		if err := rows.Scan(&rule.MerchantName, &rule.DefaultReturnDays, &rule.Notes); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *merchantRuleRepository) Upsert(ctx context.Context, rule model.MerchantRule) error {
	const query = `INSERT INTO merchant_rules (merchant_key, merchant_name, default_return_days, notes)
                   VALUES (lower(btrim($1)), btrim($1), $2, $3)
                   ON CONFLICT (merchant_key) DO UPDATE
                   SET merchant_name = EXCLUDED.merchant_name,
                       default_return_days = EXCLUDED.default_return_days,
                       notes = EXCLUDED.notes,
                       updated_at = NOW()`
	if _, err := r.storage.pool.Exec(ctx, query, rule.MerchantName, rule.DefaultReturnDays, rule.Notes); err != nil {
		return err
	}
	return nil
}
