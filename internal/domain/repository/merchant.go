package repository

import (
	"context"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// MerchantRuleRepository provides access to merchant reference policy.
type MerchantRuleRepository interface {
	List(ctx context.Context) ([]model.MerchantRule, error)
	Upsert(ctx context.Context, rule model.MerchantRule) error
}
