package usecase

import (
	"context"
	"strings"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/merchant"
)

// MerchantUseCase exposes merchant reference policy.
type MerchantUseCase struct {
	catalog *merchant.Catalog
	rules   repository.MerchantRuleRepository
}

// NewMerchantUseCase constructs MerchantUseCase.
func NewMerchantUseCase(catalog *merchant.Catalog, rules repository.MerchantRuleRepository) *MerchantUseCase {
	return &MerchantUseCase{catalog: catalog, rules: rules}
}

// List returns the loaded merchant rules sorted by name.
func (u *MerchantUseCase) List() []model.MerchantRule {
	return u.catalog.Rules()
}

// Upsert stores a rule and reloads the catalog so new orders see it immediately.
func (u *MerchantUseCase) Upsert(ctx context.Context, rule model.MerchantRule) error {
	rule.MerchantName = strings.TrimSpace(rule.MerchantName)
	rule.Notes = strings.TrimSpace(rule.Notes)
	if err := validateInput(rule); err != nil {
		return err
	}
	if err := u.rules.Upsert(ctx, rule); err != nil {
		return err
	}
	return u.catalog.Refresh(ctx, u.rules)
}

// Refresh reloads the catalog from storage.
func (u *MerchantUseCase) Refresh(ctx context.Context) error {
	return u.catalog.Refresh(ctx, u.rules)
}
