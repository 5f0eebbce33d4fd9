package merchant

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
)

type seedFile struct {
	Merchants []model.MerchantRule `yaml:"merchants"`
}

// DefaultRules are loaded when no seed file is configured.
var DefaultRules = []model.MerchantRule{
	{MerchantName: "Amazon", DefaultReturnDays: 30, Notes: "Most items; electronics 10 days replacement"},
	{MerchantName: "Flipkart", DefaultReturnDays: 10},
	{MerchantName: "Myntra", DefaultReturnDays: 14},
	{MerchantName: "Nykaa", DefaultReturnDays: 15},
	{MerchantName: "H&M", DefaultReturnDays: 30},
}

// ParseSeed decodes a YAML seed document:
//
//	merchants:
//	  - merchant: Amazon
//	    return_days: 30
//	    notes: optional
func ParseSeed(data []byte) ([]model.MerchantRule, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode merchant seed: %w", err)
	}
	for _, r := range doc.Merchants {
		if Key(r.MerchantName) == "" || r.DefaultReturnDays < 0 {
			return nil, fmt.Errorf("merchant seed entry %q: %w", r.MerchantName, domainErrors.ErrInvalidInput)
		}
	}
	return doc.Merchants, nil
}

// LoadSeed reads rules from path, or returns DefaultRules when path is empty.
func LoadSeed(path string) ([]model.MerchantRule, error) {
	if path == "" {
		return DefaultRules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merchant seed: %w", err)
	}
	return ParseSeed(data)
}

// Seed upserts rules into the repository.
func Seed(ctx context.Context, repo repository.MerchantRuleRepository, rules []model.MerchantRule) error {
	for _, r := range rules {
		if err := repo.Upsert(ctx, r); err != nil {
			return fmt.Errorf("seed merchant %q: %w", r.MerchantName, err)
		}
	}
	return nil
}
