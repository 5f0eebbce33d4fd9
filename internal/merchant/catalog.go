// Package merchant keeps the merchant return-policy reference data in memory.
package merchant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
)

// Catalog is a case-insensitive snapshot of merchant rules. Lookups never touch
// storage; Refresh swaps the snapshot atomically.
type Catalog struct {
	mu    sync.RWMutex
	rules map[string]model.MerchantRule
}

// NewCatalog builds a catalog holding rules.
func NewCatalog(rules ...model.MerchantRule) *Catalog {
	c := &Catalog{}
	c.Replace(rules)
	return c
}

// Key normalizes a merchant name for lookups.
func Key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Lookup returns the rule for a merchant name, ignoring case and spacing.
func (c *Catalog) Lookup(name string) (model.MerchantRule, bool) {
	key := Key(name)
	if key == "" {
		return model.MerchantRule{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rule, ok := c.rules[key]
	return rule, ok
}

// Replace swaps the whole snapshot.
func (c *Catalog) Replace(rules []model.MerchantRule) {
	next := make(map[string]model.MerchantRule, len(rules))
	for _, r := range rules {
		if key := Key(r.MerchantName); key != "" {
			next[key] = r
		}
	}
	c.mu.Lock()
	c.rules = next
	c.mu.Unlock()
}

// Rules lists the snapshot ordered by merchant name.
func (c *Catalog) Rules() []model.MerchantRule {
	c.mu.RLock()
	out := make([]model.MerchantRule, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return Key(out[i].MerchantName) < Key(out[j].MerchantName) })
	return out
}

// Names returns the merchant names of the snapshot.
func (c *Catalog) Names() []string {
	rules := c.Rules()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.MerchantName)
	}
	return names
}

// Refresh reloads the snapshot from the repository.
func (c *Catalog) Refresh(ctx context.Context, repo repository.MerchantRuleRepository) error {
	rules, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list merchant rules: %w", err)
	}
	c.Replace(rules)
	return nil
}
