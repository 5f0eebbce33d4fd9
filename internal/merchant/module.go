package merchant

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
)

// Module provides the merchant catalog, seeded and loaded on start.
var Module = fx.Provide(newCatalog)

type catalogParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Repos     repository.Factory
	Logger    *slog.Logger
}

func newCatalog(p catalogParams) (*Catalog, error) {
	rules, err := LoadSeed(p.Config.MerchantRulesFile)
	if err != nil {
		return nil, err
	}
	catalog := NewCatalog(rules...)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return Bootstrap(ctx, catalog, p.Repos.MerchantRules(), rules, p.Config.MerchantRulesFile != "", p.Logger)
		},
	})
	return catalog, nil
}

// Bootstrap seeds the repository when it is empty (or always when force is
// set) and loads the catalog from it.
func Bootstrap(ctx context.Context, catalog *Catalog, repo repository.MerchantRuleRepository, seed []model.MerchantRule, force bool, log *slog.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if force || len(existing) == 0 {
		if err := Seed(ctx, repo, seed); err != nil {
			return err
		}
		log.Info("merchant rules seeded", slog.Int("count", len(seed)))
	}
	if err := catalog.Refresh(ctx, repo); err != nil {
		return err
	}
	log.Info("merchant catalog loaded", slog.Int("merchants", len(catalog.Rules())))
	return nil
}
