package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/app"
	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/lease"
	"github.com/polkiloo/receiptwatch/internal/logger"
	"github.com/polkiloo/receiptwatch/internal/merchant"
	"github.com/polkiloo/receiptwatch/internal/pkg/auth"
	"github.com/polkiloo/receiptwatch/internal/reminder"
	"github.com/polkiloo/receiptwatch/internal/server/http/handlers"
	"github.com/polkiloo/receiptwatch/internal/server/http/router"
	"github.com/polkiloo/receiptwatch/internal/storage/postgres"
	"github.com/polkiloo/receiptwatch/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		fx.Provide(func(s *postgres.Storage) app.HealthChecker { return s }),
		lease.Module,
		merchant.Module,
		usecase.Module,
		reminder.Module,
		fx.Provide(func(f *app.ReceiptWatchFacade) handlers.ReceiptWatchFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
