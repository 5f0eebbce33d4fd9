package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/adapter/kafkanotify"
	"github.com/polkiloo/receiptwatch/internal/adapter/lognotify"
	"github.com/polkiloo/receiptwatch/internal/adapter/mailrelay"
	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/extraction"
	"github.com/polkiloo/receiptwatch/internal/merchant"
	"github.com/polkiloo/receiptwatch/internal/reminder"
	"github.com/polkiloo/receiptwatch/internal/usecase"
	"github.com/polkiloo/receiptwatch/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewReceiptWatchFacade,
		newExtractor,
		newNotifier,
		newHTTPServer,
		newReminderWorker,
	),
	fx.Invoke(registerLifecycle),
)

func newExtractor(cfg *config.Config, catalog *merchant.Catalog) usecase.Extractor {
	var known []extraction.KnownMerchant
	for _, name := range catalog.Names() {
		known = append(known, extraction.KnownMerchant{Name: name})
	}
	return extraction.New(extraction.Options{
		DefaultCurrency: cfg.DefaultCurrency,
		DayFirst:        cfg.ExtractDayFirst,
		Merchants:       known,
	})
}

type notifierParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newNotifier(p notifierParams) (reminder.Notifier, error) {
	switch p.Config.Notifier {
	case config.NotifierHTTP:
		client, err := mailrelay.NewClient(p.Config.MailRelayAddress, p.Config.SendRate, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Logger.Info("delivering reminders through mail relay", slog.String("addr", p.Config.MailRelayAddress))
		return client, nil
	case config.NotifierKafka:
		publisher, err := kafkanotify.NewPublisher(kafkanotify.Config{
			Brokers:   p.Config.KafkaBrokers,
			Topic:     p.Config.KafkaTopic,
			PerSecond: p.Config.SendRate,
		}, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error { return publisher.Close() },
		})
		p.Logger.Info("publishing reminders to kafka", slog.String("topic", p.Config.KafkaTopic))
		return publisher, nil
	case config.NotifierLog, "":
		return lognotify.New(p.Logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", p.Config.Notifier)
	}
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *ReceiptWatchFacade
	Config *config.Config
	Logger *slog.Logger
}

func newReminderWorker(p workerParams) (*worker.ReminderWorker, error) {
	return worker.NewReminderWorker(
		p.Facade,
		p.Config.ScheduleCron,
		p.Config.ScheduleTimezone,
		p.Config.DispatchInterval,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.ReminderWorker
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting receiptwatch", slog.String("addr", p.Server.Addr))
			// ctx only lives for the start phase.
			if err := p.Worker.Start(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("receiptwatch stopped")
			return nil
		},
	})
}
