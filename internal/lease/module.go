package lease

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/config"
)

// Module provides a Redis backed Locker when REDIS_ADDRESS is set and an
// in-process one otherwise.
var Module = fx.Provide(newLocker)

func newLocker(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) Locker {
	if cfg.RedisAddress == "" {
		log.Info("using in-process dispatch leases")
		return NewMemoryLocker()
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	log.Info("using redis dispatch leases", slog.String("addr", cfg.RedisAddress))
	return NewRedisLocker(rdb, "")
}
