package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
)

const defaultKeyPrefix = "receiptwatch:lease:"

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker grants leases shared by every instance connected to the same Redis.
type RedisLocker struct {
	rdb       redis.UniversalClient
	keyPrefix string
}

// NewRedisLocker creates a RedisLocker.
func NewRedisLocker(rdb redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisLocker{rdb: rdb, keyPrefix: keyPrefix}
}

// Acquire sets the lease key with NX so only one holder wins.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	leaseKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, leaseKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, domainErrors.ErrLeaseNotAcquired
	}
	return &redisLease{rdb: l.rdb, key: leaseKey, token: token}, nil
}

type redisLease struct {
	rdb   redis.UniversalClient
	key   string
	token string
}

// Release deletes the key only if this lease still owns it.
func (ls *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, ls.rdb, []string{ls.key}, ls.token).Int64()
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
