// Package lease provides short-lived exclusive leases keyed by string.
package lease

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
)

// ErrNotHeld is returned when releasing a lease that already expired or was taken over.
var ErrNotHeld = errors.New("lease not held")

// Lease is a held lease.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker grants exclusive leases. Acquire returns ErrLeaseNotAcquired when the
// key is held by someone else.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// MemoryLocker is an in-process Locker for single-instance deployments and tests.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// NewMemoryLocker builds a MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryEntry), now: time.Now}
}

// Acquire takes key for ttl unless a live lease exists.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, domainErrors.ErrLeaseNotAcquired
	}
	token := uuid.NewString()
	l.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, token: token}, nil
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
}

func (ls *memoryLease) Release(context.Context) error {
	l := ls.locker
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.held[ls.key]
	if !ok || e.token != ls.token {
		return ErrNotHeld
	}
	delete(l.held, ls.key)
	return nil
}
