package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockWait  = 3 * time.Second
	lockRetryBackoff = 25 * time.Millisecond
)

// Guard serializes read-modify-write cycles on one session. The returned
// unlock func must be called exactly once.
type Guard interface {
	Lock(ctx context.Context, sessionID string) (func(), error)
}

// Locker serializes work per session id inside one process. Idle locks are
// released so the map only holds sessions with a request in flight.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sessionLock)}
}

// Lock blocks until sessionID is free and returns the matching unlock func.
func (l *Locker) Lock(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[sessionID]
	if !ok {
		lk = &sessionLock{}
		l.locks[sessionID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}, nil
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

type lockClient interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfEquals(ctx context.Context, key, value string) (bool, error)
	LockKey(name string) string
}

// RedisLocker extends Locker across api replicas with an owner-tokened Redis key.
// Callers in the same process queue on the local lock first.
type RedisLocker struct {
	local  *Locker
	client lockClient
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker holds each key for at most ttl and gives up after waiting wait.
func NewRedisLocker(client lockClient, ttl, wait time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for session locks")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{local: NewLocker(), client: client, ttl: ttl, wait: wait}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	unlockLocal, _ := l.local.Lock(ctx, sessionID)

	key := l.client.LockKey("session:" + sessionID)
	token := uuid.NewString()
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	retry := time.NewTimer(0)
	defer retry.Stop()
	for {
		select {
		case <-waitCtx.Done():
			unlockLocal()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, waitCtx.Err(), "session is busy").
				WithDetails(map[string]any{"wait_ms": l.wait.Milliseconds()})
		case <-retry.C:
		}

		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl)
		if err != nil && waitCtx.Err() == nil {
			unlockLocal()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire session lock")
		}
		if ok {
			return func() {
				_, _ = l.client.DelIfEquals(context.WithoutCancel(ctx), key, token)
				unlockLocal()
			}, nil
		}
		retry.Reset(lockRetryBackoff)
	}
}
