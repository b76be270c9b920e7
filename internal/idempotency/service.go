package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/obafemi/chopwell-backend/pkg/redis"
)

// ErrLockHeld is returned by TryAcquire when another worker holds the lock.
var ErrLockHeld = errors.New("lock already held")

// Lock is a held distributed lock. Release it in a defer.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out short-lived distributed locks.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Service combines processing locks with processed-markers. Locks serialize
// concurrent workers on one key; markers make webhook handling exactly-once.
type Service interface {
	Locker
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	ClearProcessed(ctx context.Context, key string) error
}

type service struct {
	locker  Locker
	markers pkgredis.MarkerStore
}

// NewService wires the redis-backed locker and marker store.
func NewService(locker Locker, markers pkgredis.MarkerStore) (Service, error) {
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if markers == nil {
		return nil, fmt.Errorf("marker store required")
	}
	return &service{locker: locker, markers: markers}, nil
}

func (s *service) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	return s.locker.TryAcquire(ctx, key, ttl)
}

// MarkProcessed records the key once. The second caller gets false.
func (s *service) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.markers.SetNX(ctx, key, "1", ttl)
}

func (s *service) IsProcessed(ctx context.Context, key string) (bool, error) {
	_, err := s.markers.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ClearProcessed removes a marker so a failed handler can be retried.
func (s *service) ClearProcessed(ctx context.Context, key string) error {
	return s.markers.Del(ctx, key)
}

// RedisLocker implements Locker on bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker builds a locker from the raw go-redis client.
func NewRedisLocker(raw *goredis.Client) (*RedisLocker, error) {
	if raw == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisLocker{client: redislock.New(raw)}, nil
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}
	return &redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
