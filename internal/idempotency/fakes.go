package idempotency

import (
	"context"
	"sync"
	"time"
)

// FakeLocker is an in-process Locker for tests.
type FakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewFakeLocker() *FakeLocker {
	return &FakeLocker{held: make(map[string]bool)}
}

func (f *FakeLocker) TryAcquire(_ context.Context, key string, _ time.Duration) (Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return nil, ErrLockHeld
	}
	f.held[key] = true
	return &fakeLock{locker: f, key: key}, nil
}

// Held reports whether the key is currently locked.
func (f *FakeLocker) Held(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[key]
}

type fakeLock struct {
	locker *FakeLocker
	key    string
}

func (l *fakeLock) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	delete(l.locker.held, l.key)
	return nil
}
