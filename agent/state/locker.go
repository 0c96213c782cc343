package state

import (
	"context"
	"sync"
)

// KeyedLocker serializes work per thread id. Unused keys are released so
// the map only holds threads that currently have a turn in flight.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// refLock is a one-slot semaphore so waiters can give up on cancellation.
type refLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedLocker) Lock(key string) (unlock func()) {
	unlock, _ = k.LockContext(context.Background(), key)
	return unlock
}

// LockContext is Lock bounded by ctx. On cancellation it returns ctx.Err()
// and a nil unlock func, and the waiter's claim on key is dropped.
func (k *KeyedLocker) LockContext(ctx context.Context, key string) (unlock func(), err error) {
	l := k.acquireRef(key)

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		k.releaseRef(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			k.releaseRef(key, l)
		})
	}, nil
}

func (k *KeyedLocker) acquireRef(key string) *refLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *KeyedLocker) releaseRef(key string, l *refLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// Held reports how many keys are currently locked or awaited.
func (k *KeyedLocker) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
