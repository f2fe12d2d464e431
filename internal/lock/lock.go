// Package lock serialises allocation runs per product.
package lock

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

// ErrNotObtained is returned when the lock stays busy for the whole wait
// budget. It maps to a 409 conflict.
var ErrNotObtained = fmt.Errorf("%w: product is locked by another allocation run", apperrors.ErrConflict)

// ReleaseFunc releases a held lock.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out exclusive per-key locks. Different keys never contend.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// ProductKey is the lock key for allocation runs on a product.
func ProductKey(productID int64) string {
	return "warehouse:lock:product:" + strconv.FormatInt(productID, 10)
}

// LocalLocker is an in-process Locker used when Redis is disabled. It only
// serialises callers within a single replica.
type LocalLocker struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker that waits at most wait for a busy key.
// A zero wait blocks until ctx is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, slots: make(map[string]*slot)}
}

// Acquire blocks until the key is free, the wait budget expires or ctx is done.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	s := l.ref(key)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, ErrNotObtained
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.unref(key)
		})
		return nil
	}, nil
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
