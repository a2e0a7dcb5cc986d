package clinictest

import (
	"context"
	"sync"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Locker is an in-process clinic.Locker that records the keys it guarded.
// Keys listed in Busy are reported as held by someone else.
type Locker struct {
	mu   sync.Mutex
	held map[string]*sync.Mutex
	keys []string
	Busy map[string]bool
}

var _ clinic.Locker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{held: make(map[string]*sync.Mutex), Busy: make(map[string]bool)}
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.Busy[key] {
		l.mu.Unlock()
		return clinic.ErrBusy
	}
	l.keys = append(l.keys, key)
	km, ok := l.held[key]
	if !ok {
		km = &sync.Mutex{}
		l.held[key] = km
	}
	l.mu.Unlock()

	km.Lock()
	defer km.Unlock()
	return fn(ctx)
}

// Keys returns the lock keys in acquisition order.
func (l *Locker) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}
