package lock

import (
	"context"
	"sync"
	"time"
)

// Local é um mutex por chave para um único processo. Entradas somem do
// mapa quando ninguém mais as usa.
type Local struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocal(wait time.Duration) *Local {
	if wait <= 0 {
		wait = 3 * time.Second
	}
	return &Local{wait: wait, slots: make(map[string]*localSlot)}
}

func (l *Local) Lock(ctx context.Context, key string) (Release, error) {
	s := l.acquireRef(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.releaseRef(key)
			})
		}, nil

	case <-timer.C:
		l.releaseRef(key)
		return nil, errTimeout(key, l.wait)

	case <-ctx.Done():
		l.releaseRef(key)
		return nil, ctx.Err()
	}
}

func (l *Local) acquireRef(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) releaseRef(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
