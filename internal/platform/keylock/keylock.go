package keylock

import (
	"context"
	"sync"
)

// Unlock releases a held key. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive ownership of a key until the returned Unlock runs.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

type entry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Entries are dropped once no goroutine
// holds or waits on the key.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: map[string]*entry{}}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.release(key, e)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}

// Len reports how many keys are currently tracked.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type chain []Locker

// Chain acquires every locker in order and releases them in reverse. A nil
// locker is skipped.
func Chain(lockers ...Locker) Locker {
	out := make(chain, 0, len(lockers))
	for _, l := range lockers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (c chain) Lock(ctx context.Context, key string) (Unlock, error) {
	held := make([]Unlock, 0, len(c))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, l := range c {
		u, err := l.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, u)
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
