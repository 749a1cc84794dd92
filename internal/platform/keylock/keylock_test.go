package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "company-1")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	if got := maxInside.Load(); got != 1 {
		t.Fatalf("concurrent holders: want=1 got=%d", got)
	}
	if m.Len() != 0 {
		t.Fatalf("entries leaked: want=0 got=%d", m.Len())
	}
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, err := m.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	defer a()
	b, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock b while a held: %v", err)
	}
	b()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	held, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock with expired ctx: want DeadlineExceeded got=%v", err)
	}
	held()
	held()
	if m.Len() != 0 {
		t.Fatalf("entries leaked after cancelled waiter: %d", m.Len())
	}
}

type failingLocker struct{ err error }

func (f failingLocker) Lock(context.Context, string) (Unlock, error) { return nil, f.err }

func TestChainReleasesOnPartialFailure(t *testing.T) {
	m := NewKeyedMutex()
	boom := errors.New("lease unavailable")
	l := Chain(m, nil, failingLocker{err: boom})

	if _, err := l.Lock(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("Chain.Lock: want=%v got=%v", boom, err)
	}
	if m.Len() != 0 {
		t.Fatalf("first locker still held after chain failure")
	}
}
