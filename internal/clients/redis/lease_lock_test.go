package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

func TestLeaseLockerExcludesSecondHolder(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis lease tests")
	}
	l, err := NewLeaseLocker(logger.Nop(), LeaseConfig{Addr: addr, TTL: 5 * time.Second, PollEvery: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewLeaseLocker: %v", err)
	}
	defer l.Close()

	key := "test:" + uuid.NewString()
	unlock, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, key); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Lock: want DeadlineExceeded got=%v", err)
	}

	unlock()
	again, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	again()
}
