package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/surveyreport-backend/internal/platform/keylock"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// releaseScript deletes the lease only if it is still owned by the caller's token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type LeaseConfig struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	TTL       time.Duration
	PollEvery time.Duration
}

// LeaseLocker is a cross-process keylock.Locker backed by SET NX PX leases.
// A lease that outlives its holder expires after TTL.
type LeaseLocker struct {
	log       *logger.Logger
	rdb       goredis.UniversalClient
	prefix    string
	ttl       time.Duration
	pollEvery time.Duration
}

func NewLeaseLocker(log *logger.Logger, cfg LeaseConfig) (*LeaseLocker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewLeaseLockerFromClient(log, rdb, cfg), nil
}

func NewLeaseLockerFromClient(log *logger.Logger, rdb goredis.UniversalClient, cfg LeaseConfig) *LeaseLocker {
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "surveyreport:lock:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	poll := cfg.PollEvery
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}
	return &LeaseLocker{
		log:       log.With("service", "RedisLeaseLocker"),
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		pollEvery: poll,
	}
}

func (l *LeaseLocker) Lock(ctx context.Context, key string) (keylock.Unlock, error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis lease locker not initialized")
	}
	full := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.pollEvery)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lease %s: %w", full, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{full}, token).Err(); err != nil {
			l.log.Warn("redis lease release failed", "key", full, "error", err)
		}
	}, nil
}

func (l *LeaseLocker) Ping(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return fmt.Errorf("redis lease locker not initialized")
	}
	return l.rdb.Ping(ctx).Err()
}

func (l *LeaseLocker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
