package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/keylock"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// RetryPolicy bounds how often a transient write failure is retried.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	LockTimeout     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 5
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 20 * time.Millisecond
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = 500 * time.Millisecond
	}
	if p.LockTimeout <= 0 {
		p.LockTimeout = 30 * time.Second
	}
	return p
}

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Locker keylock.Locker
	Retry  RetryPolicy

	reports reportGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Runner == nil {
		d.Runner = GormTx(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	d.reports = reportGuard{db: d.DB}
	if d.Locker == nil {
		d.Locker = keylock.NewKeyedMutex()
	}
	d.Retry = d.Retry.withDefaults()
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeSerializedWrite holds lockKey for the whole unit of work and retries
// the transaction while it fails with a transient code. Non-transient errors
// and an exhausted retry budget are returned as mapped aggregate errors.
func executeSerializedWrite(ctx context.Context, deps BaseDeps, op, lockKey string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()

	lockCtx, cancel := context.WithTimeout(ctx, deps.Retry.LockTimeout)
	unlock, err := deps.Locker.Lock(lockCtx, lockKey)
	cancel()
	if err != nil {
		return domainagg.NewError(domainagg.CodeRetryable, op, "acquire "+lockKey, err)
	}
	defer unlock()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = deps.Retry.InitialInterval
	b.MaxInterval = deps.Retry.MaxInterval

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		werr := executeWrite(ctx, deps, op, fn)
		if werr == nil {
			return struct{}{}, nil
		}
		if !domainagg.Transient(werr) || ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(werr)
		}
		deps.Log.Warn("aggregate write conflict, retrying", "op", op, "attempt", attempt, "error", werr)
		return struct{}{}, werr
	}, backoff.WithBackOff(b), backoff.WithMaxTries(deps.Retry.MaxAttempts))
	if err != nil {
		return MapError(op, err)
	}
	return nil
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
