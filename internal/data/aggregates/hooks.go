package aggregates

import (
	"time"

	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// Hooks receives aggregate write outcomes.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type logHooks struct {
	log *logger.Logger
}

// NewLogHooks reports aggregate outcomes through the structured logger:
// successes at debug, everything else at warn.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "AggregateHooks")}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	if status == "success" {
		h.log.Debug("aggregate write", "op", name, "status", status, "duration_ms", dur.Milliseconds())
		return
	}
	h.log.Warn("aggregate write", "op", name, "status", status, "duration_ms", dur.Milliseconds())
}

func (h *logHooks) IncConflict(name string) {
	h.log.Warn("aggregate conflict", "op", name)
}

func (h *logHooks) IncRetry(name string) {
	h.log.Warn("aggregate retryable failure", "op", name)
}
