package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

func DefaultOutboxPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "outbox",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("outbox retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox retries exhausted", zap.Error(err))
			}
		},
	}
}

// SendPolicy retries a channel send a few times with a short backoff.
// permanent reports errors that must not be retried.
func SendPolicy(name string, attempts int, base time.Duration, permanent func(error) bool, log *zap.Logger) Policy {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return Policy{
		Name:     name,
		Attempts: attempts,
		Backoff:  ExpoJitter{Base: base, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return permanent == nil || !permanent(err)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Debug("send attempt failed", zap.String("policy", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
