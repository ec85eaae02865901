package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultDispatchPolicy covers outbox handlers that publish email dispatch
// events to Kafka. Everything is considered retryable; a duplicate would be
// absorbed by the per-day uniqueness discipline downstream.
func DefaultDispatchPolicy(log *zap.Logger) Policy {
	return Policy{
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("dispatch retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("dispatch retries exhausted", zap.Error(err))
			}
		},
	}
}
