package guard

import (
	"context"
	"time"
)

// Outcome describes how a readiness wait ended
type Outcome string

const (
	// OutcomeImmediate means the condition held on the first check
	OutcomeImmediate Outcome = "immediate"
	// OutcomeReady means the condition became true while polling
	OutcomeReady Outcome = "ready"
	// OutcomeTimeout means the deadline elapsed first
	OutcomeTimeout Outcome = "timeout"
	// OutcomeCanceled means ctx was done first
	OutcomeCanceled Outcome = "canceled"
)

// Await polls ready every interval until it returns true or timeout
// elapses, whichever comes first. Both timers are stopped before Await
// returns, whatever the outcome. Await never fails: callers decide what a
// timeout means.
func Await(ctx context.Context, ready func() bool, interval, timeout time.Duration) Outcome {
	if ready() {
		return OutcomeImmediate
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	poll := time.NewTicker(interval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return OutcomeCanceled
		case <-deadline.C:
			return OutcomeTimeout
		case <-poll.C:
			if ready() {
				return OutcomeReady
			}
		}
	}
}
