package app

import (
	"fmt"
	"time"

	"quizhost-service/internal/domain"
)

// TimerHandle cancels a scheduled callback. Cancel is idempotent: cancelling
// a handle that already fired or was already cancelled is a no-op.
type TimerHandle interface {
	Cancel()
}

// TimerService schedules exactly one future invocation of fn. The session
// core never blocks on a delay; every timed wait goes through here so that
// SKIP_COUNTDOWN and END can pre-empt it deterministically.
type TimerService interface {
	Schedule(delay time.Duration, fn func()) (TimerHandle, error)
}

// WallTimers is the production TimerService backed by time.AfterFunc.
type WallTimers struct{}

func NewWallTimers() WallTimers {
	return WallTimers{}
}

func (WallTimers) Schedule(delay time.Duration, fn func()) (TimerHandle, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative timer delay %s", domain.ErrInvalidInput, delay)
	}
	return wallHandle{timer: time.AfterFunc(delay, fn)}, nil
}

type wallHandle struct {
	timer *time.Timer
}

// Cancel stops the underlying timer. A fired or stopped timer makes Stop a
// no-op, which is exactly the idempotence the session core relies on; the
// fired-vs-cancelled race itself is resolved under the session mutex.
func (h wallHandle) Cancel() {
	h.timer.Stop()
}
