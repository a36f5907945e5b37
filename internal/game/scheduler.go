package game

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// TimerHandle is a cancellable pending callback. Stop is idempotent; a
// stopped handle never fires afterwards. Callbacks already in flight when
// Stop is called are defused by the match's generation tokens.
type TimerHandle interface {
	Stop() bool
}

// Scheduler schedules delayed callbacks. In production it wraps a clockwork
// real clock; tests substitute a manual implementation and advance time
// deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) TimerHandle
}

type clockScheduler struct {
	clock clockwork.Clock
}

func NewScheduler(clock clockwork.Clock) Scheduler {
	return clockScheduler{clock: clock}
}

func (s clockScheduler) AfterFunc(d time.Duration, f func()) TimerHandle {
	return s.clock.AfterFunc(d, f)
}
