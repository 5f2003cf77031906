package infra

import (
	"time"

	"wikidot-gateway/middleware/ratelimit/domain"
)

// TimerScheduler implementa domain.Scheduler com time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) domain.Eviction {
	return timerEviction{t: time.AfterFunc(d, f)}
}

type timerEviction struct {
	t *time.Timer
}

// Cancel para o timer; Stop em timer já disparado ou parado é no-op.
func (e timerEviction) Cancel() { e.t.Stop() }
