package pointing

import "time"

// Scheduler runs fn once after d. Implementations execute callbacks on a
// single worker so successive ticks of one driver instance never overlap.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

// TimerScheduler schedules callbacks on standard library timers.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
