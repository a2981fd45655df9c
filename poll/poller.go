// Package poll drives a sensor's per-tick sampling on a fixed cadence and
// translates its output into relative motion events. The same poller serves
// both the optical and the analog drivers; only the sampling function
// differs.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/zaburoh/pointing"
)

// DefaultInterval is used when no poll interval is configured.
const DefaultInterval = 10 * time.Millisecond

// SampleFunc performs one tick's sampling. A nil error with a zero delta
// means no motion; a non-nil error is a transport failure the poller absorbs.
type SampleFunc func(ctx context.Context) (pointing.Delta, error)

// Stats is the diagnostic view of a poller. Failures never interrupt
// polling, so these counters are the only way sustained faults become
// visible outside the driver.
type Stats struct {
	Ticks       uint64
	Emitted     uint64
	FailedTicks uint64
	LastFailure time.Time
}

type Opts struct {
	Interval  time.Duration
	Scheduler pointing.Scheduler
}

type Opt func(*Opts)

func WithInterval(interval time.Duration) Opt {
	return func(o *Opts) {
		o.Interval = interval
	}
}

func WithScheduler(scheduler pointing.Scheduler) Opt {
	return func(o *Opts) {
		o.Scheduler = scheduler
	}
}

// Poller is a self-rescheduling timed task. Start arms the first tick; every
// tick samples once, forwards non-zero motion to the sink and re-arms itself
// after the configured interval, regardless of the sampling outcome.
type Poller struct {
	sample    SampleFunc
	sink      pointing.EventSink
	scheduler pointing.Scheduler
	interval  time.Duration

	mx    sync.Mutex
	stats Stats
}

func New(sample SampleFunc, sink pointing.EventSink, opts ...Opt) *Poller {
	config := Opts{
		Interval:  DefaultInterval,
		Scheduler: pointing.TimerScheduler{},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Poller{
		sample:    sample,
		sink:      sink,
		scheduler: config.Scheduler,
		interval:  config.Interval,
	}
}

// Start schedules the first tick. Polling continues until ctx is cancelled;
// there is no other stop path, a driver instance polls for the process
// lifetime.
func (p *Poller) Start(ctx context.Context) {
	p.scheduler.Schedule(p.interval, func() { p.tick(ctx) })
}

// Stats returns a snapshot of the diagnostic counters.
func (p *Poller) Stats() Stats {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.stats
}

func (p *Poller) tick(ctx context.Context) {
	delta, err := p.sample(ctx)

	p.mx.Lock()
	p.stats.Ticks++
	if err != nil {
		// Degrade to no motion: the failure is invisible to the sink and the
		// reschedule below still happens.
		p.stats.FailedTicks++
		p.stats.LastFailure = time.Now()
	} else if !delta.Zero() {
		p.stats.Emitted++
	}
	p.mx.Unlock()

	if err == nil && !delta.Zero() {
		p.emit(delta)
	}

	if ctx.Err() == nil {
		p.scheduler.Schedule(p.interval, func() { p.tick(ctx) })
	}
}

// emit reports X before Y. When both axes moved, the X event carries the
// more-follows hint so the sink can treat the pair as one coordinated update.
func (p *Poller) emit(delta pointing.Delta) {
	if delta.DX != 0 {
		p.sink.ReportRel(pointing.AxisX, delta.DX, delta.DY != 0)
	}
	if delta.DY != 0 {
		p.sink.ReportRel(pointing.AxisY, delta.DY, false)
	}
}
