package fit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTickInterval approximates one rendering opportunity at 60Hz.
const DefaultTickInterval = 16 * time.Millisecond

// Scheduler invokes fn on the next tick. Functions scheduled during a tick run
// on the following one.
type Scheduler interface {
	Schedule(fn func())
}

// Throttle coalesces requests so that fn runs at most once per tick.
//
// A request made while an execution is pending is dropped in favour of it.
// The pending flag is cleared right before fn runs, so a request arriving
// during fn is picked up on the next tick and the last request always wins.
type Throttle struct {
	fn        func()
	scheduler Scheduler
	pending   atomic.Bool
	stopped   atomic.Bool
}

// NewThrottle wraps fn. It does not schedule anything until Request is called.
func NewThrottle(s Scheduler, fn func()) *Throttle {
	return &Throttle{fn: fn, scheduler: s}
}

// Request schedules fn unless an execution is already pending. It reports
// whether a new execution was scheduled.
func (t *Throttle) Request() bool {
	if t.stopped.Load() || !t.pending.CompareAndSwap(false, true) {
		return false
	}
	t.scheduler.Schedule(t.fire)
	return true
}

// Pending reports whether an execution is waiting for its tick.
func (t *Throttle) Pending() bool { return t.pending.Load() }

// Stop drops the pending execution, if any, and ignores further requests.
func (t *Throttle) Stop() { t.stopped.Store(true) }

func (t *Throttle) fire() {
	t.pending.Store(false)
	if t.stopped.Load() {
		return
	}
	t.fn()
}

// ManualScheduler queues functions until Tick is called. It is used for
// headless runs and tests where ticks are driven explicitly.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (m *ManualScheduler) Schedule(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// Tick runs everything queued before the call and returns how many functions
// ran.
func (m *ManualScheduler) Tick() int {
	m.mu.Lock()
	batch := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Drain ticks until the queue stays empty or maxTicks is reached.
func (m *ManualScheduler) Drain(maxTicks int) int {
	ticks := 0
	for ticks < maxTicks && m.Tick() > 0 {
		ticks++
	}
	return ticks
}

// Len returns the number of queued functions.
func (m *ManualScheduler) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// TickerScheduler runs queued functions on its own goroutine once per
// interval. All functions run on that goroutine, one after another.
type TickerScheduler struct {
	interval time.Duration
	manual   ManualScheduler
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTickerScheduler starts the tick loop. It stops when ctx is cancelled or
// Stop is called.
func NewTickerScheduler(ctx context.Context, interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	ts := &TickerScheduler{
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go ts.loop(ctx)
	return ts
}

func (ts *TickerScheduler) Schedule(fn func()) { ts.manual.Schedule(fn) }

// Stop terminates the loop and waits for the running tick to finish. Queued
// functions are discarded.
func (ts *TickerScheduler) Stop() {
	ts.cancel()
	<-ts.done
}

func (ts *TickerScheduler) loop(ctx context.Context) {
	defer close(ts.done)
	ticker := time.NewTicker(ts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts.manual.Tick()
		}
	}
}
