package client

import (
	"sync"
	"time"
)

const DefaultDebounceDelay = 300 * time.Millisecond

// Debouncer collapses bursts of Trigger calls into one fn call carrying the
// latest value, fired once the input has been quiet for delay.
type Debouncer[T any] struct {
	mu     sync.Mutex
	delay  time.Duration
	fn     func(T)
	timer  *time.Timer
	latest T
}

// NewDebouncer builds a Debouncer. A non-positive delay uses 300ms.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush fires immediately if a call is pending.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer == nil || !d.timer.Stop() {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	v := d.latest
	d.mu.Unlock()
	d.fn(v)
}

// Stop drops any pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	d.timer = nil
	v := d.latest
	d.mu.Unlock()
	d.fn(v)
}
