package service

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one call of fn, made window after
// the first trigger of the burst.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules fn unless a call is already pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.timer != nil {
		return
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped {
		d.fn()
	}
}

// Stop cancels a pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
