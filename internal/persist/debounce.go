// Package persist batches state writes behind a trailing-edge timer.
package persist

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/metrics"
)

// Debouncer runs fn once delay has passed without another Trigger.
// Every Trigger cancels the pending timer and schedules a new one.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration
	fn    func() error

	mu      sync.Mutex
	timer   clockwork.Timer
	pending bool
	closed  bool

	// serialises fn between the timer, Flush and Close
	runMu sync.Mutex
}

func NewDebouncer(clock clockwork.Clock, delay time.Duration, fn func() error) *Debouncer {
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

// Trigger marks the state dirty and restarts the timer. No-op after Close.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, d.fire)
}

// Pending reports whether a write is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush writes immediately if anything is pending
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	pending := d.pending
	d.pending = false
	d.mu.Unlock()

	if !pending {
		return nil
	}
	return d.run()
}

// Close cancels the timer and performs a final write. Later Triggers are
// ignored.
func (d *Debouncer) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.mu.Unlock()

	return d.run()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending || d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	if err := d.run(); err != nil {
		logging.Error().Err(err).Msg("debounced flush failed")
		// keep the data dirty so the next trigger or Close retries
		d.mu.Lock()
		d.pending = !d.closed
		d.mu.Unlock()
	}
}

func (d *Debouncer) run() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	start := time.Now()
	err := d.fn()
	metrics.RecordFlush(time.Since(start), err)
	return err
}
