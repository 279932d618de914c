// Package debounce tracks, per child session, a "has this session gone
// idle" timer. It generalizes the teacher's reset/clear timer dance around
// a single fallback ticker (see the boring-swarm style debounce loop
// retrieved alongside this pack) into a concurrent-safe, per-key map so
// the supervisor can debounce many child sessions independently.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the idle window before a debounced callback fires,
// per spec §4.D.
const DefaultInterval = 5000 * time.Millisecond

// Clock abstracts time so tests can drive the debouncer deterministically
// instead of sleeping for real wall-clock milliseconds (spec §10.4).
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the production Clock backed by the runtime's timers.
var RealClock Clock = realClock{}

// Debouncer arms, cancels, and fires one idle timer per child session ID.
type Debouncer struct {
	mu       sync.Mutex
	timers   map[string]Timer
	clock    Clock
	interval time.Duration
	onIdle   func(childID string)
}

// New creates a Debouncer. onIdle is invoked (on its own goroutine, per
// time.AfterFunc semantics) when a child's idle timer fires without having
// been reset or cancelled first.
func New(interval time.Duration, clock Clock, onIdle func(childID string)) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer{
		timers:   make(map[string]Timer),
		clock:    clock,
		interval: interval,
		onIdle:   onIdle,
	}
}

// OnBusy cancels any pending idle timer for childID. Spec §4.D: a busy
// event (new activity observed) resets the debounce window.
func (d *Debouncer) OnBusy(childID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked(childID)
}

// ArmIdle (re)starts the idle timer for childID, replacing any timer
// already running. Callers only arm when the child has a pending forward
// request to resolve once it settles (spec §4.D).
func (d *Debouncer) ArmIdle(childID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked(childID)
	d.timers[childID] = d.clock.AfterFunc(d.interval, func() {
		d.fire(childID)
	})
}

// OnError cancels any pending timer and invokes the callback immediately,
// synchronously on the caller's goroutine: an error event short-circuits
// the debounce window rather than waiting it out (spec §4.D).
func (d *Debouncer) OnError(childID string) {
	d.mu.Lock()
	d.cancelLocked(childID)
	d.mu.Unlock()
	if d.onIdle != nil {
		d.onIdle(childID)
	}
}

// Cancel stops and forgets childID's timer, if any. Used when a child
// session is removed from tracking.
func (d *Debouncer) Cancel(childID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked(childID)
}

// Pending reports whether childID currently has an armed idle timer.
func (d *Debouncer) Pending(childID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[childID]
	return ok
}

func (d *Debouncer) cancelLocked(childID string) {
	if t, ok := d.timers[childID]; ok {
		t.Stop()
		delete(d.timers, childID)
	}
}

func (d *Debouncer) fire(childID string) {
	d.mu.Lock()
	delete(d.timers, childID)
	d.mu.Unlock()
	if d.onIdle != nil {
		d.onIdle(childID)
	}
}
