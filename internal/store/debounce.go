package store

import "time"

// DefaultSaveDelay is the trailing delay between the last change and a save.
const DefaultSaveDelay = 2 * time.Second

// Debouncer decides when a trailing save is due. It holds no timer: the
// owner calls Due from its frame loop, which keeps it deterministic and
// single-threaded.
type Debouncer struct {
	delay   time.Duration
	due     time.Time
	pending bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Debouncer{delay: delay}
}

// Mark records a change at now, pushing the deadline back.
func (d *Debouncer) Mark(now time.Time) {
	d.due = now.Add(d.delay)
	d.pending = true
}

// Due reports, once, that the deadline has passed since the last Mark.
func (d *Debouncer) Due(now time.Time) bool {
	if !d.pending || now.Before(d.due) {
		return false
	}
	d.pending = false
	return true
}

// Pending reports whether a change is waiting to be saved.
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Flush clears the pending change and reports whether there was one. Used
// on shutdown to save immediately.
func (d *Debouncer) Flush() bool {
	was := d.pending
	d.pending = false
	return was
}

// Cancel drops a pending change without saving.
func (d *Debouncer) Cancel() {
	d.pending = false
}
