package auth

import "sync/atomic"

// Tracker holds the loading/initialized flags of the subsystem.
// Initialized flips to true on the first completed load and never reverts.
type Tracker struct {
	inflight    atomic.Int32
	initialized atomic.Bool
}

// BeginLoad marks a load as in progress
func (t *Tracker) BeginLoad() {
	t.inflight.Add(1)
}

// EndLoad marks a load as finished, successful or not
func (t *Tracker) EndLoad() {
	t.initialized.Store(true)
	if t.inflight.Add(-1) < 0 {
		t.inflight.Store(0)
	}
}

// MarkInitialized sets the initialized flag without a load
func (t *Tracker) MarkInitialized() {
	t.initialized.Store(true)
}

// Loading reports whether any load is in progress
func (t *Tracker) Loading() bool {
	return t.inflight.Load() > 0
}

// Initialized reports whether the first load has completed
func (t *Tracker) Initialized() bool {
	return t.initialized.Load()
}
