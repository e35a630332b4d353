package calibration

import (
	"WoundMonitor/pkg/geometry"
	"sync"
)

// Tracker holds the most recent calibration of a single frame loop. A missed
// detection clears it immediately; there is no smoothing across frames.
type Tracker struct {
	mu              sync.RWMutex
	current         *State
	referenceSizeCm float64
	method          Method
}

func NewTracker(referenceSizeCm float64, method Method) *Tracker {
	return &Tracker{
		referenceSizeCm: referenceSizeCm,
		method:          method,
	}
}

// Observe replaces the state with the calibration of quad, or clears it when
// quad is nil or degenerate.
func (t *Tracker) Observe(quad *geometry.QuadCorners) *State {
	next := CalibrateWith(quad, t.referenceSizeCm, t.method)

	t.mu.Lock()
	t.current = next
	t.mu.Unlock()

	return next
}

func (t *Tracker) Current() *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	t.current = nil
	t.mu.Unlock()
}
