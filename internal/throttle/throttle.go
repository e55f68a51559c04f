// Package throttle provides a once-per-window gate for rate-limiting
// repeated emissions, typically error logs from a periodic cycle that can
// fail on every invocation.
package throttle

import (
	"sync/atomic"
	"time"
)

// Gate allows at most one emission per window. It is safe for concurrent
// use and wait-free: Allow is a load plus at most one compare-and-swap, so
// it is callable from latency-sensitive paths.
type Gate struct {
	window time.Duration
	last   atomic.Int64 // unix nanos of the last allowed emission, 0 = never
}

// NewGate creates a gate with the given window. A non-positive window
// allows every emission.
func NewGate(window time.Duration) *Gate {
	return &Gate{window: window}
}

// Allow reports whether an emission at instant now is within budget. The
// first call always succeeds. Under concurrent callers at the window
// boundary exactly one wins the slot.
func (g *Gate) Allow(now time.Time) bool {
	if g.window <= 0 {
		return true
	}

	n := now.UnixNano()
	last := g.last.Load()
	if last != 0 && n-last < int64(g.window) {
		return false
	}

	return g.last.CompareAndSwap(last, n)
}
