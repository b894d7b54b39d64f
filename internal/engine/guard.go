package engine

import "sync/atomic"

// Guard is the process-wide admission gate for generation sessions: a
// single compare-and-set slot plus a cooperative cancellation flag. It is
// an owned object passed into the engine rather than a package global, so
// tests can instantiate independent guards.
type Guard struct {
	slot      chan struct{} // size 1: the single in-flight generation
	cancelled atomic.Bool
}

// NewGuard creates an idle guard.
func NewGuard() *Guard {
	return &Guard{slot: make(chan struct{}, 1)}
}

// Begin admits one generation. Exactly one caller transitions the guard
// from idle to busy; everyone else gets ErrAlreadyGenerating immediately.
// No queueing, no blocking.
func (g *Guard) Begin() error {
	select {
	case g.slot <- struct{}{}:
		g.cancelled.Store(false)
		return nil
	default:
		return ErrAlreadyGenerating()
	}
}

// End releases the slot. It must run on every exit path of a session;
// calling it on an idle guard is a no-op so deferred release stays safe.
func (g *Guard) End() {
	select {
	case <-g.slot:
	default:
	}
}

// Cancel requests a cooperative stop of the running generation. It does not
// interrupt an in-flight native call; the session observes the flag at the
// top of its sampling loop, so latency-to-stop is bounded by one decode.
// Returns whether a generation was running when the request arrived.
func (g *Guard) Cancel() bool {
	busy := g.Busy()
	if busy {
		g.cancelled.Store(true)
	}
	return busy
}

// Cancelled reports whether a stop was requested for the current session.
func (g *Guard) Cancelled() bool { return g.cancelled.Load() }

// Busy reports whether a generation currently holds the slot.
func (g *Guard) Busy() bool { return len(g.slot) == 1 }
