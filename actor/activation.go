package actor

import (
	"sync"
	"time"
)

// activation is the placement of one actor in this process. Turns are
// granted through a FIFO ticket queue; a ticket from the causal chain that
// already owns the turn is granted immediately (re-entrant call).
type activation struct {
	ref Ref

	mtx      sync.Mutex
	owner    string
	depth    int
	queue    []*ticket
	lastUsed time.Time

	// Only touched by the goroutine holding the turn.
	inst    instance
	removed bool
}

type ticket struct {
	chain string
	ready chan struct{}
}

func newActivation(ref Ref) *activation {
	return &activation{ref: ref, lastUsed: time.Now()}
}

// enqueueLocked places a ticket for chain. The caller holds a.mtx.
func (a *activation) enqueueLocked(chain string) *ticket {
	t := &ticket{chain: chain, ready: make(chan struct{})}
	switch {
	case a.owner == "" && len(a.queue) == 0:
		a.owner, a.depth = chain, 1
		close(t.ready)
	case a.owner == chain:
		a.depth++
		close(t.ready)
	default:
		a.queue = append(a.queue, t)
	}
	return t
}

// release ends the current (possibly nested) turn and hands the actor to
// the next queued ticket.
func (a *activation) release() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.depth--
	if a.depth > 0 {
		return
	}
	a.owner = ""
	a.lastUsed = time.Now()
	if len(a.queue) == 0 {
		return
	}
	next := a.queue[0]
	a.queue[0] = nil
	a.queue = a.queue[1:]
	a.owner, a.depth = next.chain, 1
	close(next.ready)
}

// idleLocked reports whether nobody holds or waits for the turn.
func (a *activation) idleLocked() bool {
	return a.owner == "" && len(a.queue) == 0
}
