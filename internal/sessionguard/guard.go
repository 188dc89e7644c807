// internal/sessionguard/guard.go
package sessionguard

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCheckInterval matches the console's sub-second session poll.
const DefaultCheckInterval = 200 * time.Millisecond

// Guard continuously revalidates the presence and consistency of the
// session state. It invalidates (clears both pieces and fires the redirect
// callback once) when either piece disappears or changes relative to the
// last observed baseline.
type Guard struct {
	state        *State
	interval     time.Duration
	onInvalidate func()

	mu           sync.Mutex
	baseToken    string
	baseIdentity string
	seeded       bool
	redirected   bool // single-shot latch

	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewGuard creates a guard over state. onInvalidate is the forced-navigation
// hook; it fires at most once per guard lifetime.
func NewGuard(state *State, interval time.Duration, onInvalidate func()) *Guard {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Guard{
		state:        state,
		interval:     interval,
		onInvalidate: onInvalidate,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start seeds the baseline from the current state and launches the polling
// loop. The loop also wakes on state-change notifications.
func (g *Guard) Start() {
	token, identity := g.state.Snapshot()
	if token != "" && identity != "" {
		g.mu.Lock()
		g.baseToken = token
		g.baseIdentity = identity
		g.seeded = true
		g.mu.Unlock()
	}

	changes := g.state.Changes()
	g.started.Store(true)
	go func() {
		defer close(g.done)
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()

		g.Check()
		for {
			select {
			case <-g.stop:
				return
			case <-ticker.C:
				g.Check()
			case <-changes:
				g.Check()
			}
		}
	}()
}

// Stop tears the guard down and waits for the loop to exit. Idempotent, and
// a no-op wait when Start was never called.
func (g *Guard) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	if g.started.Load() {
		<-g.done
	}
}

// Check runs one pass of the invalidation decision. Exported so callers
// (and tests) can force a check outside the polling schedule.
func (g *Guard) Check() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.redirected {
		return
	}

	token, identity := g.state.Snapshot()

	// Either piece missing: wipe both and force re-authentication.
	if token == "" || identity == "" {
		g.invalidateLocked("session credential or identity marker missing")
		return
	}

	// First observation seeds the baseline rather than invalidating.
	if !g.seeded {
		g.baseToken = token
		g.baseIdentity = identity
		g.seeded = true
		return
	}

	if identity != g.baseIdentity {
		g.invalidateLocked("identity marker changed")
		return
	}
	if token != g.baseToken {
		g.invalidateLocked("session credential changed")
		return
	}

	g.baseToken = token
	g.baseIdentity = identity
}

// invalidateLocked clears the session and fires the redirect exactly once.
// Caller holds g.mu.
func (g *Guard) invalidateLocked(reason string) {
	customLog.Printf("SessionGuard: invalidating session: %s", reason)
	g.redirected = true
	g.state.ClearBoth()
	if g.onInvalidate != nil {
		g.onInvalidate()
	}
}

// Invalidated reports whether the guard has already forced a redirect.
func (g *Guard) Invalidated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.redirected
}
