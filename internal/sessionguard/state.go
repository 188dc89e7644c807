// internal/sessionguard/state.go
package sessionguard

import (
	"sync"

	"github.com/nlortiz02/DataRush/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// State is the single authoritative holder of client session state: the
// session credential and the identity marker mirrored beside it. The two
// are only ever written together; ClearBoth is the sole removal path, so
// the pair cannot be cleared independently.
type State struct {
	mu       sync.Mutex
	token    string
	identity string
	watchers []chan struct{}
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{}
}

// Set stores a credential and its identity marker atomically.
func (s *State) Set(token, identity string) {
	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.mu.Unlock()
	s.notify()
}

// ClearBoth wipes the credential and the identity marker together.
func (s *State) ClearBoth() {
	s.mu.Lock()
	s.token = ""
	s.identity = ""
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current (token, identity) pair.
func (s *State) Snapshot() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.identity
}

// Changes returns a channel that receives a signal after every mutation.
// The analog of cross-tab storage events: consumers re-check on receipt.
func (s *State) Changes() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *State) notify() {
	s.mu.Lock()
	watchers := make([]chan struct{}, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()
	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default: // watcher already has a pending signal
		}
	}
}
