// internal/sessionguard/monitor.go
package sessionguard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultVerifyInterval matches the console's periodic remote re-validation.
const DefaultVerifyInterval = 5 * time.Minute

// verifyTimeout bounds each remote call so a stalled verify endpoint cannot
// wedge the monitor loop past its next scheduled check.
const verifyTimeout = 10 * time.Second

// Verifier asks the token issuer whether a credential still corresponds to
// an identity.
type Verifier interface {
	Verify(ctx context.Context, token, username string) error
}

// Monitor is the stronger guard variant: on an interval and on every
// focus-regain signal it re-validates the credential remotely, invalidating
// on network failure or explicit rejection. Local presence checks run
// before any network call, so a blocked verify never masks a wiped session.
type Monitor struct {
	state        *State
	verifier     Verifier
	interval     time.Duration
	onInvalidate func()

	focus chan struct{}

	mu         sync.Mutex
	redirected bool
}

// NewMonitor creates a monitor over state using the given verifier.
func NewMonitor(state *State, verifier Verifier, interval time.Duration, onInvalidate func()) *Monitor {
	if interval <= 0 {
		interval = DefaultVerifyInterval
	}
	return &Monitor{
		state:        state,
		verifier:     verifier,
		interval:     interval,
		onInvalidate: onInvalidate,
		focus:        make(chan struct{}, 1),
	}
}

// FocusRegained schedules an immediate re-validation, as the console does
// when its window regains focus.
func (m *Monitor) FocusRegained() {
	select {
	case m.focus <- struct{}{}:
	default:
	}
}

// Run re-validates immediately, then on every interval tick and focus
// signal, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		case <-m.focus:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	m.mu.Lock()
	if m.redirected {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	token, identity := m.state.Snapshot()
	if token == "" || identity == "" {
		m.invalidate("credentials missing")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	if err := m.verifier.Verify(callCtx, token, identity); err != nil {
		// A verify cut short by the monitor's own shutdown is not a
		// rejection; leave the session alone.
		if ctx.Err() != nil {
			return
		}
		m.invalidate(fmt.Sprintf("remote verification failed: %v", err))
	}
}

func (m *Monitor) invalidate(reason string) {
	m.mu.Lock()
	if m.redirected {
		m.mu.Unlock()
		return
	}
	m.redirected = true
	m.mu.Unlock()

	customLog.Printf("SessionMonitor: invalidating session: %s", reason)
	m.state.ClearBoth()
	if m.onInvalidate != nil {
		m.onInvalidate()
	}
}

// RemoteVerifier calls the backend's verify-token endpoint.
type RemoteVerifier struct {
	Endpoint string // e.g. http://host:8080/verify-token
	Client   *http.Client
}

type verifyPayload struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type verifyResult struct {
	Valid bool `json:"valid"`
}

// Verify posts {token, username} and treats anything but 200/valid:true as
// a rejection.
func (v *RemoteVerifier) Verify(ctx context.Context, token, username string) error {
	body, err := json.Marshal(verifyPayload{Token: token, Username: username})
	if err != nil {
		return fmt.Errorf("failed to encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("verify request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("verify endpoint rejected token: status %d", res.StatusCode)
	}
	var result verifyResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode verify response: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("verify endpoint marked token invalid")
	}
	return nil
}
