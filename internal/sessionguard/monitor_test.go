// internal/sessionguard/monitor_test.go
package sessionguard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	calls atomic.Int32
	err   atomic.Value // error to return, nil means accept
}

func (f *fakeVerifier) Verify(ctx context.Context, token, username string) error {
	f.calls.Add(1)
	if v := f.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func TestMonitor_AcceptedTokenKeepsSession(t *testing.T) {
	state := NewState()
	state.Set("tokenA", "userA")
	verifier := &fakeVerifier{}

	var redirects atomic.Int32
	m := NewMonitor(state, verifier, 10*time.Millisecond, func() { redirects.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)

	waitFor(t, func() bool { return verifier.calls.Load() >= 3 })
	cancel()

	assert.Zero(t, redirects.Load())
	token, _ := state.Snapshot()
	assert.Equal(t, "tokenA", token)
}

func TestMonitor_RejectionClearsBothOnce(t *testing.T) {
	state := NewState()
	state.Set("tokenA", "userA")
	verifier := &fakeVerifier{}
	verifier.err.Store(errors.New("rejected"))

	var redirects atomic.Int32
	m := NewMonitor(state, verifier, 5*time.Millisecond, func() { redirects.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, func() bool { return redirects.Load() == 1 })
	token, identity := state.Snapshot()
	assert.Empty(t, token)
	assert.Empty(t, identity)

	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 1, redirects.Load(), "latch allows a single redirect")
}

func TestMonitor_MissingCredentialsSkipRemoteCall(t *testing.T) {
	state := NewState() // nothing stored
	verifier := &fakeVerifier{}

	var redirects atomic.Int32
	m := NewMonitor(state, verifier, 5*time.Millisecond, func() { redirects.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, func() bool { return redirects.Load() == 1 })
	assert.Zero(t, verifier.calls.Load(), "local presence check must not hit the network")
}

// blockingVerifier parks until its context dies, simulating a verify call
// in flight when the monitor shuts down.
type blockingVerifier struct {
	entered chan struct{}
}

func (b *blockingVerifier) Verify(ctx context.Context, token, username string) error {
	close(b.entered)
	<-ctx.Done()
	return ctx.Err()
}

func TestMonitor_ShutdownDuringVerifyKeepsSession(t *testing.T) {
	state := NewState()
	state.Set("tokenA", "userA")

	verifier := &blockingVerifier{entered: make(chan struct{})}
	var redirects atomic.Int32
	m := NewMonitor(state, verifier, time.Hour, func() { redirects.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	<-verifier.entered
	cancel() // teardown cuts the verify short
	<-done

	// Teardown is not a rejection: the session survives untouched.
	assert.Zero(t, redirects.Load())
	token, identity := state.Snapshot()
	assert.Equal(t, "tokenA", token)
	assert.Equal(t, "userA", identity)
}

func TestMonitor_FocusRegainedTriggersCheck(t *testing.T) {
	state := NewState()
	state.Set("tokenA", "userA")
	verifier := &fakeVerifier{}

	m := NewMonitor(state, verifier, time.Hour, nil) // interval out of the picture

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, func() bool { return verifier.calls.Load() == 1 }) // initial check
	m.FocusRegained()
	waitFor(t, func() bool { return verifier.calls.Load() == 2 })
}

func TestRemoteVerifier(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid token accepted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"valid":true}`))
		}))
		defer server.Close()

		v := &RemoteVerifier{Endpoint: server.URL}
		assert.NoError(v.Verify(context.Background(), "tokenA", "userA"))
	})

	t.Run("401 rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		v := &RemoteVerifier{Endpoint: server.URL}
		assert.Error(v.Verify(context.Background(), "tokenA", "userA"))
	})

	t.Run("network failure rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		v := &RemoteVerifier{Endpoint: server.URL}
		assert.Error(v.Verify(context.Background(), "tokenA", "userA"))
	})
}
