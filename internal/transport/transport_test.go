package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandsync/config"
)

// fakeClock records requested sleeps instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
}

func (f *fakeClock) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration{}, f.sleeps...)
}

func newTestClient(t *testing.T, baseURL string, clock Clock) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Client.BaseURL = baseURL
	return New(&cfg.Client, clock, nil)
}

func TestSend_RetriesTransientFailuresWithBackoff(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "e1"})
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(t, server.URL, clock)

	pending := client.Send(context.Background(), http.MethodPost, "/events", map[string]string{"title": "LIVE"}, nil)
	body, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"e1"}`, string(body))
	assert.Equal(t, 3, calls)

	// base * 2^(attempt-1): 500ms before the second attempt, 1s before the third.
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, clock.recorded())
}

func TestSend_ClientErrorsAreTerminal(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "title: length must be between 1 and 100 after trimming (missing-field)"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newFakeClock())

	var failedEndpoint string
	client.Notifier().OnMutationFailed(func(endpoint string, err error) {
		failedEndpoint = endpoint
	})

	pending := client.Send(context.Background(), http.MethodPost, "/events", map[string]string{}, nil)
	_, err := pending.Wait(context.Background())

	var rejection *ServerRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, http.StatusBadRequest, rejection.Status)
	assert.Contains(t, rejection.Reason, "missing-field")
	assert.Equal(t, 1, calls, "4xx responses must never be retried")
	assert.Equal(t, "/events", failedEndpoint)
}

func TestSend_ExhaustedRetriesSurfaceTransportError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newFakeClock())

	var mu sync.Mutex
	var failures []string
	client.Notifier().OnMutationFailed(func(endpoint string, err error) {
		mu.Lock()
		failures = append(failures, endpoint)
		mu.Unlock()
	})

	pending := client.Send(context.Background(), http.MethodPost, "/availability", map[string]string{}, nil)
	_, err := pending.Wait(context.Background())

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 3, terr.Attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"/availability"}, failures)
}

func TestSend_MutationSucceededSignal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"e1"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newFakeClock())

	var succeeded []string
	client.Notifier().OnMutationSucceeded(func(endpoint string) {
		succeeded = append(succeeded, endpoint)
	})

	pending := client.Send(context.Background(), http.MethodPost, "/events", map[string]string{"title": "LIVE"}, nil)
	_, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/events"}, succeeded)
}

func TestOfflineQueue_DrainsInOrderExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		titles = append(titles, body.Title)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"x"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newFakeClock())
	client.SetOnline(false)

	first := client.Send(context.Background(), http.MethodPost, "/events", map[string]string{"title": "first"}, nil)
	second := client.Send(context.Background(), http.MethodPost, "/events", map[string]string{"title": "second"}, nil)
	require.Equal(t, 2, client.QueueLen())
	assert.False(t, first.Done())
	assert.False(t, second.Done())

	var restored bool
	client.Notifier().OnNetworkRestored(func() { restored = true })

	client.SetOnline(true)

	_, err := first.Wait(context.Background())
	require.NoError(t, err)
	_, err = second.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, titles)
	assert.Equal(t, 0, client.QueueLen())
	assert.True(t, restored, "network-restored signal fires after the drain")

	// Flipping online again without an offline transition must not resend.
	client.SetOnline(true)
	assert.Equal(t, []string{"first", "second"}, titles)
}

func TestGet_ReadsAreNeverQueued(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0", newFakeClock())
	client.SetOnline(false)

	var out []struct{}
	err := client.Get(context.Background(), "/events?start=a&end=b", &out)
	require.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, 0, client.QueueLen())
}

func TestGet_ServesCachedResponseWhileOffline(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[{"id":"e1"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newFakeClock())

	var out []map[string]string
	require.NoError(t, client.Get(context.Background(), "/events?x=1", &out))
	require.Len(t, out, 1)

	client.SetOnline(false)

	out = nil
	require.NoError(t, client.Get(context.Background(), "/events?x=1", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "e1", out[0]["id"])
	assert.Equal(t, 1, calls, "offline read must come from the cache")
}

func TestGet_FallsBackToCacheOnFailure(t *testing.T) {
	var fail bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id":"e1"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newFakeClock())

	var out []map[string]string
	require.NoError(t, client.Get(context.Background(), "/events?x=1", &out))

	fail = true
	out = nil
	require.NoError(t, client.Get(context.Background(), "/events?x=1", &out))
	require.Len(t, out, 1)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Equal(t, 400*time.Millisecond, p.Delay(4))
}

func TestPendingWait_HonorsContext(t *testing.T) {
	pending := newPending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pending.Wait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
