// Package transport executes single logical requests reliably over an
// unreliable link: bounded per-attempt timeouts, retry with exponential
// backoff, and FIFO queueing of mutations while offline.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"bandsync/config"
)

// Client performs HTTP requests against the schedule API.
type Client struct {
	baseURL  string
	http     *http.Client
	policy   RetryPolicy
	clock    Clock
	cache    *cache.Cache
	cacheTTL time.Duration
	notifier Notifier
	logger   *log.Logger

	mu     sync.Mutex
	online bool
	queue  []*queuedMutation
}

type queuedMutation struct {
	req     PendingRequest
	pending *Pending
}

// New creates a transport client. If clock is nil the system clock is used;
// if logger is nil a default logger writing to stderr is used.
func New(cfg *config.ClientConfig, clock Clock, logger *log.Logger) *Client {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[transport] ", log.LstdFlags)
	}
	policy := RetryPolicy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.BackoffBase}
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		policy:   policy,
		clock:    clock,
		cache:    cache.New(cfg.ReadCacheTTL, 2*cfg.ReadCacheTTL),
		cacheTTL: cfg.ReadCacheTTL,
		logger:   logger,
		online:   true,
	}
}

// Notifier exposes the transport's signal registration point.
func (c *Client) Notifier() *Notifier { return &c.notifier }

// Online reports whether the transport currently attempts the network.
func (c *Client) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// SetOnline flips the connectivity flag. Transitioning to online drains the
// offline queue in enqueue order and then emits the network-restored signal.
func (c *Client) SetOnline(online bool) {
	c.mu.Lock()
	was := c.online
	c.online = online
	c.mu.Unlock()

	if online && !was {
		c.drain()
		c.notifier.emitNetworkRestored()
	}
}

// QueueLen returns the number of mutations waiting for the network.
func (c *Client) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Get performs a read and decodes the JSON response into out. Reads are never
// queued: while offline, or when every attempt fails, the last cached
// response for the endpoint is served if one exists.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	if !c.Online() {
		if cached, found := c.cache.Get(endpoint); found {
			return json.Unmarshal(cached.([]byte), out)
		}
		return fmt.Errorf("read %s: %w", endpoint, ErrOffline)
	}

	body, err := c.sendWithRetry(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		if cached, found := c.cache.Get(endpoint); found {
			c.logger.Printf("read %s failed, serving cached response: %v", endpoint, err)
			return json.Unmarshal(cached.([]byte), out)
		}
		return err
	}

	c.cache.Set(endpoint, []byte(body), c.cacheTTL)
	return json.Unmarshal(body, out)
}

// Send performs a mutation. While online it settles before returning; while
// offline it enqueues the request and returns a Pending that resolves when
// the queue is later drained.
func (c *Client) Send(ctx context.Context, method, endpoint string, payload any, headers map[string]string) *Pending {
	pending := newPending()

	c.mu.Lock()
	if !c.online {
		c.queue = append(c.queue, &queuedMutation{
			req: PendingRequest{
				Endpoint:   endpoint,
				Method:     method,
				Payload:    payload,
				Headers:    headers,
				EnqueuedAt: c.clock.Now(),
			},
			pending: pending,
		})
		n := len(c.queue)
		c.mu.Unlock()
		c.logger.Printf("offline: queued %s %s (queue length %d)", method, endpoint, n)
		return pending
	}
	c.mu.Unlock()

	body, err := c.sendWithRetry(ctx, method, endpoint, payload, headers)
	c.settleMutation(endpoint, body, err, pending)
	return pending
}

// settleMutation resolves a pending mutation and emits the matching signal.
func (c *Client) settleMutation(endpoint string, body json.RawMessage, err error, pending *Pending) {
	pending.resolve(body, err)
	if err != nil {
		c.notifier.emitMutationFailed(endpoint, err)
		return
	}
	c.notifier.emitMutationSucceeded(endpoint)
}

// drain sends queued mutations strictly in enqueue order. Going offline again
// mid-drain leaves the remainder queued.
func (c *Client) drain() {
	for {
		c.mu.Lock()
		if !c.online || len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.logger.Printf("draining queued %s %s (enqueued %s)",
			next.req.Method, next.req.Endpoint, next.req.EnqueuedAt.Format(time.RFC3339))
		body, err := c.sendWithRetry(context.Background(), next.req.Method, next.req.Endpoint, next.req.Payload, next.req.Headers)
		c.settleMutation(next.req.Endpoint, body, err, next.pending)
	}
}

// sendWithRetry runs the bounded retry loop. Client errors (4xx) are terminal
// and surfaced immediately; transient failures back off exponentially.
func (c *Client) sendWithRetry(ctx context.Context, method, endpoint string, payload any, headers map[string]string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if delay := c.policy.Delay(attempt); delay > 0 {
			c.clock.Sleep(ctx, delay)
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		body, err := c.do(ctx, method, endpoint, payload, headers)
		if err == nil {
			return body, nil
		}

		var rejection *ServerRejection
		if errors.As(err, &rejection) {
			return nil, err
		}

		lastErr = err
		c.logger.Printf("attempt %d/%d for %s %s failed: %v", attempt, c.policy.MaxAttempts, method, endpoint, err)
	}
	return nil, &TransportError{Endpoint: endpoint, Attempts: c.policy.MaxAttempts, Err: lastErr}
}

// do performs one HTTP attempt.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any, headers map[string]string) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &ServerRejection{Status: resp.StatusCode, Reason: rejectionReason(body)}
	default:
		return nil, fmt.Errorf("received status code %d", resp.StatusCode)
	}
}

// rejectionReason extracts the server-provided error message from a 4xx body.
func rejectionReason(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return string(body)
}
