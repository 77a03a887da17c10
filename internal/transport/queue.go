package transport

import (
	"context"
	"encoding/json"
	"time"
)

// PendingRequest is a queued mutation awaiting network availability.
type PendingRequest struct {
	Endpoint   string
	Method     string
	Payload    any
	Headers    map[string]string
	EnqueuedAt time.Time
}

// Pending is the deferred result of a mutation. For online mutations it is
// resolved before Send returns; for queued mutations it resolves when the
// queue is drained.
type Pending struct {
	done   chan struct{}
	result json.RawMessage
	err    error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(result json.RawMessage, err error) {
	p.result = result
	p.err = err
	close(p.done)
}

// Done reports whether the result is already available without blocking.
func (p *Pending) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the mutation settles or ctx is cancelled.
func (p *Pending) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
